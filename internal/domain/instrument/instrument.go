// Package instrument defines the level-specific evaluation instruments:
// weighted dimensions of scale items, scored independently for performance
// and potential. Instruments are data; no code path special-cases a level.
package instrument

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/appraisal/internal/domain/model"
)

// Default rating scale bounds.
const (
	DefaultScaleMin = 1
	DefaultScaleMax = 5
)

// Scale is the discrete rating range of an instrument.
type Scale struct {
	Min int `json:"min" koanf:"min"`
	Max int `json:"max" koanf:"max"`
}

// Contains reports whether v is a valid rating.
func (s Scale) Contains(v int) bool { return v >= s.Min && v <= s.Max }

// Item is one rated statement.
type Item struct {
	ID    string `json:"id" koanf:"id"`
	Order int    `json:"order" koanf:"order"`
	Text  string `json:"text" koanf:"text"`
}

// Dimension is a weighted competency area.
type Dimension struct {
	ID          string  `json:"id" koanf:"id"`
	Name        string  `json:"name" koanf:"name"`
	Description string  `json:"description,omitempty" koanf:"description"`
	Weight      float64 `json:"weight" koanf:"weight"`
	Items       []Item  `json:"items" koanf:"items"`
}

// Instrument is the definition used for one job level.
type Instrument struct {
	ID               string                  `json:"id" koanf:"id"`
	Level            string                  `json:"level" koanf:"level"`
	Scale            Scale                   `json:"scale" koanf:"scale"`
	Performance      []Dimension             `json:"performance" koanf:"performance"`
	Potential        []Dimension             `json:"potential,omitempty" koanf:"potential"`
	EvaluatorWeights *model.EvaluatorWeights `json:"evaluator_weights,omitempty" koanf:"evaluator_weights"`
}

// Dimensions returns the dimension set for a half.
func (in Instrument) Dimensions(h model.Half) []Dimension {
	if h == model.HalfPotential {
		return in.Potential
	}
	return in.Performance
}

// HasPotential reports whether the instrument scores potential at all.
func (in Instrument) HasPotential() bool { return len(in.Potential) > 0 }

// Weights returns the instrument override, or fallback when none is set.
func (in Instrument) Weights(fallback model.EvaluatorWeights) model.EvaluatorWeights {
	if in.EvaluatorWeights != nil {
		return *in.EvaluatorWeights
	}
	return fallback
}

// HasItem reports whether id belongs to any dimension.
func (in Instrument) HasItem(id string) bool {
	for _, h := range []model.Half{model.HalfPerformance, model.HalfPotential} {
		for _, d := range in.Dimensions(h) {
			for _, it := range d.Items {
				if it.ID == id {
					return true
				}
			}
		}
	}
	return false
}

// ItemCount returns the number of items across both halves.
func (in Instrument) ItemCount() int {
	n := 0
	for _, d := range in.Performance {
		n += len(d.Items)
	}
	for _, d := range in.Potential {
		n += len(d.Items)
	}
	return n
}

// normalize fills the default scale and orders items. It returns a copy.
func (in Instrument) normalize() Instrument {
	out := in
	if out.Scale == (Scale{}) {
		out.Scale = Scale{Min: DefaultScaleMin, Max: DefaultScaleMax}
	}
	out.Performance = normalizeDimensions(in.Performance)
	out.Potential = normalizeDimensions(in.Potential)
	if in.EvaluatorWeights != nil {
		w := *in.EvaluatorWeights
		out.EvaluatorWeights = &w
	}
	return out
}

func normalizeDimensions(dims []Dimension) []Dimension {
	if dims == nil {
		return nil
	}
	out := make([]Dimension, len(dims))
	for i, d := range dims {
		d.Items = append([]Item(nil), d.Items...)
		sort.SliceStable(d.Items, func(a, b int) bool { return d.Items[a].Order < d.Items[b].Order })
		out[i] = d
	}
	return out
}

// Validate checks the structural and weight invariants. Weight faults wrap
// model.ErrInconsistentWeights; all others wrap ErrInvalidInstrument.
func (in Instrument) Validate() error {
	if strings.TrimSpace(in.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidInstrument)
	}
	if strings.TrimSpace(in.Level) == "" {
		return fmt.Errorf("%w: instrument %s has no level", ErrInvalidInstrument, in.ID)
	}
	if in.Scale.Min >= in.Scale.Max {
		return fmt.Errorf("%w: instrument %s scale [%d,%d] is empty", ErrInvalidInstrument, in.ID, in.Scale.Min, in.Scale.Max)
	}
	if len(in.Performance) == 0 {
		return fmt.Errorf("%w: instrument %s has no performance dimensions", ErrInvalidInstrument, in.ID)
	}

	dimIDs := make(map[string]bool)
	itemIDs := make(map[string]bool)
	for _, h := range []model.Half{model.HalfPerformance, model.HalfPotential} {
		dims := in.Dimensions(h)
		if len(dims) == 0 {
			continue
		}
		total := 0.0
		for _, d := range dims {
			if err := validateDimension(in.ID, d, dimIDs, itemIDs); err != nil {
				return err
			}
			total += d.Weight
		}
		if !model.SumsToOne(total) {
			return fmt.Errorf("%w: instrument %s %s dimension weights sum to %.6f, want 1.0",
				model.ErrInconsistentWeights, in.ID, h, total)
		}
	}

	if in.EvaluatorWeights != nil {
		if err := in.EvaluatorWeights.Validate(); err != nil {
			return fmt.Errorf("instrument %s: %w", in.ID, err)
		}
	}
	return nil
}

func validateDimension(instrumentID string, d Dimension, dimIDs, itemIDs map[string]bool) error {
	switch {
	case strings.TrimSpace(d.ID) == "":
		return fmt.Errorf("%w: instrument %s has a dimension without id", ErrInvalidInstrument, instrumentID)
	case dimIDs[d.ID]:
		return fmt.Errorf("%w: instrument %s repeats dimension %s", ErrInvalidInstrument, instrumentID, d.ID)
	case len(d.Items) == 0:
		return fmt.Errorf("%w: dimension %s has no items", ErrInvalidInstrument, d.ID)
	case d.Weight < 0 || d.Weight > 1 || math.IsNaN(d.Weight):
		return fmt.Errorf("%w: dimension %s weight %v outside [0,1]", model.ErrInconsistentWeights, d.ID, d.Weight)
	}
	dimIDs[d.ID] = true
	for _, it := range d.Items {
		if strings.TrimSpace(it.ID) == "" {
			return fmt.Errorf("%w: dimension %s has an item without id", ErrInvalidInstrument, d.ID)
		}
		if itemIDs[it.ID] {
			return fmt.Errorf("%w: item %s appears more than once", ErrInvalidInstrument, it.ID)
		}
		itemIDs[it.ID] = true
	}
	return nil
}
