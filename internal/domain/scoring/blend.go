package scoring

import (
	"errors"
	"fmt"

	"github.com/okian/appraisal/internal/domain/instrument"
	"github.com/okian/appraisal/internal/domain/model"
	"github.com/okian/appraisal/internal/domain/ninebox"
)

// BlendItems blends ratings item by item: an item rated by both sides gets
// supervisor·ws + self·wself; an item rated by one side keeps that side's
// value. Nothing is imputed for items neither side rated.
func BlendItems(self, supervisor map[string]float64, w model.EvaluatorWeights) map[string]float64 {
	out := make(map[string]float64, len(self)+len(supervisor))
	for id, s := range self {
		out[id] = s
	}
	for id, v := range supervisor {
		if s, ok := self[id]; ok {
			out[id] = w.Supervisor*v + w.Self*s
			continue
		}
		out[id] = v
	}
	return out
}

// Blend is the outcome of blending two evaluator scores.
type Blend struct {
	Value             float64
	SelfPending       bool
	SupervisorPending bool
}

// BlendScores blends two already-computed percentages. A nil side is
// pending and the other side is used unblended. Both nil returns
// ErrInsufficientData.
func BlendScores(self, supervisor *float64, w model.EvaluatorWeights) (Blend, error) {
	switch {
	case self == nil && supervisor == nil:
		return Blend{SelfPending: true, SupervisorPending: true}, ErrInsufficientData
	case supervisor == nil:
		return Blend{Value: *self, SupervisorPending: true}, nil
	case self == nil:
		return Blend{Value: *supervisor, SelfPending: true}, nil
	}
	return Blend{Value: w.Supervisor**supervisor + w.Self**self}, nil
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithEvaluatorWeights sets the blend used when an instrument has no
// override of its own.
func WithEvaluatorWeights(w model.EvaluatorWeights) Option {
	return func(e *Engine) {
		e.weights = w
	}
}

// Engine evaluates response sets against instruments. The evaluator weights
// are passed in explicitly; an Engine holds no other state and is safe for
// concurrent use.
type Engine struct {
	weights model.EvaluatorWeights
}

// NewEngine creates an engine. It fails with model.ErrInconsistentWeights
// when the configured weights do not sum to 1.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{weights: model.DefaultEvaluatorWeights()}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.weights.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Weights returns the fallback evaluator weights.
func (e *Engine) Weights() model.EvaluatorWeights { return e.weights }

// Evaluate blends a self-evaluation with one supervisor evaluation. Either
// set may be nil (not yet submitted). The blend happens per item first and
// the blended items then go through the dimension aggregation and weighted
// composition. A side without any answered performance item is flagged as
// pending and the other side is used on its own. With no performance data
// on either side it returns ErrInsufficientData.
func (e *Engine) Evaluate(in instrument.Instrument, self, supervisor *model.ResponseSet) (model.FinalResult, error) {
	w := in.Weights(e.weights)
	selfVals, supVals := self.Values(), supervisor.Values()

	selfPct, _, selfErr := ScoreDimensions(in.Performance, selfVals, in.Scale)
	supPct, _, supErr := ScoreDimensions(in.Performance, supVals, in.Scale)
	if errors.Is(selfErr, ErrInsufficientData) && errors.Is(supErr, ErrInsufficientData) {
		return model.FinalResult{}, fmt.Errorf("instrument %s: %w", in.ID, ErrInsufficientData)
	}

	res := model.FinalResult{InstrumentID: in.ID}
	identify(&res, self, supervisor)

	// Only one side has performance data: leave the other side's ratings out
	// entirely so the result equals the available side's score.
	switch {
	case selfErr != nil:
		res.SelfPending = true
		selfVals = map[string]float64{}
	case supErr != nil:
		res.SupervisorPending = true
		supVals = map[string]float64{}
	}
	if !res.SelfPending {
		v := Round(selfPct)
		res.SelfScore = &v
	}
	if !res.SupervisorPending {
		v := Round(supPct)
		res.SupervisorScore = &v
	}

	blended := BlendItems(selfVals, supVals, w)

	perf, perfDims, err := ScoreDimensions(in.Performance, blended, in.Scale)
	if err != nil {
		return model.FinalResult{}, fmt.Errorf("instrument %s: %w", in.ID, err)
	}
	res.RawPerformance, res.Performance = perf, Round(perf)
	res.Dimensions = appendDimensions(nil, in.Performance, perfDims, model.HalfPerformance)

	if in.HasPotential() {
		pot, potDims, err := ScoreDimensions(in.Potential, blended, in.Scale)
		res.Dimensions = appendDimensions(res.Dimensions, in.Potential, potDims, model.HalfPotential)
		if err == nil {
			raw, v := pot, Round(pot)
			res.RawPotential, res.Potential = &raw, &v
		}
	}

	// Classify before rounding so 59.96 stays below the 60 boundary.
	if cell, err := ninebox.Classify(res.RawPerformance, res.RawPotential); err == nil {
		res.Cell = &cell
	}

	res.Items = itemScores(in, self, supervisor, selfVals, supVals, blended)
	return res, nil
}

func identify(res *model.FinalResult, self, supervisor *model.ResponseSet) {
	for _, rs := range []*model.ResponseSet{supervisor, self} {
		if rs == nil {
			continue
		}
		if res.SubjectID == "" {
			res.SubjectID = rs.SubjectID
			res.PeriodID = rs.PeriodID
		}
		if rs.Role == model.RoleSupervisor && res.EvaluatorID == "" {
			res.EvaluatorID = rs.EvaluatorID
			res.Relationship = rs.Relationship
		}
	}
}

func appendDimensions(dst []model.DimensionScore, dims []instrument.Dimension, results []DimensionResult, h model.Half) []model.DimensionScore {
	for i, d := range dims {
		r := results[i]
		dst = append(dst, model.DimensionScore{
			DimensionID: d.ID,
			Name:        d.Name,
			Half:        h,
			Weight:      d.Weight,
			Average:     r.Average,
			Percentage:  r.DisplayPercentage(),
			Answered:    r.Answered,
			Total:       r.Total,
			Scored:      r.Scored,
		})
	}
	return dst
}

// itemScores lists blended items in instrument order. selfVals and supVals
// are the values that actually entered the blend.
func itemScores(in instrument.Instrument, self, supervisor *model.ResponseSet, selfVals, supVals, blended map[string]float64) []model.ItemScore {
	var out []model.ItemScore
	for _, h := range []model.Half{model.HalfPerformance, model.HalfPotential} {
		for _, d := range in.Dimensions(h) {
			for _, it := range d.Items {
				v, ok := blended[it.ID]
				if !ok {
					continue
				}
				is := model.ItemScore{ItemID: it.ID, Blended: v}
				if _, used := selfVals[it.ID]; used {
					if r, ok := self.Rating(it.ID); ok {
						is.Self = &r
					}
				}
				if _, used := supVals[it.ID]; used {
					if r, ok := supervisor.Rating(it.ID); ok {
						is.Supervisor = &r
					}
				}
				out = append(out, is)
			}
		}
	}
	return out
}
