// Package ninebox classifies (performance, potential) percentage pairs into
// the 9-cell talent grid and carries the static metadata for each cell.
package ninebox

import (
	"fmt"
	"math"
	"strings"
)

// Tier boundaries on the percentage axis. Intervals are half-open:
// low [0,60), mid [60,85), high [85,100].
const (
	MidThreshold  = 60.0
	HighThreshold = 85.0
)

// Tier is one third of an axis.
type Tier int

// Tiers in ascending order.
const (
	Low Tier = iota
	Mid
	High
)

func (t Tier) String() string {
	switch t {
	case Low:
		return "low"
	case Mid:
		return "mid"
	case High:
		return "high"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// MarshalText renders the tier name.
func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText parses a tier name.
func (t *Tier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseTier parses "low", "mid" or "high" (case-insensitive).
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return Low, nil
	case "mid", "medium":
		return Mid, nil
	case "high":
		return High, nil
	}
	return Low, fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

// TierOf buckets a percentage. It is total: values below 0 are low, values
// above 100 are high and NaN is low.
func TierOf(pct float64) Tier {
	switch {
	case math.IsNaN(pct):
		return Low
	case pct < MidThreshold:
		return Low
	case pct < HighThreshold:
		return Mid
	default:
		return High
	}
}

// Key identifies a cell by its two tiers.
type Key struct {
	Performance Tier `json:"performance"`
	Potential   Tier `json:"potential"`
}

// String renders "<performance>-<potential>", e.g. "high-mid".
func (k Key) String() string {
	return k.Performance.String() + "-" + k.Potential.String()
}

// MarshalText renders the key as in String.
func (k Key) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText parses "<performance>-<potential>".
func (k *Key) UnmarshalText(b []byte) error {
	v, err := ParseKey(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ParseKey parses the form produced by Key.String.
func ParseKey(s string) (Key, error) {
	perf, pot, ok := strings.Cut(s, "-")
	if !ok {
		return Key{}, fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
	p, err := ParseTier(perf)
	if err != nil {
		return Key{}, err
	}
	q, err := ParseTier(pot)
	if err != nil {
		return Key{}, err
	}
	return Key{Performance: p, Potential: q}, nil
}

// Classify maps a performance percentage and an optional potential
// percentage to a cell. A nil or NaN potential yields ErrMissingPotential;
// such subjects must be left out of any grid view.
func Classify(performance float64, potential *float64) (Key, error) {
	if potential == nil || math.IsNaN(*potential) {
		return Key{}, ErrMissingPotential
	}
	return Key{Performance: TierOf(performance), Potential: TierOf(*potential)}, nil
}
