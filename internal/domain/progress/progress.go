// Package progress reports how much of an instrument a response set has
// answered. It gates submission and drives "what is left" guidance; it
// never touches scoring.
package progress

import (
	"github.com/okian/appraisal/internal/domain/instrument"
	"github.com/okian/appraisal/internal/domain/model"
)

// Dimension is the completion of one dimension.
type Dimension struct {
	DimensionID string     `json:"dimension_id"`
	Name        string     `json:"name"`
	Half        model.Half `json:"half"`
	Answered    int        `json:"answered"`
	Total       int        `json:"total"`
}

// Complete reports whether every item of the dimension is answered.
func (d Dimension) Complete() bool { return d.Answered >= d.Total }

// Report is the completion of a response set against an instrument.
type Report struct {
	Dimensions    []Dimension `json:"dimensions"`
	AnsweredItems int         `json:"answered_items"`
	TotalItems    int         `json:"total_items"`
	// Percentage is truncated to one decimal so an incomplete set never
	// shows 100.
	Percentage float64 `json:"percentage"`
	Done       bool    `json:"complete"`
}

// Complete reports whether every dimension is fully answered. 99% answered
// is not complete.
func (r Report) Complete() bool {
	for _, d := range r.Dimensions {
		if !d.Complete() {
			return false
		}
	}
	return true
}

// IncompleteDimensions lists the names of dimensions with unanswered items
// in instrument order.
func (r Report) IncompleteDimensions() []string {
	out := []string{}
	for _, d := range r.Dimensions {
		if !d.Complete() {
			out = append(out, d.Name)
		}
	}
	return out
}

// Check reports completion of ratings against the given halves of in. With
// no halves it checks every half the instrument has. Ratings for items the
// instrument does not contain are ignored.
func Check(ratings map[string]int, in instrument.Instrument, halves ...model.Half) Report {
	if len(halves) == 0 {
		halves = []model.Half{model.HalfPerformance}
		if in.HasPotential() {
			halves = append(halves, model.HalfPotential)
		}
	}
	r := Report{Dimensions: []Dimension{}}
	for _, h := range halves {
		for _, dim := range in.Dimensions(h) {
			d := Dimension{DimensionID: dim.ID, Name: dim.Name, Half: h, Total: len(dim.Items)}
			for _, it := range dim.Items {
				if _, ok := ratings[it.ID]; ok {
					d.Answered++
				}
			}
			r.AnsweredItems += d.Answered
			r.TotalItems += d.Total
			r.Dimensions = append(r.Dimensions, d)
		}
	}
	if r.TotalItems > 0 {
		r.Percentage = float64(r.AnsweredItems*1000/r.TotalItems) / 10
	}
	r.Done = r.Complete()
	return r
}

// CheckSet is Check over a response set; a nil set has answered nothing.
func CheckSet(rs *model.ResponseSet, in instrument.Instrument, halves ...model.Half) Report {
	if rs == nil {
		return Check(nil, in, halves...)
	}
	return Check(rs.Ratings, in, halves...)
}
