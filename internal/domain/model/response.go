// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the evaluator side of a response set.
type Role string

// Roles.
const (
	RoleSelf       Role = "self"
	RoleSupervisor Role = "supervisor"
)

// ParseRole parses "self" or "supervisor".
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleSelf:
		return RoleSelf, nil
	case RoleSupervisor:
		return RoleSupervisor, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Relationship qualifies a supervisor's tie to the subject. Higher ranks
// win consolidation ties.
type Relationship string

// Relationships.
const (
	RelationshipDirect    Relationship = "direct"
	RelationshipSecondary Relationship = "secondary"
)

// Rank orders relationships: direct > secondary > unspecified.
func (r Relationship) Rank() int {
	switch r {
	case RelationshipDirect:
		return 2
	case RelationshipSecondary:
		return 1
	default:
		return 0
	}
}

// ResponseKey identifies one response set. EvaluatorID is empty for the
// self-evaluation.
type ResponseKey struct {
	SubjectID   string `json:"subject_id"`
	PeriodID    string `json:"period_id"`
	Role        Role   `json:"role"`
	EvaluatorID string `json:"evaluator_id,omitempty"`
}

// Validate checks the key is addressable.
func (k ResponseKey) Validate() error {
	switch {
	case strings.TrimSpace(k.SubjectID) == "":
		return fmt.Errorf("%w: missing subject", ErrInvalidKey)
	case strings.TrimSpace(k.PeriodID) == "":
		return fmt.Errorf("%w: missing period", ErrInvalidKey)
	case k.Role == RoleSupervisor && strings.TrimSpace(k.EvaluatorID) == "":
		return fmt.Errorf("%w: supervisor response needs an evaluator", ErrInvalidKey)
	case k.Role == RoleSelf && k.EvaluatorID != "" && k.EvaluatorID != k.SubjectID:
		return fmt.Errorf("%w: self response evaluator must be the subject", ErrInvalidKey)
	case k.Role != RoleSelf && k.Role != RoleSupervisor:
		return fmt.Errorf("%w: %q", ErrUnknownRole, k.Role)
	}
	return nil
}

func (k ResponseKey) String() string {
	if k.Role == RoleSelf {
		return k.PeriodID + "/" + k.SubjectID + "/self"
	}
	return k.PeriodID + "/" + k.SubjectID + "/supervisor/" + k.EvaluatorID
}

// ResponseSet holds the ratings one actor gave one subject in one period.
// A missing rating means unanswered, never zero.
type ResponseSet struct {
	ResponseKey
	Relationship Relationship      `json:"relationship,omitempty"`
	Ratings      map[string]int    `json:"ratings"`
	Comments     map[string]string `json:"comments,omitempty"`
	Revision     int64             `json:"revision"`
	Submitted    bool              `json:"submitted"`
	SubmittedAt  time.Time         `json:"submitted_at,omitzero"`
	UpdatedAt    time.Time         `json:"updated_at,omitzero"`
}

// Rating returns the rating of an item and whether it was answered.
func (r *ResponseSet) Rating(itemID string) (int, bool) {
	if r == nil {
		return 0, false
	}
	v, ok := r.Ratings[itemID]
	return v, ok
}

// Values returns the ratings as float64 for aggregation. A nil set yields
// an empty map.
func (r *ResponseSet) Values() map[string]float64 {
	if r == nil {
		return map[string]float64{}
	}
	out := make(map[string]float64, len(r.Ratings))
	for id, v := range r.Ratings {
		out[id] = float64(v)
	}
	return out
}

// Clone returns a deep copy so callers can hold a stable snapshot.
func (r *ResponseSet) Clone() *ResponseSet {
	if r == nil {
		return nil
	}
	c := *r
	c.Ratings = make(map[string]int, len(r.Ratings))
	for k, v := range r.Ratings {
		c.Ratings[k] = v
	}
	if r.Comments != nil {
		c.Comments = make(map[string]string, len(r.Comments))
		for k, v := range r.Comments {
			c.Comments[k] = v
		}
	}
	return &c
}
