package model

import (
	"fmt"
	"strings"
)

// Assignment attaches a supervisor to a subject.
type Assignment struct {
	EvaluatorID  string       `json:"evaluator_id"`
	Relationship Relationship `json:"relationship"`
}

// Subject is an evaluated employee. Supervisors are listed in assignment
// order; that order breaks the final consolidation tie.
type Subject struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Level       string       `json:"level"`
	Supervisors []Assignment `json:"supervisors"`
}

// Validate checks required fields and duplicate supervisors.
func (s Subject) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidSubject)
	}
	if strings.TrimSpace(s.Level) == "" {
		return fmt.Errorf("%w: missing level", ErrInvalidSubject)
	}
	seen := make(map[string]bool, len(s.Supervisors))
	for _, a := range s.Supervisors {
		switch {
		case strings.TrimSpace(a.EvaluatorID) == "":
			return fmt.Errorf("%w: supervisor without id", ErrInvalidSubject)
		case a.EvaluatorID == s.ID:
			return fmt.Errorf("%w: subject cannot supervise itself", ErrInvalidSubject)
		case seen[a.EvaluatorID]:
			return fmt.Errorf("%w: duplicate supervisor %q", ErrInvalidSubject, a.EvaluatorID)
		}
		seen[a.EvaluatorID] = true
	}
	return nil
}

// Assignment returns the assignment of evaluatorID, if any.
func (s Subject) Assignment(evaluatorID string) (Assignment, bool) {
	for _, a := range s.Supervisors {
		if a.EvaluatorID == evaluatorID {
			return a, true
		}
	}
	return Assignment{}, false
}
