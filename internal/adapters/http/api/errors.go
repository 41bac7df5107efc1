package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/appraisal/internal/adapters/repository"
	service "github.com/okian/appraisal/internal/app"
	"github.com/okian/appraisal/internal/domain/consolidate"
	"github.com/okian/appraisal/internal/domain/instrument"
	"github.com/okian/appraisal/internal/domain/model"
	"github.com/okian/appraisal/internal/domain/ninebox"
	"github.com/okian/appraisal/internal/domain/scoring"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// Wrap prefixes err with the operation that failed.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// NewKind reports a failure of op that has no cause beyond its kind.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind reports a failure of op classified as kind and caused by err.
// Both stay reachable through errors.Is.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return NewKind(op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// classify maps an error to an HTTP status and a stable error code. Data
// that is not there yet is a 404 with code "not_available" rather than a
// zero score.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, scoring.ErrInsufficientData),
		errors.Is(err, consolidate.ErrEmptyConsolidationSet):
		return http.StatusNotFound, "not_available"
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, instrument.ErrUnknownLevel):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrSubmitted):
		return http.StatusConflict, "already_submitted"
	case errors.Is(err, service.ErrIncomplete):
		return http.StatusConflict, "incomplete"
	case errors.Is(err, service.ErrUnknownItem),
		errors.Is(err, service.ErrRatingOutOfScale),
		errors.Is(err, service.ErrNotAssigned),
		errors.Is(err, model.ErrInvalidKey),
		errors.Is(err, model.ErrUnknownRole),
		errors.Is(err, model.ErrInvalidSubject),
		errors.Is(err, ninebox.ErrMissingPotential),
		errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusUnprocessableEntity, "invalid"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
