package api

import (
	"net/http"

	"github.com/okian/appraisal/internal/domain/model"
)

// ResponseHandler handles data entry, progress and submission.
type ResponseHandler struct {
	deps ResponseDependencies
}

// NewResponseHandler creates a new response handler.
func NewResponseHandler(deps ResponseDependencies) *ResponseHandler {
	return &ResponseHandler{deps: deps}
}

// responsesRequest mirrors the OpenAPI schema for PUT .../responses/{role}.
type responsesRequest struct {
	Ratings  map[string]int    `json:"ratings"`
	Comments map[string]string `json:"comments,omitempty"`
}

// submissionRequest mirrors the OpenAPI schema for POST .../submissions.
type submissionRequest struct {
	SubmissionID string `json:"submission_id"`
	Role         string `json:"role"`
	EvaluatorID  string `json:"evaluator_id,omitempty"`
}

// responseKey builds the key addressed by the request path and the
// evaluator query parameter.
func responseKey(r *http.Request) (model.ResponseKey, error) {
	role, err := model.ParseRole(r.PathValue("role"))
	if err != nil {
		return model.ResponseKey{}, err
	}
	return model.ResponseKey{
		SubjectID:   r.PathValue("subject"),
		PeriodID:    r.PathValue("period"),
		Role:        role,
		EvaluatorID: r.URL.Query().Get("evaluator"),
	}, nil
}

// HandlePutResponses handles PUT /periods/{period}/subjects/{subject}/responses/{role}.
func (h *ResponseHandler) HandlePutResponses(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_responses"
	key, err := responseKey(r)
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	var req responsesRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	saved, err := h.deps.SaveResponses(r.Context(), key, req.Ratings, req.Comments)
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// HandleGetResponses handles GET /periods/{period}/subjects/{subject}/responses/{role}.
func (h *ResponseHandler) HandleGetResponses(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_responses"
	key, err := responseKey(r)
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	rs, err := h.deps.Responses(r.Context(), key)
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

// HandleGetProgress handles GET /periods/{period}/subjects/{subject}/responses/{role}/progress.
func (h *ResponseHandler) HandleGetProgress(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_progress"
	key, err := responseKey(r)
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	rep, err := h.deps.Progress(r.Context(), key)
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HandlePostSubmission handles POST /periods/{period}/subjects/{subject}/submissions.
// A replayed submission id answers 200 with duplicate=true; a new one 202.
func (h *ResponseHandler) HandlePostSubmission(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_submission"
	var req submissionRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	key := model.ResponseKey{
		SubjectID:   r.PathValue("subject"),
		PeriodID:    r.PathValue("period"),
		Role:        role,
		EvaluatorID: req.EvaluatorID,
	}
	sub, err := h.deps.Submit(r.Context(), key, req.SubmissionID)
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	status := http.StatusAccepted
	if sub.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, sub)
}
