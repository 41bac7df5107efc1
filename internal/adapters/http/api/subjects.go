package api

import (
	"net/http"

	"github.com/okian/appraisal/internal/domain/model"
)

// SubjectHandler manages subjects and their supervisor assignments.
type SubjectHandler struct {
	deps SubjectDependencies
}

// NewSubjectHandler creates a new subject handler.
func NewSubjectHandler(deps SubjectDependencies) *SubjectHandler {
	return &SubjectHandler{deps: deps}
}

// subjectRequest mirrors the OpenAPI schema for PUT /subjects/{subject}.
type subjectRequest struct {
	Name        string             `json:"name"`
	Level       string             `json:"level"`
	Supervisors []model.Assignment `json:"supervisors"`
}

// HandlePutSubject handles PUT /subjects/{subject} requests.
func (h *SubjectHandler) HandlePutSubject(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_subject"
	var req subjectRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	sub := model.Subject{
		ID:          r.PathValue("subject"),
		Name:        req.Name,
		Level:       req.Level,
		Supervisors: req.Supervisors,
	}
	if err := h.deps.PutSubject(r.Context(), sub); err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// HandleGetSubject handles GET /subjects/{subject} requests.
func (h *SubjectHandler) HandleGetSubject(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_subject"
	sub, err := h.deps.Subject(r.Context(), r.PathValue("subject"))
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// HandleListSubjects handles GET /subjects requests.
func (h *SubjectHandler) HandleListSubjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]model.Subject{"subjects": h.deps.Subjects(r.Context())})
}
