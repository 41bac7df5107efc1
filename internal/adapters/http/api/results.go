package api

import "net/http"

// ResultHandler serves computed results.
type ResultHandler struct {
	deps ResultDependencies
}

// NewResultHandler creates a new result handler.
func NewResultHandler(deps ResultDependencies) *ResultHandler {
	return &ResultHandler{deps: deps}
}

// HandleGetResults handles GET /periods/{period}/subjects/{subject}/results.
func (h *ResultHandler) HandleGetResults(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_results"
	res, err := h.deps.Results(r.Context(), r.PathValue("period"), r.PathValue("subject"))
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleGetConsolidated handles GET /periods/{period}/subjects/{subject}/consolidated.
func (h *ResultHandler) HandleGetConsolidated(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_consolidated"
	c, err := h.deps.Consolidated(r.Context(), r.PathValue("period"), r.PathValue("subject"))
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type recomputeResponse struct {
	PeriodID string `json:"period_id"`
	Subjects int    `json:"subjects"`
}

// HandleRecompute handles POST /periods/{period}/recompute.
func (h *ResultHandler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	const op = "api.recompute"
	period := r.PathValue("period")
	n, err := h.deps.RecomputePeriod(r.Context(), period)
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, recomputeResponse{PeriodID: period, Subjects: n})
}

// HandleListPeriods handles GET /periods requests.
func (h *ResultHandler) HandleListPeriods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"periods": h.deps.Periods(r.Context())})
}
