package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/appraisal/internal/domain/ninebox"
	"github.com/okian/appraisal/internal/domain/types"
)

// NineBoxDependencies exposes the period grid.
type NineBoxDependencies interface {
	Grid(ctx context.Context, periodID string) *ninebox.Grid
}

// NineBoxHandler serves the talent grid and its reference data.
type NineBoxHandler struct {
	deps NineBoxDependencies
}

// NewNineBoxHandler creates a new nine-box handler.
func NewNineBoxHandler(deps NineBoxDependencies) *NineBoxHandler {
	return &NineBoxHandler{deps: deps}
}

// HandleGetGrid handles GET /periods/{period}/ninebox.
func (h *NineBoxHandler) HandleGetGrid(w http.ResponseWriter, r *http.Request) {
	period := r.PathValue("period")
	writeJSON(w, http.StatusOK, types.NewGridSummary(period, h.deps.Grid(r.Context(), period)))
}

// HandleGetCells handles GET /ninebox/cells.
func (h *NineBoxHandler) HandleGetCells(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ninebox.Cells())
}

// HandleClassify handles GET /classify?performance=P&potential=Q.
func (h *NineBoxHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	const op = "api.classify"
	q := r.URL.Query()
	perf, err := strconv.ParseFloat(q.Get("performance"), 64)
	if err != nil {
		writeFailure(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if !q.Has("potential") {
		writeFailure(w, r, Wrap(op, ninebox.ErrMissingPotential))
		return
	}
	pot, err := strconv.ParseFloat(q.Get("potential"), 64)
	if err != nil {
		writeFailure(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	c, err := types.Classify(perf, pot)
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}
