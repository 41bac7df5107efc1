package api

import "net/http"

// InstrumentHandler serves the instrument catalog.
type InstrumentHandler struct {
	deps InstrumentDependencies
}

// NewInstrumentHandler creates a new instrument handler.
func NewInstrumentHandler(deps InstrumentDependencies) *InstrumentHandler {
	return &InstrumentHandler{deps: deps}
}

// HandleListLevels handles GET /instruments requests.
func (h *InstrumentHandler) HandleListLevels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"levels": h.deps.Levels()})
}

// HandleGetInstrument handles GET /instruments/{level} requests.
func (h *InstrumentHandler) HandleGetInstrument(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_instrument"
	in, err := h.deps.Instrument(r.PathValue("level"))
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, in)
}
