// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/appraisal/internal/adapters/repository"
	"github.com/okian/appraisal/internal/domain/instrument"
	"github.com/okian/appraisal/internal/domain/model"
	"github.com/okian/appraisal/internal/domain/progress"
	"github.com/okian/appraisal/internal/domain/types"
	"github.com/okian/appraisal/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	InstrumentDependencies
	SubjectDependencies
	ResponseDependencies
	ResultDependencies
	NineBoxDependencies
	LeaderboardDependencies
	RankDependencies
}

// InstrumentDependencies exposes the instrument catalog.
type InstrumentDependencies interface {
	Instrument(level string) (instrument.Instrument, error)
	Levels() []string
}

// SubjectDependencies manages evaluated subjects.
type SubjectDependencies interface {
	PutSubject(ctx context.Context, s model.Subject) error
	Subject(ctx context.Context, id string) (model.Subject, error)
	Subjects(ctx context.Context) []model.Subject
}

// ResponseDependencies handles data entry and submission.
type ResponseDependencies interface {
	SaveResponses(ctx context.Context, key model.ResponseKey, ratings map[string]int, comments map[string]string) (types.Saved, error)
	Responses(ctx context.Context, key model.ResponseKey) (*model.ResponseSet, error)
	Progress(ctx context.Context, key model.ResponseKey) (progress.Report, error)
	Submit(ctx context.Context, key model.ResponseKey, submissionID string) (types.Submission, error)
}

// ResultDependencies exposes computed results.
type ResultDependencies interface {
	Results(ctx context.Context, periodID, subjectID string) (repository.Results, error)
	Consolidated(ctx context.Context, periodID, subjectID string) (model.ConsolidatedResult, error)
	RecomputePeriod(ctx context.Context, periodID string) (int, error)
	Periods(ctx context.Context) []string
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = repository.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	instrumentHandler  *InstrumentHandler
	subjectHandler     *SubjectHandler
	responseHandler    *ResponseHandler
	resultHandler      *ResultHandler
	nineBoxHandler     *NineBoxHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		instrumentHandler:  NewInstrumentHandler(deps),
		subjectHandler:     NewSubjectHandler(deps),
		responseHandler:    NewResponseHandler(deps),
		resultHandler:      NewResultHandler(deps),
		nineBoxHandler:     NewNineBoxHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		rankHandler:        NewRankHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /instruments", MetricsMiddleware(s.instrumentHandler.HandleListLevels, "instruments"))
	mux.HandleFunc("GET /instruments/{level}", MetricsMiddleware(s.instrumentHandler.HandleGetInstrument, "instrument"))

	mux.HandleFunc("GET /subjects", MetricsMiddleware(s.subjectHandler.HandleListSubjects, "subjects"))
	mux.HandleFunc("PUT /subjects/{subject}", MetricsMiddleware(s.subjectHandler.HandlePutSubject, "subject"))
	mux.HandleFunc("GET /subjects/{subject}", MetricsMiddleware(s.subjectHandler.HandleGetSubject, "subject"))

	const subject = "/periods/{period}/subjects/{subject}"
	mux.HandleFunc("PUT "+subject+"/responses/{role}", MetricsMiddleware(s.responseHandler.HandlePutResponses, "responses"))
	mux.HandleFunc("GET "+subject+"/responses/{role}", MetricsMiddleware(s.responseHandler.HandleGetResponses, "responses"))
	mux.HandleFunc("GET "+subject+"/responses/{role}/progress", MetricsMiddleware(s.responseHandler.HandleGetProgress, "progress"))
	mux.HandleFunc("POST "+subject+"/submissions", MetricsMiddleware(s.responseHandler.HandlePostSubmission, "submissions"))
	mux.HandleFunc("GET "+subject+"/results", MetricsMiddleware(s.resultHandler.HandleGetResults, "results"))
	mux.HandleFunc("GET "+subject+"/consolidated", MetricsMiddleware(s.resultHandler.HandleGetConsolidated, "consolidated"))

	mux.HandleFunc("GET /periods", MetricsMiddleware(s.resultHandler.HandleListPeriods, "periods"))
	mux.HandleFunc("POST /periods/{period}/recompute", MetricsMiddleware(s.resultHandler.HandleRecompute, "recompute"))
	mux.HandleFunc("GET /periods/{period}/ninebox", MetricsMiddleware(s.nineBoxHandler.HandleGetGrid, "ninebox"))
	mux.HandleFunc("GET /periods/{period}/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /periods/{period}/leaderboard/{subject}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))

	mux.HandleFunc("GET /ninebox/cells", MetricsMiddleware(s.nineBoxHandler.HandleGetCells, "ninebox_cells"))
	mux.HandleFunc("GET /classify", MetricsMiddleware(s.nineBoxHandler.HandleClassify, "classify"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err to its status and writes it. Server errors are
// logged; client errors are only returned.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Get().Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}
