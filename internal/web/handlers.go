package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"storygraph/internal/analyze"
	"storygraph/internal/game"
	"storygraph/internal/session"
	"storygraph/internal/story"
	"storygraph/internal/validate"
)

type Server struct {
	Doc      *story.Document
	Store    session.Store[game.State]
	Roller   game.Roller
	Logger   *zap.Logger
	Metrics  *Metrics
	Gatherer prometheus.Gatherer

	validation validate.Report
	analysis   analyze.Report
}

const cookieName = "story_sid"

// NewServer validates and analyses doc once so the report endpoints are
// cheap. reg receives the play metrics; nil skips metrics.
func NewServer(doc *story.Document, store session.Store[game.State], logger *zap.Logger, reg *prometheus.Registry) (*Server, error) {
	analysis, err := analyze.Analyze(doc)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		Doc:        doc,
		Store:      store,
		Roller:     game.CryptoRoller{},
		Logger:     logger,
		validation: validate.Validate(doc),
		analysis:   analysis,
	}
	if reg != nil {
		s.Metrics = NewMetrics(reg)
		s.Gatherer = reg
	}
	return s, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/story", s.handleStory)
	mux.HandleFunc("GET /api/report", s.handleReport)

	mux.HandleFunc("POST /api/play", s.handleNewPlay)
	mux.HandleFunc("GET /api/play", s.handleGetPlay)
	mux.HandleFunc("POST /api/play/choice", s.handleChoice)
	mux.HandleFunc("GET /api/play/map.pdf", s.handleMap)

	if s.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}
	return requestLogger(s.Logger, mux)
}

func (s *Server) handleStory(w http.ResponseWriter, _ *http.Request) {
	out := StoryResponse{
		Title:       s.Doc.Title,
		Description: s.Doc.Description,
		StartNodeID: s.Doc.StartNodeID,
		Nodes:       s.Doc.Len(),
		Chapters:    []ChapterView{},
	}
	for _, ch := range s.Doc.Chapters() {
		out.Chapters = append(out.Chapters, ChapterView{Title: ch.Title, StartNodeID: ch.StartNodeID})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ReportResponse{Validation: s.validation, Analysis: s.analysis})
}

func (s *Server) sessionID(r *http.Request) string {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// choiceStatus maps traversal errors onto HTTP status codes.
func choiceStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrUnknownChoice), errors.Is(err, game.ErrOutcomeRequired):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrRequirementNotMet):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
