package web

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"storygraph/internal/game"
	"storygraph/internal/session"
)

// Metrics counts play activity. A nil *Metrics records nothing.
type Metrics struct {
	sessionsStarted prometheus.Counter
	choicesApplied  *prometheus.CounterVec
	choicesRejected *prometheus.CounterVec
	endingsReached  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		sessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "story_sessions_started_total",
			Help: "Total number of playthroughs started",
		}),
		choicesApplied: f.NewCounterVec(prometheus.CounterOpts{
			Name: "story_choices_applied_total",
			Help: "Total number of choices applied, by skill check outcome",
		}, []string{"outcome"}),
		choicesRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "story_choices_rejected_total",
			Help: "Total number of choices rejected, by reason",
		}, []string{"reason"}),
		endingsReached: f.NewCounterVec(prometheus.CounterOpts{
			Name: "story_endings_reached_total",
			Help: "Total number of playthroughs that reached an ending, by node",
		}, []string{"node"}),
	}
}

func (m *Metrics) sessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

func (m *Metrics) choiceApplied(tr game.Transition) {
	if m == nil {
		return
	}
	m.choicesApplied.WithLabelValues(tr.Outcome.String()).Inc()
	if tr.Ended {
		m.endingsReached.WithLabelValues(tr.To).Inc()
	}
}

func (m *Metrics) choiceRejected(err error) {
	if m == nil {
		return
	}
	reason := "other"
	switch {
	case errors.Is(err, game.ErrUnknownChoice):
		reason = "unknown_choice"
	case errors.Is(err, game.ErrRequirementNotMet):
		reason = "requirement"
	case errors.Is(err, game.ErrDanglingTarget):
		reason = "dangling"
	case errors.Is(err, session.ErrNotFound):
		reason = "no_session"
	}
	m.choicesRejected.WithLabelValues(reason).Inc()
}
