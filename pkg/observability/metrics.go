package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pipeforge"

// Metrics holds the editor collectors.
type Metrics struct {
	FrameVisits *prometheus.CounterVec
	Submits     *prometheus.CounterVec
	Promotions  *prometheus.CounterVec
	StackDepth  *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		FrameVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frame_visits_total",
				Help:      "Total number of editing frames pushed, by component",
			},
			[]string{"component"},
		),
		Submits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submits_total",
				Help:      "Total number of form submissions, by kind and result",
			},
			[]string{"kind", "result"},
		),
		Promotions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "promotions_total",
				Help:      "Total number of executor promotions, by outcome",
			},
			[]string{"outcome"},
		),
		StackDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stack_depth",
				Help:      "Current navigation depth, by session",
			},
			[]string{"session_id"},
		),
	}
	for _, c := range []prometheus.Collector{m.FrameVisits, m.Submits, m.Promotions, m.StackDepth} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks records every event into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFrameEnter: func(_ context.Context, e *domain.FrameEvent) {
			m.FrameVisits.WithLabelValues(e.Component).Inc()
			m.StackDepth.WithLabelValues(e.SessionID).Set(float64(e.Depth))
		},
		OnFrameLeave: func(_ context.Context, e *domain.FrameEvent) {
			m.StackDepth.WithLabelValues(e.SessionID).Set(float64(e.Depth - 1))
		},
		OnSubmit: func(_ context.Context, e *domain.SubmitEvent) {
			m.Submits.WithLabelValues(string(e.Kind), result(e.Err)).Inc()
		},
		OnPromotion: func(_ context.Context, e *domain.PromotionEvent) {
			m.Promotions.WithLabelValues(e.Outcome).Inc()
		},
	}
}

// Forget drops the per-session series of a closed session.
func (m *Metrics) Forget(sessionID string) {
	m.StackDepth.DeleteLabelValues(sessionID)
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsValidationError(err):
		return "invalid"
	default:
		return "error"
	}
}

// LogHooks logs every event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFrameEnter: func(ctx context.Context, e *domain.FrameEvent) {
			logger.DebugContext(ctx, "frame_enter", "session_id", e.SessionID, "component", e.Component, "depth", e.Depth)
		},
		OnFrameLeave: func(ctx context.Context, e *domain.FrameEvent) {
			logger.DebugContext(ctx, "frame_leave", "session_id", e.SessionID, "component", e.Component, "depth", e.Depth)
		},
		OnSubmit: func(ctx context.Context, e *domain.SubmitEvent) {
			if e.Err != nil {
				logger.InfoContext(ctx, "submit_failed", "session_id", e.SessionID, "node_id", e.NodeID, "kind", e.Kind, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "submit", "session_id", e.SessionID, "node_id", e.NodeID, "kind", e.Kind)
		},
		OnPromotion: func(ctx context.Context, e *domain.PromotionEvent) {
			logger.InfoContext(ctx, "promotion", "session_id", e.SessionID, "name", e.Name, "outcome", e.Outcome)
		},
	}
}

// Chain fans every event out to each set of hooks in order. Nil callbacks
// are skipped.
func Chain(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFrameEnter: func(ctx context.Context, e *domain.FrameEvent) {
			for _, h := range hooks {
				if h.OnFrameEnter != nil {
					h.OnFrameEnter(ctx, e)
				}
			}
		},
		OnFrameLeave: func(ctx context.Context, e *domain.FrameEvent) {
			for _, h := range hooks {
				if h.OnFrameLeave != nil {
					h.OnFrameLeave(ctx, e)
				}
			}
		},
		OnSubmit: func(ctx context.Context, e *domain.SubmitEvent) {
			for _, h := range hooks {
				if h.OnSubmit != nil {
					h.OnSubmit(ctx, e)
				}
			}
		},
		OnPromotion: func(ctx context.Context, e *domain.PromotionEvent) {
			for _, h := range hooks {
				if h.OnPromotion != nil {
					h.OnPromotion(ctx, e)
				}
			}
		},
	}
}
