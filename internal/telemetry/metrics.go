package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ameko/fete/internal/domain"
	"github.com/ameko/fete/internal/event"
)

var (
	chatCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fete",
		Subsystem: "chat",
		Name:      "commands_total",
		Help:      "Recognized chat commands, by command.",
	}, []string{"command"})

	quizCompletions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fete",
		Subsystem: "chat",
		Name:      "quiz_completions_total",
		Help:      "Chat quiz conversations that reached the last question.",
	})

	wishesPosted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fete",
		Subsystem: "wish",
		Name:      "posted_total",
		Help:      "Wishes posted to the wall.",
	})
)

// ObserveBus feeds app-level counters from domain events.
func ObserveBus(b *event.Bus) {
	b.Subscribe(domain.EventNameChatCommand, func(ctx context.Context, e event.Event) error {
		chatCommands.WithLabelValues(e.(domain.EventChatCommand).Command).Inc()
		return nil
	})

	b.Subscribe(domain.EventNameQuizCompleted, func(ctx context.Context, e event.Event) error {
		quizCompletions.Inc()
		return nil
	})

	b.Subscribe(domain.EventNameWishAdded, func(ctx context.Context, e event.Event) error {
		wishesPosted.Inc()
		return nil
	})
}
