package outs

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"alertBot/internal/domain"
	"alertBot/internal/infrastructure/metrics"
)

type HistoryRecorder interface {
	Record(ctx context.Context, ev domain.Event, out domain.Outcome) error
}

// CounterObserver recibe cada snapshot de contadores en el goroutine del
// consumidor, p. ej. la vista que sirve /api/rules.
type CounterObserver interface {
	ObserveCounters(snapshot map[string]int64)
}

// Applier aplica los efectos de un Outcome sobre los colaboradores: chat,
// overlay y persistencia. Ninguna llamada bloquea al consumidor de eventos.
type Applier struct {
	chat     domain.ChatSender
	overlay  domain.OverlayPublisher
	counters domain.CounterRepository
	history  HistoryRecorder
	observer CounterObserver
	writer   *Writer
}

type Config struct {
	Chat     domain.ChatSender
	Overlay  domain.OverlayPublisher
	Counters domain.CounterRepository
	History  HistoryRecorder
	Observer CounterObserver
	Writer   *Writer
}

func NewApplier(cfg Config) *Applier {
	return &Applier{
		chat:     cfg.Chat,
		overlay:  cfg.Overlay,
		counters: cfg.Counters,
		history:  cfg.History,
		observer: cfg.Observer,
		writer:   cfg.Writer,
	}
}

func (a *Applier) Apply(ctx context.Context, out domain.Outcome) {
	if a == nil {
		return
	}
	for _, effect := range out.Effects {
		switch e := effect.(type) {
		case domain.ChatReply:
			metrics.EffectsEmitted.WithLabelValues("chat").Inc()
			a.say(ctx, e.Text)
		case domain.OverlayBroadcast:
			metrics.EffectsEmitted.WithLabelValues("overlay").Inc()
			if a.overlay != nil {
				a.overlay.PublishOverlay(e.Kind, e.Payload)
			}
		case domain.PersistCounters:
			metrics.EffectsEmitted.WithLabelValues("persist").Inc()
			if a.observer != nil {
				a.observer.ObserveCounters(maps.Clone(e.Snapshot))
			}
			a.persist(e.Snapshot)
		default:
			slog.Warn("outs: unknown effect", "effect", fmt.Sprintf("%T", effect))
		}
	}
}

// Record guarda la alerta en el historial de forma asíncrona.
func (a *Applier) Record(_ context.Context, ev domain.Event, out domain.Outcome) error {
	if a == nil || a.history == nil || len(out.Broadcasts()) == 0 {
		return nil
	}
	if a.writer == nil {
		return a.history.Record(context.Background(), ev, out)
	}
	a.writer.Enqueue("history", func(ctx context.Context) error {
		return a.history.Record(ctx, ev, out)
	})
	return nil
}

func (a *Applier) say(ctx context.Context, text string) {
	if a.chat == nil {
		return
	}
	if err := a.chat.SendMessage(ctx, text); err != nil {
		metrics.ChatSendFailures.Inc()
		slog.Warn("outs: chat send failed", "error", err)
	}
}

func (a *Applier) persist(snapshot map[string]int64) {
	if a.counters == nil {
		return
	}
	snapshot = maps.Clone(snapshot)
	save := func(ctx context.Context) error {
		return a.counters.SaveCounters(ctx, snapshot)
	}
	if a.writer == nil {
		if err := save(context.Background()); err != nil {
			slog.Error("outs: save counters failed", "error", err)
		}
		return
	}
	a.writer.Enqueue("counters", save)
}

// LogSender reemplaza al chat cuando no hay conexión con Twitch.
type LogSender struct{}

func (LogSender) SendMessage(_ context.Context, text string) error {
	slog.Info("chat: say", "text", text)
	return nil
}
