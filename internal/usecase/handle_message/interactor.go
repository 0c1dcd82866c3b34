// Package handle_message es el consumidor único de eventos: los procesa en
// orden de llegada y aplica los efectos.
package handle_message

import (
	"context"
	"fmt"
	"log/slog"

	"alertBot/internal/domain"
	"alertBot/internal/infrastructure/metrics"
	"alertBot/internal/platform/crash"
)

const defaultQueueSize = 256

type EventHandler interface {
	Handle(ev domain.Event) domain.Outcome
}

type EffectSink interface {
	Apply(ctx context.Context, out domain.Outcome)
	Record(ctx context.Context, ev domain.Event, out domain.Outcome) error
}

type Options struct {
	QueueSize    int
	CrashLogPath string
}

type Interactor struct {
	engine   EventHandler
	sink     EffectSink
	queue    chan domain.Event
	crashLog string
}

func NewInteractor(engine EventHandler, sink EffectSink, opts Options) *Interactor {
	size := opts.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Interactor{
		engine:   engine,
		sink:     sink,
		queue:    make(chan domain.Event, size),
		crashLog: opts.CrashLogPath,
	}
}

// Submit encola un evento. Lo usan los adapters desde sus propias goroutines.
func (uc *Interactor) Submit(ctx context.Context, ev domain.Event) error {
	if ev == nil {
		return nil
	}
	select {
	case uc.queue <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (uc *Interactor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-uc.queue:
			uc.Handle(ctx, ev)
		}
	}
}

// Handle procesa un evento de forma síncrona. Un panic en las reglas se
// registra y no corta el loop.
func (uc *Interactor) Handle(ctx context.Context, ev domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			metrics.EventPanics.Inc()
			crash.Report(uc.crashLog, fmt.Sprintf("dispatch %s", ev.Kind()), r)
		}
	}()

	out := uc.engine.Handle(ev)
	if out.Empty() {
		return
	}
	uc.sink.Apply(ctx, out)
	if err := uc.sink.Record(ctx, ev, out); err != nil {
		slog.Warn("handle_message: record alert failed", "error", err)
	}
}
