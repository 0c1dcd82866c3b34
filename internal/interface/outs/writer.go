package outs

import (
	"context"
	"log/slog"
	"time"

	"alertBot/internal/infrastructure/metrics"
)

const (
	defaultWriterBuffer = 64
	drainTimeout        = 5 * time.Second
)

type job struct {
	name string
	run  func(ctx context.Context) error
}

// Writer ejecuta escrituras de persistencia en segundo plano, una a la vez.
// Si la cola está llena la escritura se descarta: la siguiente mutación
// vuelve a escribir el snapshot completo.
type Writer struct {
	jobs chan job
}

func NewWriter(buffer int) *Writer {
	if buffer <= 0 {
		buffer = defaultWriterBuffer
	}
	return &Writer{jobs: make(chan job, buffer)}
}

func (w *Writer) Enqueue(name string, run func(ctx context.Context) error) bool {
	if w == nil || run == nil {
		return false
	}
	select {
	case w.jobs <- job{name: name, run: run}:
		return true
	default:
		metrics.PersistWrites.WithLabelValues("dropped").Inc()
		slog.Warn("outs: persistence queue full, dropping write", "job", name)
		return false
	}
}

// Run procesa la cola hasta que ctx termina y luego vacía lo pendiente.
func (w *Writer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case j := <-w.jobs:
			w.exec(ctx, j)
		}
	}
}

func (w *Writer) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case j := <-w.jobs:
			w.exec(ctx, j)
		default:
			return
		}
	}
}

func (w *Writer) exec(ctx context.Context, j job) {
	if err := j.run(ctx); err != nil {
		metrics.PersistWrites.WithLabelValues("error").Inc()
		slog.Error("outs: write failed", "job", j.name, "error", err)
		return
	}
	metrics.PersistWrites.WithLabelValues("ok").Inc()
}
