package nowplaying

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"alertBot/internal/domain"
)

type OutcomeSink interface {
	Apply(ctx context.Context, out domain.Outcome)
}

type Poller struct {
	path     string
	interval time.Duration
	clock    clockwork.Clock
	tracker  *Tracker
	sink     OutcomeSink
}

func NewPoller(path string, interval time.Duration, clock clockwork.Clock, tracker *Tracker, sink OutcomeSink) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Poller{path: path, interval: interval, clock: clock, tracker: tracker, sink: sink}
}

func (p *Poller) Run(ctx context.Context) {
	if p == nil || p.path == "" {
		return
	}
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			p.Poll(ctx)
		}
	}
}

// Poll lee el archivo una vez. Que no exista no es un error.
func (p *Poller) Poll(ctx context.Context) {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("nowplaying: read failed", "path", p.path, "error", err)
		}
		return
	}
	out, err := p.tracker.Update(raw)
	if err != nil {
		slog.Warn("nowplaying: update failed", "error", err)
		return
	}
	if out.Empty() || p.sink == nil {
		return
	}
	p.sink.Apply(ctx, out)
}
