package handle_message

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertBot/internal/domain"
)

type scriptedEngine struct {
	panicOn string
}

func (e scriptedEngine) Handle(ev domain.Event) domain.Outcome {
	chat, ok := ev.(domain.ChatEvent)
	if !ok {
		return domain.Outcome{}
	}
	if chat.RawText == e.panicOn {
		panic("rule exploded")
	}
	var out domain.Outcome
	out.Say(chat.RawText)
	return out
}

type recordingSink struct {
	mu       sync.Mutex
	said     []string
	recorded int
}

func (s *recordingSink) Apply(_ context.Context, out domain.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range out.Replies() {
		s.said = append(s.said, r.Text)
	}
}

func (s *recordingSink) Record(context.Context, domain.Event, domain.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorded++
	return nil
}

func (s *recordingSink) lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.said...)
}

func TestRun_ProcessesInArrivalOrder(t *testing.T) {
	sink := &recordingSink{}
	uc := NewInteractor(scriptedEngine{}, sink, Options{QueueSize: 8})

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go uc.Run(ctx)

	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, uc.Submit(ctx, domain.ChatEvent{RawText: text}))
	}
	assert.Eventually(t, func() bool { return len(sink.lines()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"one", "two", "three"}, sink.lines())
}

func TestHandle_RecoversFromPanic(t *testing.T) {
	sink := &recordingSink{}
	crashLog := filepath.Join(t.TempDir(), "error.log")
	uc := NewInteractor(scriptedEngine{panicOn: "boom"}, sink, Options{CrashLogPath: crashLog})

	assert.NotPanics(t, func() { uc.Handle(t.Context(), domain.ChatEvent{RawText: "boom"}) })
	uc.Handle(t.Context(), domain.ChatEvent{RawText: "after"})

	assert.Equal(t, []string{"after"}, sink.lines())
	assert.FileExists(t, crashLog)
}

func TestHandle_SkipsEmptyOutcomes(t *testing.T) {
	sink := &recordingSink{}
	uc := NewInteractor(scriptedEngine{}, sink, Options{})

	uc.Handle(t.Context(), domain.BitsEvent{Amount: 10})
	assert.Zero(t, sink.recorded)
}

func TestSubmit_HonoursContext(t *testing.T) {
	uc := NewInteractor(scriptedEngine{}, &recordingSink{}, Options{QueueSize: 1})
	require.NoError(t, uc.Submit(t.Context(), domain.ChatEvent{RawText: "fill"}))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	assert.ErrorIs(t, uc.Submit(ctx, domain.ChatEvent{RawText: "blocked"}), context.Canceled)
}
