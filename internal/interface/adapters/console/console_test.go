package console

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertBot/internal/domain"
)

func TestStart_SubmitsNonEmptyLines(t *testing.T) {
	var got []domain.Event
	a := NewAdapter(strings.NewReader("!raid friend 10\n\n   \n!ping\n"), func(_ context.Context, ev domain.Event) error {
		got = append(got, ev)
		return nil
	})

	require.NoError(t, a.Start(t.Context()))
	require.Len(t, got, 2)

	first := got[0].(domain.ChatEvent)
	assert.Equal(t, domain.ConsoleActor, first.Actor)
	assert.Equal(t, "!raid friend 10", first.RawText)
	assert.Equal(t, "!ping", got[1].(domain.ChatEvent).RawText)
}

func TestStart_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	a := NewAdapter(blockingReader{}, func(context.Context, domain.Event) error { return nil })
	assert.ErrorIs(t, a.Start(ctx), context.Canceled)
}

type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) { select {} }
