package credentials

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthority struct {
	mu          sync.Mutex
	valid       bool
	validateErr error
	acquireErr  error
	validations int
	acquired    int
}

func (f *fakeAuthority) AcquireToken(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.acquireErr != nil {
		return f.acquireErr
	}
	f.acquired++
	f.valid = true
	return nil
}

func (f *fakeAuthority) ValidateToken(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validations++
	return f.valid, f.validateErr
}

func (f *fakeAuthority) expire() {
	f.mu.Lock()
	f.valid = false
	f.mu.Unlock()
}

func (f *fakeAuthority) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validations, f.acquired
}

func TestCheck_AcquiresWhenInvalid(t *testing.T) {
	auth := &fakeAuthority{}
	k := NewKeeper(auth, clockwork.NewFakeClock(), 0)

	hooks := 0
	k.RegisterHook(func(context.Context) error { hooks++; return nil })

	require.NoError(t, k.Check(t.Context()))
	require.NoError(t, k.Check(t.Context()))

	validations, acquired := auth.counts()
	assert.Equal(t, 2, validations)
	assert.Equal(t, 1, acquired)
	assert.Equal(t, 1, hooks)
}

func TestCheck_Errors(t *testing.T) {
	boom := errors.New("boom")

	k := NewKeeper(&fakeAuthority{validateErr: boom}, clockwork.NewFakeClock(), time.Minute)
	assert.ErrorIs(t, k.Check(t.Context()), boom)

	k = NewKeeper(&fakeAuthority{acquireErr: boom}, clockwork.NewFakeClock(), time.Minute)
	assert.ErrorIs(t, k.Check(t.Context()), boom)
}

func TestRun_RevalidatesEveryInterval(t *testing.T) {
	auth := &fakeAuthority{}
	clock := clockwork.NewFakeClock()
	k := NewKeeper(auth, clock, time.Hour)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- k.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	_, acquired := auth.counts()
	assert.Equal(t, 1, acquired)

	auth.expire()
	clock.Advance(time.Hour)

	assert.Eventually(t, func() bool {
		_, acquired := auth.counts()
		return acquired == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestRun_InitialFailure(t *testing.T) {
	k := NewKeeper(&fakeAuthority{acquireErr: errors.New("no creds")}, clockwork.NewFakeClock(), time.Hour)
	assert.Error(t, k.Run(t.Context()))
}
