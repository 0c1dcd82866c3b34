package credentials

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultInterval es cada cuánto se valida el app token.
const DefaultInterval = time.Hour

type TokenAuthority interface {
	AcquireToken(ctx context.Context) error
	ValidateToken(ctx context.Context) (bool, error)
}

// TokenHook corre cada vez que se obtiene un token nuevo.
type TokenHook func(ctx context.Context) error

// Keeper mantiene vivo el app token: lo valida periódicamente y lo vuelve a
// pedir cuando Twitch lo rechaza.
type Keeper struct {
	authority TokenAuthority
	clock     clockwork.Clock
	interval  time.Duration

	hooksMu sync.RWMutex
	hooks   []TokenHook
}

func NewKeeper(authority TokenAuthority, clock clockwork.Clock, interval time.Duration) *Keeper {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Keeper{authority: authority, clock: clock, interval: interval}
}

func (k *Keeper) RegisterHook(h TokenHook) {
	if h == nil {
		return
	}
	k.hooksMu.Lock()
	defer k.hooksMu.Unlock()
	k.hooks = append(k.hooks, h)
}

func (k *Keeper) notifyHooks(ctx context.Context) {
	k.hooksMu.RLock()
	hooks := append([]TokenHook(nil), k.hooks...)
	k.hooksMu.RUnlock()
	for _, h := range hooks {
		if err := h(ctx); err != nil {
			slog.Warn("credentials: token hook", "error", err)
		}
	}
}

// Run obtiene el primer token y luego revisa cada intervalo hasta que se
// cancele ctx. Un fallo inicial se devuelve; los siguientes solo se loguean.
func (k *Keeper) Run(ctx context.Context) error {
	if err := k.Check(ctx); err != nil {
		return err
	}

	ticker := k.clock.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			if err := k.Check(ctx); err != nil {
				slog.Error("credentials: token check", "error", err)
			}
		}
	}
}

// Check valida el token actual y pide otro si hace falta.
func (k *Keeper) Check(ctx context.Context) error {
	valid, err := k.authority.ValidateToken(ctx)
	if err != nil {
		return fmt.Errorf("credentials: validate: %w", err)
	}
	if valid {
		return nil
	}

	if err := k.authority.AcquireToken(ctx); err != nil {
		return fmt.Errorf("credentials: acquire: %w", err)
	}
	k.notifyHooks(ctx)
	return nil
}
