package policy

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"

	"alertBot/internal/domain"
)

func intPtr(v int) *int { return &v }

var (
	viewer = domain.Actor{Username: "viewer"}
	mod    = domain.Actor{Username: "mod", IsModerator: true}
	tier1  = domain.Actor{Username: "sub1", IsSubscriber: true, SubscriptionTier: 1}
	tier3  = domain.Actor{Username: "sub3", IsSubscriber: true, SubscriptionTier: 3}
)

func TestAuthorize_ModOnlyDeniesRegardlessOfCooldown(t *testing.T) {
	p := New(clockwork.NewFakeClock())
	rule := &domain.Rule{Name: "!ban", Permissions: domain.Permissions{ModOnly: true}}

	assert.Equal(t, Decision{Reason: ReasonNotModerator}, p.Authorize(rule, viewer))
	assert.True(t, rule.ExpiresAt.IsZero())
	assert.True(t, p.Authorize(rule, mod).Allowed)
}

func TestAuthorize_SubOnly(t *testing.T) {
	p := New(clockwork.NewFakeClock())
	rule := &domain.Rule{Name: "!sub", Permissions: domain.Permissions{SubOnly: true}}

	assert.Equal(t, ReasonNotSubscriber, p.Authorize(rule, viewer).Reason)
	assert.Equal(t, ReasonNotSubscriber, p.Authorize(rule, mod).Reason)
	assert.True(t, p.Authorize(rule, tier1).Allowed)
}

func TestAuthorize_MinSubTierIsIndependentGate(t *testing.T) {
	p := New(clockwork.NewFakeClock())
	rule := &domain.Rule{Name: "!vip", Permissions: domain.Permissions{MinSubTier: intPtr(2)}}

	assert.Equal(t, ReasonTierTooLow, p.Authorize(rule, tier1).Reason)
	assert.Equal(t, ReasonTierTooLow, p.Authorize(rule, viewer).Reason)
	assert.True(t, p.Authorize(rule, tier3).Allowed)
}

func TestAuthorize_CooldownWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := New(clock)
	rule := &domain.Rule{
		Name:     "!hug",
		Cooldown: domain.Cooldown{Seconds: intPtr(10), DelaySeconds: 2, LifetimeSeconds: 5},
	}

	assert.True(t, p.Authorize(rule, viewer).Allowed)
	assert.Equal(t, clock.Now().Add(17*time.Second), rule.ExpiresAt)

	clock.Advance(16 * time.Second)
	assert.Equal(t, ReasonCooldown, p.Authorize(rule, viewer).Reason)
	assert.True(t, p.OnCooldown(rule))

	clock.Advance(time.Second + time.Millisecond)
	assert.False(t, p.OnCooldown(rule))
	assert.True(t, p.Authorize(rule, viewer).Allowed)
}

func TestAuthorize_DefaultLifetime(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := New(clock)
	rule := &domain.Rule{Name: "!x", Cooldown: domain.Cooldown{Seconds: intPtr(0)}}

	assert.True(t, p.Authorize(rule, viewer).Allowed)
	assert.Equal(t, clock.Now().Add(domain.DefaultLifetimeSeconds*time.Second), rule.ExpiresAt)
}

func TestAuthorize_NoCooldownNeverExpires(t *testing.T) {
	p := New(clockwork.NewFakeClock())
	rule := &domain.Rule{Name: "!spam"}

	for range 5 {
		assert.True(t, p.Authorize(rule, viewer).Allowed)
	}
	assert.True(t, rule.ExpiresAt.IsZero())
}

func TestAuthorize_CooldownCheckedAfterPermissions(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := New(clock)
	rule := &domain.Rule{
		Name:        "!mod",
		Permissions: domain.Permissions{ModOnly: true},
		Cooldown:    domain.Cooldown{Seconds: intPtr(60)},
	}
	assert.True(t, p.Authorize(rule, mod).Allowed)
	assert.Equal(t, ReasonNotModerator, p.Authorize(rule, viewer).Reason)
	assert.Equal(t, ReasonCooldown, p.Authorize(rule, mod).Reason)
}
