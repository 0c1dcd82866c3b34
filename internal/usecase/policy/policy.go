// Package policy decide si un actor puede disparar una regla ahora mismo.
package policy

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"alertBot/internal/domain"
	"alertBot/internal/infrastructure/metrics"
)

type Reason string

const (
	ReasonNotModerator  Reason = "not_moderator"
	ReasonNotSubscriber Reason = "not_subscriber"
	ReasonTierTooLow    Reason = "tier_too_low"
	ReasonCooldown      Reason = "cooldown"
	ReasonNoRule        Reason = "no_rule"
)

type Decision struct {
	Allowed bool
	Reason  Reason
}

type Policy struct {
	clock clockwork.Clock
}

func New(clock clockwork.Clock) *Policy {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Policy{clock: clock}
}

// Authorize aplica permisos y cooldown, en ese orden. Si pasa y la regla
// tiene cooldown, fija ExpiresAt = ahora + lifetime + cooldown + delay.
func (p *Policy) Authorize(rule *domain.Rule, actor domain.Actor) Decision {
	if rule == nil {
		return Decision{Reason: ReasonNoRule}
	}
	perms := rule.Permissions
	if perms.ModOnly && !actor.IsModerator {
		return deny(rule, actor, ReasonNotModerator)
	}
	if perms.SubOnly && !actor.IsSubscriber {
		return deny(rule, actor, ReasonNotSubscriber)
	}
	if perms.MinSubTier != nil && actor.SubscriptionTier < *perms.MinSubTier {
		return deny(rule, actor, ReasonTierTooLow)
	}

	now := p.clock.Now()
	if onCooldown(rule, now) {
		return deny(rule, actor, ReasonCooldown)
	}
	if window := rule.Cooldown.Window(); window > 0 {
		rule.ExpiresAt = now.Add(window)
	}
	return Decision{Allowed: true}
}

// OnCooldown no modifica la regla.
func (p *Policy) OnCooldown(rule *domain.Rule) bool {
	return onCooldown(rule, p.clock.Now())
}

func onCooldown(rule *domain.Rule, now time.Time) bool {
	return rule != nil && !rule.ExpiresAt.IsZero() && rule.ExpiresAt.After(now)
}

func deny(rule *domain.Rule, actor domain.Actor, reason Reason) Decision {
	slog.Debug("policy: rejected", "rule", rule.Name, "actor", actor.Username, "reason", reason)
	metrics.PolicyDenials.WithLabelValues(string(reason)).Inc()
	return Decision{Reason: reason}
}
