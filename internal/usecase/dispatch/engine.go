// Package dispatch resuelve cada evento contra el set de reglas y devuelve
// los efectos a aplicar. No hace I/O.
package dispatch

import (
	"log/slog"
	"strconv"
	"strings"

	"alertBot/internal/domain"
	"alertBot/internal/infrastructure/metrics"
	"alertBot/internal/usecase/counters"
	"alertBot/internal/usecase/notifications"
	"alertBot/internal/usecase/policy"
	"alertBot/internal/usecase/raids"
	"alertBot/internal/usecase/rules"
)

const (
	defaultRaider  = "raider"
	defaultViewers = 1
)

// Fallback es un comando integrado que se evalúa al final (p. ej. !playing).
type Fallback interface {
	Name() string
	Handle(inv domain.Invocation) (domain.Outcome, bool)
}

type Config struct {
	Registry   *rules.Registry
	Policy     *policy.Policy
	Counters   *counters.Store
	Raids      *raids.Matcher
	Classifier *notifications.Classifier
	Subs       *domain.NotificationSpec
	Fallbacks  []Fallback
}

type Engine struct {
	registry   *rules.Registry
	policy     *policy.Policy
	counters   *counters.Store
	raids      *raids.Matcher
	classifier *notifications.Classifier
	subs       *domain.NotificationSpec
	fallbacks  []Fallback
}

// NewEngine registra los meta-comandos (!set, !raid, !regulations) en el registro.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		registry:   cfg.Registry,
		policy:     cfg.Policy,
		counters:   cfg.Counters,
		raids:      cfg.Raids,
		classifier: cfg.Classifier,
		subs:       cfg.Subs,
		fallbacks:  cfg.Fallbacks,
	}
	e.registry.RegisterDynamic("!set", e.setCommand)
	e.registry.RegisterDynamic("!raid", e.raidCommand)
	e.registry.RegisterDynamic("!regulations", e.regulationsCommand)
	return e
}

func (e *Engine) Handle(ev domain.Event) domain.Outcome {
	var out domain.Outcome
	switch ev := ev.(type) {
	case domain.ChatEvent:
		out = e.handleChat(ev)
	case domain.BitsEvent:
		out = e.handleBits(ev)
	case domain.SubscriptionEvent:
		out = e.handleSubscription(ev)
	case domain.RaidEvent:
		out = e.handleRaid(ev.RaiderUsername, ev.ViewerCount)
	default:
		slog.Warn("dispatch: unknown event", "event", ev)
		return out
	}
	metrics.EventsHandled.WithLabelValues(string(ev.Kind())).Inc()
	return out
}

func (e *Engine) handleChat(ev domain.ChatEvent) domain.Outcome {
	parts := strings.Fields(ev.RawText)
	if len(parts) == 0 {
		return domain.Outcome{}
	}
	inv := domain.Invocation{
		Actor: ev.Actor,
		Key:   strings.ToLower(parts[0]),
		Args:  parts[1:],
	}

	if out, ok := e.commandStage(inv); ok {
		return out
	}
	if out, ok := e.counterStage(inv); ok {
		return out
	}
	for _, fb := range e.fallbacks {
		if out, ok := fb.Handle(inv); ok {
			slog.Debug("dispatch: fallback", "command", fb.Name(), "actor", inv.Actor.Username)
			return out
		}
	}
	return domain.Outcome{}
}

func (e *Engine) commandStage(inv domain.Invocation) (domain.Outcome, bool) {
	cmd, ok := e.registry.Command(inv.Key)
	if !ok {
		return domain.Outcome{}, false
	}

	switch c := cmd.(type) {
	case rules.DynamicCommand:
		if c.Handler == nil {
			return domain.Outcome{}, false
		}
		return c.Handler(inv)
	case rules.StaticCommand:
		rule := c.Rule
		slog.Info("dispatch: command", "actor", inv.Actor.Username, "command", rule.Name)
		if d := e.policy.Authorize(rule, inv.Actor); !d.Allowed {
			return domain.Outcome{}, false
		}
		var out domain.Outcome
		out.Say(render(rule.Message, map[string]string{"username": inv.Actor.Username}))
		out.Broadcast(domain.OverlayCommand, rulePayload(rule))
		return out, true
	}
	return domain.Outcome{}, false
}

func (e *Engine) counterStage(inv domain.Invocation) (domain.Outcome, bool) {
	rule, ok := e.registry.Counter(inv.Key)
	if !ok {
		return domain.Outcome{}, false
	}
	slog.Info("dispatch: counter", "actor", inv.Actor.Username, "counter", rule.Name)
	if d := e.policy.Authorize(rule, inv.Actor); !d.Allowed {
		return domain.Outcome{}, false
	}

	value := e.counters.Increment(rule)

	var out domain.Outcome
	out.Say(render(rule.Message, map[string]string{
		"value":    strconv.FormatInt(value, 10),
		"tiny":     strconv.FormatInt(rule.Tiny, 10),
		"username": inv.Actor.Username,
	}))
	out.Broadcast(domain.OverlayToast, counterPayload(rule))
	out.Persist(e.counters.Snapshot())
	return out, true
}

func (e *Engine) handleBits(ev domain.BitsEvent) domain.Outcome {
	spec, ok := e.classifier.Classify(ev.Amount)
	if !ok {
		return domain.Outcome{}
	}
	slog.Info("dispatch: bits", "actor", ev.Actor.Username, "amount", ev.Amount)
	var out domain.Outcome
	out.Broadcast(domain.OverlayCounter, notificationPayload(spec, ev.Actor.Username, ev.Amount))
	return out
}

func (e *Engine) handleSubscription(ev domain.SubscriptionEvent) domain.Outcome {
	if e.subs == nil {
		return domain.Outcome{}
	}
	months := ev.Months
	if months <= 0 {
		months = 1
	}
	subtitle := ev.Recipient
	if subtitle == "" {
		subtitle = ev.Actor.Username
	}
	if subtitle == "" {
		subtitle = "?"
	}
	slog.Info("dispatch: subscription", "type", ev.Type, "actor", ev.Actor.Username, "recipient", ev.Recipient, "months", months)

	payload := notificationPayload(*e.subs, subtitle, months)
	payload["tier"] = ev.Tier
	var out domain.Outcome
	out.Broadcast(domain.OverlayToast, payload)
	return out
}

func (e *Engine) handleRaid(raider string, viewers int) domain.Outcome {
	rule := e.raids.Match(raider, viewers)
	if rule == nil {
		slog.Info("dispatch: raid without greeting", "raider", raider, "viewers", viewers)
		return domain.Outcome{}
	}
	slog.Info("dispatch: raid", "raider", raider, "viewers", viewers, "greeting", rule.Name)
	if d := e.policy.Authorize(rule, domain.SystemActor); !d.Allowed {
		return domain.Outcome{}
	}

	count := strconv.Itoa(viewers)
	var out domain.Outcome
	out.Say(render(rule.Message, map[string]string{"username": raider, "viewers": count}))
	payload := rulePayload(rule)
	payload["username"] = raider
	payload["viewers"] = viewers
	out.Broadcast(domain.OverlayCommand, payload)
	return out
}

func (e *Engine) setCommand(inv domain.Invocation) (domain.Outcome, bool) {
	if !inv.Actor.IsModerator {
		slog.Debug("dispatch: !set rejected", "actor", inv.Actor.Username, "error", domain.ErrNotPrivileged)
		return domain.Outcome{}, true
	}
	if len(inv.Args) < 2 {
		return domain.Outcome{}, true
	}
	rule, err := e.counters.SetValue(inv.Args[0], inv.Args[1])
	if err != nil {
		slog.Info("dispatch: !set rejected", "actor", inv.Actor.Username, "error", err)
		return domain.Outcome{}, true
	}

	var out domain.Outcome
	out.Say("Set value of " + rule.Name + " to " + strconv.FormatInt(rule.Value, 10) + ".")
	out.Persist(e.counters.Snapshot())
	return out, true
}

func (e *Engine) raidCommand(inv domain.Invocation) (domain.Outcome, bool) {
	if !inv.Actor.IsModerator {
		slog.Debug("dispatch: !raid rejected", "actor", inv.Actor.Username, "error", domain.ErrNotPrivileged)
		return domain.Outcome{}, true
	}
	raider := defaultRaider
	if len(inv.Args) > 0 {
		raider = strings.ToLower(inv.Args[0])
	}
	viewers := defaultViewers
	if len(inv.Args) > 1 {
		if n, err := strconv.Atoi(inv.Args[1]); err == nil {
			viewers = n
		}
	}
	return e.handleRaid(raider, viewers), true
}

func (e *Engine) regulationsCommand(inv domain.Invocation) (domain.Outcome, bool) {
	if !inv.Actor.IsModerator {
		slog.Debug("dispatch: !regulations rejected", "actor", inv.Actor.Username, "error", domain.ErrNotPrivileged)
		return domain.Outcome{}, true
	}
	var out domain.Outcome
	for _, rule := range e.registry.Commands() {
		if rule.Type != "regulation" || rule.Brief == "" {
			continue
		}
		out.Say(rule.Brief)
	}
	return out, true
}
