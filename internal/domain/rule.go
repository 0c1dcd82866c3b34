package domain

import (
	"strings"
	"time"
)

type RuleKind string

const (
	RuleCommand      RuleKind = "command"
	RuleCounter      RuleKind = "counter"
	RuleRaidGreeting RuleKind = "raid"
)

// DefaultLifetimeSeconds se usa cuando la regla no define lifetime.
const DefaultLifetimeSeconds = 30

type Permissions struct {
	ModOnly    bool
	SubOnly    bool
	MinSubTier *int
}

type Cooldown struct {
	Seconds         *int
	DelaySeconds    int
	LifetimeSeconds int
}

// Lifetime devuelve cuánto dura la alerta en el overlay.
func (c Cooldown) Lifetime() int {
	if c.LifetimeSeconds > 0 {
		return c.LifetimeSeconds
	}
	return DefaultLifetimeSeconds
}

// Window is zero when the rule has no cooldown. A cooldown of 0 seconds
// counts as none, as in the legacy rule files.
func (c Cooldown) Window() time.Duration {
	if c.Seconds == nil || *c.Seconds <= 0 {
		return 0
	}
	total := c.Lifetime() + *c.Seconds + c.DelaySeconds
	return time.Duration(total) * time.Second
}

// Rule es la definición única para comandos, contadores y saludos de raid.
// El registro indexa el nombre y los alias apuntando al mismo *Rule.
type Rule struct {
	Kind    RuleKind
	Name    string
	Aliases []string

	Permissions Permissions
	Cooldown    Cooldown
	ExpiresAt   time.Time

	Message string
	Tag     string
	Type    string
	Brief   string
	Overlay map[string]any

	// contadores
	Value int64
	Tiny  int64

	// saludos de raid
	OwnerUsername      string
	IsDefaultCandidate bool
	MinViewers         int
	Invocable          bool

	Source string
}

// Keys devuelve nombre y alias normalizados, sin duplicados.
func (r *Rule) Keys() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(r.Aliases)+1)
	out := make([]string, 0, len(r.Aliases)+1)
	for _, key := range append([]string{r.Name}, r.Aliases...) {
		k := NormalizeKey(key)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
