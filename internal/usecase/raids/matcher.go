// Package raids elige el saludo para un raid entrante.
package raids

import (
	"math/rand/v2"

	"alertBot/internal/domain"
)

type GreetingSource interface {
	RaidOwner(username string) (*domain.Rule, bool)
	DefaultRaidGreetings() []*domain.Rule
}

type CooldownChecker interface {
	OnCooldown(rule *domain.Rule) bool
}

type Matcher struct {
	source   GreetingSource
	cooldown CooldownChecker
	rnd      *rand.Rand
}

// NewMatcher acepta rnd nil para usar la fuente global.
func NewMatcher(source GreetingSource, cooldown CooldownChecker, rnd *rand.Rand) *Matcher {
	return &Matcher{source: source, cooldown: cooldown, rnd: rnd}
}

// Match prefiere el saludo propio del raider sin mirar viewers ni cooldown;
// si no hay, elige al azar entre los saludos por defecto elegibles.
func (m *Matcher) Match(raider string, viewers int) *domain.Rule {
	if rule, ok := m.source.RaidOwner(raider); ok {
		return rule
	}

	var eligible []*domain.Rule
	for _, rule := range m.source.DefaultRaidGreetings() {
		if viewers <= rule.MinViewers {
			continue
		}
		if m.cooldown != nil && m.cooldown.OnCooldown(rule) {
			continue
		}
		eligible = append(eligible, rule)
	}
	if len(eligible) == 0 {
		return nil
	}
	return eligible[m.intN(len(eligible))]
}

func (m *Matcher) intN(n int) int {
	if m.rnd == nil {
		return rand.IntN(n)
	}
	return m.rnd.IntN(n)
}
