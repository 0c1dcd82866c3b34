// Package counters mantiene los valores de los contadores en memoria.
// Sólo lo usa el consumidor único de eventos, así que no lleva locks.
package counters

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"alertBot/internal/domain"
)

var numericValue = regexp.MustCompile(`^[0-9]+$`)

type Lookup interface {
	Counter(key string) (*domain.Rule, bool)
	Counters() []*domain.Rule
}

type Store struct {
	lookup Lookup
}

func NewStore(lookup Lookup) *Store {
	return &Store{lookup: lookup}
}

// Increment suma uno al valor persistente y al de la sesión.
func (s *Store) Increment(rule *domain.Rule) int64 {
	rule.Value++
	rule.Tiny++
	return rule.Value
}

func (s *Store) SetValue(name, raw string) (*domain.Rule, error) {
	rule, ok := s.lookup.Counter(name)
	if !ok {
		return nil, fmt.Errorf("counters: set %q: %w", name, domain.ErrUnknownCounter)
	}
	if !numericValue.MatchString(raw) {
		return rule, fmt.Errorf("counters: set %q to %q: %w", name, raw, domain.ErrInvalidValue)
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return rule, fmt.Errorf("counters: set %q to %q: %w", name, raw, domain.ErrInvalidValue)
	}
	rule.Value = value
	return rule, nil
}

// Snapshot incluye todos los contadores registrados, por nombre primario.
func (s *Store) Snapshot() map[string]int64 {
	list := s.lookup.Counters()
	out := make(map[string]int64, len(list))
	for _, rule := range list {
		out[rule.Name] = rule.Value
	}
	return out
}

// Restore aplica un snapshot guardado. Acepta nombres o alias; las claves
// desconocidas se ignoran. Devuelve cuántos contadores se restauraron.
func (s *Store) Restore(snapshot map[string]int64) int {
	restored := 0
	for key, value := range snapshot {
		rule, ok := s.lookup.Counter(key)
		if !ok {
			slog.Debug("counters: ignoring unknown snapshot key", "key", key)
			continue
		}
		if value < 0 {
			slog.Warn("counters: ignoring negative snapshot value", "key", key, "value", value)
			continue
		}
		rule.Value = value
		restored++
	}
	return restored
}
