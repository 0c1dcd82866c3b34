package rules

import (
	"fmt"
	"log/slog"
	"sort"

	"alertBot/internal/domain"
)

type Registry struct {
	commands map[string]Command
	counters map[string]*domain.Rule
	raiders  map[string]*domain.Rule
	defaults []*domain.Rule

	all []*domain.Rule
}

func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		counters: make(map[string]*domain.Rule),
		raiders:  make(map[string]*domain.Rule),
	}
}

// Register indexa la regla según su tipo. Claves repetidas: gana la última.
func (r *Registry) Register(rule *domain.Rule) error {
	if rule == nil {
		return fmt.Errorf("rules: register: nil rule")
	}
	keys := rule.Keys()
	if len(keys) == 0 {
		return fmt.Errorf("rules: register %s: %w", rule.Kind, domain.ErrMalformedRule)
	}

	switch rule.Kind {
	case domain.RuleCommand:
		r.indexCommand(keys, StaticCommand{Rule: rule})
	case domain.RuleCounter:
		for _, key := range keys {
			if prev, ok := r.counters[key]; ok && prev != rule {
				slog.Warn("rules: counter key redefined", "key", key, "previous", prev.Name, "rule", rule.Name)
			}
			r.counters[key] = rule
		}
	case domain.RuleRaidGreeting:
		if owner := domain.NormalizeKey(rule.OwnerUsername); owner != "" {
			r.raiders[owner] = rule
		}
		if rule.IsDefaultCandidate {
			r.defaults = append(r.defaults, rule)
		}
		if rule.Invocable {
			r.indexCommand(keys, StaticCommand{Rule: rule})
		}
	default:
		return fmt.Errorf("rules: register %q: unknown kind %q", rule.Name, rule.Kind)
	}

	r.all = append(r.all, rule)
	return nil
}

// RegisterDynamic registra un meta-comando; pisa cualquier regla con la misma clave.
func (r *Registry) RegisterDynamic(name string, h Handler, aliases ...string) {
	cmd := DynamicCommand{Name: domain.NormalizeKey(name), Handler: h}
	keys := append([]string{name}, aliases...)
	normalized := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = domain.NormalizeKey(k); k != "" {
			normalized = append(normalized, k)
		}
	}
	r.indexCommand(normalized, cmd)
}

func (r *Registry) indexCommand(keys []string, cmd Command) {
	for _, key := range keys {
		if prev, ok := r.commands[key]; ok && prev.CommandName() != cmd.CommandName() {
			slog.Warn("rules: command key redefined", "key", key, "previous", prev.CommandName(), "command", cmd.CommandName())
		}
		r.commands[key] = cmd
	}
}

func (r *Registry) Command(key string) (Command, bool) {
	cmd, ok := r.commands[domain.NormalizeKey(key)]
	return cmd, ok
}

func (r *Registry) Counter(key string) (*domain.Rule, bool) {
	rule, ok := r.counters[domain.NormalizeKey(key)]
	return rule, ok
}

func (r *Registry) RaidOwner(username string) (*domain.Rule, bool) {
	rule, ok := r.raiders[domain.NormalizeKey(username)]
	return rule, ok
}

func (r *Registry) DefaultRaidGreetings() []*domain.Rule {
	return append([]*domain.Rule(nil), r.defaults...)
}

// Counters devuelve cada contador una sola vez, ordenados por nombre.
func (r *Registry) Counters() []*domain.Rule {
	return uniqueSorted(r.counters)
}

// Commands devuelve las reglas estáticas del índice de comandos.
func (r *Registry) Commands() []*domain.Rule {
	byKey := make(map[string]*domain.Rule, len(r.commands))
	for key, cmd := range r.commands {
		if st, ok := cmd.(StaticCommand); ok {
			byKey[key] = st.Rule
		}
	}
	return uniqueSorted(byKey)
}

// Rules devuelve todas las reglas registradas, en orden de registro.
func (r *Registry) Rules() []*domain.Rule {
	return append([]*domain.Rule(nil), r.all...)
}

// Names lista los nombres primarios de reglas y meta-comandos.
func (r *Registry) Names() []string {
	seen := make(map[string]struct{})
	for _, rule := range r.all {
		seen[domain.NormalizeKey(rule.Name)] = struct{}{}
	}
	for _, cmd := range r.commands {
		if dyn, ok := cmd.(DynamicCommand); ok {
			seen[dyn.Name] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func uniqueSorted(index map[string]*domain.Rule) []*domain.Rule {
	seen := make(map[*domain.Rule]struct{}, len(index))
	out := make([]*domain.Rule, 0, len(index))
	for _, rule := range index {
		if _, ok := seen[rule]; ok {
			continue
		}
		seen[rule] = struct{}{}
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
