package rules

import (
	"context"
	"sort"
	"sync"

	"alertBot/internal/domain"
)

const (
	RuleSourceBuiltin = "builtin"
	RuleSourceFile    = "file"
)

type RuleDTO struct {
	Name            string   `json:"name"`
	Kind            string   `json:"kind"`
	Aliases         []string `json:"aliases"`
	Source          string   `json:"source"`
	Type            string   `json:"type,omitempty"`
	Brief           string   `json:"brief,omitempty"`
	Message         string   `json:"message,omitempty"`
	ModOnly         bool     `json:"mod_only"`
	SubOnly         bool     `json:"sub_only"`
	MinSubTier      *int     `json:"min_sub_tier,omitempty"`
	CooldownSeconds *int     `json:"cooldown_seconds,omitempty"`
	Value           *int64   `json:"value,omitempty"`
	Owner           string   `json:"owner,omitempty"`
	Description     string   `json:"description,omitempty"`
	Usage           string   `json:"usage,omitempty"`
}

// Service expone el registro para la API y el CLI. Trabaja sobre una copia
// tomada al crearlo: las reglas son del consumidor de eventos y los valores
// de contadores llegan por ObserveCounters.
type Service struct {
	mu       sync.RWMutex
	rules    []RuleDTO
	counters map[string]int
}

// NewService debe llamarse antes de arrancar el consumidor de eventos.
func NewService(registry *Registry) *Service {
	s := &Service{counters: make(map[string]int)}
	if registry == nil {
		return s
	}
	ruleList := registry.Rules()
	sort.SliceStable(ruleList, func(i, j int) bool {
		if ruleList[i].Kind != ruleList[j].Kind {
			return ruleList[i].Kind < ruleList[j].Kind
		}
		return ruleList[i].Name < ruleList[j].Name
	})
	s.rules = make([]RuleDTO, 0, len(ruleList))
	for _, rule := range ruleList {
		if rule.Kind == domain.RuleCounter {
			s.counters[rule.Name] = len(s.rules)
		}
		s.rules = append(s.rules, ruleDTOFromDomain(rule))
	}
	return s
}

func (s *Service) List(ctx context.Context) ([]RuleDTO, error) {
	_ = ctx
	out := builtinRuleDTOs()
	if s == nil {
		return out, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(out, s.rules...), nil
}

// ObserveCounters actualiza los valores publicados con un snapshot del
// counter store. Nombres desconocidos se ignoran.
func (s *Service) ObserveCounters(snapshot map[string]int64) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, value := range snapshot {
		i, ok := s.counters[name]
		if !ok {
			continue
		}
		s.rules[i].Value = &value
	}
}

func ruleDTOFromDomain(rule *domain.Rule) RuleDTO {
	if rule == nil {
		return RuleDTO{}
	}
	dto := RuleDTO{
		Name:            rule.Name,
		Kind:            string(rule.Kind),
		Aliases:         append([]string{}, rule.Aliases...),
		Source:          RuleSourceFile,
		Type:            rule.Type,
		Brief:           rule.Brief,
		Message:         rule.Message,
		ModOnly:         rule.Permissions.ModOnly,
		SubOnly:         rule.Permissions.SubOnly,
		MinSubTier:      copyInt(rule.Permissions.MinSubTier),
		CooldownSeconds: copyInt(rule.Cooldown.Seconds),
		Owner:           rule.OwnerUsername,
	}
	if rule.Kind == domain.RuleCounter {
		v := rule.Value
		dto.Value = &v
	}
	return dto
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func builtinRuleDTOs() []RuleDTO {
	catalog := BuiltinCommandCatalog()
	out := make([]RuleDTO, 0, len(catalog))
	for _, item := range catalog {
		out = append(out, RuleDTO{
			Name:        item.Name,
			Kind:        string(domain.RuleCommand),
			Aliases:     append([]string{}, item.Aliases...),
			Source:      RuleSourceBuiltin,
			ModOnly:     item.ModOnly,
			Description: item.Description,
			Usage:       item.Usage,
		})
	}
	return out
}
