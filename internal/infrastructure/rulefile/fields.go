package rulefile

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"alertBot/internal/domain"
)

// Claves que consume el loader; el resto pasa tal cual al overlay.
var reservedKeys = map[string]struct{}{
	"command": {}, "alias": {}, "filter": {}, "modonly": {}, "subonly": {},
	"cooldown": {}, "delay": {}, "lifetime": {}, "message": {}, "type": {},
	"brief": {}, "user": {}, "default": {}, "viewers": {},
	// estado en runtime, nunca viene del archivo
	"value": {}, "tiny": {}, "expire": {},
}

func ruleFromFields(kind domain.RuleKind, fields map[string]any) (*domain.Rule, error) {
	rule := &domain.Rule{Kind: kind, Overlay: map[string]any{}}

	var err error
	if rule.Name, err = str(fields, "command"); err != nil {
		return nil, err
	}
	if rule.Aliases, err = strList(fields, "alias"); err != nil {
		return nil, err
	}
	if rule.Tag, err = str(fields, "filter"); err != nil {
		return nil, err
	}
	if rule.Message, err = str(fields, "message"); err != nil {
		return nil, err
	}
	if rule.Type, err = str(fields, "type"); err != nil {
		return nil, err
	}
	if rule.Brief, err = str(fields, "brief"); err != nil {
		return nil, err
	}

	rule.Permissions.ModOnly = truthy(fields["modonly"])
	switch v := fields["subonly"].(type) {
	case nil, bool:
		rule.Permissions.SubOnly = truthy(v)
	default:
		tier, ok := number(v)
		if !ok {
			return nil, fmt.Errorf("subonly: %w", domain.ErrInvalidValue)
		}
		if tier > 0 {
			t := int(tier)
			rule.Permissions.SubOnly = true
			rule.Permissions.MinSubTier = &t
		}
	}

	if v, ok := fields["cooldown"]; ok && v != nil {
		n, ok := number(v)
		if !ok || n < 0 {
			return nil, fmt.Errorf("cooldown: %w", domain.ErrInvalidValue)
		}
		if secs := int(n); secs > 0 {
			rule.Cooldown.Seconds = &secs
		}
	}
	if rule.Cooldown.DelaySeconds, err = nonNegative(fields, "delay"); err != nil {
		return nil, err
	}
	if rule.Cooldown.LifetimeSeconds, err = nonNegative(fields, "lifetime"); err != nil {
		return nil, err
	}

	if kind == domain.RuleRaidGreeting {
		user, err := str(fields, "user")
		if err != nil {
			return nil, err
		}
		rule.OwnerUsername = domain.NormalizeKey(user)
		rule.IsDefaultCandidate = truthy(fields["default"])
		if rule.MinViewers, err = nonNegative(fields, "viewers"); err != nil {
			return nil, err
		}
		rule.Invocable = strings.TrimSpace(rule.Name) != ""
		if !rule.Invocable {
			rule.Name = rule.OwnerUsername
		}
		if rule.OwnerUsername == "" && !rule.IsDefaultCandidate && !rule.Invocable {
			return nil, fmt.Errorf("raid greeting needs user, command or default")
		}
	} else if strings.TrimSpace(rule.Name) == "" {
		return nil, fmt.Errorf("missing command")
	}

	for key, v := range fields {
		if _, reserved := reservedKeys[key]; reserved {
			continue
		}
		rule.Overlay[key] = v
	}
	return rule, nil
}

func str(fields map[string]any, key string) (string, error) {
	switch v := fields[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		return "", nil
	default:
		if n, ok := number(v); ok {
			return strconv.FormatFloat(n, 'f', -1, 64), nil
		}
		return "", fmt.Errorf("%s: expected string", key)
	}
}

// alias acepta un string suelto o una lista.
func strList(fields map[string]any, key string) ([]string, error) {
	switch v := fields[key].(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s: expected list of strings", key)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s: expected list of strings", key)
	}
}

func nonNegative(fields map[string]any, key string) (int, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return 0, nil
	}
	n, ok := number(v)
	if !ok || n < 0 {
		return 0, fmt.Errorf("%s: %w", key, domain.ErrInvalidValue)
	}
	return int(n), nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		return b != "" && b != "false" && b != "0"
	default:
		n, ok := number(v)
		return ok && n != 0
	}
}
