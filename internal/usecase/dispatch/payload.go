package dispatch

import "alertBot/internal/domain"

// rulePayload arma el objeto que recibe el overlay: los campos libres de la
// definición más los datos de la regla.
func rulePayload(rule *domain.Rule) map[string]any {
	payload := make(map[string]any, len(rule.Overlay)+4)
	for k, v := range rule.Overlay {
		payload[k] = v
	}
	payload["command"] = rule.Name
	payload["lifetime"] = rule.Cooldown.Lifetime()
	if rule.Cooldown.DelaySeconds > 0 {
		payload["delay"] = rule.Cooldown.DelaySeconds
	}
	return payload
}

func counterPayload(rule *domain.Rule) map[string]any {
	payload := rulePayload(rule)
	payload["value"] = rule.Value
	payload["tiny"] = rule.Tiny
	payload["text"] = rule.Value
	return payload
}

func notificationPayload(spec domain.NotificationSpec, subtitle string, text any) map[string]any {
	payload := map[string]any{
		"lifetime": spec.EffectiveLifetime(),
		"subtitle": subtitle,
		"text":     text,
	}
	if spec.Icon != "" {
		payload["icon"] = spec.Icon
	}
	if spec.Audio != "" {
		payload["audio"] = spec.Audio
	}
	return payload
}
