package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"alertBot/internal/domain"
)

// EventLogger deja registro de las alertas que llegaron al overlay (subs,
// bits, raids) y las guarda en el historial.
type EventLogger struct {
	repo domain.NotificationRepository
	now  func() time.Time
}

func NewEventLogger(repo domain.NotificationRepository) *EventLogger {
	return &EventLogger{
		repo: repo,
		now:  time.Now,
	}
}

// Record ignora eventos de chat y eventos que no produjeron overlay.
func (l *EventLogger) Record(ctx context.Context, ev domain.Event, out domain.Outcome) error {
	if l == nil {
		return nil
	}
	broadcasts := out.Broadcasts()
	if len(broadcasts) == 0 {
		return nil
	}
	n := notificationFromEvent(ev, broadcasts[0])
	if n == nil {
		return nil
	}
	n.CreatedAt = l.now().UTC()
	l.logPayload(n)

	if l.repo == nil {
		return nil
	}
	if _, err := l.repo.SaveNotification(ctx, n); err != nil {
		return fmt.Errorf("notifications: record %s: %w", n.Type, err)
	}
	return nil
}

func notificationFromEvent(ev domain.Event, shown domain.OverlayBroadcast) *domain.Notification {
	meta := map[string]string{"overlay": shown.Kind}
	if icon, ok := shown.Payload["icon"].(string); ok && icon != "" {
		meta["icon"] = icon
	}

	switch e := ev.(type) {
	case domain.BitsEvent:
		return &domain.Notification{
			Type:     domain.NotificationBits,
			Username: e.Actor.Username,
			Amount:   float64(e.Amount),
			Metadata: meta,
		}
	case domain.SubscriptionEvent:
		meta["type"] = e.Type
		meta["tier"] = strconv.Itoa(e.Tier)
		if e.Recipient != "" {
			meta["recipient"] = e.Recipient
		}
		return &domain.Notification{
			Type:     domain.NotificationSubscription,
			Username: e.Actor.Username,
			Amount:   float64(e.Months),
			Metadata: meta,
		}
	case domain.RaidEvent:
		if name, ok := shown.Payload["command"].(string); ok {
			meta["greeting"] = name
		}
		return &domain.Notification{
			Type:     domain.NotificationRaid,
			Username: e.RaiderUsername,
			Amount:   float64(e.ViewerCount),
			Metadata: meta,
		}
	}
	return nil
}

func (l *EventLogger) logPayload(n *domain.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		slog.Info("notifications: alert", "type", n.Type, "username", n.Username)
		return
	}
	slog.Info("notifications: alert", "payload", string(data))
}
