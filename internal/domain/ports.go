package domain

import "context"

// ChatSender publica una línea en el chat del canal.
type ChatSender interface {
	SendMessage(ctx context.Context, text string) error
}

type OverlayPublisher interface {
	PublishOverlay(kind string, payload map[string]any)
}

type CounterRepository interface {
	LoadCounters(ctx context.Context) (map[string]int64, error)
	SaveCounters(ctx context.Context, snapshot map[string]int64) error
}

type NotificationRepository interface {
	SaveNotification(ctx context.Context, n *Notification) (*Notification, error)
	ListNotifications(ctx context.Context, limit int) ([]*Notification, error)
}
