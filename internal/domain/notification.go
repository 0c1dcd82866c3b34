package domain

import "time"

type NotificationType string

const (
	NotificationSubscription NotificationType = "subscription"
	NotificationBits         NotificationType = "bits"
	NotificationRaid         NotificationType = "raid"
)

// Notification es una alerta ya mostrada, guardada en el historial.
type Notification struct {
	ID        int64
	Type      NotificationType
	Username  string
	Amount    float64
	Message   string
	Metadata  map[string]string
	CreatedAt time.Time
}

// NotificationSpec describe cómo se ve una alerta en el overlay.
type NotificationSpec struct {
	Icon     string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Audio    string `json:"audio,omitempty" yaml:"audio,omitempty"`
	Lifetime int    `json:"lifetime,omitempty" yaml:"lifetime,omitempty"`
}

// DefaultNotificationLifetime aplica a bits y subs sin lifetime.
const DefaultNotificationLifetime = 10

func (s NotificationSpec) EffectiveLifetime() int {
	if s.Lifetime > 0 {
		return s.Lifetime
	}
	return DefaultNotificationLifetime
}

type TierBucket struct {
	Threshold int64
	Spec      NotificationSpec
}

// TierTable is ordered by descending threshold.
type TierTable []TierBucket

type AlertConfig struct {
	Subs *NotificationSpec
	Bits TierTable
}
