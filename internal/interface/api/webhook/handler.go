// Package webhook recibe las notificaciones EventSub de Twitch (cheers,
// subs, raids) y las convierte en eventos del dominio.
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/nicklaw5/helix/v2"

	"alertBot/internal/domain"
	"alertBot/internal/infrastructure/metrics"
)

const (
	headerMessageID        = "Twitch-Eventsub-Message-Id"
	headerMessageType      = "Twitch-Eventsub-Message-Type"
	headerMessageSignature = "Twitch-Eventsub-Message-Signature"

	messageTypeVerification = "webhook_callback_verification"
	messageTypeNotification = "notification"
	messageTypeRevocation   = "revocation"

	maxBodyBytes = 1 << 20
	dedupeWindow = 10 * time.Minute
)

// Submitter entrega el evento al consumidor único.
type Submitter func(ctx context.Context, ev domain.Event) error

// envelope es el cuerpo común de verificación, notificación y revocación.
type envelope struct {
	Subscription helix.EventSubSubscription `json:"subscription"`
	Challenge    string                     `json:"challenge"`
	Event        json.RawMessage            `json:"event"`
}

type Handler struct {
	secret string
	submit Submitter
	clock  clockwork.Clock

	mu   sync.Mutex
	seen map[string]time.Time
}

func NewHandler(secret string, submit Submitter, clock clockwork.Clock) *Handler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Handler{
		secret: secret,
		submit: submit,
		clock:  clock,
		seen:   make(map[string]time.Time),
	}
}

// HandleEventSub es el handler echo de POST /webhooks/eventsub.
func (h *Handler) HandleEventSub(c echo.Context) error {
	req := c.Request()
	body, err := io.ReadAll(io.LimitReader(req.Body, maxBodyBytes))
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	if !h.verify(req.Header, body) {
		metrics.WebhookNotifications.WithLabelValues("unknown", "rejected").Inc()
		slog.Warn("webhook: invalid signature", "remote", req.RemoteAddr)
		return c.NoContent(http.StatusForbidden)
	}

	var notification envelope
	if err := json.Unmarshal(body, &notification); err != nil {
		slog.Warn("webhook: malformed body", "error", err)
		return c.NoContent(http.StatusBadRequest)
	}
	subType := notification.Subscription.Type

	switch req.Header.Get(headerMessageType) {
	case messageTypeVerification:
		slog.Info("webhook: subscription verified", "type", subType)
		metrics.WebhookNotifications.WithLabelValues(subType, "verified").Inc()
		return c.String(http.StatusOK, notification.Challenge)
	case messageTypeRevocation:
		slog.Warn("webhook: subscription revoked", "type", subType, "status", notification.Subscription.Status)
		metrics.WebhookNotifications.WithLabelValues(subType, "revoked").Inc()
		return c.NoContent(http.StatusNoContent)
	case messageTypeNotification:
	default:
		return c.NoContent(http.StatusNoContent)
	}

	if h.duplicate(req.Header.Get(headerMessageID)) {
		metrics.WebhookNotifications.WithLabelValues(subType, "duplicate").Inc()
		return c.NoContent(http.StatusNoContent)
	}

	ev, err := toEvent(subType, notification.Event)
	if err != nil {
		slog.Warn("webhook: malformed event", "type", subType, "error", err)
		metrics.WebhookNotifications.WithLabelValues(subType, "malformed").Inc()
		return c.NoContent(http.StatusNoContent)
	}
	if ev == nil {
		metrics.WebhookNotifications.WithLabelValues(subType, "ignored").Inc()
		return c.NoContent(http.StatusNoContent)
	}

	if err := h.submit(req.Context(), ev); err != nil {
		// sin esto el reintento de Twitch se tomaría como duplicado
		h.forget(req.Header.Get(headerMessageID))
		slog.Error("webhook: submit event", "type", subType, "error", err)
		return c.NoContent(http.StatusServiceUnavailable)
	}
	metrics.WebhookNotifications.WithLabelValues(subType, "accepted").Inc()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) verify(header http.Header, body []byte) bool {
	if h.secret == "" || !strings.HasPrefix(header.Get(headerMessageSignature), "sha256=") {
		return false
	}
	return helix.VerifyEventSubNotification(h.secret, header, string(body))
}

// Twitch reintenta las entregas; el id de mensaje se recuerda un rato.
func (h *Handler) duplicate(id string) bool {
	if id == "" {
		return false
	}
	now := h.clock.Now()
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, at := range h.seen {
		if now.Sub(at) > dedupeWindow {
			delete(h.seen, key)
		}
	}
	if _, ok := h.seen[id]; ok {
		return true
	}
	h.seen[id] = now
	return false
}

func (h *Handler) forget(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.seen, id)
}

type cheerEvent struct {
	IsAnonymous bool   `json:"is_anonymous"`
	UserLogin   string `json:"user_login"`
	UserName    string `json:"user_name"`
	Bits        int64  `json:"bits"`
}

type subscribeEvent struct {
	UserLogin        string `json:"user_login"`
	UserName         string `json:"user_name"`
	Tier             string `json:"tier"`
	IsGift           bool   `json:"is_gift"`
	CumulativeMonths int    `json:"cumulative_months"`
}

type raidEvent struct {
	FromBroadcasterUserLogin string `json:"from_broadcaster_user_login"`
	FromBroadcasterUserName  string `json:"from_broadcaster_user_name"`
	Viewers                  int    `json:"viewers"`
}

func toEvent(subType string, raw json.RawMessage) (domain.Event, error) {
	switch subType {
	case helix.EventSubTypeChannelCheer:
		var e cheerEvent
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		name := e.UserName
		if e.IsAnonymous || name == "" {
			name = "Anonymous"
		}
		return domain.BitsEvent{Actor: domain.Actor{Username: name}, Amount: e.Bits}, nil

	case helix.EventSubTypeChannelSubscription, helix.EventSubTypeChannelSubscriptionMessage:
		var e subscribeEvent
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		kind := "sub"
		switch {
		case subType == helix.EventSubTypeChannelSubscriptionMessage:
			kind = "resub"
		case e.IsGift:
			kind = "subgift"
		}
		tier := domain.TierFromPlan(e.Tier)
		ev := domain.SubscriptionEvent{
			Actor:  domain.Actor{Username: e.UserName, IsSubscriber: true, SubscriptionTier: tier},
			Months: e.CumulativeMonths,
			Tier:   tier,
			Type:   kind,
		}
		// channel.subscribe no trae quién regaló; el usuario es el que recibe
		if e.IsGift {
			ev.Recipient = e.UserName
		}
		return ev, nil

	case helix.EventSubTypeChannelRaid:
		var e raidEvent
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return domain.RaidEvent{RaiderUsername: e.FromBroadcasterUserLogin, ViewerCount: e.Viewers}, nil
	}
	return nil, nil
}
