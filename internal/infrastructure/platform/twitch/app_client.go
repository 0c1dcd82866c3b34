package twitchinfra

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/nicklaw5/helix/v2"
)

// SubscribedTypes son los eventos que el bot registra en EventSub.
// channel.subscription.gift queda fuera: cada regalo ya llega como
// channel.subscribe con is_gift.
var SubscribedTypes = []string{
	helix.EventSubTypeChannelCheer,
	helix.EventSubTypeChannelSubscription,
	helix.EventSubTypeChannelSubscriptionMessage,
	helix.EventSubTypeChannelRaid,
}

// AppClient maneja el app access token y las suscripciones EventSub.
type AppClient struct {
	client *helix.Client

	mu    sync.RWMutex
	token string
}

func NewAppClient(clientID, clientSecret string) (*AppClient, error) {
	if strings.TrimSpace(clientID) == "" || strings.TrimSpace(clientSecret) == "" {
		return nil, fmt.Errorf("helix: client id and secret are required")
	}
	client, err := helix.NewClient(&helix.Options{
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("helix: NewClient: %w", err)
	}
	return &AppClient{client: client}, nil
}

// AcquireToken pide un token client_credentials nuevo y lo instala en el cliente.
func (c *AppClient) AcquireToken(ctx context.Context) error {
	resp, err := c.client.RequestAppAccessToken(nil)
	if err != nil {
		return fmt.Errorf("helix: RequestAppAccessToken: %w", err)
	}
	if resp.StatusCode != http.StatusOK || resp.Data.AccessToken == "" {
		return fmt.Errorf("helix: RequestAppAccessToken failed (%d: %s) %s",
			resp.StatusCode, resp.Error, resp.ErrorMessage)
	}

	c.mu.Lock()
	c.token = resp.Data.AccessToken
	c.client.SetAppAccessToken(resp.Data.AccessToken)
	c.mu.Unlock()

	slog.Info("helix: app token acquired", "expires_in", resp.Data.ExpiresIn)
	return nil
}

// ValidateToken devuelve false si no hay token o Twitch lo rechaza.
func (c *AppClient) ValidateToken(ctx context.Context) (bool, error) {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	if token == "" {
		return false, nil
	}
	valid, resp, err := c.client.ValidateToken(token)
	if err != nil {
		return false, fmt.Errorf("helix: ValidateToken: %w", err)
	}
	if !valid && resp != nil && resp.StatusCode != http.StatusUnauthorized {
		return false, fmt.Errorf("helix: ValidateToken failed (%d: %s) %s",
			resp.StatusCode, resp.Error, resp.ErrorMessage)
	}
	return valid, nil
}

// EnsureSubscriptions crea las suscripciones webhook que falten para el canal.
func (c *AppClient) EnsureSubscriptions(ctx context.Context, broadcasterID, callback, secret string) error {
	if broadcasterID == "" || callback == "" || secret == "" {
		return fmt.Errorf("helix: broadcaster id, callback and secret are required")
	}

	existing, err := c.client.GetEventSubSubscriptions(&helix.EventSubSubscriptionsParams{})
	if err != nil {
		return fmt.Errorf("helix: GetEventSubSubscriptions: %w", err)
	}
	if existing.StatusCode != http.StatusOK {
		return fmt.Errorf("helix: GetEventSubSubscriptions failed (%d: %s) %s",
			existing.StatusCode, existing.Error, existing.ErrorMessage)
	}

	active := make(map[string]bool)
	for _, sub := range existing.Data.EventSubSubscriptions {
		if sub.Transport.Callback != callback || !liveStatus(sub.Status) {
			continue
		}
		active[sub.Type] = true
	}

	for _, subType := range SubscribedTypes {
		if active[subType] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, err := c.client.CreateEventSubSubscription(&helix.EventSubSubscription{
			Type:      subType,
			Version:   "1",
			Condition: conditionFor(subType, broadcasterID),
			Transport: helix.EventSubTransport{
				Method:   "webhook",
				Callback: callback,
				Secret:   secret,
			},
		})
		if err != nil {
			return fmt.Errorf("helix: CreateEventSubSubscription %s: %w", subType, err)
		}
		if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusConflict {
			return fmt.Errorf("helix: CreateEventSubSubscription %s failed (%d: %s) %s",
				subType, resp.StatusCode, resp.Error, resp.ErrorMessage)
		}
		slog.Info("helix: eventsub subscription requested", "type", subType)
	}
	return nil
}

func liveStatus(status string) bool {
	return status == "enabled" || status == "webhook_callback_verification_pending"
}

// channel.raid filtra por el canal que recibe el raid.
func conditionFor(subType, broadcasterID string) helix.EventSubCondition {
	if subType == helix.EventSubTypeChannelRaid {
		return helix.EventSubCondition{ToBroadcasterUserID: broadcasterID}
	}
	return helix.EventSubCondition{BroadcasterUserID: broadcasterID}
}

// ResolveBroadcasterID busca el ID del canal por login.
func (c *AppClient) ResolveBroadcasterID(ctx context.Context, login string) (string, error) {
	login = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(login)), "#")
	if login == "" {
		return "", fmt.Errorf("helix: empty channel login")
	}

	resp, err := c.client.GetUsers(&helix.UsersParams{Logins: []string{login}})
	if err != nil {
		return "", fmt.Errorf("helix: GetUsers: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("helix: GetUsers failed (%d: %s) %s",
			resp.StatusCode, resp.Error, resp.ErrorMessage)
	}
	if len(resp.Data.Users) == 0 {
		return "", fmt.Errorf("helix: twitch user not found: %s", login)
	}
	return resp.Data.Users[0].ID, nil
}
