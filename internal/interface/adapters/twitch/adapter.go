// Package twitchadapter adapter for twitch
package twitchadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/adeithe/go-twitch/irc"
	"golang.org/x/time/rate"

	"alertBot/internal/domain"
	"alertBot/internal/infrastructure/metrics"
)

const (
	defaultMessagesPer30s = 20
	outboundQueueSize     = 64
)

type Config struct {
	Username   string
	OAuthToken string
	Channel    string
	// EmitAlerts convierte bits y USERNOTICE en eventos. Se apaga cuando
	// las alertas llegan por EventSub.
	EmitAlerts     bool
	MessagesPer30s int
}

// Submitter entrega el evento al consumidor único.
type Submitter func(ctx context.Context, ev domain.Event) error

type Adapter struct {
	cfg      Config
	submit   Submitter
	limiter  *rate.Limiter
	outbound chan string

	mu   sync.RWMutex
	conn *irc.Conn
}

var _ domain.ChatSender = (*Adapter)(nil)

func NewAdapter(cfg Config, submit Submitter) *Adapter {
	perWindow := cfg.MessagesPer30s
	if perWindow <= 0 {
		perWindow = defaultMessagesPer30s
	}
	return &Adapter{
		cfg:      cfg,
		submit:   submit,
		limiter:  rate.NewLimiter(rate.Every(30*time.Second/time.Duration(perWindow)), 1),
		outbound: make(chan string, outboundQueueSize),
	}
}

func (a *Adapter) Start(ctx context.Context) error {
	if a.cfg.Channel == "" {
		return errors.New("twitch: no channel configured")
	}
	if a.cfg.Username == "" || a.cfg.OAuthToken == "" {
		return errors.New("twitch: empty username or oauth token")
	}

	conn := &irc.Conn{}

	if err := conn.SetLogin(a.cfg.Username, a.cfg.OAuthToken); err != nil {
		return fmt.Errorf("twitch: SetLogin: %w", err)
	}

	conn.OnMessage(func(cm irc.ChatMessage) {
		for _, ev := range a.chatEvents(cm) {
			a.deliver(ctx, ev)
		}
	})

	conn.OnChannelUserNotice(func(notice irc.UserNotice) {
		if ev := a.noticeEvent(notice); ev != nil {
			a.deliver(ctx, ev)
		}
	})

	if err := conn.Connect(); err != nil {
		return fmt.Errorf("twitch: Connect: %w", err)
	}

	if err := conn.Join(a.cfg.Channel); err != nil {
		conn.Close()
		return fmt.Errorf("twitch: Join: %w", err)
	}

	a.mu.Lock()
	a.conn = conn
	a.mu.Unlock()

	slog.Info("twitch: connected", "username", a.cfg.Username, "channel", a.cfg.Channel)

	a.sendLoop(ctx)

	a.mu.Lock()
	if a.conn != nil {
		a.conn.Close()
		a.conn = nil
	}
	a.mu.Unlock()

	return ctx.Err()
}

// SendMessage encola el texto; el envío real respeta el rate limit de Twitch.
func (a *Adapter) SendMessage(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case a.outbound <- text:
		return nil
	default:
		return errors.New("twitch: outbound queue full")
	}
}

func (a *Adapter) sendLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-a.outbound:
			if err := a.limiter.Wait(ctx); err != nil {
				return
			}
			if err := a.say(text); err != nil {
				metrics.ChatSendFailures.Inc()
				slog.Warn("twitch: say failed", "error", err)
			}
		}
	}
}

func (a *Adapter) say(text string) error {
	a.mu.RLock()
	conn := a.conn
	a.mu.RUnlock()

	if conn == nil || !conn.IsConnected() {
		return errors.New("twitch: connection not initialised or closed")
	}

	slog.Debug("twitch: say", "channel", a.cfg.Channel, "text", text)
	return conn.Say(a.cfg.Channel, text)
}

func (a *Adapter) deliver(ctx context.Context, ev domain.Event) {
	if a.submit == nil {
		return
	}
	if err := a.submit(ctx, ev); err != nil {
		slog.Warn("twitch: submit event", "kind", ev.Kind(), "error", err)
	}
}

func (a *Adapter) noticeEvent(notice irc.UserNotice) domain.Event {
	if !a.cfg.EmitAlerts {
		return nil
	}
	return eventFromNotice(notice.IRCMessage.Tags)
}

func (a *Adapter) chatEvents(cm irc.ChatMessage) []domain.Event {
	sender := cm.Sender
	tags := cm.IRCMessage.Tags

	actor := actorFromTags(tags)
	if sender.DisplayName != "" {
		actor.Username = sender.DisplayName
	}
	actor.IsModerator = actor.IsModerator || sender.IsBroadcaster || sender.IsModerator

	out := []domain.Event{domain.ChatEvent{Actor: actor, RawText: cm.Text}}
	if a.cfg.EmitAlerts {
		if bits := bitsFromTags(tags); bits > 0 {
			out = append(out, domain.BitsEvent{Actor: actor, Amount: bits})
		}
	}
	return out
}
