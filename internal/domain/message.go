package domain

import (
	"strconv"
	"strings"
)

// Actor es quien origina un evento. IsModerator cubre moderador, broadcaster
// y la consola local.
type Actor struct {
	Username         string
	IsModerator      bool
	IsSubscriber     bool
	SubscriptionTier int
}

// ConsoleActor identifica las líneas escritas en la consola local.
var ConsoleActor = Actor{Username: "cmdline", IsModerator: true}

// SystemActor autoriza las reglas que dispara el propio bot (raids).
var SystemActor = Actor{Username: "system", IsModerator: true, IsSubscriber: true, SubscriptionTier: 3}

type EventKind string

const (
	EventChat         EventKind = "chat"
	EventBits         EventKind = "bits"
	EventSubscription EventKind = "subscription"
	EventRaid         EventKind = "raid"
)

type Event interface {
	Kind() EventKind
}

type ChatEvent struct {
	Actor   Actor
	RawText string
}

type BitsEvent struct {
	Actor  Actor
	Amount int64
}

type SubscriptionEvent struct {
	Actor     Actor
	Recipient string
	Months    int
	Tier      int
	Type      string
}

type RaidEvent struct {
	RaiderUsername string
	ViewerCount    int
}

func (ChatEvent) Kind() EventKind         { return EventChat }
func (BitsEvent) Kind() EventKind         { return EventBits }
func (SubscriptionEvent) Kind() EventKind { return EventSubscription }
func (RaidEvent) Kind() EventKind         { return EventRaid }

// Invocation es un mensaje de chat ya tokenizado.
type Invocation struct {
	Actor Actor
	Key   string
	Args  []string
}

// TierFromPlan convierte "1000"/"2000"/"3000" (o "Prime") en 1..3. También
// sirve para las versiones del badge de sub, donde 3012 es tier 3.
func TierFromPlan(plan string) int {
	n, err := strconv.Atoi(strings.TrimSpace(plan))
	switch {
	case err != nil:
		return 1
	case n >= 3000:
		return 3
	case n >= 2000:
		return 2
	default:
		return 1
	}
}
