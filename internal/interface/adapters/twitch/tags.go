package twitchadapter

import (
	"strconv"
	"strings"

	"alertBot/internal/domain"
)

// actorFromTags lee usuario, badges y tier de los tags IRCv3.
func actorFromTags(tags map[string]string) domain.Actor {
	actor := domain.Actor{
		Username: tags["display-name"],
	}
	if actor.Username == "" {
		actor.Username = tags["login"]
	}

	for _, badge := range strings.Split(tags["badges"], ",") {
		name, version, _ := strings.Cut(badge, "/")
		switch name {
		case "broadcaster", "moderator":
			actor.IsModerator = true
		case "subscriber", "founder":
			actor.IsSubscriber = true
			actor.SubscriptionTier = max(actor.SubscriptionTier, domain.TierFromPlan(version))
		}
	}
	if tags["mod"] == "1" {
		actor.IsModerator = true
	}
	if tags["subscriber"] == "1" {
		actor.IsSubscriber = true
		if actor.SubscriptionTier == 0 {
			actor.SubscriptionTier = 1
		}
	}
	return actor
}

func bitsFromTags(tags map[string]string) int64 {
	n, err := strconv.ParseInt(tags["bits"], 10, 64)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func intTag(tags map[string]string, keys ...string) int {
	for _, key := range keys {
		if n, err := strconv.Atoi(tags[key]); err == nil {
			return n
		}
	}
	return 0
}

// eventFromNotice traduce un USERNOTICE (subs y raids). Otros tipos se ignoran.
func eventFromNotice(tags map[string]string) domain.Event {
	msgID := tags["msg-id"]
	actor := actorFromTags(tags)

	switch msgID {
	case "sub", "resub":
		tier := domain.TierFromPlan(tags["msg-param-sub-plan"])
		actor.IsSubscriber = true
		actor.SubscriptionTier = tier
		return domain.SubscriptionEvent{
			Actor:  actor,
			Months: intTag(tags, "msg-param-cumulative-months", "msg-param-months"),
			Tier:   tier,
			Type:   msgID,
		}
	case "subgift", "anonsubgift":
		if msgID == "anonsubgift" {
			actor.Username = "Anonymous"
		}
		recipient := tags["msg-param-recipient-display-name"]
		if recipient == "" {
			recipient = tags["msg-param-recipient-user-name"]
		}
		return domain.SubscriptionEvent{
			Actor:     actor,
			Recipient: recipient,
			Months:    intTag(tags, "msg-param-months", "msg-param-cumulative-months"),
			Tier:      domain.TierFromPlan(tags["msg-param-sub-plan"]),
			Type:      msgID,
		}
	case "giftpaidupgrade", "anongiftpaidupgrade":
		return domain.SubscriptionEvent{Actor: actor, Tier: 1, Type: msgID}
	case "raid":
		login := tags["msg-param-login"]
		if login == "" {
			login = tags["login"]
		}
		return domain.RaidEvent{
			RaiderUsername: strings.ToLower(login),
			ViewerCount:    intTag(tags, "msg-param-viewerCount"),
		}
	}
	return nil
}
