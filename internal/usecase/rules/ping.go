package rules

import "alertBot/internal/domain"

// PingCommand responde "pong" como último recurso de la etapa de fallback.
type PingCommand struct{}

func NewPingCommand() *PingCommand {
	return &PingCommand{}
}

func (c *PingCommand) Name() string {
	return "!ping"
}

func (c *PingCommand) Handle(inv domain.Invocation) (domain.Outcome, bool) {
	if inv.Key != c.Name() {
		return domain.Outcome{}, false
	}
	var out domain.Outcome
	out.Say("pong @" + inv.Actor.Username)
	return out, true
}
