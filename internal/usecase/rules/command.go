package rules

import "alertBot/internal/domain"

// Handler procesa un meta-comando. handled=false deja seguir a la siguiente etapa.
type Handler func(inv domain.Invocation) (out domain.Outcome, handled bool)

// Command es lo que guarda el índice de comandos: una regla estática o un
// handler dinámico.
type Command interface {
	CommandName() string
}

type StaticCommand struct {
	Rule *domain.Rule
}

type DynamicCommand struct {
	Name    string
	Handler Handler
}

func (c StaticCommand) CommandName() string  { return c.Rule.Name }
func (c DynamicCommand) CommandName() string { return c.Name }
