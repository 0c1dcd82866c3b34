package rules

// CommandDescriptor expone metadatos de cada comando interno para mostrarlos en la API.
type CommandDescriptor struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	ModOnly     bool
}

// BuiltinCommandCatalog describe los comandos que vienen incluidos en el bot.
func BuiltinCommandCatalog() []CommandDescriptor {
	return []CommandDescriptor{
		{
			Name:        "!set",
			Description: "Sets a counter to an exact value.",
			Usage:       "!set <counter> <value>",
			ModOnly:     true,
		},
		{
			Name:        "!raid",
			Description: "Plays the raid greeting for a user.",
			Usage:       "!raid <user> [viewers]",
			ModOnly:     true,
		},
		{
			Name:        "!regulations",
			Description: "Lists the brief of every regulation command.",
			Usage:       "!regulations",
			ModOnly:     true,
		},
		{
			Name:        "!playing",
			Description: "Shows the track currently playing.",
			Usage:       "!playing",
		},
		{
			Name:        "!ping",
			Description: "Replies with pong to check the bot is alive.",
			Usage:       "!ping",
		},
	}
}
