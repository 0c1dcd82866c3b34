// Package cli define los comandos de alertbot.
package cli

import (
	"github.com/spf13/cobra"

	"alertBot/internal/infrastructure/config"
)

// RootOptions son los flags compartidos; pisan lo que venga del entorno.
type RootOptions struct {
	DataDir string
	Filter  string
}

func (o *RootOptions) apply(cfg *config.Config) {
	if o.DataDir != "" {
		cfg.DataDir = o.DataDir
	}
	if o.Filter != "" {
		cfg.RuleFilter = o.Filter
	}
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "alertbot",
		Short: "Live alerts, chat commands and counters for a Twitch channel",
	}

	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "directory with commands/, raiders/, counters/, audio/ and images/ (default $DATA_DIR or ./data)")
	cmd.PersistentFlags().StringVar(&opts.Filter, "filter", "", "only load rules without filter or with this filter")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewRulesCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	opts.apply(cfg)
	return cfg, nil
}
