package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"alertBot/internal/app/runtime"
	"alertBot/internal/platform/logging"
)

func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	var noConsole bool

	cmd := &cobra.Command{
		Use:   "run [filter]",
		Short: "Connect to chat and serve the overlay",
		Long: `Connect to Twitch chat, serve the browser overlay and process alerts
until interrupted. A positional filter works like --filter.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && rootOpts.Filter == "" {
				rootOpts.Filter = args[0]
			}
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

			opts := runtime.Options{}
			if !noConsole {
				opts.Console = os.Stdin
			}

			run, err := runtime.Start(cmd.Context(), cfg, opts)
			if err != nil {
				return err
			}

			<-run.Done()
			slog.Info("bot: shutting down")
			return run.Stop()
		},
	}

	cmd.Flags().BoolVar(&noConsole, "no-console", false, "do not read commands from stdin")
	return cmd
}
