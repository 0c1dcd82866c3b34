package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"alertBot/internal/app/runtime"
	"alertBot/internal/infrastructure/rulefile"
	"alertBot/internal/usecase/notifications"
)

func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "validate",
		Short:         "Parse every rule file and report the malformed ones",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			loader := rulefile.New(cfg.DataDir)

			registry, errs := runtime.LoadRegistry(loader, cfg.RuleFilter)
			if _, err := loader.LoadAlerts(notifications.DefaultAlertConfig()); err != nil {
				errs = append(errs, err)
			}

			out := cmd.OutOrStdout()
			for _, err := range errs {
				fmt.Fprintf(out, "✗ %v\n", err)
			}
			if len(errs) > 0 {
				return fmt.Errorf("validate: %d problem(s) found", len(errs))
			}
			fmt.Fprintf(out, "✓ %d rule(s) valid\n", len(registry.Rules()))
			return nil
		},
	}
}
