package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"alertBot/internal/app/runtime"
	"alertBot/internal/infrastructure/rulefile"
	"alertBot/internal/usecase/rules"
)

func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:          "rules",
		Short:        "List the commands, counters and raid greetings that would be registered",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			registry, errs := runtime.LoadRegistry(rulefile.New(cfg.DataDir), cfg.RuleFilter)
			for _, err := range errs {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %v\n", err)
			}

			list, err := rules.NewService(registry).List(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tKIND\tALIASES\tSOURCE")
			for _, r := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, r.Kind, strings.Join(r.Aliases, ","), r.Source)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
