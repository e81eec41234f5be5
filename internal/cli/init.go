package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the catalogue, category rule files and generated documents",
		Long: "Init loads the catalogue (migrating a legacy catalogue or creating an\n" +
			"empty one), creates missing category rule files and regenerates the\n" +
			"Espanso documents. Running it again is harmless.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.manager.Projects()
			if err != nil {
				return err
			}
			if _, err := a.manager.EnsureCategoryFiles(); err != nil {
				return err
			}
			if err := a.manager.Regenerate(); err != nil {
				return err
			}

			catalogue, categories, activeVars, selector := a.manager.Paths()
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"projects":   len(cat.Projects),
					"catalogue":  catalogue,
					"categories": categories,
					"activeVars": activeVars,
					"selector":   selector,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "catalogue:   %s (%d projects)\n", catalogue, len(cat.Projects))
			fmt.Fprintf(out, "categories:  %s\n", categories)
			fmt.Fprintf(out, "active vars: %s\n", activeVars)
			fmt.Fprintf(out, "selector:    %s\n", selector)
			return nil
		},
	}
}
