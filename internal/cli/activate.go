package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newActivateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <id>",
		Short: "Make a project active and regenerate the Espanso documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.manager.SetActiveProject(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "active project: %s\n", args[0])
			return nil
		},
	}
}

func newDeactivateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate",
		Short: "Clear the active project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.manager.SetActiveProject(""); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "no active project")
			return nil
		},
	}
}

func newRegenerateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate",
		Short: "Rewrite the generated Espanso documents from the stored catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.manager.Regenerate(); err != nil {
				return err
			}
			_, _, activeVars, selector := a.manager.Paths()
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\nwrote %s\n", activeVars, selector)
			return nil
		},
	}
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Load the catalogue, importing and normalizing legacy data",
		Long: `Migrate loads the catalogue. When the primary catalogue is missing or
empty, catalogues from earlier releases in the data directory are imported
and archived. Stored records are normalized and saved when anything changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.manager.Projects()
			if err != nil {
				return err
			}
			if err := a.manager.Regenerate(); err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), cat)
			}
			catalogue, _, _, _ := a.manager.Paths()
			fmt.Fprintf(cmd.OutOrStdout(), "%d projects in %s\n", len(cat.Projects), catalogue)
			return nil
		},
	}
}
