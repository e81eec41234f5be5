package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/brm/pkg/types"
)

func newCategoriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Inspect and edit category definitions",
	}
	cmd.AddCommand(newCategoriesListCmd(a))
	cmd.AddCommand(newCategoriesWriteCmd(a))
	cmd.AddCommand(newCategoriesEnsureFilesCmd(a))
	return cmd
}

func newCategoriesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List category definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := a.manager.Categories()
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), defs)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tFILE\tVARIABLES")
			for _, d := range defs.Categories {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", d.ID, d.Name, d.BackingFile(), len(d.VariableDefinitions))
			}
			return tw.Flush()
		},
	}
}

func newCategoriesWriteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "write <file>",
		Short: "Replace the category definitions from a JSON file",
		Long: `Write replaces the category-definition table with the contents of a JSON
file shaped like {"categories":[...]}. Missing backing rule files are created,
files of removed categories are deleted, and the generated documents are
rewritten.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return userErrorf("reading %s: %v", args[0], err)
			}
			var defs types.CategoryDefinitions
			if err := json.Unmarshal(data, &defs); err != nil {
				return userErrorf("parsing %s: %v", args[0], err)
			}
			if err := a.manager.WriteCategories(&defs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d categories\n", len(defs.Categories))
			return nil
		},
	}
}

func newCategoriesEnsureFilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-files",
		Short: "Assign missing backing file names and create missing rule files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			changed, err := a.manager.EnsureCategoryFiles()
			if err != nil {
				return err
			}
			if changed {
				fmt.Fprintln(cmd.OutOrStdout(), "category files updated")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "category files up to date")
			}
			return nil
		},
	}
}
