package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/brm/pkg/types"
)

func newProjectsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "p"},
		Short:   "List and edit catalogue projects",
	}
	cmd.AddCommand(newProjectsListCmd(a))
	cmd.AddCommand(newProjectsShowCmd(a))
	cmd.AddCommand(newProjectsCreateCmd(a))
	cmd.AddCommand(newProjectsUpdateCmd(a))
	cmd.AddCommand(newProjectsDeleteCmd(a))
	return cmd
}

func newProjectsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects, marking the active one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.manager.Projects()
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), cat)
			}
			return writeProjectTable(cmd.OutOrStdout(), cat)
		},
	}
}

func writeProjectTable(out io.Writer, cat *types.Catalogue) error {
	if len(cat.Projects) == 0 {
		_, err := fmt.Fprintln(out, "no projects")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tNAME\tCATEGORY\tUPDATED")
	for _, p := range cat.Projects {
		marker := ""
		if p.ID == cat.ActiveID() {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", marker, p.ID, p.Name, p.CategoryID, p.UpdatedAt)
	}
	return tw.Flush()
}

func newProjectsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one project as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.manager.Project(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
}

// projectFlags collects the create command's field flags.
type projectFlags struct {
	id          string
	name        string
	description string
	category    string
	stack       string
	directory   string
	restart     string
	logCmd      string
	vars        []string
}

func newProjectsCreateCmd(a *app) *cobra.Command {
	var f projectFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Long: `Create adds a project to the catalogue. New projects start inactive.

Development fields (--stack, --directory, --restart, --log) fill the
development category. Other variables are set with --var category.variable=value.

Example:
  brm projects create --name Api --category development --stack Go
  brm projects create --name Site --category web --var web.url=https://example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(f.name) == "" {
				return userErrorf("--name is required")
			}
			values, err := f.categoryValues()
			if err != nil {
				return err
			}
			p := types.Project{
				ID:             f.id,
				Name:           f.name,
				CategoryID:     f.category,
				CategoryValues: values,
			}
			if cmd.Flags().Changed("description") {
				p.Description = &f.description
			}
			created, err := a.manager.CreateProject(p)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), created)
			}
			fmt.Fprintln(cmd.OutOrStdout(), created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.id, "id", "", "project id (default: a new UUID)")
	cmd.Flags().StringVar(&f.name, "name", "", "project name")
	cmd.Flags().StringVar(&f.description, "description", "", "project description")
	cmd.Flags().StringVar(&f.category, "category", "", "category id (default: inferred)")
	cmd.Flags().StringVar(&f.stack, "stack", "", "development tech stack")
	cmd.Flags().StringVar(&f.directory, "directory", "", "development working directory")
	cmd.Flags().StringVar(&f.restart, "restart", "", "development restart command")
	cmd.Flags().StringVar(&f.logCmd, "log", "", "development log command")
	cmd.Flags().StringArrayVar(&f.vars, "var", nil, "category variable as category.variable=value (repeatable)")
	return cmd
}

// categoryValues builds the project's category values from the flags.
func (f projectFlags) categoryValues() (types.CategoryValues, error) {
	values := types.CategoryValues{}
	set := func(category, variable, value string) {
		if values[category] == nil {
			values[category] = map[string]string{}
		}
		values[category][variable] = value
	}

	dev := map[string]string{
		types.VarTechStack:      f.stack,
		types.VarDirectory:      f.directory,
		types.VarRestartCommand: f.restart,
		types.VarLogCommand:     f.logCmd,
	}
	for variable, value := range dev {
		if value != "" {
			set(types.CategoryDevelopment, variable, value)
		}
	}

	for _, kv := range f.vars {
		key, value, ok := strings.Cut(kv, "=")
		category, variable, dotted := strings.Cut(key, ".")
		if !ok || !dotted || category == "" || variable == "" {
			return nil, userErrorf("invalid --var %q (expected category.variable=value)", kv)
		}
		set(category, variable, value)
	}
	return values, nil
}

func newProjectsUpdateCmd(a *app) *cobra.Command {
	var patchJSON, patchFile string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Apply a JSON patch to a project",
		Long: `Update applies a partial project object. Recognised keys are name,
description (null clears it), categoryId and categoryValues; anything else
is ignored. The project's updatedAt is always refreshed.

Example:
  brm projects update 3f2a... --patch '{"name":"Billing","description":null}'
  brm projects update 3f2a... --file patch.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			switch {
			case patchJSON != "" && patchFile != "":
				return userErrorf("use either --patch or --file, not both")
			case patchFile != "":
				var err error
				if data, err = os.ReadFile(patchFile); err != nil {
					return userErrorf("reading patch file: %v", err)
				}
			case patchJSON != "":
				data = []byte(patchJSON)
			default:
				return userErrorf("--patch or --file is required")
			}

			updated, err := a.manager.UpdateProject(args[0], types.ParsePatch(data))
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), updated)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", updated.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&patchJSON, "patch", "", "patch as a JSON object")
	cmd.Flags().StringVar(&patchFile, "file", "", "file containing the JSON patch")
	return cmd
}

func newProjectsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.manager.DeleteProject(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
