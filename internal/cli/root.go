// Package cli implements the brm command-line interface.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/brm/internal/logging"
	"github.com/mesh-intelligence/brm/internal/manager"
	"github.com/mesh-intelligence/brm/internal/paths"
	"github.com/mesh-intelligence/brm/internal/store"
	"github.com/mesh-intelligence/brm/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir  string
	dataDir    string
	espansoDir string
	matchDir   string
	jsonMode   bool
}

// app is the state shared by the commands of one invocation.
type app struct {
	flags   rootFlags
	cfg     types.Config
	log     *logrus.Logger
	manager *manager.Manager
}

// NewRootCmd creates the top-level "brm" command with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "brm",
		Short: "Manage text-expansion projects and their Espanso variables",
		Long: "brm keeps a catalogue of projects, each a bundle of category variables,\n" +
			"and regenerates the Espanso files that expose the active project.",
		Version: Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir/brm)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "application data directory holding legacy catalogues")
	root.PersistentFlags().StringVar(&a.flags.espansoDir, "espanso-dir", "", "Espanso configuration directory")
	root.PersistentFlags().StringVar(&a.flags.matchDir, "match-dir", "", "directory for generated rule files (default: <espanso-dir>/match)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output as JSON")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newProjectsCmd(a))
	root.AddCommand(newActivateCmd(a))
	root.AddCommand(newDeactivateCmd(a))
	root.AddCommand(newRegenerateCmd(a))
	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newCategoriesCmd(a))
	root.AddCommand(newWatchCmd(a))

	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "brm:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// exitCode maps an error to the user or system exit code.
func exitCode(err error) int {
	var usage usageError
	switch {
	case errors.As(err, &usage),
		errors.Is(err, types.ErrProjectNotFound),
		errors.Is(err, store.ErrInvalidFileName):
		return exitUserError
	default:
		return exitSysError
	}
}

// usageError marks errors caused by bad command input.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func userErrorf(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// setup loads config.yaml, builds the logger and resolves every directory
// with precedence flag > config.yaml > environment > platform default.
func (a *app) setup(stderr io.Writer) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}

	a.log, err = logging.New(v.GetString(cfgKeyLogLevel), v.GetString(cfgKeyLogFormat), stderr)
	if err != nil {
		return err
	}

	if a.cfg.DataDir, err = paths.ResolveDataDir(a.flags.dataDir, v.GetString(cfgKeyDataDir)); err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	if a.cfg.EspansoDir, err = paths.ResolveEspansoDir(a.flags.espansoDir, v.GetString(cfgKeyEspansoDir)); err != nil {
		return fmt.Errorf("resolve espanso dir: %w", err)
	}
	if a.cfg.MatchDir, err = paths.ResolveMatchDir(a.flags.matchDir, v.GetString(cfgKeyMatchDir)); err != nil {
		return fmt.Errorf("resolve match dir: %w", err)
	}

	a.log.WithFields(logrus.Fields{
		"config_dir":  configDir,
		"data_dir":    a.cfg.DataDir,
		"espanso_dir": a.cfg.EspansoDir,
		"rule_dir":    a.cfg.RuleDir(),
	}).Debug("directories resolved")

	a.manager, err = manager.New(a.cfg, manager.WithLogger(a.log))
	return err
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
