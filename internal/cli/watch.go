package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/brm/internal/watch"
	"github.com/mesh-intelligence/brm/pkg/types"
)

func newWatchCmd(a *app) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the Espanso documents when the catalogue is edited",
		Long: `Watch monitors the catalogue and the category definitions and rewrites
the generated documents after every external edit. It runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, debounce)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before regenerating")
	return cmd
}

func (a *app) watch(ctx context.Context, debounce time.Duration) error {
	if err := a.manager.Regenerate(); err != nil {
		return err
	}
	w := watch.New(a.cfg.StateDir(), []string{types.CatalogueFileName, types.CategoriesFileName}, a.log)
	w.Debounce = debounce
	a.log.WithField("dir", w.Dir).Info("watching for changes")

	err := w.Run(ctx, func(files []string) error {
		a.log.WithField("files", files).Info("regenerating")
		return a.manager.Regenerate()
	})
	if err != nil && ctx.Err() == nil {
		return err
	}
	a.log.WithFields(logrus.Fields{"dir": w.Dir}).Info("watch stopped")
	return nil
}
