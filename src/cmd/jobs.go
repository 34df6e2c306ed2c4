package cmd

import (
	"context"

	"github.com/lms-ally/syncer/src/app"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func init() {
	RootCmd.AddCommand(fileUpdatesCmd)
	RootCmd.AddCommand(contentUpdatesCmd)
	RootCmd.AddCommand(pushCmd)
}

// Runs f once against a fresh app, bounded by the job timeout
func runJob(f func(ctx context.Context, a *app.App) error) (err error) {
	a, err := app.New(applicationCtx, conf)
	if err != nil {
		return
	}
	defer a.Close()

	ctx := applicationCtx
	if conf.Tasks.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, conf.Tasks.JobTimeout)
		defer cancel()
	}

	return f(ctx, a)
}

var fileUpdatesCmd = &cobra.Command{
	Use:   "file-updates",
	Short: "Push files changed since the last run and drain deleted files once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJob(func(ctx context.Context, a *app.App) error {
			return a.FileUpdates.Execute(ctx)
		})
	},
}

var contentUpdatesCmd = &cobra.Command{
	Use:   "content-updates",
	Short: "Drain queued content updates and deletions once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJob(func(ctx context.Context, a *app.App) error {
			return a.ContentUpdates.Execute(ctx)
		})
	},
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Run both delivery jobs once, side by side",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJob(func(ctx context.Context, a *app.App) error {
			// Jobs don't share state, the first failure doesn't stop the other one
			var g errgroup.Group
			g.Go(func() error {
				return a.FileUpdates.Execute(ctx)
			})
			g.Go(func() error {
				return a.ContentUpdates.Execute(ctx)
			})
			return g.Wait()
		})
	},
}
