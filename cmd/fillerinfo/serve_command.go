package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"

	"fillerinfo/internal/addon"
	"fillerinfo/internal/fillerdb"
	"fillerinfo/internal/logging"
	"fillerinfo/internal/notifications"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the addon HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.buildRuntime()
			if err != nil {
				return err
			}
			if bind != "" {
				rt.cfg.Server.Bind = bind
			}

			runCtx, cancel := context.WithCancel(commandCtx(cmd))
			defer cancel()

			server := addon.NewFromConfig(rt.cfg, rt.classifier, rt.holder, rt.cache, rt.logger)
			notifier := notifications.NewService(rt.cfg)

			var wg conc.WaitGroup
			if rt.cfg.Server.WatchDatabase && rt.cfg.Paths.FillerDB != "" {
				watcher := fillerdb.NewWatcher(rt.cfg.Paths.FillerDB, rt.holder, rt.logger)
				previous := 0
				if db := rt.holder.Current(); db != nil {
					previous = db.Len()
				}
				reloaded := make(chan *fillerdb.Database, 1)
				failures := make(chan error, 1)
				watcher.Notify(reloaded)
				watcher.NotifyFailure(failures)

				wg.Go(func() {
					if err := watcher.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
						logging.WarnWithContext(rt.logger, "database watcher stopped", "filler_db_watch_failed",
							logging.Error(err),
							logging.String(logging.FieldErrorHint, "restart the server to pick up database changes"),
							logging.String(logging.FieldImpact, "database edits are not reloaded"),
						)
					}
				})
				wg.Go(func() {
					forwardReloads(runCtx, notifier, previous, reloaded, failures, rt.logger)
				})
			}

			if notifications.Enabled(notifier) {
				entries := 0
				if db := rt.holder.Current(); db != nil {
					entries = db.Len()
				}
				if err := notifier.NotifyServerStarted(runCtx, manifestURL(rt.cfg.Server.PublicURL, rt.cfg.Server.Bind), entries); err != nil {
					warnNotifyFailed(rt.logger, err)
				}
			}

			serveErr := server.Run(runCtx)
			cancel()
			wg.Wait()
			return serveErr
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override the configured listen address")
	return cmd
}

// forwardReloads turns watcher events into operator notifications until ctx is done.
// previous is the entry count of the database loaded at startup.
func forwardReloads(ctx context.Context, notifier notifications.Service, previous int, reloaded <-chan *fillerdb.Database, failures <-chan error, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case db := <-reloaded:
			if err := notifier.NotifyDatabaseReloaded(ctx, db.Origin(), db.Len(), previous); err != nil {
				warnNotifyFailed(logger, err)
			}
			previous = db.Len()
		case reloadErr := <-failures:
			if err := notifier.NotifyDatabaseReloadFailed(ctx, reloadErr); err != nil {
				warnNotifyFailed(logger, err)
			}
		}
	}
}

func warnNotifyFailed(logger *slog.Logger, err error) {
	logging.WarnWithContext(logger, "notification not delivered", "notification_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		logging.String(logging.FieldImpact, "operator alert skipped"),
	)
}

func manifestURL(publicURL, bind string) string {
	if publicURL != "" {
		return publicURL + "/manifest.json"
	}
	return "http://" + bind + "/manifest.json"
}
