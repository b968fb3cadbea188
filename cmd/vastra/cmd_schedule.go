package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/vastra/app/jobs"
	"github.com/shashiranjanraj/vastra/app/services"
	"github.com/shashiranjanraj/vastra/config"
	"github.com/shashiranjanraj/vastra/pkg/cache"
	"github.com/shashiranjanraj/vastra/pkg/database"
	"github.com/shashiranjanraj/vastra/pkg/event"
	"github.com/shashiranjanraj/vastra/pkg/logger"
	"github.com/shashiranjanraj/vastra/pkg/queue"
	"github.com/shashiranjanraj/vastra/pkg/schedule"
	"github.com/shashiranjanraj/vastra/pkg/storage"
)

// vastra schedule:run — watch the feed directory and run queued imports.
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Watch the feed directory and import new files",
	Long: "Scans the storage disk's feed directory every minute and queues an\n" +
		"import for every new feed file. Runs its own queue workers, so a\n" +
		"single process both discovers and imports feeds.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		storage.Connect()
		jobs.RegisterAll()
		queue.UseDB(database.DB)
		if err := cache.Connect(); err == nil {
			queue.SetDriver(queue.NewRedisDriver(cache.RDB))
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		event.Listen(services.EventBatchFinished, func(payload interface{}) {
			if s, ok := payload.(services.Summary); ok {
				logger.Info("scheduled import finished",
					"batch_id", s.BatchID, "processed", s.Processed, "failed", s.Failed)
			}
		})

		watcher := jobs.NewFeedWatcher(
			database.DB,
			storage.Use(config.StorageDefault()),
			config.FeedWatchDir(),
			config.FeedWatchProfile(),
		)
		schedule.EveryMinute().Name("feed-watch").WithoutOverlapping().Run(watcher.Scan)

		queue.StartWorkers(ctx, 2)
		schedule.Start(ctx)

		fmt.Println("Scheduler started. Press Ctrl+C to stop.")
		<-ctx.Done()
		fmt.Println("\nScheduler stopped.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scheduleRunCmd)
}
