package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/chorechat/internal/store"
)

const retentionWorkerInterval = time.Hour

// StartRetentionWorker runs a background goroutine that periodically deletes
// chat messages older than retention. It stops when ctx is done.
func StartRetentionWorker(ctx context.Context, repo store.Repository, retention time.Duration) {
	startRetentionWorker(ctx, repo, retention, retentionWorkerInterval)
}

func startRetentionWorker(ctx context.Context, repo store.Repository, retention, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Retention worker started", "interval", interval, "retention", retention)

		for {
			select {
			case <-ticker.C:
				cleanupHistory(ctx, repo, retention)
			case <-ctx.Done():
				slog.Info("Retention worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func cleanupHistory(ctx context.Context, repo store.Repository, retention time.Duration) int64 {
	deleted, err := repo.CleanupMessages(ctx, retention)
	if err != nil {
		slog.Error("Retention worker failed to delete old messages", "error", err)
		return 0
	}
	if deleted > 0 {
		slog.Info("Retention worker deleted old messages", "count", deleted)
	}
	return deleted
}
