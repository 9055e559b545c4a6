// cmd/tools/cleanup-expired/main.go

// Cron-friendly sweep that deletes notifications whose expiry has passed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/geonook/es-international-department-sub001/internal/common/config"
	"github.com/geonook/es-international-department-sub001/internal/common/database"
	"github.com/geonook/es-international-department-sub001/internal/common/logger"
	"github.com/geonook/es-international-department-sub001/internal/notification/store"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "count expired notifications without deleting them")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout for the sweep")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pg.Close()

	if *dryRun {
		var count int64
		err := pg.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM notifications WHERE expires_at IS NOT NULL AND expires_at < NOW()`).
			Scan(&count)
		if err != nil {
			zapLog.Fatal("dry-run count failed", zap.Error(err))
		}
		fmt.Printf("%d expired notifications would be deleted\n", count)
		return
	}

	deleted, err := store.New(pg.DB, log).CleanupExpired(ctx)
	if err != nil {
		zapLog.Fatal("cleanup failed", zap.Error(err))
	}
	fmt.Printf("deleted %d expired notifications\n", deleted)
}
