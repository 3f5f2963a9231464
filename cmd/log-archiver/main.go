package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/partnerdesk/partner-api/internal/config"
	"github.com/partnerdesk/partner-api/internal/domain/transfer"
	"github.com/partnerdesk/partner-api/internal/pkg/archive"
	"github.com/partnerdesk/partner-api/internal/pkg/database"
	"github.com/partnerdesk/partner-api/internal/pkg/logger"
)

const watermarkKey = "balance_log:archive:watermark"

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().Msg("Starting log-archiver")

	if !cfg.ArchiveEnabled {
		log.Fatal().Msg("ARCHIVE_ENABLED is false; nothing to do")
	}

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(rdb)

	store, err := archive.New(archive.Config{
		AccountID:       cfg.ArchiveAccountID,
		AccessKeyID:     cfg.ArchiveAccessKeyID,
		AccessKeySecret: cfg.ArchiveAccessKeySecret,
		BucketName:      cfg.ArchiveBucketName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create archive storage client")
	}

	repo := transfer.NewRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Pub/sub wake-up on committed transfers; polling still runs.
	wake := make(chan struct{}, 1)
	go subscribeWakeups(ctx, rdb, wake)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		log.Info().Msg("Shutdown signal received")
		cancel()
	}()

	interval := time.Duration(cfg.ArchiveIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("log-archiver stopped")
			return
		case <-wake:
			// immediate poll
		case <-ticker.C:
		}

		if err := archiveOnce(ctx, repo, rdb, store, cfg.ArchiveBatchSize); err != nil {
			log.Error().Err(err).Msg("Archive pass failed")
		}
	}
}

// archiveOnce ships at most one batch of log rows committed after the Redis
// watermark. The watermark only advances after a successful upload, so a
// failed pass re-ships the same rows; objects are keyed by content window and
// overwriting them is harmless.
func archiveOnce(ctx context.Context, repo *transfer.Repository, rdb *goredis.Client, store *archive.Storage, batchSize int) error {
	since, err := loadWatermark(ctx, rdb)
	if err != nil {
		return fmt.Errorf("load watermark: %w", err)
	}

	records, err := repo.ListSince(ctx, since, batchSize)
	if err != nil {
		return fmt.Errorf("list log rows: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	first := records[0].CreatedAt
	last := records[len(records)-1].CreatedAt

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	key := fmt.Sprintf("balance-log/%s/%s_%s.json",
		first.UTC().Format("2006/01/02"),
		first.UTC().Format("150405.000000000"),
		last.UTC().Format("150405.000000000"))

	if err := store.Put(ctx, key, data, "application/json"); err != nil {
		return fmt.Errorf("upload batch: %w", err)
	}

	if err := rdb.Set(ctx, watermarkKey, last.UTC().Format(time.RFC3339Nano), 0).Err(); err != nil {
		return fmt.Errorf("advance watermark: %w", err)
	}

	log.Info().
		Int("rows", len(records)).
		Str("key", key).
		Time("watermark", last).
		Msg("Archived balance-log batch")
	return nil
}

func loadWatermark(ctx context.Context, rdb *goredis.Client) (time.Time, error) {
	raw, err := rdb.Get(ctx, watermarkKey).Result()
	if err == goredis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt watermark %q: %w", raw, err)
	}
	return ts, nil
}

func subscribeWakeups(ctx context.Context, rdb *goredis.Client, wake chan<- struct{}) {
	sub := rdb.Subscribe(ctx, transfer.EventChannel)
	defer func() { _ = sub.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Channel():
			select {
			case wake <- struct{}{}:
			default:
			}
		}
	}
}
