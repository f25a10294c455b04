package pipeline

import (
	"context"
	"errors"
	"time"

	"eventstore-sqlite/internal/config"
	"eventstore-sqlite/internal/eventstore"
	"eventstore-sqlite/internal/logger"
	"eventstore-sqlite/internal/model"
	"eventstore-sqlite/internal/store"
)

// progressEvery is how many flushed batches pass between progress
// logs.
const progressEvery = 10

// Convert runs one full conversion: pull every event from the source
// log, normalize it, and write it to the destination in batches.
// Source and destination handles are released on every exit path;
// cancelling ctx unwinds through the same cleanup.
func Convert(ctx context.Context, cfg config.Config) (model.RunStats, error) {
	start := time.Now()
	logger.Info("starting event conversion",
		"uri", cfg.EventStoreURI,
		"db", cfg.DBPath,
		"batch_size", cfg.BatchSize,
		"commit_frequency", cfg.CommitFrequency,
		"validate", cfg.ValidateData,
	)

	client, err := eventstore.Connect(cfg.EventStoreURI)
	if err != nil {
		return model.RunStats{}, err
	}
	defer client.Close()

	st := store.New(cfg)
	if err := st.Open(); err != nil {
		return model.RunStats{}, err
	}
	defer st.Close()

	it, err := client.ReadAll(ctx)
	if err != nil {
		return model.RunStats{}, err
	}
	defer it.Stop()

	batch := make([]model.NormalizedRecord, 0, cfg.BatchSize)
	var totalProcessed, skipped int64
	var flushedBatches int

	flush := func() error {
		n := len(batch)
		err := st.WriteBatch(batch)
		// A failed batch is dropped, never retried.
		batch = batch[:0]
		if err != nil {
			return err
		}
		totalProcessed += int64(n)
		return nil
	}

	// The remaining buffer is drained at most once, whichever way the
	// loop ends. On a failure path the drain is best-effort.
	drained := false
	defer func() {
		if drained || len(batch) == 0 {
			return
		}
		drained = true
		if err := flush(); err != nil {
			logger.Error("draining remaining batch failed", "error", err)
		}
	}()

	for it.Next() {
		ev := it.Event()

		rec, err := Normalize(ev, cfg.ValidateData)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				logger.Warn("skipping invalid event", "event_id", ev.ID, "reason", verr.Reason.String(), "detail", verr.Detail)
				skipped++
				continue
			}
			return model.RunStats{}, err
		}

		batch = append(batch, rec)
		if len(batch) >= cfg.BatchSize {
			if err := flush(); err != nil {
				return model.RunStats{}, err
			}
			flushedBatches++
			if flushedBatches%progressEvery == 0 {
				logger.Info("conversion progress", "events_processed", totalProcessed)
			}
		}
	}
	if err := it.Err(); err != nil {
		return model.RunStats{}, err
	}

	drained = true
	if err := flush(); err != nil {
		return model.RunStats{}, err
	}
	it.Stop()

	elapsed := time.Since(start).Seconds()
	stats := model.RunStats{
		StoreStats:      st.Stats(),
		DurationSeconds: elapsed,
		SkippedEvents:   skipped,
	}
	if elapsed > 0 {
		stats.EventsPerSecond = float64(totalProcessed) / elapsed
	}

	logger.Info("conversion completed",
		"total_events", stats.TotalEvents,
		"session_events", stats.EventsThisSession,
		"batches", stats.BatchesProcessed,
		"skipped", stats.SkippedEvents,
		"duration_seconds", stats.DurationSeconds,
	)
	return stats, nil
}
