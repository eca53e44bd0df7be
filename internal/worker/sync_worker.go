package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subtrack/internal/amqp"
	"subtrack/internal/core"
	"subtrack/internal/log"
	"subtrack/internal/metrics"
	"subtrack/internal/sheets"
)

// Store is the slice of the repository the worker reads and marks.
type Store interface {
	GetSubscription(ctx context.Context, id int64) (core.Subscription, error)
	ListUnsyncedSubscriptions(ctx context.Context, limit int) ([]core.Subscription, error)
	MarkSynced(ctx context.Context, id int64, at time.Time) error
}

// SyncWorker mirrors subscriptions from the store into a sheet.
type SyncWorker struct {
	store     Store
	mirror    sheets.SubscriptionMirror
	metrics   *metrics.Metrics
	batchSize int
	now       func() time.Time
	logger    *log.Logger
}

func NewSyncWorker(store Store, mirror sheets.SubscriptionMirror, m *metrics.Metrics, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &SyncWorker{
		store:     store,
		mirror:    mirror,
		metrics:   m,
		batchSize: batchSize,
		now:       time.Now,
		logger:    log.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent applies one subscription event to the mirror. A returned error
// asks the broker to redeliver.
func (w *SyncWorker) HandleEvent(ctx context.Context, e *amqp.SubscriptionEvent) error {
	w.logger.InfoContext(ctx, "Processing subscription event",
		log.FieldEventType, e.Type,
		log.FieldMessageID, e.ID,
		log.FieldSubscriptionID, e.SubscriptionID)

	switch e.Type {
	case amqp.SubscriptionCreated, amqp.SubscriptionUpdated:
		sub, err := w.store.GetSubscription(ctx, e.SubscriptionID)
		if errors.Is(err, core.ErrNotFound) {
			// deleted before we got here; the delete event cleans up
			w.logger.DebugContext(ctx, "Subscription gone, skipping sync",
				log.FieldSubscriptionID, e.SubscriptionID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get subscription from storage: %w", err)
		}
		return w.sync(ctx, sub)

	case amqp.SubscriptionDeleted:
		err := w.mirror.Delete(ctx, e.SubscriptionID)
		w.metrics.SheetSync(log.OpDelete, err)
		if err != nil {
			return fmt.Errorf("delete subscription from sheet: %w", err)
		}
		w.logger.InfoContext(ctx, "Removed subscription from sheet",
			log.FieldSubscriptionID, e.SubscriptionID)
		return nil
	}

	return fmt.Errorf("unsupported event type %q", e.Type)
}

// ProcessPending syncs one batch of rows that were never mirrored, a backstop
// for lost messages. It returns how many rows were synced.
func (w *SyncWorker) ProcessPending(ctx context.Context) (int, error) {
	pending, err := w.store.ListUnsyncedSubscriptions(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending subscriptions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	w.logger.InfoContext(ctx, "Processing pending subscriptions", log.FieldCount, len(pending))

	synced := 0
	for _, sub := range pending {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := w.sync(ctx, sub); err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync subscription",
				log.FieldSubscriptionID, sub.ID,
				log.FieldError, err)
			continue
		}
		synced++
	}
	return synced, nil
}

// Run calls ProcessPending immediately and then on every tick until ctx ends.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := w.ProcessPending(ctx); err != nil && ctx.Err() == nil {
			w.logger.ErrorContext(ctx, "Pending sync failed", log.FieldError, err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *SyncWorker) sync(ctx context.Context, sub core.Subscription) error {
	ref, err := w.mirror.Upsert(ctx, sub)
	w.metrics.SheetSync(log.OpSync, err)
	if err != nil {
		return fmt.Errorf("upsert to sheets: %w", err)
	}

	if err := w.store.MarkSynced(ctx, sub.ID, w.now()); err != nil {
		// the row is in the sheet; the next pending pass rewrites it in place
		w.logger.ErrorContext(ctx, "Failed to mark as synced",
			log.FieldSubscriptionID, sub.ID,
			log.FieldError, err)
	}

	w.logger.InfoContext(ctx, "Successfully synced subscription",
		log.FieldSubscriptionID, sub.ID,
		log.FieldSheetsRef, ref,
		log.FieldCostCents, sub.Cost.Cents)
	return nil
}
