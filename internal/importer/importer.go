// Package importer creates subscriptions in bulk from an uploaded file.
// A batch is all-or-nothing: the first bad row aborts and rolls back everything.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"subtrack/internal/core"
	"subtrack/internal/log"
	"subtrack/internal/storage"
)

type Importer struct {
	store   storage.SubscriptionStore
	decoder Decoder
	now     func() time.Time
	logger  *log.Logger
}

func New(store storage.SubscriptionStore, decoder Decoder, now func() time.Time) *Importer {
	if decoder == nil {
		decoder = NewCSVDecoder()
	}
	if now == nil {
		now = time.Now
	}
	return &Importer{
		store:   store,
		decoder: decoder,
		now:     now,
		logger:  log.WithComponent(log.ComponentImporter),
	}
}

// Import decodes r and creates one subscription per row for ownerID.
// Created records are returned in file order. Row failures are *core.RowError.
func (im *Importer) Import(ctx context.Context, ownerID int64, r io.Reader) ([]core.Subscription, error) {
	rows, err := im.decoder.Decode(r)
	if err != nil {
		return nil, err
	}

	now := im.now()
	today := core.DateOf(now)
	created := make([]core.Subscription, 0, len(rows))

	err = im.store.WithinTx(ctx, func(tx storage.Tx) error {
		seen := make(map[string]int, len(rows))
		for i, row := range rows {
			n := i + 1

			sub, err := rowInput(row).Parse()
			if err != nil {
				return &core.RowError{Row: n, Err: err}
			}

			if first, dup := seen[sub.Name]; dup {
				return &core.RowError{Row: n, Err: duplicateName(fmt.Sprintf("name repeats row %d", first))}
			}
			exists, err := tx.SubscriptionNameExists(ctx, ownerID, sub.Name)
			if err != nil {
				return err
			}
			if exists {
				return &core.RowError{Row: n, Err: duplicateName(core.ErrDuplicateName.Error())}
			}
			seen[sub.Name] = n

			if err := sub.Clean(today); err != nil {
				return &core.RowError{Row: n, Err: err}
			}

			sub.OwnerID = ownerID
			sub.CreatedAt = now
			sub.UpdatedAt = now
			saved, err := tx.CreateSubscription(ctx, sub)
			if errors.Is(err, core.ErrBusinessRule) {
				return &core.RowError{Row: n, Err: err}
			}
			if err != nil {
				return fmt.Errorf("create row %d: %w", n, err)
			}
			created = append(created, saved)
		}
		return nil
	})
	if err != nil {
		im.logger.WarnContext(ctx, "Import rejected",
			log.FieldUserID, ownerID,
			log.FieldRows, len(rows),
			log.FieldError, err)
		return nil, err
	}

	im.logger.InfoContext(ctx, "Import committed",
		log.FieldUserID, ownerID,
		log.FieldCount, len(created))
	return created, nil
}

func rowInput(row Row) core.SubscriptionInput {
	return core.SubscriptionInput{
		Name:             row["name"],
		Cost:             row["cost"],
		SubscriptionDate: row["subscription_date"],
		RenewalType:      row["renewal_type"],
	}
}

func duplicateName(msg string) core.FieldErrors {
	return core.FieldErrors{"name": {msg}}
}
