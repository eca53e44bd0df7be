package storage

import (
	"context"
	"time"

	"subtrack/internal/core"
)

// Ports implemented by the SQLite and in-memory stores.
type (
	// Tx is the view of the store inside an all-or-nothing transaction.
	Tx interface {
		SubscriptionNameExists(ctx context.Context, ownerID int64, name string) (bool, error)
		CreateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error)
	}

	SubscriptionStore interface {
		CreateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error)
		// ListSubscriptions returns the owner's subscriptions ordered by id.
		ListSubscriptions(ctx context.Context, ownerID int64) ([]core.Subscription, error)
		// GetSubscription returns core.ErrNotFound when the id does not exist.
		GetSubscription(ctx context.Context, id int64) (core.Subscription, error)
		ReplaceSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error)
		DeleteSubscription(ctx context.Context, id int64) error
		// WithinTx runs fn in one transaction, rolling back when fn returns an error.
		WithinTx(ctx context.Context, fn func(Tx) error) error
	}

	// SyncStore tracks which subscriptions have been mirrored downstream.
	SyncStore interface {
		ListUnsyncedSubscriptions(ctx context.Context, limit int) ([]core.Subscription, error)
		MarkSynced(ctx context.Context, id int64, at time.Time) error
	}

	UserStore interface {
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUserByUsername(ctx context.Context, username string) (core.User, error)
		GetUserByID(ctx context.Context, id int64) (core.User, error)
	}

	// Repository is everything a backend provides.
	Repository interface {
		SubscriptionStore
		SyncStore
		UserStore
		Close() error
	}
)
