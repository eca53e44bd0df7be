package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"subtrack/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const timestampLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ Repository = (*SQLiteRepository)(nil)

// DSN builds the connection string used for both the pool and migrations.
func DSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) CreateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error) {
	return insertSubscription(ctx, r.queries, s)
}

func (r *SQLiteRepository) ListSubscriptions(ctx context.Context, ownerID int64) ([]core.Subscription, error) {
	rows, err := r.queries.ListSubscriptionsByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return toSubscriptions(rows)
}

func (r *SQLiteRepository) GetSubscription(ctx context.Context, id int64) (core.Subscription, error) {
	row, err := r.queries.GetSubscription(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Subscription{}, core.ErrNotFound
	}
	if err != nil {
		return core.Subscription{}, fmt.Errorf("get subscription %d: %w", id, err)
	}
	return toSubscription(row)
}

func (r *SQLiteRepository) ReplaceSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error) {
	row, err := r.queries.UpdateSubscription(ctx, UpdateSubscriptionParams{
		ID:               s.ID,
		Name:             s.Name,
		CostCents:        s.Cost.Cents,
		SubscriptionDate: s.SubscriptionDate.String(),
		RenewalType:      s.RenewalType.String(),
		IsActive:         s.IsActive,
		UpdatedAt:        formatTimestamp(s.UpdatedAt),
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return core.Subscription{}, core.ErrNotFound
	case isUniqueViolation(err):
		return core.Subscription{}, core.ErrDuplicateName
	case err != nil:
		return core.Subscription{}, fmt.Errorf("update subscription %d: %w", s.ID, err)
	}
	return toSubscription(row)
}

func (r *SQLiteRepository) DeleteSubscription(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteSubscription(ctx, id)
	if err != nil {
		return fmt.Errorf("delete subscription %d: %w", id, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) WithinTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&sqliteTx{q: r.queries.WithTx(tx)}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Transaction rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListUnsyncedSubscriptions(ctx context.Context, limit int) ([]core.Subscription, error) {
	rows, err := r.queries.GetUnsyncedSubscriptions(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get unsynced subscriptions: %w", err)
	}
	return toSubscriptions(rows)
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64, at time.Time) error {
	n, err := r.queries.MarkSubscriptionSynced(ctx, formatTimestamp(at), id)
	if err != nil {
		return fmt.Errorf("mark subscription synced: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	slog.DebugContext(ctx, "Subscription marked as synced", "id", id)
	return nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	row, err := r.queries.CreateUser(ctx, CreateUserParams{
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsActive:     u.IsActive,
		CreatedAt:    formatTimestamp(u.CreatedAt),
	})
	if isUniqueViolation(err) {
		return core.User{}, core.ErrDuplicateUsername
	}
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return toUser(row)
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	row, err := r.queries.GetUserByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return toUser(row)
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	row, err := r.queries.GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return toUser(row)
}

type sqliteTx struct {
	q *Queries
}

func (t *sqliteTx) SubscriptionNameExists(ctx context.Context, ownerID int64, name string) (bool, error) {
	exists, err := t.q.SubscriptionNameExists(ctx, ownerID, name)
	if err != nil {
		return false, fmt.Errorf("check subscription name: %w", err)
	}
	return exists, nil
}

func (t *sqliteTx) CreateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error) {
	return insertSubscription(ctx, t.q, s)
}

func insertSubscription(ctx context.Context, q *Queries, s core.Subscription) (core.Subscription, error) {
	row, err := q.CreateSubscription(ctx, CreateSubscriptionParams{
		UserID:           s.OwnerID,
		Name:             s.Name,
		CostCents:        s.Cost.Cents,
		SubscriptionDate: s.SubscriptionDate.String(),
		RenewalType:      s.RenewalType.String(),
		IsActive:         s.IsActive,
		CreatedAt:        formatTimestamp(s.CreatedAt),
		UpdatedAt:        formatTimestamp(s.UpdatedAt),
	})
	if isUniqueViolation(err) {
		return core.Subscription{}, core.ErrDuplicateName
	}
	if err != nil {
		return core.Subscription{}, fmt.Errorf("create subscription: %w", err)
	}
	return toSubscription(row)
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func toSubscriptions(rows []SubscriptionRow) ([]core.Subscription, error) {
	subs := make([]core.Subscription, 0, len(rows))
	for _, row := range rows {
		s, err := toSubscription(row)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, nil
}

func toSubscription(row SubscriptionRow) (core.Subscription, error) {
	start, err := core.ParseDate(row.SubscriptionDate)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("subscription %d: bad subscription_date %q: %w", row.ID, row.SubscriptionDate, err)
	}
	createdAt, err := parseTimestamp(row.CreatedAt)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("subscription %d: bad created_at: %w", row.ID, err)
	}
	updatedAt, err := parseTimestamp(row.UpdatedAt)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("subscription %d: bad updated_at: %w", row.ID, err)
	}

	return core.Subscription{
		ID:               row.ID,
		OwnerID:          row.UserID,
		Name:             row.Name,
		Cost:             core.Money{Cents: row.CostCents},
		SubscriptionDate: start,
		RenewalType:      core.RenewalType(row.RenewalType),
		IsActive:         row.IsActive,
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}, nil
}

func toUser(row UserRow) (core.User, error) {
	createdAt, err := parseTimestamp(row.CreatedAt)
	if err != nil {
		return core.User{}, fmt.Errorf("user %d: bad created_at: %w", row.ID, err)
	}
	return core.User{
		ID:           row.ID,
		Username:     row.Username,
		PasswordHash: row.PasswordHash,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		IsActive:     row.IsActive,
		CreatedAt:    createdAt,
	}, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(timestampLayout, s)
}
