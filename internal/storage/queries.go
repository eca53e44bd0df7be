package storage

import (
	"context"
	"database/sql"
)

const subscriptionColumns = `id, user_id, name, cost_cents, subscription_date, renewal_type, is_active, created_at, updated_at, synced_at`

func scanSubscription(row interface{ Scan(...interface{}) error }) (SubscriptionRow, error) {
	var i SubscriptionRow
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Name,
		&i.CostCents,
		&i.SubscriptionDate,
		&i.RenewalType,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.SyncedAt,
	)
	return i, err
}

func collectSubscriptions(rows *sql.Rows) ([]SubscriptionRow, error) {
	defer rows.Close()
	var items []SubscriptionRow
	for rows.Next() {
		i, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createSubscription = `-- name: CreateSubscription :one
INSERT INTO subscriptions (user_id, name, cost_cents, subscription_date, renewal_type, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + subscriptionColumns

type CreateSubscriptionParams struct {
	UserID           int64
	Name             string
	CostCents        int64
	SubscriptionDate string
	RenewalType      string
	IsActive         bool
	CreatedAt        string
	UpdatedAt        string
}

func (q *Queries) CreateSubscription(ctx context.Context, arg CreateSubscriptionParams) (SubscriptionRow, error) {
	row := q.db.QueryRowContext(ctx, createSubscription,
		arg.UserID,
		arg.Name,
		arg.CostCents,
		arg.SubscriptionDate,
		arg.RenewalType,
		arg.IsActive,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanSubscription(row)
}

const getSubscription = `-- name: GetSubscription :one
SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = ?`

func (q *Queries) GetSubscription(ctx context.Context, id int64) (SubscriptionRow, error) {
	return scanSubscription(q.db.QueryRowContext(ctx, getSubscription, id))
}

const listSubscriptionsByUser = `-- name: ListSubscriptionsByUser :many
SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = ? ORDER BY id`

func (q *Queries) ListSubscriptionsByUser(ctx context.Context, userID int64) ([]SubscriptionRow, error) {
	rows, err := q.db.QueryContext(ctx, listSubscriptionsByUser, userID)
	if err != nil {
		return nil, err
	}
	return collectSubscriptions(rows)
}

const subscriptionNameExists = `-- name: SubscriptionNameExists :one
SELECT EXISTS (SELECT 1 FROM subscriptions WHERE user_id = ? AND name = ?)`

func (q *Queries) SubscriptionNameExists(ctx context.Context, userID int64, name string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, subscriptionNameExists, userID, name).Scan(&exists)
	return exists, err
}

const updateSubscription = `-- name: UpdateSubscription :one
UPDATE subscriptions
SET name = ?, cost_cents = ?, subscription_date = ?, renewal_type = ?, is_active = ?, updated_at = ?, synced_at = NULL
WHERE id = ?
RETURNING ` + subscriptionColumns

type UpdateSubscriptionParams struct {
	ID               int64
	Name             string
	CostCents        int64
	SubscriptionDate string
	RenewalType      string
	IsActive         bool
	UpdatedAt        string
}

func (q *Queries) UpdateSubscription(ctx context.Context, arg UpdateSubscriptionParams) (SubscriptionRow, error) {
	row := q.db.QueryRowContext(ctx, updateSubscription,
		arg.Name,
		arg.CostCents,
		arg.SubscriptionDate,
		arg.RenewalType,
		arg.IsActive,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanSubscription(row)
}

const deleteSubscription = `-- name: DeleteSubscription :execrows
DELETE FROM subscriptions WHERE id = ?`

func (q *Queries) DeleteSubscription(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteSubscription, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getUnsyncedSubscriptions = `-- name: GetUnsyncedSubscriptions :many
SELECT ` + subscriptionColumns + ` FROM subscriptions
WHERE synced_at IS NULL
ORDER BY updated_at ASC, id ASC
LIMIT ?`

func (q *Queries) GetUnsyncedSubscriptions(ctx context.Context, limit int64) ([]SubscriptionRow, error) {
	rows, err := q.db.QueryContext(ctx, getUnsyncedSubscriptions, limit)
	if err != nil {
		return nil, err
	}
	return collectSubscriptions(rows)
}

const markSubscriptionSynced = `-- name: MarkSubscriptionSynced :execrows
UPDATE subscriptions SET synced_at = ? WHERE id = ?`

func (q *Queries) MarkSubscriptionSynced(ctx context.Context, syncedAt string, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, markSubscriptionSynced, syncedAt, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const userColumns = `id, username, password_hash, first_name, last_name, is_active, created_at`

func scanUser(row *sql.Row) (UserRow, error) {
	var i UserRow
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.PasswordHash,
		&i.FirstName,
		&i.LastName,
		&i.IsActive,
		&i.CreatedAt,
	)
	return i, err
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (username, password_hash, first_name, last_name, is_active, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + userColumns

type CreateUserParams struct {
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	IsActive     bool
	CreatedAt    string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (UserRow, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.Username,
		arg.PasswordHash,
		arg.FirstName,
		arg.LastName,
		arg.IsActive,
		arg.CreatedAt,
	)
	return scanUser(row)
}

const getUserByUsername = `-- name: GetUserByUsername :one
SELECT ` + userColumns + ` FROM users WHERE username = ?`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (UserRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByUsername, username))
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (UserRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}
