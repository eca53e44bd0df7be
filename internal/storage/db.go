package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{
		db: tx,
	}
}

// Row types as stored. Dates and timestamps are TEXT columns.
type SubscriptionRow struct {
	ID               int64
	UserID           int64
	Name             string
	CostCents        int64
	SubscriptionDate string
	RenewalType      string
	IsActive         bool
	CreatedAt        string
	UpdatedAt        string
	SyncedAt         sql.NullString
}

type UserRow struct {
	ID           int64
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	IsActive     bool
	CreatedAt    string
}
