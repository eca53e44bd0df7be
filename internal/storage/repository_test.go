package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "subtrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *SQLiteRepository, username string) core.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), core.User{
		Username:     username,
		PasswordHash: "hash",
		IsActive:     true,
		CreatedAt:    time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return u
}

func newSub(owner int64, name string, cents int64) core.Subscription {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	return core.Subscription{
		OwnerID:          owner,
		Name:             name,
		Cost:             core.Money{Cents: cents},
		SubscriptionDate: core.NewDate(2026, 10, 1),
		RenewalType:      core.Monthly,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestSQLiteRepositorySubscriptionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	owner := seedUser(t, repo, "alice")

	created, err := repo.CreateSubscription(ctx, newSub(owner.ID, "Netflix", 1299))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Netflix", created.Name)
	assert.Equal(t, int64(1299), created.Cost.Cents)
	assert.Equal(t, "2026-10-01", created.SubscriptionDate.String())

	got, err := repo.GetSubscription(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	got.Name = "Netflix Premium"
	got.RenewalType = core.Yearly
	got.UpdatedAt = got.UpdatedAt.Add(time.Hour)
	replaced, err := repo.ReplaceSubscription(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Netflix Premium", replaced.Name)
	assert.Equal(t, core.Yearly, replaced.RenewalType)
	assert.Equal(t, created.CreatedAt, replaced.CreatedAt)

	require.NoError(t, repo.DeleteSubscription(ctx, created.ID))
	_, err = repo.GetSubscription(ctx, created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteSubscription(ctx, created.ID), core.ErrNotFound)
}

func TestSQLiteRepositoryDuplicateName(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	alice := seedUser(t, repo, "alice")
	bob := seedUser(t, repo, "bob")

	_, err := repo.CreateSubscription(ctx, newSub(alice.ID, "Spotify", 999))
	require.NoError(t, err)

	_, err = repo.CreateSubscription(ctx, newSub(alice.ID, "Spotify", 1099))
	assert.ErrorIs(t, err, core.ErrDuplicateName)
	assert.ErrorIs(t, err, core.ErrBusinessRule)

	_, err = repo.CreateSubscription(ctx, newSub(bob.ID, "Spotify", 999))
	assert.NoError(t, err, "names are unique per owner only")
}

func TestSQLiteRepositoryListScopedToOwner(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	alice := seedUser(t, repo, "alice")
	bob := seedUser(t, repo, "bob")

	for _, name := range []string{"A", "B"} {
		_, err := repo.CreateSubscription(ctx, newSub(alice.ID, name, 100))
		require.NoError(t, err)
	}
	_, err := repo.CreateSubscription(ctx, newSub(bob.ID, "C", 100))
	require.NoError(t, err)

	subs, err := repo.ListSubscriptions(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "A", subs[0].Name)
	assert.Equal(t, "B", subs[1].Name)
}

func TestSQLiteRepositoryWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	owner := seedUser(t, repo, "alice")

	boom := errors.New("boom")
	err := repo.WithinTx(ctx, func(tx Tx) error {
		if _, err := tx.CreateSubscription(ctx, newSub(owner.ID, "One", 100)); err != nil {
			return err
		}
		exists, err := tx.SubscriptionNameExists(ctx, owner.ID, "One")
		if err != nil {
			return err
		}
		assert.True(t, exists, "rows written in the transaction are visible to it")
		return boom
	})
	require.ErrorIs(t, err, boom)

	subs, err := repo.ListSubscriptions(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)

	err = repo.WithinTx(ctx, func(tx Tx) error {
		_, err := tx.CreateSubscription(ctx, newSub(owner.ID, "Two", 100))
		return err
	})
	require.NoError(t, err)

	subs, err = repo.ListSubscriptions(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestSQLiteRepositorySyncTracking(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	owner := seedUser(t, repo, "alice")

	created, err := repo.CreateSubscription(ctx, newSub(owner.ID, "iCloud", 299))
	require.NoError(t, err)

	pending, err := repo.ListUnsyncedSubscriptions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, repo.MarkSynced(ctx, created.ID, time.Now()))
	pending, err = repo.ListUnsyncedSubscriptions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// A replace clears the sync marker.
	created.Cost = core.Money{Cents: 399}
	_, err = repo.ReplaceSubscription(ctx, created)
	require.NoError(t, err)
	pending, err = repo.ListUnsyncedSubscriptions(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestSQLiteRepositoryUsers(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	alice := seedUser(t, repo, "alice")

	_, err := repo.CreateUser(ctx, core.User{Username: "alice", PasswordHash: "x", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, core.ErrDuplicateUsername)

	byName, err := repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)

	byID, err := repo.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.True(t, byID.IsActive)

	_, err = repo.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
