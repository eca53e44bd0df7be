package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/core"
	"subtrack/internal/services"
	"subtrack/internal/storage/memory"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subs.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_, err := store.CreateUser(ctx, core.User{Username: "alice", PasswordHash: "x", IsActive: true})
	require.NoError(t, err)

	svc := services.NewSubscriptionService(store, services.Options{
		Now: func() time.Time { return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC) },
	})

	t.Run("imports every row", func(t *testing.T) {
		path := writeCSV(t, "name,cost,subscription_date,renewal_type\n"+
			"Netflix,12.99,2026-10-01,monthly\n"+
			"Spotify,60,2026-03-01,yearly\n")
		var out bytes.Buffer
		require.NoError(t, run(ctx, store, svc, "alice", path, &out))
		assert.Contains(t, out.String(), "Netflix\t12.99\tmonthly\trenews 2026-11-01")
		assert.Contains(t, out.String(), "5.00/month")
		assert.Contains(t, out.String(), "imported 2 subscriptions for alice")
	})

	t.Run("row failure", func(t *testing.T) {
		path := writeCSV(t, "name,cost,subscription_date,renewal_type\n"+
			"Disney,8.99,2026-10-01,monthly\n"+
			"Netflix,12.99,2026-10-01,monthly\n")
		var out bytes.Buffer
		err := run(ctx, store, svc, "alice", path, &out)
		var rowErr *core.RowError
		require.ErrorAs(t, err, &rowErr)
		assert.Equal(t, 2, rowErr.Row)
		assert.Empty(t, out.String())
	})

	t.Run("unknown user", func(t *testing.T) {
		err := run(ctx, store, svc, "nobody", writeCSV(t, "name\n"), &bytes.Buffer{})
		assert.ErrorContains(t, err, `user "nobody" does not exist`)
	})

	t.Run("missing file", func(t *testing.T) {
		err := run(ctx, store, svc, "alice", filepath.Join(t.TempDir(), "nope.csv"), &bytes.Buffer{})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
