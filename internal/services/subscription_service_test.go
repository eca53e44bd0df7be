package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/amqp"
	"subtrack/internal/core"
	"subtrack/internal/metrics"
	"subtrack/internal/storage/memory"
)

var today = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

// MockPublisher records events and returns PublishErr.
type MockPublisher struct {
	mu         sync.Mutex
	Events     []*amqp.SubscriptionEvent
	PublishErr error
}

func (m *MockPublisher) Publish(_ context.Context, e *amqp.SubscriptionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, e)
	return m.PublishErr
}

func (m *MockPublisher) types() []amqp.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]amqp.EventType, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Type
	}
	return out
}

func newService(t *testing.T) (*SubscriptionService, *memory.Store, *MockPublisher) {
	t.Helper()
	store := memory.New()
	pub := &MockPublisher{}
	svc := NewSubscriptionService(store, Options{
		Publisher: pub,
		Metrics:   metrics.New(),
		Now:       func() time.Time { return today },
	})
	return svc, store, pub
}

func input(name, cost, date, rt string) core.SubscriptionInput {
	return core.SubscriptionInput{Name: name, Cost: cost, SubscriptionDate: date, RenewalType: rt}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newService(t)

	created, err := svc.Create(ctx, 1, input("Netflix", "12.99", "2026-10-01", "monthly"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.OwnerID)
	assert.True(t, created.IsActive)
	assert.Equal(t, today, created.CreatedAt)
	assert.Equal(t, "2026-11-01", created.RenewalDate().String())

	stored, err := store.GetSubscription(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, stored)
	assert.Equal(t, []amqp.EventType{amqp.SubscriptionCreated}, pub.types())
}

func TestCreateRejectsPastRenewal(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newService(t)

	_, err := svc.Create(ctx, 1, input("Old", "5.00", "2026-09-18", "monthly"))
	require.ErrorIs(t, err, core.ErrRenewalInPast)

	subs, err := store.ListSubscriptions(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, subs)
	assert.Empty(t, pub.types())
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	_, err := svc.Create(ctx, 1, input("Netflix", "12.99", "2026-10-01", "monthly"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, input("Netflix", "9.99", "2026-10-10", "monthly"))
	assert.ErrorIs(t, err, core.ErrDuplicateName)

	_, err = svc.Create(ctx, 2, input("Netflix", "9.99", "2026-10-10", "monthly"))
	assert.NoError(t, err)
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Create(context.Background(), 1, input("", "abc", "tomorrow", "weekly"))
	var fe core.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Len(t, fe, 4)
}

func TestListOrdersByRenewalDate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	for _, in := range []core.SubscriptionInput{
		input("Yearly", "60", "2026-03-01", "yearly"),   // 2027-03-01
		input("Soon", "5", "2026-09-25", "monthly"),     // 2026-10-25
		input("Later", "5", "2026-10-15", "monthly"),    // 2026-11-15
	} {
		_, err := svc.Create(ctx, 1, in)
		require.NoError(t, err)
	}

	subs, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, subs, 3)
	assert.Equal(t, "Soon", subs[0].Name)
	assert.Equal(t, "Later", subs[1].Name)
	assert.Equal(t, "Yearly", subs[2].Name)
	assert.True(t, subs[0].RenewingSoon(svc.Today(), svc.RenewalWindowDays()))
	assert.False(t, subs[1].RenewingSoon(svc.Today(), svc.RenewalWindowDays()))
}

func TestDeleteEnforcesOwnership(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newService(t)

	sub, err := svc.Create(ctx, 1, input("Netflix", "12.99", "2026-10-01", "monthly"))
	require.NoError(t, err)

	err = svc.Delete(ctx, 2, sub.ID)
	require.ErrorIs(t, err, core.ErrAccessDenied)
	_, err = store.GetSubscription(ctx, sub.ID)
	require.NoError(t, err, "record must survive a foreign delete")

	assert.ErrorIs(t, svc.Delete(ctx, 1, 999), core.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, 1, sub.ID))
	_, err = store.GetSubscription(ctx, sub.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, []amqp.EventType{amqp.SubscriptionCreated, amqp.SubscriptionDeleted}, pub.types())
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService(t)

	sub, err := svc.Create(ctx, 1, input("Netflix", "12.99", "2026-10-01", "monthly"))
	require.NoError(t, err)

	_, err = svc.Replace(ctx, 2, sub.ID, input("Hijack", "1", "2026-10-01", "monthly"))
	assert.ErrorIs(t, err, core.ErrAccessDenied)

	updated, err := svc.Replace(ctx, 1, sub.ID, input("Netflix 4K", "17.99", "2026-10-05", "yearly"))
	require.NoError(t, err)
	assert.Equal(t, sub.ID, updated.ID)
	assert.Equal(t, "Netflix 4K", updated.Name)
	assert.Equal(t, core.Yearly, updated.RenewalType)
	assert.Equal(t, sub.CreatedAt, updated.CreatedAt)
	assert.Contains(t, pub.types(), amqp.SubscriptionUpdated)

	_, err = svc.Replace(ctx, 1, sub.ID, input("Netflix 4K", "17.99", "2025-01-01", "monthly"))
	assert.ErrorIs(t, err, core.ErrRenewalInPast)
}

func TestStatisticsCachedAndInvalidated(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	stats, err := svc.Statistics(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.SubscriptionCount)
	assert.NotNil(t, stats.ServiceCosts)

	_, err = svc.Create(ctx, 1, input("Netflix", "10.00", "2026-10-01", "monthly"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, input("Spotify", "60.00", "2026-10-01", "yearly"))
	require.NoError(t, err)

	stats, err = svc.Statistics(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), stats.MonthlyCost.Cents)
	assert.Equal(t, int64(18000), stats.YearlyCost.Cents)
	assert.Equal(t, 2, stats.SubscriptionCount)
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newService(t)

	csv := "name,cost,subscription_date,renewal_type\n" +
		"A,1.00,2026-10-01,monthly\n" +
		"B,2.00,2026-10-01,monthly\n" +
		"C,3.00,2026-10-01,yearly\n"

	created, err := svc.Import(ctx, 1, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Len(t, created, 3)
	assert.Len(t, pub.types(), 3)

	stats, err := svc.Statistics(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.SubscriptionCount)

	bad := "name,cost,subscription_date,renewal_type\n" +
		"D,1.00,2026-10-01,monthly\n" +
		"E,2.00,2026-10-01,monthly\n" +
		"F,3.00,2026-10-01,yearly\n" +
		"G,4.00,2026-10-01,fortnightly\n"
	_, err = svc.Import(ctx, 1, strings.NewReader(bad))
	var rowErr *core.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 4, rowErr.Row)

	subs, _ := store.ListSubscriptions(ctx, 1)
	assert.Len(t, subs, 3)
}

func TestPublishFailureDoesNotFailCreate(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newService(t)
	pub.PublishErr = errors.New("broker down")

	created, err := svc.Create(ctx, 1, input("Netflix", "12.99", "2026-10-01", "monthly"))
	require.NoError(t, err)
	_, err = store.GetSubscription(ctx, created.ID)
	assert.NoError(t, err)
}

func TestStatisticsPickUpOutsideWritesAfterTTL(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewSubscriptionService(store, Options{
		Now:           func() time.Time { return today },
		StatsCacheTTL: 20 * time.Millisecond,
	})

	stats, err := svc.Statistics(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 0, stats.SubscriptionCount)

	// A second process sharing the database does not invalidate this cache.
	outside, err := input("Netflix", "10.00", "2026-10-01", "monthly").Parse()
	require.NoError(t, err)
	outside.OwnerID = 1
	_, err = store.CreateSubscription(ctx, outside)
	require.NoError(t, err)

	stats, err = svc.Statistics(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.SubscriptionCount)

	assert.Eventually(t, func() bool {
		stats, err := svc.Statistics(ctx, 1)
		return err == nil && stats.SubscriptionCount == 1
	}, time.Second, 10*time.Millisecond)
}
