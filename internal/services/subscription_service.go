package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"subtrack/internal/amqp"
	"subtrack/internal/cache"
	"subtrack/internal/core"
	"subtrack/internal/importer"
	"subtrack/internal/log"
	"subtrack/internal/metrics"
	"subtrack/internal/storage"
)

// Publisher announces committed changes. Implemented by *amqp.Client.
type Publisher interface {
	Publish(ctx context.Context, event *amqp.SubscriptionEvent) error
}

type Options struct {
	Publisher         Publisher
	Metrics           *metrics.Metrics
	Decoder           importer.Decoder
	Now               func() time.Time
	RenewalWindowDays int
	StatsCacheSize    int
	StatsCacheTTL     time.Duration
}

// SubscriptionService applies the subscription rules on top of the store,
// keeps the per-owner statistics cache fresh and publishes change events.
type SubscriptionService struct {
	repo       storage.SubscriptionStore
	importer   *importer.Importer
	publisher  Publisher
	metrics    *metrics.Metrics
	stats      *cache.Loader[core.Statistics]
	statsLRU   *cache.LRUCache[core.Statistics]
	now        func() time.Time
	windowDays int
	logger     *log.Logger
}

func NewSubscriptionService(repo storage.SubscriptionStore, opts Options) *SubscriptionService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RenewalWindowDays <= 0 {
		opts.RenewalWindowDays = core.DefaultRenewalWindowDays
	}
	if opts.StatsCacheSize <= 0 {
		opts.StatsCacheSize = 1000
	}
	if opts.StatsCacheTTL <= 0 {
		opts.StatsCacheTTL = 5 * time.Minute
	}

	lru := cache.NewLRUCache[core.Statistics](opts.StatsCacheSize, opts.StatsCacheTTL)
	return &SubscriptionService{
		repo:       repo,
		importer:   importer.New(repo, opts.Decoder, opts.Now),
		publisher:  opts.Publisher,
		metrics:    opts.Metrics,
		stats:      cache.NewLoader[core.Statistics](lru),
		statsLRU:   lru,
		now:        opts.Now,
		windowDays: opts.RenewalWindowDays,
		logger:     log.WithComponent(log.ComponentSubscription),
	}
}

// Today is the current calendar date according to the service clock.
func (s *SubscriptionService) Today() core.Date {
	return core.DateOf(s.now())
}

func (s *SubscriptionService) RenewalWindowDays() int {
	return s.windowDays
}

// StatsCache exposes the statistics cache for periodic cleanup.
func (s *SubscriptionService) StatsCache() cache.Cleaner {
	return s.statsLRU
}

// List returns the owner's subscriptions by ascending renewal date.
func (s *SubscriptionService) List(ctx context.Context, ownerID int64) ([]core.Subscription, error) {
	subs, err := s.repo.ListSubscriptions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].RenewalDate().Before(subs[j].RenewalDate().Time)
	})
	return subs, nil
}

// Create validates and stores a single subscription. Nothing is stored when
// the renewal date is already in the past.
func (s *SubscriptionService) Create(ctx context.Context, ownerID int64, in core.SubscriptionInput) (core.Subscription, error) {
	sub, err := in.Parse()
	if err != nil {
		return core.Subscription{}, err
	}
	now := s.now()
	if err := sub.Clean(core.DateOf(now)); err != nil {
		return core.Subscription{}, err
	}

	sub.OwnerID = ownerID
	sub.CreatedAt = now
	sub.UpdatedAt = now
	created, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return core.Subscription{}, err
	}

	s.logger.InfoContext(ctx, "Subscription created",
		log.NewFields().
			WithSubscription(created.ID, ownerID, created.Name, created.Cost.Cents, created.RenewalType.String()).
			WithOperation(log.OpCreate).
			ToSlice()...)

	s.invalidate(ownerID)
	s.publish(ctx, amqp.SubscriptionCreated, created)
	return created, nil
}

// Replace overwrites every user-editable field of an owned subscription.
func (s *SubscriptionService) Replace(ctx context.Context, ownerID, id int64, in core.SubscriptionInput) (core.Subscription, error) {
	existing, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return core.Subscription{}, err
	}

	sub, err := in.Parse()
	if err != nil {
		return core.Subscription{}, err
	}
	now := s.now()
	if err := sub.Clean(core.DateOf(now)); err != nil {
		return core.Subscription{}, err
	}

	sub.ID = existing.ID
	sub.OwnerID = existing.OwnerID
	sub.IsActive = existing.IsActive
	sub.CreatedAt = existing.CreatedAt
	sub.UpdatedAt = now
	updated, err := s.repo.ReplaceSubscription(ctx, sub)
	if err != nil {
		return core.Subscription{}, err
	}

	s.logger.InfoContext(ctx, "Subscription replaced",
		log.NewFields().
			WithSubscription(updated.ID, ownerID, updated.Name, updated.Cost.Cents, updated.RenewalType.String()).
			WithOperation(log.OpReplace).
			ToSlice()...)

	s.invalidate(ownerID)
	s.publish(ctx, amqp.SubscriptionUpdated, updated)
	return updated, nil
}

// Delete removes an owned subscription. Other owners' records are left intact.
func (s *SubscriptionService) Delete(ctx context.Context, ownerID, id int64) error {
	existing, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteSubscription(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Subscription deleted",
		log.FieldSubscriptionID, id,
		log.FieldUserID, ownerID,
		log.FieldOperation, log.OpDelete)

	s.invalidate(ownerID)
	s.publish(ctx, amqp.SubscriptionDeleted, existing)
	return nil
}

// Statistics summarizes every subscription the owner has.
func (s *SubscriptionService) Statistics(ctx context.Context, ownerID int64) (core.Statistics, error) {
	stats, hit, err := s.stats.Get(ctx, statsKey(ownerID), func(ctx context.Context) (core.Statistics, error) {
		subs, err := s.repo.ListSubscriptions(ctx, ownerID)
		if err != nil {
			return core.Statistics{}, fmt.Errorf("list subscriptions: %w", err)
		}
		return core.Summarize(subs), nil
	})
	if err != nil {
		return core.Statistics{}, err
	}
	s.metrics.StatsCacheLookup(hit)
	return stats, nil
}

// Import creates every row of r or none of them.
func (s *SubscriptionService) Import(ctx context.Context, ownerID int64, r io.Reader) ([]core.Subscription, error) {
	created, err := s.importer.Import(ctx, ownerID, r)
	if err != nil {
		s.metrics.ImportFailed(errorKind(err))
		return nil, err
	}

	s.metrics.SubscriptionsImported(len(created))
	s.invalidate(ownerID)
	for _, sub := range created {
		s.publish(ctx, amqp.SubscriptionCreated, sub)
	}
	return created, nil
}

func (s *SubscriptionService) owned(ctx context.Context, ownerID, id int64) (core.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return core.Subscription{}, err
	}
	if sub.OwnerID != ownerID {
		s.logger.WarnContext(ctx, "Access to foreign subscription denied",
			log.FieldSubscriptionID, id,
			log.FieldUserID, ownerID)
		return core.Subscription{}, core.ErrAccessDenied
	}
	return sub, nil
}

func (s *SubscriptionService) invalidate(ownerID int64) {
	s.stats.Invalidate(statsKey(ownerID))
}

// publish is best effort: the change is already committed.
func (s *SubscriptionService) publish(ctx context.Context, t amqp.EventType, sub core.Subscription) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, amqp.NewSubscriptionEvent(t, sub.ID, sub.OwnerID))
	s.metrics.EventPublished(string(t), err)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish subscription event",
			log.FieldEventType, t,
			log.FieldSubscriptionID, sub.ID,
			log.FieldError, err)
	}
}

func statsKey(ownerID int64) string {
	return "stats:" + strconv.FormatInt(ownerID, 10)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, core.ErrMalformedInput):
		return "malformed"
	case errors.Is(err, core.ErrValidation):
		return "validation"
	case errors.Is(err, core.ErrBusinessRule):
		return "business_rule"
	default:
		return "internal"
	}
}
