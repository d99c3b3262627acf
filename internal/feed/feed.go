// Package feed runs the poll-and-publish loop behind quakefeed: every
// interval it asks ComCat for events updated since the last poll and
// publishes them to Kafka.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quake-catalog/internal/domain"
	"github.com/couchcryptid/quake-catalog/internal/observability"
)

var clock clockwork.Clock = clockwork.NewRealClock()

// SetClock overrides the package clock for tests. Pass nil to restore
// the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Searcher fetches summary events for a filter. Implemented by
// catalog.Service.
type Searcher interface {
	Search(ctx context.Context, f domain.Filter) ([]domain.SummaryEvent, error)
}

// Publisher writes a batch of events downstream. Implemented by
// kafka.Writer.
type Publisher interface {
	PublishBatch(ctx context.Context, events []domain.SummaryEvent) error
}

// Feed polls for recently updated events and publishes them. The update
// cursor advances past the newest published event, so an event shows up
// again whenever a new product submission bumps its update time.
type Feed struct {
	searcher     Searcher
	publisher    Publisher
	logger       *slog.Logger
	metrics      *observability.Metrics
	interval     time.Duration
	lookback     time.Duration
	minMagnitude float64
	cursor       time.Time
	ready        atomic.Bool
}

// New creates a Feed. lookback sets how far back the first poll reaches;
// minMagnitude of 0 means no magnitude floor.
func New(searcher Searcher, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics, interval, lookback time.Duration, minMagnitude float64) *Feed {
	return &Feed{
		searcher:     searcher,
		publisher:    publisher,
		logger:       logger,
		metrics:      metrics,
		interval:     interval,
		lookback:     lookback,
		minMagnitude: minMagnitude,
	}
}

// CheckReadiness returns nil once at least one poll has completed,
// or an error describing why the service is not yet ready.
func (f *Feed) CheckReadiness(_ context.Context) error {
	if !f.ready.Load() {
		return errors.New("feed has not completed a poll yet")
	}
	return nil
}

// Run executes the poll loop until the context is cancelled.
func (f *Feed) Run(ctx context.Context) error {
	f.cursor = clock.Now().UTC().Add(-f.lookback)
	f.logger.Info("feed started",
		"interval", f.interval, "lookback", f.lookback, "min_magnitude", f.minMagnitude)
	f.metrics.FeedRunning.Set(1)
	defer f.metrics.FeedRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("feed stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if err := f.pollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			f.metrics.FeedPollErrors.Inc()
			f.logger.Error("poll failed", "error", err)
			if !f.backoffOrStop(ctx, &backoff, maxBackoff) {
				return nil
			}
			continue
		}

		backoff = 200 * time.Millisecond
		f.ready.Store(true)

		if !sleepWithContext(ctx, f.interval) {
			return nil
		}
	}
}

// pollOnce fetches events updated since the cursor and publishes them.
// The cursor only advances after a successful publish, so a publish
// failure replays the same window on the next poll.
func (f *Feed) pollOnce(ctx context.Context) error {
	start := time.Now()

	filter := domain.Filter{UpdatedAfter: f.cursor}
	if f.minMagnitude > 0 {
		minMag := f.minMagnitude
		filter.MinMagnitude = &minMag
	}

	events, err := f.searcher.Search(ctx, filter)
	if err != nil {
		return err
	}

	if len(events) > 0 {
		if err := f.publisher.PublishBatch(ctx, events); err != nil {
			return err
		}
		f.metrics.FeedPublished.Add(float64(len(events)))
		f.advanceCursor(events)
		f.logger.Info("events published",
			"count", len(events), "cursor", f.cursor)
	}

	f.metrics.FeedPollDuration.Observe(time.Since(start).Seconds())
	return nil
}

// advanceCursor moves the cursor just past the newest update time seen,
// so the next poll's updatedafter filter excludes everything already
// published. ComCat update times have millisecond precision.
func (f *Feed) advanceCursor(events []domain.SummaryEvent) {
	newest := f.cursor
	for _, ev := range events {
		if ev.Updated.After(newest) {
			newest = ev.Updated
		}
	}
	if newest.After(f.cursor) {
		f.cursor = newest.Add(time.Millisecond)
	}
}

// backoffOrStop sleeps with the current backoff and advances it.
// Returns false if the feed should stop.
func (f *Feed) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
