// Package catalog coordinates multi-request catalog operations on top of
// the single-request ComCat client: segmented searches that stay under
// the server's result cap, parallel detail fetches, and country-filtered
// regional searches.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/couchcryptid/quake-catalog/internal/domain"
	"github.com/couchcryptid/quake-catalog/internal/observability"
)

// API is the single-request surface the service drives. Implemented by
// comcat.Client.
type API interface {
	Search(ctx context.Context, f domain.Filter) ([]domain.SummaryEvent, error)
	Count(ctx context.Context, f domain.Filter) (int, error)
	Detail(ctx context.Context, eventID string) (domain.DetailEvent, error)
	DetailByURL(ctx context.Context, detailURL string) (domain.DetailEvent, error)
}

// Service plans and executes catalog operations.
type Service struct {
	api           API
	regions       domain.RegionResolver
	planner       domain.Planner
	logger        *slog.Logger
	metrics       *observability.Metrics
	detailWorkers int
}

// New creates a Service. regions may be nil when country-filtered search
// is not needed; detailWorkers below 1 falls back to serial fetching.
func New(api API, regions domain.RegionResolver, logger *slog.Logger, metrics *observability.Metrics, detailWorkers int) *Service {
	if detailWorkers < 1 {
		detailWorkers = 1
	}
	return &Service{
		api:           api,
		regions:       regions,
		planner:       domain.NewPlanner(nil),
		logger:        logger,
		metrics:       metrics,
		detailWorkers: detailWorkers,
	}
}

// Search splits the filter's time range into segments sized to stay
// under the server's per-query cap, fetches them in chronological order,
// and concatenates the results. Any segment failure aborts the whole
// search.
func (s *Service) Search(ctx context.Context, f domain.Filter) ([]domain.SummaryEvent, error) {
	f = f.Normalized()

	segments, err := s.planner.PlanSegments(f.StartTime, f.EndTime, f.MinMagnitudeOrZero())
	if err != nil {
		return nil, err
	}
	s.metrics.SearchSegments.Observe(float64(len(segments)))
	if len(segments) > 1 {
		s.logger.Info("search split into segments",
			"segments", len(segments), "start", f.StartTime, "end", f.EndTime)
	}

	var events []domain.SummaryEvent
	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		segFilter := f
		segFilter.StartTime = seg.Start
		segFilter.EndTime = seg.End

		batch, err := s.api.Search(ctx, segFilter)
		if err != nil {
			return nil, fmt.Errorf("search segment %d of %d: %w", i+1, len(segments), err)
		}
		if len(batch) >= domain.SearchLimit {
			s.logger.Warn("segment returned the server cap, results may be truncated",
				"segment", i+1, "start", seg.Start, "end", seg.End)
		}
		events = append(events, batch...)
	}

	s.metrics.EventsFetched.Add(float64(len(events)))
	return events, nil
}

// Count sums per-segment counts for the filter.
func (s *Service) Count(ctx context.Context, f domain.Filter) (int, error) {
	f = f.Normalized()

	segments, err := s.planner.PlanSegments(f.StartTime, f.EndTime, f.MinMagnitudeOrZero())
	if err != nil {
		return 0, err
	}

	var total int
	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		segFilter := f
		segFilter.StartTime = seg.Start
		segFilter.EndTime = seg.End

		n, err := s.api.Count(ctx, segFilter)
		if err != nil {
			return 0, fmt.Errorf("count segment %d of %d: %w", i+1, len(segments), err)
		}
		total += n
	}
	return total, nil
}

// Detail upgrades one summary event to its detail document, preferring
// the summary's embedded detail URL over an id lookup.
func (s *Service) Detail(ctx context.Context, event domain.SummaryEvent) (domain.DetailEvent, error) {
	if event.DetailURL != "" {
		return s.api.DetailByURL(ctx, event.DetailURL)
	}
	return s.api.Detail(ctx, event.ID)
}

// Details fetches detail documents for the given events with a bounded
// worker pool. Individual failures are logged and skipped; the call
// errors only when every fetch failed. Results keep the input order.
func (s *Service) Details(ctx context.Context, events []domain.SummaryEvent) ([]domain.DetailEvent, error) {
	fetched := make([]domain.DetailEvent, len(events))
	ok := make([]bool, len(events))

	sem := make(chan struct{}, s.detailWorkers)
	var wg sync.WaitGroup
	for i := range events {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			detail, err := s.Detail(ctx, events[i])
			if err != nil {
				s.metrics.DetailFailures.Inc()
				s.logger.Warn("detail fetch failed, skipping event",
					"event_id", events[i].ID, "error", err)
				return
			}
			fetched[i] = detail
			ok[i] = true
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	details := make([]domain.DetailEvent, 0, len(events))
	for i := range events {
		if ok[i] {
			details = append(details, fetched[i])
		}
	}
	if len(events) > 0 && len(details) == 0 {
		return nil, fmt.Errorf("all %d detail fetches failed", len(events))
	}
	return details, nil
}

// SearchRegion searches each bounding box of the filter's country,
// deduplicates events that fall into more than one box, and returns the
// merged result ordered by time then id.
func (s *Service) SearchRegion(ctx context.Context, f domain.Filter, bufferKm float64) ([]domain.SummaryEvent, error) {
	if f.Country == "" {
		return nil, fmt.Errorf("%w: country code required", domain.ErrArgumentConflict)
	}
	if s.regions == nil {
		return nil, fmt.Errorf("%w: no region resolver configured for country %q", domain.ErrArgumentConflict, f.Country)
	}

	boxes, err := s.regions.CountryBounds(ctx, f.Country, bufferKm)
	if err != nil {
		return nil, fmt.Errorf("resolve country %q: %w", f.Country, err)
	}

	seen := make(map[string]struct{})
	var events []domain.SummaryEvent
	for _, box := range boxes {
		sub := f
		sub.Country = ""
		sub.Bounds = &box

		batch, err := s.Search(ctx, sub)
		if err != nil {
			return nil, err
		}
		for _, ev := range batch {
			if _, dup := seen[ev.ID]; dup {
				continue
			}
			seen[ev.ID] = struct{}{}
			events = append(events, ev)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Time.Equal(events[j].Time) {
			return events[i].Time.Before(events[j].Time)
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}
