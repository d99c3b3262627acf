package domain

import (
	"fmt"
	"math"
	"time"
)

// SearchLimit is the hard per-query result cap enforced by the ComCat
// search endpoint.
const SearchLimit = 20000

// DefaultEventRates maps floor(minimum magnitude) to expected worldwide
// events per day at or above that magnitude. The numbers are empirical
// policy, not derived truth: they track long-run NEIC catalog averages
// (roughly 13,000 M4+ and 3,000 M5+ events per year, about one M8+ per
// year, one M9 per two decades). Real density can exceed the estimate
// during aftershock sequences, in which case a segment may still return a
// capped result set; callers must treat a segment that returns exactly
// SearchLimit events as a possible undercount.
var DefaultEventRates = map[int]float64{
	0: 1428.6,
	1: 1301.4,
	2: 972.6,
	3: 367.1,
	4: 36.6,
	5: 8.2,
	6: 0.37,
	7: 0.055,
	8: 0.0027,
	9: 0.00014,
}

// TimeSegment is one [Start, End] slice of a search window. Planned
// segments are contiguous and ascending; consecutive segments differ at
// their shared boundary by one microsecond so no instant is counted twice.
type TimeSegment struct {
	Start time.Time
	End   time.Time
}

// Planner splits search windows into segments each expected to stay under
// SearchLimit, using an events-per-day rate table.
type Planner struct {
	rates map[int]float64
}

// NewPlanner creates a planner with a custom rate table. Pass nil to use
// DefaultEventRates.
func NewPlanner(rates map[int]float64) Planner {
	if rates == nil {
		rates = DefaultEventRates
	}
	return Planner{rates: rates}
}

// PlanSegments splits [start, end] into ascending contiguous segments.
// minMagnitude picks the rate bin (floored, clamped to [0, 9]); pass a
// negative value or zero when the search has no magnitude floor.
// start == end yields a single degenerate segment; start after end is a
// contract violation reported as ErrInvalidRange. Pure computation, no I/O.
func (p Planner) PlanSegments(start, end time.Time, minMagnitude float64) ([]TimeSegment, error) {
	if start.After(end) {
		return nil, fmt.Errorf("start %s after end %s: %w",
			start.Format(time.RFC3339), end.Format(time.RFC3339), ErrInvalidRange)
	}
	if start.Equal(end) {
		return []TimeSegment{{Start: start, End: end}}, nil
	}

	rate := p.rateFor(minMagnitude)
	totalDays := int(math.Ceil(end.Sub(start).Hours()/24)) + 1
	expected := rate * float64(totalDays)

	segmentCount := int(math.Ceil(expected / SearchLimit))
	if segmentCount < 1 {
		segmentCount = 1
	}
	daysPerSegment := int(math.Ceil(float64(totalDays) / float64(segmentCount)))
	step := time.Duration(daysPerSegment) * 24 * time.Hour

	var segments []TimeSegment
	for cursor := start; !cursor.After(end); {
		segmentEnd := cursor.Add(step)
		if segmentEnd.After(end) {
			segmentEnd = end
		}
		segments = append(segments, TimeSegment{Start: cursor, End: segmentEnd})
		cursor = segmentEnd.Add(time.Microsecond)
	}
	return segments, nil
}

// rateFor looks up the events-per-day estimate for a magnitude floor,
// clamping to the table's [0, 9] bins. Magnitude floors below every bin use
// the densest bin so planning errs toward more segments, never fewer.
func (p Planner) rateFor(minMagnitude float64) float64 {
	bin := int(math.Floor(minMagnitude))
	if bin < 0 {
		bin = 0
	}
	if bin > 9 {
		bin = 9
	}
	if rate, ok := p.rates[bin]; ok {
		return rate
	}
	return DefaultEventRates[bin]
}

// PlanSegments plans with DefaultEventRates.
func PlanSegments(start, end time.Time, minMagnitude float64) ([]TimeSegment, error) {
	return NewPlanner(nil).PlanSegments(start, end, minMagnitude)
}
