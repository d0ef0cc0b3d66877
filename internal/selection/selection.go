package selection

import (
	"fmt"
	"sort"
	"sync"

	"nse-dashboard/internal/tradingday"
)

// Validation reasons.
const (
	ReasonWeekend      = "weekend"
	ReasonInvalidRange = "invalid-range"
	ReasonNeedTwoDates = "need-two-dates"
)

// ValidationError is a user-facing rejection. The selection is never
// mutated when one is returned.
type ValidationError struct {
	Reason string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// Message is the text shown to the user for the rejection.
func (e *ValidationError) Message() string {
	switch e.Reason {
	case ReasonWeekend:
		return "Cannot select weekends."
	case ReasonInvalidRange:
		return "Please select a valid date range."
	case ReasonNeedTwoDates:
		return "Please select exactly two dates."
	default:
		return e.Error()
	}
}

// MaxRangeDays bounds how many calendar days one AddRange may span.
const MaxRangeDays = 366

// Range is a pair of optional endpoints; nil means not chosen yet.
type Range struct {
	From *tradingday.Date
	To   *tradingday.Date
}

// NewRange builds a Range with both endpoints set.
func NewRange(from, to tradingday.Date) Range {
	return Range{From: &from, To: &to}
}

// Validate checks that both endpoints are present and ordered.
func (r Range) Validate() error {
	if r.From == nil || r.To == nil {
		return &ValidationError{Reason: ReasonInvalidRange, Detail: "both endpoints are required"}
	}
	if r.From.After(*r.To) {
		return &ValidationError{Reason: ReasonInvalidRange, Detail: fmt.Sprintf("%s is after %s", r.From, r.To)}
	}
	return nil
}

// Selection is a set of wire dates chosen for download. Safe for
// concurrent use.
type Selection struct {
	mu    sync.RWMutex
	dates map[tradingday.WireDate]struct{}
}

func New() *Selection {
	return &Selection{dates: make(map[tradingday.WireDate]struct{})}
}

// Add inserts d. Weekends are rejected; inserting an existing date is a no-op.
func (s *Selection) Add(d tradingday.Date) error {
	if tradingday.IsWeekend(d) {
		return &ValidationError{Reason: ReasonWeekend, Detail: d.ISO()}
	}
	s.mu.Lock()
	s.dates[tradingday.ToWire(d)] = struct{}{}
	s.mu.Unlock()
	return nil
}

// AddRange inserts every trading day in r, both ends inclusive, and
// returns how many dates were new.
func (s *Selection) AddRange(r Range) (int, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	if r.From.AddDays(MaxRangeDays - 1).Before(*r.To) {
		return 0, &ValidationError{Reason: ReasonInvalidRange,
			Detail: fmt.Sprintf("range spans more than %d days", MaxRangeDays)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for d := *r.From; !d.After(*r.To); d = d.AddDays(1) {
		if tradingday.IsWeekend(d) {
			continue
		}
		w := tradingday.ToWire(d)
		if _, ok := s.dates[w]; ok {
			continue
		}
		s.dates[w] = struct{}{}
		added++
	}
	return added, nil
}

// Remove deletes w if present.
func (s *Selection) Remove(w tradingday.WireDate) {
	s.mu.Lock()
	delete(s.dates, w)
	s.mu.Unlock()
}

func (s *Selection) Contains(w tradingday.WireDate) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.dates[w]
	return ok
}

func (s *Selection) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dates)
}

// Dates lists the selection in chronological order.
func (s *Selection) Dates() []tradingday.WireDate {
	s.mu.RLock()
	out := make([]tradingday.WireDate, 0, len(s.dates))
	for w := range s.dates {
		out = append(out, w)
	}
	s.mu.RUnlock()

	// Keys are produced by ToWire, so they always parse.
	sort.Slice(out, func(i, j int) bool {
		a, _ := out[i].Date()
		b, _ := out[j].Date()
		return a.Before(b)
	})
	return out
}

func (s *Selection) Clear() {
	s.mu.Lock()
	s.dates = make(map[tradingday.WireDate]struct{})
	s.mu.Unlock()
}
