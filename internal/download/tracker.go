package download

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"nse-dashboard/internal/interfaces"
	"nse-dashboard/internal/logger"
	"nse-dashboard/internal/tradingday"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusSuccess     Status = "success"
	StatusError       Status = "error"
)

var (
	ErrNoDates = errors.New("no dates selected for download")
	ErrBusy    = errors.New("a download batch is already in progress")
)

// Item is the state of one date within the current batch.
type Item struct {
	Date     tradingday.WireDate `json:"date"`
	Display  string              `json:"display"`
	Status   Status              `json:"status"`
	Progress int                 `json:"progress"`
	BatchID  string              `json:"batchId"`
	Error    string              `json:"error,omitempty"`
}

// Snapshot is what subscribers receive on every change.
type Snapshot struct {
	Items         []Item `json:"items"`
	IsDownloading bool   `json:"isDownloading"`
}

// Option customises a Tracker.
type Option func(*Tracker)

func WithNotifier(n interfaces.Notifier) Option {
	return func(t *Tracker) { t.notifier = n }
}

func WithJournal(j interfaces.Journal) Option {
	return func(t *Tracker) { t.journal = j }
}

// Tracker owns the state of report download batches. One batch runs at a
// time; the backend call is a single request for the whole batch.
type Tracker struct {
	backend  interfaces.Backend
	notifier interfaces.Notifier
	journal  interfaces.Journal

	mu        sync.RWMutex
	items     []Item
	busy      bool
	listeners map[int]func(Snapshot)
	nextID    int
}

func NewTracker(backend interfaces.Backend, opts ...Option) *Tracker {
	t := &Tracker{
		backend:   backend,
		listeners: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start submits dates as one batch and blocks until the backend answers.
// The backend error, if any, is returned unchanged.
func (t *Tracker) Start(ctx context.Context, dates []tradingday.WireDate) error {
	if len(dates) == 0 {
		return ErrNoDates
	}

	batchID := uuid.NewString()

	t.mu.Lock()
	if t.busy {
		t.mu.Unlock()
		return ErrBusy
	}
	t.busy = true
	t.items = make([]Item, len(dates))
	for i, d := range dates {
		t.items[i] = Item{
			Date:     d,
			Display:  longDisplay(d),
			Status:   StatusPending,
			BatchID:  batchID,
			Progress: 0,
		}
	}
	t.mu.Unlock()
	t.publish()

	started := time.Now()
	logger.Download(ctx, batchID, string(StatusPending), len(dates))

	t.update(batchID, StatusDownloading, 0, "", false)
	op := logger.StartOperation(ctx, "download.batch", "batch_id", batchID, "dates", len(dates))
	err := t.backend.DownloadReports(op.GetContext(), dates)

	if err != nil {
		op.EndWithError(err)
		t.update(batchID, StatusError, -1, err.Error(), true)
		logger.Download(ctx, batchID, string(StatusError), len(dates), "error", err.Error())
		t.record(ctx, batchID, dates, StatusError, err, started)
		return err
	}

	op.End()
	t.update(batchID, StatusSuccess, 100, "", true)
	logger.Download(ctx, batchID, string(StatusSuccess), len(dates), "duration_ms", time.Since(started).Milliseconds())
	t.record(ctx, batchID, dates, StatusSuccess, nil, started)

	if t.notifier != nil {
		for _, d := range dates {
			t.notifier.Notify(ctx, "Download Complete",
				fmt.Sprintf("Report for %s downloaded successfully.", longDisplay(d)))
		}
	}
	return nil
}

// update moves the items of batchID to status; progress < 0 keeps the
// current value. Items of other batches, or items dropped by Reset, are left
// alone. done clears the busy flag in the same critical section.
func (t *Tracker) update(batchID string, status Status, progress int, errText string, done bool) {
	t.mu.Lock()
	for i := range t.items {
		if t.items[i].BatchID != batchID {
			continue
		}
		t.items[i].Status = status
		if progress >= 0 {
			t.items[i].Progress = progress
		}
		t.items[i].Error = errText
	}
	if done {
		t.busy = false
	}
	t.mu.Unlock()
	t.publish()
}

func (t *Tracker) record(ctx context.Context, batchID string, dates []tradingday.WireDate, status Status, err error, started time.Time) {
	if t.journal == nil {
		return
	}
	rec := interfaces.BatchRecord{
		BatchID:  batchID,
		Dates:    make([]string, len(dates)),
		Status:   string(status),
		Started:  started,
		Finished: time.Now(),
	}
	for i, d := range dates {
		rec.Dates[i] = string(d)
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if jerr := t.journal.Record(rec); jerr != nil {
		logger.Warn(ctx, "Failed to journal download batch", "batch_id", batchID, "error", jerr)
	}
}

// Items returns a copy of the current batch state.
func (t *Tracker) Items() []Item {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Item(nil), t.items...)
}

// IsDownloading reports whether a batch is in flight.
func (t *Tracker) IsDownloading() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.busy
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Snapshot{Items: append([]Item(nil), t.items...), IsDownloading: t.busy}
}

// ClearCompleted drops finished items, successful or failed.
func (t *Tracker) ClearCompleted() {
	t.mu.Lock()
	kept := t.items[:0]
	for _, it := range t.items {
		if it.Status != StatusSuccess && it.Status != StatusError {
			kept = append(kept, it)
		}
	}
	t.items = kept
	t.mu.Unlock()
	t.publish()
}

// Reset forgets every item. An in-flight batch still finishes and clears
// the busy flag, but its outcome is not written into the fresh state.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.items = nil
	t.mu.Unlock()
	t.publish()
}

// Subscribe registers fn for every state change and returns a cancel func.
// fn runs synchronously and must not block.
func (t *Tracker) Subscribe(fn func(Snapshot)) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.listeners, id)
		t.mu.Unlock()
	}
}

func (t *Tracker) publish() {
	t.mu.RLock()
	snap := Snapshot{Items: append([]Item(nil), t.items...), IsDownloading: t.busy}
	fns := make([]func(Snapshot), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	t.mu.RUnlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func longDisplay(w tradingday.WireDate) string {
	d, err := w.Date()
	if err != nil {
		return tradingday.InvalidDisplay
	}
	return tradingday.LongString(d)
}
