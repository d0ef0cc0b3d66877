package dashboard

import (
	"context"
	"fmt"
	"sort"

	"nse-dashboard/internal/bhavcopy"
	"nse-dashboard/internal/download"
	"nse-dashboard/internal/interfaces"
	"nse-dashboard/internal/logger"
	"nse-dashboard/internal/selection"
	"nse-dashboard/internal/tradingday"
	"nse-dashboard/internal/types"
)

// Session is the application state shared by the CLI and the HTTP server:
// the dates picked for download, the download tracker and the backend they
// talk to. It is built once at start-up and reset on demand.
type Session struct {
	Selection *selection.Selection
	Tracker   *download.Tracker

	backend interfaces.Backend
}

func NewSession(backend interfaces.Backend, opts ...download.Option) *Session {
	return &Session{
		Selection: selection.New(),
		Tracker:   download.NewTracker(backend, opts...),
		backend:   backend,
	}
}

func (s *Session) Backend() interfaces.Backend { return s.backend }

func (s *Session) AddDate(d tradingday.Date) error {
	return s.Selection.Add(d)
}

func (s *Session) AddRange(r selection.Range) (int, error) {
	return s.Selection.AddRange(r)
}

func (s *Session) Remove(w tradingday.WireDate) {
	s.Selection.Remove(w)
}

func (s *Session) ClearSelection() {
	s.Selection.Clear()
}

// Download submits the current selection as one batch. Submitted dates
// leave the selection only when the backend accepts them.
func (s *Session) Download(ctx context.Context) ([]tradingday.WireDate, error) {
	dates := s.Selection.Dates()
	if err := s.Tracker.Start(ctx, dates); err != nil {
		return nil, err
	}
	for _, w := range dates {
		s.Selection.Remove(w)
	}
	return dates, nil
}

// LastDownloaded returns the newest report day held by the backend, or nil
// when it has none yet.
func (s *Session) LastDownloaded(ctx context.Context) (*tradingday.Date, error) {
	w, err := s.backend.LastDownloadedDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("last downloaded date: %w", err)
	}
	if w == "" {
		return nil, nil
	}
	d, err := w.Date()
	if err != nil {
		return nil, fmt.Errorf("%w: last downloaded date: %w", interfaces.ErrBadResponse, err)
	}
	return &d, nil
}

func (s *Session) SectorPerformance(ctx context.Context, d tradingday.Date) (*types.SectorPerformance, error) {
	out, err := s.backend.SectorPerformance(ctx, tradingday.ToWire(d))
	if err != nil {
		return nil, fmt.Errorf("sector performance for %s: %w", d, err)
	}
	return out, nil
}

func (s *Session) SectorVolume(ctx context.Context, r selection.Range) (*types.SectorVolumeRatio, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	out, err := s.backend.SectorVolumeRatio(ctx, tradingday.ToWire(*r.From), tradingday.ToWire(*r.To))
	if err != nil {
		return nil, fmt.Errorf("sector volume ratio %s..%s: %w", r.From, r.To, err)
	}
	return out, nil
}

// TopMovers returns the Nifty 50 gainers and losers. A zero date asks for
// the backend's latest day.
func (s *Session) TopMovers(ctx context.Context, d tradingday.Date) (*types.StockPerformance, error) {
	var w tradingday.WireDate
	if !d.IsZero() {
		w = tradingday.ToWire(d)
	}
	out, err := s.backend.TopGainersLosers(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("top gainers and losers: %w", err)
	}
	return out, nil
}

// VolumeDifferences compares stock volumes between exactly two days,
// earlier day first.
func (s *Session) VolumeDifferences(ctx context.Context, dates []tradingday.Date) ([]types.StockVolume, error) {
	if len(dates) != 2 {
		return nil, &selection.ValidationError{
			Reason: selection.ReasonNeedTwoDates,
			Detail: fmt.Sprintf("got %d", len(dates)),
		}
	}

	sorted := append([]tradingday.Date(nil), dates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	wire := []tradingday.WireDate{tradingday.ToWire(sorted[0]), tradingday.ToWire(sorted[1])}
	out, err := s.backend.StockVolumeDifferences(ctx, wire)
	if err != nil {
		return nil, fmt.Errorf("stock volume differences: %w", err)
	}
	return out, nil
}

// Bhavcopy loads the viewer's current page.
func (s *Session) Bhavcopy(ctx context.Context, v *bhavcopy.Viewer) error {
	op := logger.StartOperation(ctx, "bhavcopy.load",
		"symbol", v.Search(), "date", v.Date(), "page", v.Page())
	if err := v.Load(op.GetContext(), s.backend); err != nil {
		op.EndWithError(err)
		return fmt.Errorf("bhavcopy page %d: %w", v.Page(), err)
	}
	op.End("rows", len(v.Rows()), "total_pages", v.TotalPages())
	return nil
}

// Reset drops the selection and the download history.
func (s *Session) Reset() {
	s.Selection.Clear()
	s.Tracker.Reset()
}
