package testutil

import (
	"context"
	"sync"

	"nse-dashboard/internal/interfaces"
	"nse-dashboard/internal/tradingday"
	"nse-dashboard/internal/types"
)

// FakeBackend is an in-memory interfaces.Backend. Set DownloadErr (or
// DownloadFunc) to steer the download path; every submitted batch is kept
// in Batches.
type FakeBackend struct {
	mu sync.Mutex

	LastDate     tradingday.WireDate
	DownloadErr  error
	DownloadFunc func(ctx context.Context, dates []tradingday.WireDate) error
	Batches      [][]tradingday.WireDate

	Sectors       types.SectorPerformance
	SectorVolumes types.SectorVolumeRatio
	Stocks        types.StockPerformance
	Volumes       []types.StockVolume
	Page          types.BhavcopyPage
	Err           error

	LastQuery      types.BhavcopyQuery
	LastVolumeArgs []tradingday.WireDate
}

var _ interfaces.Backend = (*FakeBackend)(nil)

func (f *FakeBackend) LastDownloadedDate(ctx context.Context) (tradingday.WireDate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.LastDate, f.Err
}

func (f *FakeBackend) DownloadReports(ctx context.Context, dates []tradingday.WireDate) error {
	f.mu.Lock()
	f.Batches = append(f.Batches, append([]tradingday.WireDate(nil), dates...))
	fn, err := f.DownloadFunc, f.DownloadErr
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, dates)
	}
	if err == nil && len(dates) > 0 {
		f.mu.Lock()
		f.LastDate = dates[len(dates)-1]
		f.mu.Unlock()
	}
	return err
}

func (f *FakeBackend) SectorPerformance(ctx context.Context, date tradingday.WireDate) (*types.SectorPerformance, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	out := f.Sectors
	return &out, nil
}

func (f *FakeBackend) SectorVolumeRatio(ctx context.Context, start, end tradingday.WireDate) (*types.SectorVolumeRatio, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	out := f.SectorVolumes
	return &out, nil
}

func (f *FakeBackend) TopGainersLosers(ctx context.Context, date tradingday.WireDate) (*types.StockPerformance, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	out := f.Stocks
	return &out, nil
}

func (f *FakeBackend) StockVolumeDifferences(ctx context.Context, dates []tradingday.WireDate) ([]types.StockVolume, error) {
	f.mu.Lock()
	f.LastVolumeArgs = dates
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Volumes, nil
}

func (f *FakeBackend) Bhavcopy(ctx context.Context, q types.BhavcopyQuery) (*types.BhavcopyPage, error) {
	f.mu.Lock()
	f.LastQuery = q
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	out := f.Page
	return &out, nil
}

// BatchCount returns how many download batches were submitted.
func (f *FakeBackend) BatchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Batches)
}

// RecordingNotifier keeps every notification it receives.
type RecordingNotifier struct {
	mu       sync.Mutex
	Messages []string
}

func (r *RecordingNotifier) Notify(ctx context.Context, title, description string) {
	r.mu.Lock()
	r.Messages = append(r.Messages, title+": "+description)
	r.mu.Unlock()
}

func (r *RecordingNotifier) All() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Messages...)
}

// MemoryJournal keeps batch records in memory.
type MemoryJournal struct {
	mu      sync.Mutex
	Records []interfaces.BatchRecord
}

func (m *MemoryJournal) Record(rec interfaces.BatchRecord) error {
	m.mu.Lock()
	m.Records = append(m.Records, rec)
	m.mu.Unlock()
	return nil
}

func (m *MemoryJournal) All() []interfaces.BatchRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]interfaces.BatchRecord(nil), m.Records...)
}
