package interfaces

import (
	"context"
	"errors"

	"nse-dashboard/internal/tradingday"
	"nse-dashboard/internal/types"
)

// ErrBadResponse marks an answer from the backend that could not be
// understood. It is the backend's fault, not the caller's.
var ErrBadResponse = errors.New("malformed backend response")

// Backend is the report service the dashboard reads from and submits
// download batches to.
type Backend interface {
	// LastDownloadedDate returns the most recent report the backend holds,
	// or "" when it has none.
	LastDownloadedDate(ctx context.Context) (tradingday.WireDate, error)

	// DownloadReports asks the backend to fetch every date in one batch.
	// It resolves success or failure for the whole batch and is never retried.
	DownloadReports(ctx context.Context, dates []tradingday.WireDate) error

	SectorPerformance(ctx context.Context, date tradingday.WireDate) (*types.SectorPerformance, error)
	SectorVolumeRatio(ctx context.Context, start, end tradingday.WireDate) (*types.SectorVolumeRatio, error)
	TopGainersLosers(ctx context.Context, date tradingday.WireDate) (*types.StockPerformance, error)
	StockVolumeDifferences(ctx context.Context, dates []tradingday.WireDate) ([]types.StockVolume, error)
	Bhavcopy(ctx context.Context, q types.BhavcopyQuery) (*types.BhavcopyPage, error)
}
