package apiobs

import (
	"context"

	"nse-dashboard/internal/interfaces"
	"nse-dashboard/internal/logger"
	"nse-dashboard/internal/tradingday"
	"nse-dashboard/internal/trace"
	"nse-dashboard/internal/types"
)

// observableBackend wraps a Backend with observability (logging & tracing)
type observableBackend struct {
	backend interfaces.Backend
}

// Compile-time interface check
var _ interfaces.Backend = (*observableBackend)(nil)

// Wrap wraps a backend with observability middleware
func Wrap(backend interfaces.Backend) interfaces.Backend {
	return &observableBackend{backend: backend}
}

func (ob *observableBackend) LastDownloadedDate(ctx context.Context) (tradingday.WireDate, error) {
	ctx, span := trace.StartSpan(ctx, "backend.LastDownloadedDate")
	defer span.End()

	date, err := ob.backend.LastDownloadedDate(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch last downloaded date", err)
		return "", err
	}

	logger.DebugSkip(ctx, 1, "Last downloaded date fetched", "date", string(date))
	return date, nil
}

func (ob *observableBackend) DownloadReports(ctx context.Context, dates []tradingday.WireDate) error {
	ctx, span := trace.StartSpan(ctx, "backend.DownloadReports")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Submitting report download batch", "count", len(dates))

	if err := ob.backend.DownloadReports(ctx, dates); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Report download batch failed", err, "count", len(dates))
		return err
	}

	logger.InfoSkip(ctx, 1, "Report download batch accepted", "count", len(dates))
	return nil
}

func (ob *observableBackend) SectorPerformance(ctx context.Context, date tradingday.WireDate) (*types.SectorPerformance, error) {
	ctx, span := trace.StartSpan(ctx, "backend.SectorPerformance")
	defer span.End()

	out, err := ob.backend.SectorPerformance(ctx, date)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch sector performance", err, "date", string(date))
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Sector performance fetched",
		"date", string(date),
		"gainers", len(out.TopGainers),
		"losers", len(out.TopLosers),
	)
	return out, nil
}

func (ob *observableBackend) SectorVolumeRatio(ctx context.Context, start, end tradingday.WireDate) (*types.SectorVolumeRatio, error) {
	ctx, span := trace.StartSpan(ctx, "backend.SectorVolumeRatio")
	defer span.End()

	out, err := ob.backend.SectorVolumeRatio(ctx, start, end)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch sector volume ratio", err,
			"start", string(start),
			"end", string(end),
		)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Sector volume ratio fetched", "start", string(start), "end", string(end))
	return out, nil
}

func (ob *observableBackend) TopGainersLosers(ctx context.Context, date tradingday.WireDate) (*types.StockPerformance, error) {
	ctx, span := trace.StartSpan(ctx, "backend.TopGainersLosers")
	defer span.End()

	out, err := ob.backend.TopGainersLosers(ctx, date)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch top gainers and losers", err, "date", string(date))
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Top gainers and losers fetched", "date", string(date))
	return out, nil
}

func (ob *observableBackend) StockVolumeDifferences(ctx context.Context, dates []tradingday.WireDate) ([]types.StockVolume, error) {
	ctx, span := trace.StartSpan(ctx, "backend.StockVolumeDifferences")
	defer span.End()

	out, err := ob.backend.StockVolumeDifferences(ctx, dates)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch stock volume differences", err, "count", len(dates))
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Stock volume differences fetched", "rows", len(out))
	return out, nil
}

func (ob *observableBackend) Bhavcopy(ctx context.Context, q types.BhavcopyQuery) (*types.BhavcopyPage, error) {
	ctx, span := trace.StartSpan(ctx, "backend.Bhavcopy")
	defer span.End()

	out, err := ob.backend.Bhavcopy(ctx, q)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch bhavcopy page", err,
			"symbol", q.Symbol,
			"date", q.Date,
			"page", q.Page,
		)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Bhavcopy page fetched", "page", q.Page, "total_pages", out.TotalPages, "rows", len(out.Data))
	return out, nil
}
