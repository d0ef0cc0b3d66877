package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"nse-dashboard/internal/interfaces"
	"nse-dashboard/internal/tradingday"
	"nse-dashboard/internal/types"
)

var _ interfaces.Backend = (*Client)(nil)

const (
	datePath           = "/date"
	downloadPath       = "/nse/download"
	sectorPerfPath     = "/sectors/performance/{date}"
	sectorVolumePath   = "/sectors/volume-ratio"
	topMoversPath      = "/performance/top-gainers-losers"
	volumeDiffPath     = "/volume/differences"
	bhavcopyPath       = "/bhavcopy"
	bhavcopySearchPath = "/bhavcopy/search"
)

// LastDownloadedDate reads GET /date. The backend answers with a JSON
// string or a bare DDMMYYYY body; both are accepted.
func (c *Client) LastDownloadedDate(ctx context.Context) (tradingday.WireDate, error) {
	key := cacheKey(datePath, nil, nil)
	if c.cache != nil {
		if v, found := c.cache.Get(key); found {
			return v.(tradingday.WireDate), nil
		}
	}

	raw, err := c.call(ctx, http.MethodGet, datePath, nil, nil, nil)
	if err != nil {
		return "", err
	}

	s := strings.TrimSpace(string(raw))
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte(`"`)) {
		if err := json.Unmarshal(bytes.TrimSpace(raw), &s); err != nil {
			return "", fmt.Errorf("%w: %s: %w", interfaces.ErrBadResponse, datePath, err)
		}
	}
	if s == "" || s == "null" {
		return "", nil
	}
	if _, err := tradingday.ParseWire(s); err != nil {
		return "", fmt.Errorf("%w: %s: %w", interfaces.ErrBadResponse, datePath, err)
	}

	w := tradingday.WireDate(s)
	if c.cache != nil {
		c.cache.SetDefault(key, w)
	}
	return w, nil
}

// DownloadReports submits the whole batch in one POST. Cached reads are
// dropped on success since the backend now holds new reports.
func (c *Client) DownloadReports(ctx context.Context, dates []tradingday.WireDate) error {
	if _, err := c.call(ctx, http.MethodPost, downloadPath, nil, nil, types.DatesRequest{Dates: wireStrings(dates)}); err != nil {
		return err
	}
	c.InvalidateCache()
	return nil
}

func (c *Client) SectorPerformance(ctx context.Context, date tradingday.WireDate) (*types.SectorPerformance, error) {
	out, err := getJSON[types.SectorPerformance](ctx, c, sectorPerfPath, map[string]string{"date": string(date)}, nil)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SectorVolumeRatio(ctx context.Context, start, end tradingday.WireDate) (*types.SectorVolumeRatio, error) {
	out, err := getJSON[types.SectorVolumeRatio](ctx, c, sectorVolumePath, nil, map[string]string{
		"startDate": string(start),
		"endDate":   string(end),
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// TopGainersLosers reads the Nifty 50 movers; an empty date asks the
// backend for its latest day.
func (c *Client) TopGainersLosers(ctx context.Context, date tradingday.WireDate) (*types.StockPerformance, error) {
	var query map[string]string
	if date != "" {
		query = map[string]string{"date": string(date)}
	}
	out, err := getJSON[types.StockPerformance](ctx, c, topMoversPath, nil, query)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StockVolumeDifferences(ctx context.Context, dates []tradingday.WireDate) ([]types.StockVolume, error) {
	return postJSON[[]types.StockVolume](ctx, c, volumeDiffPath, types.DatesRequest{Dates: wireStrings(dates)})
}

func (c *Client) Bhavcopy(ctx context.Context, q types.BhavcopyQuery) (*types.BhavcopyPage, error) {
	path := bhavcopyPath
	query := map[string]string{
		"date":  q.Date,
		"page":  strconv.Itoa(q.Page),
		"limit": strconv.Itoa(q.Limit),
	}
	if q.Date == "" {
		query["date"] = "latest"
	}
	if q.Symbol != "" {
		path = bhavcopySearchPath
		query["symbol"] = q.Symbol
	}

	out, err := getJSON[types.BhavcopyPage](ctx, c, path, nil, query)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func wireStrings(dates []tradingday.WireDate) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = string(d)
	}
	return out
}
