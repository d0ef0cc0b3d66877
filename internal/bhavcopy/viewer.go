package bhavcopy

import (
	"context"
	"strings"

	"nse-dashboard/internal/interfaces"
	"nse-dashboard/internal/tradingday"
	"nse-dashboard/internal/types"
)

const (
	PageSize   = 15
	LatestDate = "latest"

	// pages shown around the current one in the pager
	windowSize = 5
)

// Viewer tracks the query and pagination of the bhavcopy table.
type Viewer struct {
	search     string
	date       string
	page       int
	pageSize   int
	totalPages int
	rows       []types.BhavcopyRow
}

func NewViewer() *Viewer {
	return &Viewer{date: LatestDate, page: 1, pageSize: PageSize, totalPages: 1}
}

// SetPageSize changes the rows per page; non-positive values are ignored.
func (v *Viewer) SetPageSize(n int) {
	if n <= 0 {
		return
	}
	v.pageSize = n
	v.page = 1
}

// SetSearch filters by symbol and starts over at page 1.
func (v *Viewer) SetSearch(term string) {
	v.search = strings.ToUpper(strings.TrimSpace(term))
	v.page = 1
}

// SetDate selects the report day; an empty value means the latest one.
func (v *Viewer) SetDate(date tradingday.WireDate) {
	v.date = string(date)
	if v.date == "" {
		v.date = LatestDate
	}
	v.page = 1
}

func (v *Viewer) Search() string  { return v.search }
func (v *Viewer) Date() string    { return v.date }
func (v *Viewer) Page() int       { return v.page }
func (v *Viewer) TotalPages() int { return v.totalPages }

func (v *Viewer) Rows() []types.BhavcopyRow { return v.rows }

func (v *Viewer) Next() { v.GoTo(v.page + 1) }
func (v *Viewer) Prev() { v.GoTo(v.page - 1) }

func (v *Viewer) GoTo(page int) {
	v.page = clamp(page, 1, v.totalPages)
}

// SetPage positions the viewer before the page count is known, e.g. when
// restoring a page from a request. Unlike GoTo it only clamps at 1.
func (v *Viewer) SetPage(page int) {
	v.page = max(1, page)
}

func (v *Viewer) HasNext() bool { return v.page < v.totalPages }
func (v *Viewer) HasPrev() bool { return v.page > 1 }

// VisiblePages returns up to five page numbers starting two before the
// current page.
func (v *Viewer) VisiblePages() []int {
	start := max(1, v.page-2)
	end := min(v.totalPages, start+windowSize-1)
	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}

func (v *Viewer) Query() types.BhavcopyQuery {
	return types.BhavcopyQuery{
		Symbol: v.search,
		Date:   v.date,
		Page:   v.page,
		Limit:  v.pageSize,
	}
}

// Load fetches the current page. On error the previous rows are kept.
func (v *Viewer) Load(ctx context.Context, backend interfaces.Backend) error {
	out, err := backend.Bhavcopy(ctx, v.Query())
	if err != nil {
		return err
	}
	v.rows = out.Data
	v.totalPages = max(1, out.TotalPages)
	v.page = clamp(v.page, 1, v.totalPages)
	return nil
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
