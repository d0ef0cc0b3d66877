package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"nse-dashboard/internal/bhavcopy"
	"nse-dashboard/internal/selection"
	"nse-dashboard/internal/tradingday"
	"nse-dashboard/internal/types"
)

type dateRequest struct {
	Date string `json:"date"`
}

type rangeRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type datesRequest struct {
	Dates []string `json:"dates"`
}

type selectedDate struct {
	Date    tradingday.WireDate `json:"date"`
	Display string              `json:"display"`
}

type selectionView struct {
	Count int            `json:"count"`
	Dates []selectedDate `json:"dates"`
}

type lastDateView struct {
	Date    tradingday.WireDate `json:"date"`
	Display string              `json:"display"`
}

type bhavcopyView struct {
	Data         []types.BhavcopyRow `json:"data"`
	Symbol       string              `json:"symbol"`
	Date         string              `json:"date"`
	Page         int                 `json:"page"`
	TotalPages   int                 `json:"totalPages"`
	VisiblePages []int               `json:"visiblePages"`
}

func (s *Server) health(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (s *Server) lastDate(c *gin.Context) {
	d, err := s.session.LastDownloaded(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if d == nil {
		ok(c, nil, "No reports downloaded yet")
		return
	}
	ok(c, lastDateView{Date: tradingday.ToWire(*d), Display: tradingday.LongString(*d)}, "")
}

func (s *Server) currentSelection() selectionView {
	dates := s.session.Selection.Dates()
	out := selectionView{Count: len(dates), Dates: make([]selectedDate, len(dates))}
	for i, w := range dates {
		d, _ := w.Date()
		out.Dates[i] = selectedDate{Date: w, Display: tradingday.LongString(d)}
	}
	return out
}

func (s *Server) getSelection(c *gin.Context) {
	ok(c, s.currentSelection(), "")
}

func (s *Server) addDate(c *gin.Context) {
	var req dateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	d, err := tradingday.ParseAny(req.Date)
	if err != nil {
		fail(c, err)
		return
	}
	if err := s.session.AddDate(d); err != nil {
		fail(c, err)
		return
	}
	ok(c, s.currentSelection(), "Date added")
}

func (s *Server) addRange(c *gin.Context) {
	var req rangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	r, err := parseRange(req.From, req.To)
	if err != nil {
		fail(c, err)
		return
	}
	added, err := s.session.AddRange(r)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, s.currentSelection(), strconv.Itoa(added)+" dates added")
}

func (s *Server) removeDate(c *gin.Context) {
	d, err := tradingday.ParseAny(c.Param("date"))
	if err != nil {
		fail(c, err)
		return
	}
	s.session.Remove(tradingday.ToWire(d))
	ok(c, s.currentSelection(), "Date removed")
}

func (s *Server) clearSelection(c *gin.Context) {
	s.session.ClearSelection()
	ok(c, s.currentSelection(), "Selection cleared")
}

func (s *Server) getDownloads(c *gin.Context) {
	ok(c, s.session.Tracker.Snapshot(), "")
}

// startDownload submits the current selection and answers once the
// backend has. Progress is pushed over /ws/downloads meanwhile.
func (s *Server) startDownload(c *gin.Context) {
	dates, err := s.session.Download(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, s.session.Tracker.Snapshot(), strconv.Itoa(len(dates))+" reports downloaded")
}

func (s *Server) clearCompleted(c *gin.Context) {
	s.session.Tracker.ClearCompleted()
	ok(c, s.session.Tracker.Snapshot(), "")
}

func (s *Server) sectorPerformance(c *gin.Context) {
	d, err := tradingday.ParseAny(c.Param("date"))
	if err != nil {
		fail(c, err)
		return
	}
	out, err := s.session.SectorPerformance(c.Request.Context(), d)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out, "")
}

func (s *Server) sectorVolume(c *gin.Context) {
	r, err := parseRange(c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		fail(c, err)
		return
	}
	out, err := s.session.SectorVolume(c.Request.Context(), r)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out, "")
}

func (s *Server) topMovers(c *gin.Context) {
	var d tradingday.Date
	if q := c.Query("date"); q != "" {
		var err error
		if d, err = tradingday.ParseAny(q); err != nil {
			fail(c, err)
			return
		}
	}
	out, err := s.session.TopMovers(c.Request.Context(), d)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out, "")
}

func (s *Server) volumeDifferences(c *gin.Context) {
	var req datesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	dates := make([]tradingday.Date, len(req.Dates))
	for i, raw := range req.Dates {
		d, err := tradingday.ParseAny(raw)
		if err != nil {
			fail(c, err)
			return
		}
		dates[i] = d
	}
	out, err := s.session.VolumeDifferences(c.Request.Context(), dates)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out, "")
}

func (s *Server) bhavcopy(c *gin.Context) {
	v := bhavcopy.NewViewer()
	v.SetPageSize(s.pageSize)
	v.SetSearch(c.Query("symbol"))

	if q := c.Query("date"); q != "" && q != bhavcopy.LatestDate {
		d, err := tradingday.ParseAny(q)
		if err != nil {
			fail(c, err)
			return
		}
		v.SetDate(tradingday.ToWire(d))
	}
	if q := c.Query("page"); q != "" {
		page, err := strconv.Atoi(q)
		if err != nil {
			badRequest(c, "page must be a number")
			return
		}
		v.SetPage(page)
	}

	if err := s.session.Bhavcopy(c.Request.Context(), v); err != nil {
		fail(c, err)
		return
	}
	ok(c, bhavcopyView{
		Data:         v.Rows(),
		Symbol:       v.Search(),
		Date:         v.Date(),
		Page:         v.Page(),
		TotalPages:   v.TotalPages(),
		VisiblePages: v.VisiblePages(),
	}, "")
}

func (s *Server) downloadsSocket(c *gin.Context) {
	snap := s.session.Tracker.Snapshot()
	s.hub.serve(c.Writer, c.Request, downloadEvent{Type: "downloads", Snapshot: snap})
}

// parseRange turns optional endpoint strings into a Range; empty strings
// stay nil so validation reports the missing endpoint.
func parseRange(from, to string) (selection.Range, error) {
	var r selection.Range
	if from != "" {
		d, err := tradingday.ParseAny(from)
		if err != nil {
			return r, err
		}
		r.From = &d
	}
	if to != "" {
		d, err := tradingday.ParseAny(to)
		if err != nil {
			return r, err
		}
		r.To = &d
	}
	return r, nil
}
