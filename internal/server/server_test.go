package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"nse-dashboard/internal/api"
	"nse-dashboard/internal/dashboard"
	"nse-dashboard/internal/download"
	"nse-dashboard/internal/interfaces"
	"nse-dashboard/internal/selection"
	"nse-dashboard/internal/store"
	"nse-dashboard/internal/testutil"
	"nse-dashboard/internal/tradingday"
	"nse-dashboard/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(backend *testutil.FakeBackend) (*Server, *dashboard.Session) {
	session := dashboard.NewSession(backend)
	return New(store.Default(), session), session
}

func do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp Response
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Expected JSON envelope, got %q", rec.Body.String())
		}
	}
	return rec, resp
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(&testutil.FakeBackend{})
	rec, _ := do(t, s.Handler(), http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

func TestSelectionLifecycle(t *testing.T) {
	s, session := newTestServer(&testutil.FakeBackend{})
	h := s.Handler()

	rec, resp := do(t, h, http.MethodPost, "/api/selection/dates", dateRequest{Date: "2025-10-24"})
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("Expected success, got %d %+v", rec.Code, resp)
	}

	rec, resp = do(t, h, http.MethodPost, "/api/selection/dates", dateRequest{Date: "25102025"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a weekend, got %d", rec.Code)
	}
	if resp.Error != "Cannot select weekends." {
		t.Errorf("Expected weekend message, got %q", resp.Error)
	}

	rec, resp = do(t, h, http.MethodPost, "/api/selection/range", rangeRequest{From: "2025-10-20", To: "2025-10-26"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d %+v", rec.Code, resp)
	}
	if resp.Message != "4 dates added" {
		t.Errorf("Expected 4 new dates, got %q", resp.Message)
	}
	if session.Selection.Len() != 5 {
		t.Errorf("Expected 5 selected dates, got %d", session.Selection.Len())
	}

	rec, _ = do(t, h, http.MethodDelete, "/api/selection/dates/24102025", nil)
	if rec.Code != http.StatusOK || session.Selection.Contains("24102025") {
		t.Errorf("Expected 24102025 to be removed, got %d", rec.Code)
	}

	rec, _ = do(t, h, http.MethodGet, "/api/selection", nil)
	var view struct {
		Data selectionView `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &view)
	if view.Data.Count != 4 || view.Data.Dates[0].Date != "20102025" || view.Data.Dates[0].Display != "Mon Oct 20 2025" {
		t.Errorf("Unexpected selection view %+v", view.Data)
	}

	do(t, h, http.MethodDelete, "/api/selection", nil)
	if session.Selection.Len() != 0 {
		t.Errorf("Expected empty selection, got %d", session.Selection.Len())
	}
}

func TestAddRangeInvalid(t *testing.T) {
	s, session := newTestServer(&testutil.FakeBackend{})

	cases := []rangeRequest{
		{From: "2025-10-24", To: "2025-10-20"},
		{From: "2025-10-24"},
		{From: "2000-01-01", To: "2025-10-24"},
		{},
	}
	for _, req := range cases {
		rec, resp := do(t, s.Handler(), http.MethodPost, "/api/selection/range", req)
		if rec.Code != http.StatusBadRequest || resp.Error != "Please select a valid date range." {
			t.Errorf("Expected invalid range for %+v, got %d %q", req, rec.Code, resp.Error)
		}
	}
	if session.Selection.Len() != 0 {
		t.Errorf("Expected selection unchanged, got %d", session.Selection.Len())
	}
}

func TestMalformedDate(t *testing.T) {
	s, _ := newTestServer(&testutil.FakeBackend{})
	rec, _ := do(t, s.Handler(), http.MethodGet, "/api/sectors/performance/2024-13-01", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestDownloadFlow(t *testing.T) {
	backend := &testutil.FakeBackend{}
	s, session := newTestServer(backend)
	h := s.Handler()

	rec, resp := do(t, h, http.MethodPost, "/api/downloads", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an empty selection, got %d", rec.Code)
	}
	if resp.Success {
		t.Error("Expected failure envelope")
	}

	_ = session.AddDate(tradingday.New(2025, 10, 24))
	rec, resp = do(t, h, http.MethodPost, "/api/downloads", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d %+v", rec.Code, resp)
	}
	if session.Selection.Len() != 0 {
		t.Error("Expected selection to be cleared after download")
	}

	rec, _ = do(t, h, http.MethodGet, "/api/last-date", nil)
	var last struct {
		Data lastDateView `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &last)
	if last.Data.Date != "24102025" || last.Data.Display != "Fri Oct 24 2025" {
		t.Errorf("Unexpected last date %+v", last.Data)
	}

	do(t, h, http.MethodDelete, "/api/downloads/completed", nil)
	if n := len(session.Tracker.Items()); n != 0 {
		t.Errorf("Expected completed items cleared, got %d", n)
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&tradingday.ParseError{Input: "x", Reason: "bad"}, http.StatusBadRequest},
		{&selection.ValidationError{Reason: selection.ReasonNeedTwoDates}, http.StatusBadRequest},
		{download.ErrNoDates, http.StatusBadRequest},
		{download.ErrBusy, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", &api.HTTPError{StatusCode: 500}), http.StatusBadGateway},
		{fmt.Errorf("%w: %w", interfaces.ErrBadResponse, &tradingday.ParseError{Input: "x", Reason: "bad"}), http.StatusBadGateway},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := statusFor(tt.err); got != tt.want {
			t.Errorf("Expected %d for %v, got %d", tt.want, tt.err, got)
		}
	}
}

func TestBackendErrorIsBadGateway(t *testing.T) {
	backend := &testutil.FakeBackend{Err: &api.HTTPError{Method: "GET", Path: "/performance/top-gainers-losers", StatusCode: 503}}
	s, _ := newTestServer(backend)
	rec, _ := do(t, s.Handler(), http.MethodGet, "/api/stocks/movers", nil)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", rec.Code)
	}
}

func TestMalformedLastDateIsBadGateway(t *testing.T) {
	s, _ := newTestServer(&testutil.FakeBackend{LastDate: "garbage"})
	rec, resp := do(t, s.Handler(), http.MethodGet, "/api/last-date", nil)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", rec.Code)
	}
	if resp.Success || resp.Error == "" {
		t.Errorf("Expected error envelope, got %+v", resp)
	}
}

func TestVolumeDifferences(t *testing.T) {
	backend := &testutil.FakeBackend{Volumes: []types.StockVolume{{Symbol: "SBIN", VolumeDifference: 1200}}}
	s, _ := newTestServer(backend)

	rec, resp := do(t, s.Handler(), http.MethodPost, "/api/stocks/volume-differences", datesRequest{Dates: []string{"2025-10-24"}})
	if rec.Code != http.StatusBadRequest || resp.Error != "Please select exactly two dates." {
		t.Errorf("Expected need-two-dates, got %d %q", rec.Code, resp.Error)
	}

	rec, _ = do(t, s.Handler(), http.MethodPost, "/api/stocks/volume-differences", datesRequest{Dates: []string{"24102025", "20102025"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if len(backend.LastVolumeArgs) != 2 || backend.LastVolumeArgs[0] != "20102025" {
		t.Errorf("Expected earlier date first, got %v", backend.LastVolumeArgs)
	}
}

func TestSectorVolumeQuery(t *testing.T) {
	s, _ := newTestServer(&testutil.FakeBackend{})
	rec, _ := do(t, s.Handler(), http.MethodGet, "/api/sectors/volume-ratio?startDate=20102025&endDate=24102025", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	rec, _ = do(t, s.Handler(), http.MethodGet, "/api/sectors/volume-ratio?startDate=24102025&endDate=20102025", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for reversed range, got %d", rec.Code)
	}
}

func TestBhavcopy(t *testing.T) {
	backend := &testutil.FakeBackend{Page: types.BhavcopyPage{
		Data:       []types.BhavcopyRow{{Symbol: "INFY"}},
		TotalPages: 20,
	}}
	s, _ := newTestServer(backend)

	rec, _ := do(t, s.Handler(), http.MethodGet, "/api/bhavcopy?symbol=infy&date=2025-10-24&page=6", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	q := backend.LastQuery
	if q.Symbol != "INFY" || q.Date != "24102025" || q.Page != 6 || q.Limit != 15 {
		t.Errorf("Unexpected query %+v", q)
	}

	var view struct {
		Data bhavcopyView `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &view)
	if view.Data.TotalPages != 20 || len(view.Data.VisiblePages) != 5 || view.Data.VisiblePages[0] != 4 {
		t.Errorf("Unexpected view %+v", view.Data)
	}

	rec, _ = do(t, s.Handler(), http.MethodGet, "/api/bhavcopy?page=abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a bad page, got %d", rec.Code)
	}
}

func TestDownloadsSocket(t *testing.T) {
	backend := &testutil.FakeBackend{}
	s, session := newTestServer(backend)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/downloads", nil)
	if err != nil {
		t.Fatalf("Expected websocket to connect, got %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first downloadEvent
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("Expected initial snapshot, got %v", err)
	}
	if first.Type != "downloads" || len(first.Items) != 0 {
		t.Errorf("Unexpected initial snapshot %+v", first)
	}

	_ = session.AddDate(tradingday.New(2025, 10, 24))
	resp, err := http.Post(ts.URL+"/api/downloads", "application/json", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	resp.Body.Close()

	var seen []download.Status
	for len(seen) == 0 || seen[len(seen)-1] != download.StatusSuccess {
		var ev downloadEvent
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("Expected progress events, got %v after %v", err, seen)
		}
		if len(ev.Items) == 1 {
			seen = append(seen, ev.Items[0].Status)
		}
	}
	if seen[0] != download.StatusPending {
		t.Errorf("Expected first pushed status pending, got %v", seen)
	}
}
