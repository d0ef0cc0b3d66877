package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"nse-dashboard/internal/bhavcopy"
	"nse-dashboard/internal/download"
	"nse-dashboard/internal/interfaces"
	"nse-dashboard/internal/selection"
	"nse-dashboard/internal/testutil"
	"nse-dashboard/internal/tradingday"
	"nse-dashboard/internal/types"
)

func day(y int, m time.Month, d int) tradingday.Date {
	return tradingday.New(y, m, d)
}

func TestDownloadClearsSelectionOnSuccess(t *testing.T) {
	backend := &testutil.FakeBackend{}
	s := NewSession(backend)

	_ = s.AddDate(day(2025, 10, 24))
	_ = s.AddDate(day(2025, 10, 23))

	sent, err := s.Download(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(sent) != 2 || sent[0] != "23102025" || sent[1] != "24102025" {
		t.Errorf("Expected chronological batch, got %v", sent)
	}
	if s.Selection.Len() != 0 {
		t.Errorf("Expected selection to be cleared, got %d dates", s.Selection.Len())
	}
}

func TestDownloadKeepsSelectionOnFailure(t *testing.T) {
	backend := &testutil.FakeBackend{DownloadErr: errors.New("backend down")}
	s := NewSession(backend)
	_ = s.AddDate(day(2025, 10, 24))

	if _, err := s.Download(context.Background()); err == nil {
		t.Fatal("Expected error")
	}
	if s.Selection.Len() != 1 {
		t.Errorf("Expected selection to be kept, got %d dates", s.Selection.Len())
	}
	items := s.Tracker.Items()
	if len(items) != 1 || items[0].Status != download.StatusError {
		t.Errorf("Expected one failed item, got %+v", items)
	}
}

func TestDownloadEmptySelection(t *testing.T) {
	s := NewSession(&testutil.FakeBackend{})
	if _, err := s.Download(context.Background()); !errors.Is(err, download.ErrNoDates) {
		t.Errorf("Expected ErrNoDates, got %v", err)
	}
}

func TestLastDownloaded(t *testing.T) {
	backend := &testutil.FakeBackend{}
	s := NewSession(backend)

	d, err := s.LastDownloaded(context.Background())
	if err != nil || d != nil {
		t.Errorf("Expected nil date for empty backend, got %v, %v", d, err)
	}

	_ = s.AddDate(day(2025, 10, 24))
	_, _ = s.Download(context.Background())

	d, err = s.LastDownloaded(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if d == nil || !d.Equal(day(2025, 10, 24)) {
		t.Errorf("Expected 2025-10-24, got %v", d)
	}
}

func TestLastDownloadedMalformed(t *testing.T) {
	s := NewSession(&testutil.FakeBackend{LastDate: "garbage"})

	_, err := s.LastDownloaded(context.Background())
	if !errors.Is(err, interfaces.ErrBadResponse) {
		t.Errorf("Expected ErrBadResponse, got %v", err)
	}
}

func TestSectorVolumeValidatesRange(t *testing.T) {
	backend := &testutil.FakeBackend{SectorVolumes: types.SectorVolumeRatio{
		TopSectors: []types.SectorVolume{{Sector: "NIFTY IT", VolumeRatio: 1.4}},
	}}
	s := NewSession(backend)

	_, err := s.SectorVolume(context.Background(), selection.NewRange(day(2025, 10, 24), day(2025, 10, 20)))
	var ve *selection.ValidationError
	if !errors.As(err, &ve) || ve.Reason != selection.ReasonInvalidRange {
		t.Errorf("Expected invalid-range error, got %v", err)
	}

	out, err := s.SectorVolume(context.Background(), selection.NewRange(day(2025, 10, 20), day(2025, 10, 24)))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(out.TopSectors) != 1 {
		t.Errorf("Expected 1 sector, got %d", len(out.TopSectors))
	}
}

func TestVolumeDifferencesNeedsTwoDates(t *testing.T) {
	backend := &testutil.FakeBackend{}
	s := NewSession(backend)

	for _, dates := range [][]tradingday.Date{
		nil,
		{day(2025, 10, 24)},
		{day(2025, 10, 22), day(2025, 10, 23), day(2025, 10, 24)},
	} {
		_, err := s.VolumeDifferences(context.Background(), dates)
		var ve *selection.ValidationError
		if !errors.As(err, &ve) || ve.Reason != selection.ReasonNeedTwoDates {
			t.Errorf("Expected need-two-dates for %d dates, got %v", len(dates), err)
		}
	}

	if _, err := s.VolumeDifferences(context.Background(), []tradingday.Date{day(2025, 10, 24), day(2025, 10, 20)}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	args := backend.LastVolumeArgs
	if len(args) != 2 || args[0] != "20102025" || args[1] != "24102025" {
		t.Errorf("Expected [20102025 24102025], got %v", args)
	}
}

func TestBackendErrorsAreWrapped(t *testing.T) {
	cause := errors.New("timeout")
	s := NewSession(&testutil.FakeBackend{Err: cause})

	if _, err := s.SectorPerformance(context.Background(), day(2025, 10, 24)); !errors.Is(err, cause) {
		t.Errorf("Expected wrapped cause, got %v", err)
	}
	if _, err := s.TopMovers(context.Background(), tradingday.Date{}); !errors.Is(err, cause) {
		t.Errorf("Expected wrapped cause, got %v", err)
	}
	if err := s.Bhavcopy(context.Background(), bhavcopy.NewViewer()); !errors.Is(err, cause) {
		t.Errorf("Expected wrapped cause, got %v", err)
	}
}

func TestReset(t *testing.T) {
	s := NewSession(&testutil.FakeBackend{})
	_ = s.AddDate(day(2025, 10, 24))
	_, _ = s.Download(context.Background())
	_ = s.AddDate(day(2025, 10, 23))

	s.Reset()

	if s.Selection.Len() != 0 {
		t.Errorf("Expected empty selection, got %d", s.Selection.Len())
	}
	if len(s.Tracker.Items()) != 0 {
		t.Errorf("Expected empty tracker, got %d items", len(s.Tracker.Items()))
	}
}
