package downloadlog

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"nse-dashboard/internal/interfaces"
	"nse-dashboard/internal/tradingday"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRecordWritesDailyJSONLine(t *testing.T) {
	dir := t.TempDir()
	j, err := New(dir)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer j.Close()

	// 20:00 UTC on the 23rd is already the 24th in IST.
	j.now = fixedClock(time.Date(2025, 10, 23, 20, 0, 0, 0, time.UTC))

	started := time.Date(2025, 10, 24, 1, 30, 0, 0, tradingday.IST)
	recs := []interfaces.BatchRecord{
		{BatchID: "b1", Dates: []string{"23102025", "24102025"}, Status: "success", Started: started, Finished: started.Add(2 * time.Second)},
		{BatchID: "b2", Dates: []string{"22102025"}, Status: "error", Error: "HTTP 500", Started: started, Finished: started},
	}
	for _, rec := range recs {
		if err := j.Record(rec); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	f, err := os.Open(filepath.Join(dir, "2025-10-24.jsonl"))
	if err != nil {
		t.Fatalf("Expected journal file for the IST day, got %v", err)
	}
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("Expected valid JSON line, got %v", err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}

	if lines[0]["event"] != "download_batch" {
		t.Errorf("Expected event download_batch, got %v", lines[0]["event"])
	}
	if lines[0]["batch_id"] != "b1" || lines[0]["status"] != "success" {
		t.Errorf("Expected b1/success, got %v/%v", lines[0]["batch_id"], lines[0]["status"])
	}
	if dates, ok := lines[0]["dates"].([]any); !ok || len(dates) != 2 {
		t.Errorf("Expected two dates, got %v", lines[0]["dates"])
	}
	if lines[0]["duration_ms"] != float64(2000) {
		t.Errorf("Expected duration_ms 2000, got %v", lines[0]["duration_ms"])
	}
	if _, ok := lines[0]["error"]; ok {
		t.Error("Expected no error field on a successful batch")
	}
	if lines[1]["error"] != "HTTP 500" {
		t.Errorf("Expected error HTTP 500, got %v", lines[1]["error"])
	}
}

func TestRecordRotatesOnNewDay(t *testing.T) {
	dir := t.TempDir()
	j, err := New(dir)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer j.Close()

	j.now = fixedClock(time.Date(2025, 10, 23, 12, 0, 0, 0, tradingday.IST))
	_ = j.Record(interfaces.BatchRecord{BatchID: "a", Status: "success"})
	j.now = fixedClock(time.Date(2025, 10, 24, 12, 0, 0, 0, tradingday.IST))
	_ = j.Record(interfaces.BatchRecord{BatchID: "b", Status: "success"})

	for _, name := range []string{"2025-10-23.jsonl", "2025-10-24.jsonl"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s to exist, got %v", name, err)
		}
	}
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	j, err := New(dir)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	old := filepath.Join(dir, "2025-09-01.jsonl")
	fresh := filepath.Join(dir, "2025-10-23.jsonl")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, fresh, other} {
		if err := os.WriteFile(p, []byte(`{"batch_id":"x"}`+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().AddDate(0, 0, -30)
	for _, p := range []string{old, other} {
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatal(err)
		}
	}

	if err := j.CompressOlder(7); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("Expected old journal file to be removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("Expected recent journal file to be kept")
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("Expected non-journal file to be left alone")
	}

	f, err := os.Open(old + ".gz")
	if err != nil {
		t.Fatalf("Expected gzip archive, got %v", err)
	}
	defer f.Close()
	gr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("Expected valid gzip, got %v", err)
	}
	body, _ := io.ReadAll(gr)
	if string(body) != `{"batch_id":"x"}`+"\n" {
		t.Errorf("Expected original content, got %q", body)
	}
}

func TestCompressOlderReportsFailures(t *testing.T) {
	dir := t.TempDir()
	j, err := New(dir)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	j.now = fixedClock(time.Now().AddDate(0, 0, 60))

	broken := filepath.Join(dir, "2025-01-01.jsonl")
	if err := os.Symlink(filepath.Join(dir, "missing"), broken); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	good := filepath.Join(dir, "2025-02-01.jsonl")
	if err := os.WriteFile(good, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := j.CompressOlder(30); err == nil {
		t.Error("Expected the unreadable journal file to be reported")
	}
	if _, err := os.Stat(good + ".gz"); err != nil {
		t.Errorf("Expected remaining files to be compressed, got %v", err)
	}
}

func TestCompressOlderDisabled(t *testing.T) {
	dir := t.TempDir()
	j, _ := New(dir)
	p := filepath.Join(dir, "2020-01-01.jsonl")
	_ = os.WriteFile(p, []byte("{}\n"), 0o644)
	past := time.Now().AddDate(-1, 0, 0)
	_ = os.Chtimes(p, past, past)

	if err := j.CompressOlder(0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := os.Stat(p); err != nil {
		t.Error("Expected file to be untouched when retention is disabled")
	}
}

func TestNewRequiresDir(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("Expected error for empty directory")
	}
}
