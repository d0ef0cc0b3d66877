package downloadlog

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"nse-dashboard/internal/interfaces"
	"nse-dashboard/internal/tradingday"
)

const ext = ".jsonl"

// Journal appends one JSON line per finished download batch to a daily
// file named after the IST day, e.g. logs/downloads/2025-10-24.jsonl.
type Journal struct {
	dir string
	now func() time.Time

	mu   sync.Mutex
	day  string
	file *os.File
	log  *zap.Logger
}

var _ interfaces.Journal = (*Journal)(nil)

func New(dir string) (*Journal, error) {
	if dir == "" {
		return nil, fmt.Errorf("journal directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	return &Journal{dir: dir, now: time.Now}, nil
}

func (j *Journal) Dir() string { return j.dir }

func (j *Journal) Record(rec interfaces.BatchRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.rotate(j.now()); err != nil {
		return err
	}

	fields := []zap.Field{
		zap.String("batch_id", rec.BatchID),
		zap.Strings("dates", rec.Dates),
		zap.String("status", rec.Status),
		zap.Time("started", rec.Started),
		zap.Time("finished", rec.Finished),
		zap.Int64("duration_ms", rec.Finished.Sub(rec.Started).Milliseconds()),
	}
	if rec.Error != "" {
		fields = append(fields, zap.String("error", rec.Error))
	}
	j.log.Info("download_batch", fields...)
	return j.log.Sync()
}

// rotate switches the underlying file when the IST day changes.
func (j *Journal) rotate(now time.Time) error {
	day := now.In(tradingday.IST).Format("2006-01-02")
	if j.file != nil && j.day == day {
		return nil
	}
	if j.file != nil {
		_ = j.log.Sync()
		_ = j.file.Close()
		j.file, j.log = nil, nil
	}

	f, err := os.OpenFile(filepath.Join(j.dir, day+ext), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal file: %w", err)
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(f), zapcore.InfoLevel)
	j.day, j.file, j.log = day, f, zap.New(core)
	return nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.MessageKey = "event"
	cfg.LevelKey = zapcore.OmitKey
	cfg.CallerKey = zapcore.OmitKey
	cfg.StacktraceKey = zapcore.OmitKey
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.In(tradingday.IST).Format("2006-01-02 15:04:05"))
	}
	return cfg
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	_ = j.log.Sync()
	err := j.file.Close()
	j.file, j.log = nil, nil
	return err
}

// CompressOlder gzips journal files last modified more than retentionDays
// ago and removes the originals. The file currently being written is left
// alone. Non-positive retention disables compression.
func (j *Journal) CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}

	j.mu.Lock()
	current := ""
	if j.file != nil {
		current = j.file.Name()
	}
	j.mu.Unlock()

	cutoff := j.now().AddDate(0, 0, -retentionDays)
	var errs []error
	walkErr := filepath.WalkDir(j.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ext || p == current {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}

		gz := p + ".gz"
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := gzipFile(p, gz); err != nil {
			errs = append(errs, err)
		}
		return nil
	})
	return errors.Join(append(errs, walkErr)...)
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("compress %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("compress %s: %w", src, err)
	}

	gw := gzip.NewWriter(out)
	_, copyErr := io.Copy(gw, in)
	closeErr := gw.Close()
	_ = out.Close()

	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("compress %s: %w", src, err)
	}
	_ = in.Close()
	return os.Remove(src)
}
