package store

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("NSE_API_BASE_URL", "")
	t.Setenv("NSEDASH_ADDR", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults for missing file, got %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:3000" {
		t.Errorf("Expected default base URL, got %s", cfg.API.BaseURL)
	}
	if cfg.Viewer.PageSize != 15 {
		t.Errorf("Expected page size 15, got %d", cfg.Viewer.PageSize)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected :8080, got %s", cfg.Server.Addr)
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("NSE_API_BASE_URL", "")
	t.Setenv("NSEDASH_ADDR", "")

	p := writeConfig(t, `
api:
  base_url: http://reports.internal:9000
  retry_count: 3
viewer:
  page_size: 25
downloads:
  retention_days: 7
`)
	cfg, err := LoadConfig(p)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.API.BaseURL != "http://reports.internal:9000" {
		t.Errorf("Unexpected base URL %s", cfg.API.BaseURL)
	}
	if cfg.API.RetryCount != 3 {
		t.Errorf("Expected retry count 3, got %d", cfg.API.RetryCount)
	}
	if cfg.Viewer.PageSize != 25 {
		t.Errorf("Expected page size 25, got %d", cfg.Viewer.PageSize)
	}
	if cfg.Downloads.RetentionDays != 7 {
		t.Errorf("Expected retention 7, got %d", cfg.Downloads.RetentionDays)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("NSE_API_BASE_URL", "https://reports.example.com")
	t.Setenv("NSEDASH_ADDR", ":9999")

	cfg, err := LoadConfig(writeConfig(t, "api:\n  base_url: http://localhost:1\n"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.API.BaseURL != "https://reports.example.com" {
		t.Errorf("Expected env base URL, got %s", cfg.API.BaseURL)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Expected env addr, got %s", cfg.Server.Addr)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Setenv("NSE_API_BASE_URL", "")

	cases := map[string]string{
		"relative url": "api:\n  base_url: reports\n",
		"retry count":  "api:\n  retry_count: 50\n",
		"page size":    "viewer:\n  page_size: 1000\n",
		"bad yaml":     "api: [",
	}
	for name, body := range cases {
		if _, err := LoadConfig(writeConfig(t, body)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
