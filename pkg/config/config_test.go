package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Unpiloted0852/TrashCompass/pkg/config"
)

func TestDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.RadiusMeters != 2000 {
		t.Errorf("radius = %d, want 2000", cfg.Search.RadiusMeters)
	}
	if len(cfg.Search.Endpoints) != 4 {
		t.Errorf("endpoints = %v, want the four defaults", cfg.Search.Endpoints)
	}
	if cfg.Search.UserAgent != "TrashCompass/2.1" {
		t.Errorf("user agent = %q", cfg.Search.UserAgent)
	}
	if cfg.Units != "metric" {
		t.Errorf("units = %q, want metric", cfg.Units)
	}
	if cfg.API.ListenAddr != "127.0.0.1:8723" {
		t.Errorf("listen addr = %q", cfg.API.ListenAddr)
	}
	if cfg.Suggest.NominatimServer != "https://nominatim.openstreetmap.org" {
		t.Errorf("nominatim server = %q", cfg.Suggest.NominatimServer)
	}
	if cfg.Suggest.TransientRetries != 1 {
		t.Errorf("transient retries = %d, want 1", cfg.Suggest.TransientRetries)
	}
}

func TestFileOverridesAndClamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("units: imperial\nsearch:\n  radius_meters: 50000\n  endpoints:\n    - https://example.org/api/interpreter\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Units != "imperial" {
		t.Errorf("units = %q, want imperial", cfg.Units)
	}
	if cfg.Search.RadiusMeters != 10000 {
		t.Errorf("radius = %d, want clamped to 10000", cfg.Search.RadiusMeters)
	}
	if len(cfg.Search.Endpoints) != 1 || cfg.Search.Endpoints[0] != "https://example.org/api/interpreter" {
		t.Errorf("endpoints = %v", cfg.Search.Endpoints)
	}
}

func TestSuggestOverridesAndRetryBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("suggest:\n  nominatim_server: https://nominatim.example.net\n  transient_retries: 9\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Suggest.NominatimServer != "https://nominatim.example.net" {
		t.Errorf("nominatim server = %q", cfg.Suggest.NominatimServer)
	}
	if cfg.Suggest.TransientRetries != 1 {
		t.Errorf("transient retries = %d, want out-of-range value reset to 1", cfg.Suggest.TransientRetries)
	}
}

func TestMissingFileIsAnError(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing explicit config file")
	}
}

func TestUnknownUnitsFallBackToMetric(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("units: furlongs\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Units != "metric" {
		t.Errorf("units = %q, want metric", cfg.Units)
	}
}
