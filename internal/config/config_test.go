package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Sheet.SheetName != "Yahoo" {
		t.Fatalf("unexpected sheet name: %s", cfg.Sheet.SheetName)
	}
	if cfg.Search.Portal != "yahoo" {
		t.Fatalf("unexpected portal: %s", cfg.Search.Portal)
	}
	if cfg.Fetch.MaxBodyPages != 1 {
		t.Fatalf("unexpected page cap: %d", cfg.Fetch.MaxBodyPages)
	}
	if cfg.Gemini.MaxCharacters != 15000 {
		t.Fatalf("unexpected character budget: %d", cfg.Gemini.MaxCharacters)
	}
	if cfg.Pipeline.RecencyWindow() != 3*24*time.Hour {
		t.Fatalf("unexpected recency window: %v", cfg.Pipeline.RecencyWindow())
	}
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
keywords: ["トヨタ", "ホンダ"]
sheet:
  sheetName: Watch
fetch:
  throttle: 250ms
gemini:
  model: from-file
scheduler:
  interval: 6h
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(geminiModelEnv, "from-env")
	t.Setenv(spreadsheetIDEnv, "sheet-id")
	t.Setenv(gcpKeyEnv, `{"type":"service_account"}`)

	cfg := Load()

	if len(cfg.Keywords) != 2 || cfg.Keywords[0] != "トヨタ" {
		t.Fatalf("keywords not loaded: %v", cfg.Keywords)
	}
	if cfg.Sheet.SheetName != "Watch" {
		t.Fatalf("file override lost: %s", cfg.Sheet.SheetName)
	}
	if cfg.Fetch.Throttle.Std() != 250*time.Millisecond {
		t.Fatalf("duration not parsed: %v", cfg.Fetch.Throttle.Std())
	}
	if cfg.Scheduler.Interval.Std() != 6*time.Hour {
		t.Fatalf("interval not parsed: %v", cfg.Scheduler.Interval.Std())
	}
	// Environment wins over the file.
	if cfg.Gemini.Model != "from-env" {
		t.Fatalf("env override lost: %s", cfg.Gemini.Model)
	}
	// Untouched defaults survive a partial file.
	if cfg.Search.BaseURL != "https://news.yahoo.co.jp/search" {
		t.Fatalf("default lost: %s", cfg.Search.BaseURL)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsMissingCredentials(t *testing.T) {
	cfg := defaultConfig()
	cfg.Sheet.SpreadsheetID = "sheet-id"

	if err := cfg.Validate(); err == nil {
		t.Fatal("missing credentials must fail validation")
	}
}

func TestDurationYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	var d Duration
	if err := yaml.Unmarshal([]byte(`1m30s`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Std() != 90*time.Second {
		t.Fatalf("unexpected duration: %v", d.Std())
	}

	out, err := yaml.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Duration
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("re-unmarshal %q: %v", out, err)
	}
	if back != d {
		t.Fatalf("round trip drifted: %v != %v", back, d)
	}

	if err := yaml.Unmarshal([]byte(`not-a-duration`), &d); err == nil {
		t.Fatal("invalid duration must fail")
	}
}
