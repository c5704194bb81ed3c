package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Serve.Port != DefaultPort {
		t.Errorf("Serve.Port = %d, want %d", cfg.Serve.Port, DefaultPort)
	}
	if cfg.Serve.Host != DefaultHost {
		t.Errorf("Serve.Host = %q, want %q", cfg.Serve.Host, DefaultHost)
	}
	if cfg.Tail.Window != DefaultWindow {
		t.Errorf("Tail.Window = %q, want %q", cfg.Tail.Window, DefaultWindow)
	}
	if cfg.Tail.Trigger != DefaultTrigger {
		t.Errorf("Tail.Trigger = %q, want %q", cfg.Tail.Trigger, DefaultTrigger)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	// Loading a missing config should fail
	_, err := Load(tmpDir)
	if err == nil {
		t.Error("Expected error for missing config")
	}
	if !strings.Contains(err.Error(), "E101") {
		t.Errorf("Expected E101 error, got: %v", err)
	}

	configPath := filepath.Join(tmpDir, ConfigFileName)
	configJSON := `{
  "name": "checkout-demo",
  "serve": {
    "port": 9000,
    "host": "0.0.0.0",
    "scenario": "scenario.yaml",
    "metrics": true
  },
  "tail": {
    "channels": ["price", "qty"],
    "window": "50ms",
    "trigger": "always"
  }
}
`
	if err := os.WriteFile(configPath, []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Name != "checkout-demo" {
		t.Errorf("Name = %q, want %q", cfg.Name, "checkout-demo")
	}
	if cfg.Serve.Port != 9000 {
		t.Errorf("Serve.Port = %d, want %d", cfg.Serve.Port, 9000)
	}
	if cfg.Serve.Host != "0.0.0.0" {
		t.Errorf("Serve.Host = %q, want %q", cfg.Serve.Host, "0.0.0.0")
	}
	if !cfg.Serve.Metrics {
		t.Error("Serve.Metrics should be true")
	}
	if len(cfg.Tail.Channels) != 2 {
		t.Errorf("Tail.Channels len = %d, want %d", len(cfg.Tail.Channels), 2)
	}
	if cfg.Tail.Window != "50ms" {
		t.Errorf("Tail.Window = %q, want %q", cfg.Tail.Window, "50ms")
	}
	if cfg.Tail.Trigger != "always" {
		t.Errorf("Tail.Trigger = %q, want %q", cfg.Tail.Trigger, "always")
	}
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	if err := os.WriteFile(configPath, []byte("not valid json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(configPath)
	if err == nil {
		t.Error("Expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "E100") {
		t.Errorf("Expected E100 error, got: %v", err)
	}
}

func TestSave(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	cfg := New()
	cfg.Serve.Port = 9000
	cfg.Name = "demo"

	// Save should fail without configPath set
	err := cfg.Save()
	if err == nil {
		t.Error("Expected error when saving without path")
	}

	// SaveTo should work
	err = cfg.SaveTo(configPath)
	if err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}

	// Reload and verify
	loaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if loaded.Serve.Port != 9000 {
		t.Errorf("Serve.Port = %d, want %d", loaded.Serve.Port, 9000)
	}
	if loaded.Name != "demo" {
		t.Errorf("Name = %q, want %q", loaded.Name, "demo")
	}

	// Now Save should work
	loaded.Serve.Port = 9001
	err = loaded.Save()
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}

	reloaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if reloaded.Serve.Port != 9001 {
		t.Errorf("Serve.Port = %d, want %d", reloaded.Serve.Port, 9001)
	}
}

func TestValidate(t *testing.T) {
	cfg := New()

	// Valid config
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate should pass for valid config: %v", err)
	}

	// Invalid port
	cfg.Serve.Port = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Validate should fail for negative port")
	}

	cfg.Serve.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("Validate should fail for port > 65535")
	}

	// Invalid window
	cfg = New()
	cfg.Tail.Window = "fast"
	err := cfg.Validate()
	if err == nil {
		t.Error("Validate should fail for unparseable window")
	}
	if !strings.Contains(err.Error(), "E103") {
		t.Errorf("Expected E103 error, got: %v", err)
	}

	// Invalid trigger
	cfg = New()
	cfg.Tail.Trigger = "sometimes"
	err = cfg.Validate()
	if err == nil {
		t.Error("Validate should fail for unknown trigger")
	}
	if !strings.Contains(err.Error(), "E104") {
		t.Errorf("Expected E104 error, got: %v", err)
	}
}

func TestAddress(t *testing.T) {
	cfg := New()
	cfg.Serve.Port = 9000
	cfg.Serve.Host = "0.0.0.0"

	if got := cfg.Address(); got != "0.0.0.0:9000" {
		t.Errorf("Address = %q, want %q", got, "0.0.0.0:9000")
	}
}

func TestFeedURL(t *testing.T) {
	cfg := New()

	if got := cfg.FeedURL(); got != "ws://localhost:8080/ws" {
		t.Errorf("FeedURL = %q, want %q", got, "ws://localhost:8080/ws")
	}
}

func TestTailURL(t *testing.T) {
	cfg := New()

	// Falls back to the local hub
	if got := cfg.TailURL(); got != "ws://localhost:8080/ws" {
		t.Errorf("TailURL = %q, want %q", got, "ws://localhost:8080/ws")
	}

	cfg.Tail.URL = "ws://feed.internal:9000/ws"
	if got := cfg.TailURL(); got != "ws://feed.internal:9000/ws" {
		t.Errorf("TailURL = %q, want %q", got, "ws://feed.internal:9000/ws")
	}
}

func TestTailWindow(t *testing.T) {
	cfg := New()

	if got := cfg.TailWindow(); got != 150*time.Millisecond {
		t.Errorf("TailWindow = %v, want %v", got, 150*time.Millisecond)
	}

	cfg.Tail.Window = "2s"
	if got := cfg.TailWindow(); got != 2*time.Second {
		t.Errorf("TailWindow = %v, want %v", got, 2*time.Second)
	}

	// Unparseable values fall back to the default
	cfg.Tail.Window = "fast"
	if got := cfg.TailWindow(); got != 150*time.Millisecond {
		t.Errorf("TailWindow fallback = %v, want %v", got, 150*time.Millisecond)
	}
}

func TestPaths(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	cfg := New()
	cfg.Serve.Scenario = "scenario.yaml"
	cfg.Serve.Journal = "logs/hub.jsonl"
	cfg.SaveTo(configPath)

	if got := cfg.ScenarioPath(); got != filepath.Join(tmpDir, "scenario.yaml") {
		t.Errorf("ScenarioPath = %q, want %q", got, filepath.Join(tmpDir, "scenario.yaml"))
	}
	if got := cfg.ServeJournalPath(); got != filepath.Join(tmpDir, "logs/hub.jsonl") {
		t.Errorf("ServeJournalPath = %q, want %q", got, filepath.Join(tmpDir, "logs/hub.jsonl"))
	}

	// Unconfigured paths stay empty
	if got := cfg.TailJournalPath(); got != "" {
		t.Errorf("TailJournalPath = %q, want empty", got)
	}

	// Absolute paths pass through
	cfg.Serve.Scenario = "/absolute/scenario.yaml"
	if got := cfg.ScenarioPath(); got != "/absolute/scenario.yaml" {
		t.Errorf("ScenarioPath absolute = %q, want %q", got, "/absolute/scenario.yaml")
	}
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()

	if Exists(tmpDir) {
		t.Error("Exists should be false for empty directory")
	}

	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	if !Exists(tmpDir) {
		t.Error("Exists should be true after creating config")
	}
}

func TestFindProjectRoot(t *testing.T) {
	// Create nested directory structure
	tmpDir := t.TempDir()
	nestedDir := filepath.Join(tmpDir, "a", "b", "c")
	if err := os.MkdirAll(nestedDir, 0755); err != nil {
		t.Fatal(err)
	}

	// Should fail when no config exists
	_, err := FindProjectRoot(nestedDir)
	if err == nil {
		t.Error("FindProjectRoot should fail when no config exists")
	}

	// Create config in root
	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	// Should find root from nested directory
	root, err := FindProjectRoot(nestedDir)
	if err != nil {
		t.Fatalf("FindProjectRoot error: %v", err)
	}
	if root != tmpDir {
		t.Errorf("FindProjectRoot = %q, want %q", root, tmpDir)
	}

	// Should find root from middle directory
	root, err = FindProjectRoot(filepath.Join(tmpDir, "a"))
	if err != nil {
		t.Fatalf("FindProjectRoot error: %v", err)
	}
	if root != tmpDir {
		t.Errorf("FindProjectRoot = %q, want %q", root, tmpDir)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Serve.Port != DefaultPort {
		t.Errorf("Serve.Port = %d, want %d", cfg.Serve.Port, DefaultPort)
	}
	if cfg.Serve.Host != DefaultHost {
		t.Errorf("Serve.Host = %q, want %q", cfg.Serve.Host, DefaultHost)
	}
	if cfg.Tail.Window != DefaultWindow {
		t.Errorf("Tail.Window = %q, want %q", cfg.Tail.Window, DefaultWindow)
	}
	if cfg.Tail.Trigger != DefaultTrigger {
		t.Errorf("Tail.Trigger = %q, want %q", cfg.Tail.Trigger, DefaultTrigger)
	}
}
