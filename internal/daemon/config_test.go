package daemon

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 8640 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8640)
	}
	if !cfg.Forgiveness.Enabled {
		t.Error("Forgiveness.Enabled should default to true")
	}
	if cfg.Forgiveness.RunAt != "23:50" {
		t.Errorf("Forgiveness.RunAt = %q, want %q", cfg.Forgiveness.RunAt, "23:50")
	}
	if cfg.Forgiveness.Timezone != "UTC" {
		t.Errorf("Forgiveness.Timezone = %q, want UTC", cfg.Forgiveness.Timezone)
	}
	if cfg.Store.Dir == "" {
		t.Error("Store.Dir should not be empty")
	}
}

func TestLoadConfig_NoFileUsesDefaults(t *testing.T) {
	t.Setenv("STRIDE_HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Server.Port != 8640 {
		t.Errorf("Server.Port = %d, want default 8640", cfg.Server.Port)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("STRIDE_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.Server.Port = 9000
	cfg.Forgiveness.RunAt = "22:00"
	cfg.Server.CORSOrigins = []string{"https://app.example.com"}

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}

	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if got.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", got.Server.Port)
	}
	if got.Forgiveness.RunAt != "22:00" {
		t.Errorf("Forgiveness.RunAt = %q, want 22:00", got.Forgiveness.RunAt)
	}
	if len(got.Server.CORSOrigins) != 1 || got.Server.CORSOrigins[0] != "https://app.example.com" {
		t.Errorf("Server.CORSOrigins = %v", got.Server.CORSOrigins)
	}
}

func TestStrideHome_EnvOverride(t *testing.T) {
	t.Setenv("STRIDE_HOME", "/tmp/stride-test-home")
	if got := strideHome(); got != "/tmp/stride-test-home" {
		t.Errorf("strideHome() = %q", got)
	}
}
