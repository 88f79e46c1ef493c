package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad_MissingFileWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ntap-config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, Defaults()) {
		t.Fatalf("Load returned non-default config: %+v, want %+v", cfg, Defaults())
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected defaults written to %s: %v", path, err)
	}
}

// TestDefaults_MatchesOriginalSource pins every scalar default against
// ntap-core/src/config.rs's DisplayConfig::new/PrivacyConfig::new/
// NetworkConfig::new, so a regressed default fails here instead of
// going unnoticed because only one field was ever checked.
func TestDefaults_MatchesOriginalSource(t *testing.T) {
	d := Defaults()
	want := Config{
		Logging: LoggingConfig{Level: LevelError},
		Network: NetworkConfig{
			Interfaces: nil,
			ReverseDNS: false,
			EntryTTLMs: 60000,
		},
		Display: DisplayConfig{
			TopRemoteHosts:  10,
			ConnectionCount: 10,
			TickRateMs:      1000,
			ShowBandwidth:   false,
		},
		Privacy: PrivacyConfig{
			HidePrivateIPInfo: true,
			HidePublicIPInfo:  true,
		},
	}
	if !reflect.DeepEqual(d, want) {
		t.Fatalf("Defaults() = %+v, want %+v", d, want)
	}
}

func TestLoad_MalformedFileFallsBackWithoutTouchingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ntap-config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Display.TopRemoteHosts != Defaults().Display.TopRemoteHosts {
		t.Fatalf("expected defaults for malformed file, got %+v", cfg)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "{not json" {
		t.Fatalf("malformed file was modified: %q", raw)
	}
}

func TestLoad_ValidFileIsRespected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ntap-config.json")
	if err := os.WriteFile(path, []byte(`{"display":{"top_remote_hosts":42}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Display.TopRemoteHosts != 42 {
		t.Fatalf("TopRemoteHosts = %d, want 42", cfg.Display.TopRemoteHosts)
	}
}
