package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/solokit/sessiond/internal/session"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Snapshots.RingCapacity != session.DefaultRingCapacity {
		t.Errorf("ring capacity = %d", cfg.Snapshots.RingCapacity)
	}
	if cfg.Advisor.TargetSnapshotsPerHour != 2.0 {
		t.Errorf("target rate = %f", cfg.Advisor.TargetSnapshotsPerHour)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("data_dir: [not: valid"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestWriteLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.DataDir = "/var/lib/sessiond"
	cfg.Snapshots.RingCapacity = 25
	if err := Write(path, cfg); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.DataDir != "/var/lib/sessiond" || got.Snapshots.RingCapacity != 25 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("data_dir: /tmp/sessions\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/tmp/sessions" {
		t.Errorf("data_dir = %q", cfg.DataDir)
	}
	if cfg.Snapshots.MaxDescriptionLength != 200 {
		t.Errorf("partial file lost default: %d", cfg.Snapshots.MaxDescriptionLength)
	}
}

func TestSessionConfig_Mapping(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/data"
	cfg.Snapshots.RingCapacity = 7
	cfg.Advisor.TargetSnapshotsPerHour = 3.5

	sc := cfg.SessionConfig()
	if sc.DataDir != "/data" || sc.RingCapacity != 7 || sc.TargetSnapshotsPerHour != 3.5 {
		t.Errorf("mapping = %+v", sc)
	}
}
