package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validParams() Params {
	p := Default()
	p.Host = "10.0.1.50"
	p.Username = "administrator"
	p.Password = "S3cret!"
	p.Group = "G1"
	return p
}

func TestDefaults(t *testing.T) {
	p := Default()

	if p.Port != 5985 {
		t.Errorf("expected default port 5985, got %d", p.Port)
	}
	if p.TimeoutSeconds != 30 || p.Retries != 2 || p.EventMinutes != 5 {
		t.Errorf("unexpected defaults: %+v", p)
	}
	if p.StateBackend != "file" || p.StateDir != "/tmp" {
		t.Errorf("unexpected state defaults: %+v", p)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	p := Default()

	err := p.Validate()
	if err == nil {
		t.Fatal("expected validation failure for empty required fields")
	}
	for _, field := range []string{"host", "username", "password", "group"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("expected %q in error, got: %v", field, err)
		}
	}
}

func TestValidateAcceptsCompleteParams(t *testing.T) {
	p := validParams()
	if err := p.Validate(); err != nil {
		t.Errorf("unexpected validation failure: %v", err)
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	p := validParams()
	p.Port = 70000
	if err := p.Validate(); err == nil {
		t.Error("expected validation failure for out-of-range port")
	}
}

func TestValidateSQLiteNeedsPath(t *testing.T) {
	p := validParams()
	p.StateBackend = "sqlite"
	err := p.Validate()
	if err == nil || !strings.Contains(err.Error(), "state_db") {
		t.Errorf("expected state_db requirement, got %v", err)
	}

	p.StateDB = "/var/lib/check_cluster/state.db"
	if err := p.Validate(); err != nil {
		t.Errorf("unexpected failure with state_db set: %v", err)
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	p := validParams()
	p.StateBackend = "redis"
	if err := p.Validate(); err == nil {
		t.Error("expected validation failure for unknown state backend")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "check_cluster.yaml")
	content := `host: 10.0.1.50
username: administrator
password: S3cret!
group: AHB-ONE01
timeout_seconds: 60
event_ids: [1135, 2050]
state_backend: sqlite
state_db: /var/tmp/state.db
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p := Default()
	if err := p.LoadFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Host != "10.0.1.50" || p.Group != "AHB-ONE01" {
		t.Errorf("file values not applied: %+v", p)
	}
	if p.TimeoutSeconds != 60 {
		t.Errorf("expected timeout override, got %d", p.TimeoutSeconds)
	}
	if len(p.EventIDs) != 2 || p.EventIDs[0] != 1135 {
		t.Errorf("event IDs not applied: %v", p.EventIDs)
	}
	// Untouched values keep their defaults.
	if p.Port != 5985 || p.Retries != 2 {
		t.Errorf("defaults lost during overlay: %+v", p)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	p := Default()
	if err := p.LoadFile("/nonexistent/check_cluster.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestApplyEnvOverridesCredentials(t *testing.T) {
	t.Setenv("CHECK_CLUSTER_USERNAME", "svc-probe")
	t.Setenv("CHECK_CLUSTER_PASSWORD", "FromEnv!")

	p := validParams()
	p.ApplyEnv()

	if p.Username != "svc-probe" || p.Password != "FromEnv!" {
		t.Errorf("env overrides not applied: %+v", p)
	}
}

func TestTimeout(t *testing.T) {
	p := validParams()
	p.TimeoutSeconds = 45
	if p.Timeout() != 45*time.Second {
		t.Errorf("unexpected timeout: %v", p.Timeout())
	}
}
