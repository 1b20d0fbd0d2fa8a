package preflight

import (
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"

	"satkit/internal/config"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	result := CheckDirectoryAccess("Working directory", dir, unix.R_OK|unix.W_OK|unix.X_OK)
	if !result.Passed {
		t.Errorf("expected pass for temp dir: %s", result.Detail)
	}

	missing := filepath.Join(dir, "missing")
	result = CheckDirectoryAccess("Working directory", missing, unix.R_OK)
	if result.Passed {
		t.Error("expected failure for missing directory")
	}
}

func TestRunAllReportsMissingRoots(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.WorkingDir = t.TempDir()
	cfg.Scenario.FreeSpaceFloor = 0

	results := RunAll(&cfg)
	if AllPassed(results) {
		t.Error("expected a failing check when no recorded roots are configured")
	}
}

func TestRunAllPassesWithValidLayout(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.WorkingDir = t.TempDir()
	cfg.Paths.RecordedRoots = []string{t.TempDir()}
	cfg.Scenario.FreeSpaceFloor = 0

	results := RunAll(&cfg)
	if !AllPassed(results) {
		for _, result := range results {
			if !result.Passed {
				t.Errorf("check %s failed: %s", result.Name, result.Detail)
			}
		}
	}
}
