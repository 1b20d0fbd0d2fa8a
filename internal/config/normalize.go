package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeManifest()
	c.normalizeScenario()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkingDir, err = expandPath(c.Paths.WorkingDir); err != nil {
		return fmt.Errorf("paths.working_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.RunHistoryDB) == "" {
		c.Paths.RunHistoryDB = defaultRunHistoryDB
	}
	if c.Paths.RunHistoryDB, err = expandPath(c.Paths.RunHistoryDB); err != nil {
		return fmt.Errorf("paths.run_history_db: %w", err)
	}

	roots := make([]string, 0, len(c.Paths.RecordedRoots))
	seen := make(map[string]struct{}, len(c.Paths.RecordedRoots))
	for _, root := range c.Paths.RecordedRoots {
		if strings.TrimSpace(root) == "" {
			continue
		}
		expanded, err := expandPath(root)
		if err != nil {
			return fmt.Errorf("paths.recorded_roots: %w", err)
		}
		if _, exists := seen[expanded]; exists {
			continue
		}
		seen[expanded] = struct{}{}
		roots = append(roots, expanded)
	}
	c.Paths.RecordedRoots = roots
	return nil
}

func (c *Config) normalizeManifest() {
	c.Manifest.FileName = strings.TrimSpace(c.Manifest.FileName)
	if c.Manifest.FileName == "" {
		c.Manifest.FileName = defaultManifestFileName
	}
	c.Manifest.LockFileName = strings.TrimSpace(c.Manifest.LockFileName)
	if c.Manifest.LockFileName == "" {
		c.Manifest.LockFileName = defaultManifestLockName
	}
}

func (c *Config) normalizeScenario() {
	if c.Scenario.Workers <= 0 {
		c.Scenario.Workers = defaultScenarioWorkers
	}
	if c.Scenario.FreeSpaceFloor < 0 {
		c.Scenario.FreeSpaceFloor = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
