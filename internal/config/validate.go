package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateManifest(); err != nil {
		return err
	}
	if err := c.validateScenario(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkingDir) == "" {
		return errors.New("paths.working_dir must be set")
	}
	for _, root := range c.Paths.RecordedRoots {
		if root == c.Paths.WorkingDir {
			return fmt.Errorf("paths.recorded_roots must not contain the working directory %q", root)
		}
	}
	return nil
}

func (c *Config) validateManifest() error {
	for _, name := range []string{c.Manifest.FileName, c.Manifest.LockFileName} {
		if filepath.Base(name) != name {
			return fmt.Errorf("manifest file name %q must not contain path separators", name)
		}
	}
	if c.Manifest.FileName == c.Manifest.LockFileName {
		return errors.New("manifest.file_name and manifest.lock_file_name must differ")
	}
	return nil
}

func (c *Config) validateScenario() error {
	if c.Scenario.Workers > 64 {
		return fmt.Errorf("scenario.workers %d is unreasonably high (max 64)", c.Scenario.Workers)
	}
	if c.Scenario.FreeSpaceFloor >= 1 {
		return errors.New("scenario.free_space_floor must be below 1")
	}
	return nil
}
