// Package preflight verifies the environment before a scenario run: the
// working directory must be writable with headroom, and every configured
// recorded-data root must exist and be readable.
package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"satkit/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Working directory", cfg.Paths.WorkingDir, unix.R_OK|unix.W_OK|unix.X_OK),
	}

	if cfg.Scenario.FreeSpaceFloor > 0 {
		results = append(results, CheckFreeSpace(cfg.Paths.WorkingDir, cfg.Scenario.FreeSpaceFloor))
	}

	if len(cfg.Paths.RecordedRoots) == 0 {
		results = append(results, Result{Name: "Recorded roots", Detail: "no recorded-data roots configured"})
	}
	for _, root := range cfg.Paths.RecordedRoots {
		results = append(results, CheckDirectoryAccess("Recorded root", root, unix.R_OK|unix.X_OK))
	}

	return results
}

// AllPassed reports whether every check passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return len(results) > 0
}

// CheckDirectoryAccess verifies that the directory exists and grants the
// requested access bits.
func CheckDirectoryAccess(name, path string, accessBits uint32) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, accessBits); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (access ok)", path)}
}

// CheckFreeSpace verifies that the filesystem holding path has at least the
// given free-space ratio available.
func CheckFreeSpace(path string, floor float64) Result {
	const name = "Working filesystem space"

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	if total == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: zero-size filesystem)", path)}
	}

	ratio := float64(free) / float64(total)
	if ratio < floor {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%.1f%% free, floor %.1f%%)", path, ratio*100, floor*100)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%.1f%% free)", path, ratio*100)}
}
