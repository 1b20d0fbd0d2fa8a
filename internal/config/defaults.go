package config

const (
	defaultWorkingDir       = "~/.local/share/satkit/scenarios"
	defaultLogDir           = "~/.local/share/satkit/logs"
	defaultRunHistoryDB     = "~/.local/share/satkit/runs.db"
	defaultManifestFileName = "satkit_manifest.yaml"
	defaultManifestLockName = ".satkit_manifest.lock"
	defaultScenarioWorkers  = 4
	defaultFreeSpaceFloor   = 0.05
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkingDir:   defaultWorkingDir,
			LogDir:       defaultLogDir,
			RunHistoryDB: defaultRunHistoryDB,
		},
		Manifest: Manifest{
			FileName:     defaultManifestFileName,
			LockFileName: defaultManifestLockName,
		},
		Scenario: Scenario{
			Workers:        defaultScenarioWorkers,
			FreeSpaceFloor: defaultFreeSpaceFloor,
			VerifiedCopies: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
