package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir     string
	configPath  string
	recordedDir string
	datasetPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	recordedDir := filepath.Join(base, "recorded")
	if err := os.MkdirAll(recordedDir, 0o755); err != nil {
		t.Fatalf("mkdir recorded: %v", err)
	}

	configPath := filepath.Join(homeDir, ".config", "satkit", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	content := fmt.Sprintf(`[paths]
recorded_roots = [%q]
working_dir = %q
log_dir = %q
run_history_db = %q

[scenario]
workers = 2
free_space_floor = 0.0

[logging]
format = "console"
level = "error"
`,
		recordedDir,
		filepath.Join(base, "work"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "runs.db"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	datasetPath := filepath.Join(recordedDir, "satkit.yaml")
	dataset := `
name: clitest
participants:
  - id: p1
    name: Participant One
sessions:
  - name: sess1
    participants: [p1]
    trials:
      - name: trial1
        sources:
          - id: us1
            participant: p1
            modalities:
              - name: ultrasound
                kind: recorded_ultrasound
                frames_per_second: 80
                values: [1, 2, 3, 4, 5, 6]
                shape: [3, 2]
                time_vector: [0, 0.0125, 0.025]
`
	if err := os.WriteFile(datasetPath, []byte(dataset), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	return &cliTestEnv{
		baseDir:     base,
		configPath:  configPath,
		recordedDir: recordedDir,
		datasetPath: datasetPath,
	}
}

func (env *cliTestEnv) writeScenario(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(env.baseDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
