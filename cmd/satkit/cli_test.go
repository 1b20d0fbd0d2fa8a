package main

import (
	"os"
	"path/filepath"
	"testing"
)

const pdScenario = `
name: pd_run
items:
  - kind: pd
    params:
      modality: ultrasound
      norm: l2
    select:
      source: us1
`

func TestConfigInitAndValidate(t *testing.T) {
	setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, "")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
}

func TestPlanCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	scenarioPath := env.writeScenario(t, "pd.yaml", pdScenario)

	out, _, err := runCLI(t,
		[]string{"plan", scenarioPath, "--dataset", env.datasetPath},
		env.configPath)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	requireContains(t, out, "generate")
	requireContains(t, out, "1 to generate")
}

func TestRunThenReuseAndHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	scenarioPath := env.writeScenario(t, "pd.yaml", pdScenario)

	out, _, err := runCLI(t,
		[]string{"run", scenarioPath, "--dataset", env.datasetPath, "--skip-preflight"},
		env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "1 generated")

	// A second run finds the manifest entry and reuses the artifact.
	out, _, err = runCLI(t,
		[]string{"run", scenarioPath, "--dataset", env.datasetPath, "--skip-preflight"},
		env.configPath)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	requireContains(t, out, "1 reused")

	out, _, err = runCLI(t, []string{"runs"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "pd_run")

	out, _, err = runCLI(t, []string{"manifest", "list", env.recordedDir}, env.configPath)
	if err != nil {
		t.Fatalf("manifest list: %v", err)
	}
	requireContains(t, out, "us1")
	requireContains(t, out, "1 entries")

	out, _, err = runCLI(t, []string{"manifest", "verify", env.recordedDir}, env.configPath)
	if err != nil {
		t.Fatalf("manifest verify: %v", err)
	}
	requireContains(t, out, "verified")
}
