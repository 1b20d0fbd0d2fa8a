package scenario

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"satkit/internal/config"
	"satkit/internal/fingerprint"
	"satkit/internal/hierarchy"
	"satkit/internal/manifest"
	"satkit/internal/storage"
)

// countingEngine stands in for the generation registry and counts how many
// times generation actually ran.
type countingEngine struct {
	mu    sync.Mutex
	calls int
	fail  map[string]bool
}

func (e *countingEngine) Generate(ctx context.Context, kind string, params map[string]any, source *hierarchy.Source) (hierarchy.Modality, error) {
	e.mu.Lock()
	e.calls++
	fail := e.fail[kind]
	e.mu.Unlock()
	if fail {
		return nil, errors.New("simulated generation failure")
	}
	data := hierarchy.NewModalityData([]float64{1, 2, 3}, []int{3}, []float64{0, 0.1, 0.2}, 0)
	return hierarchy.NewDerivedSeries(kind+"_out", data, kind, ""), nil
}

func (e *countingEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func testConfig(t *testing.T, roots ...string) *config.Config {
	t.Helper()
	return &config.Config{
		Paths: config.Paths{
			RecordedRoots: roots,
			WorkingDir:    t.TempDir(),
		},
		Manifest: config.Manifest{
			FileName:     "satkit_manifest.yaml",
			LockFileName: ".satkit_manifest.lock",
		},
		Scenario: config.Scenario{Workers: 2},
	}
}

// testDataset builds a minimal dataset with one session and one trial; every
// source lives in recordedDir and belongs to participant p1.
func testDataset(t *testing.T, recordedDir string, sourceIDs ...string) (*hierarchy.Dataset, *hierarchy.Source) {
	t.Helper()
	if len(sourceIDs) == 0 {
		sourceIDs = []string{"us1"}
	}

	dataset := hierarchy.NewDataset("test")
	if err := dataset.AddParticipant(hierarchy.NewParticipant("p1", "Participant One", nil)); err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}
	session := hierarchy.NewSession("sess1", []string{"p1"})
	trial := hierarchy.NewTrial("trial1", hierarchy.TrialMetaData{})

	var first *hierarchy.Source
	for _, id := range sourceIDs {
		source := hierarchy.NewSource(id, "p1", recordedDir)
		if first == nil {
			first = source
		}
		if err := trial.AddSource(source); err != nil {
			t.Fatalf("AddSource(%s): %v", id, err)
		}
	}
	if err := session.AddTrial(trial); err != nil {
		t.Fatalf("AddTrial: %v", err)
	}
	if err := dataset.AddSession(session); err != nil {
		t.Fatalf("AddSession: %v", err)
	}
	return dataset, first
}

func writeManifest(t *testing.T, dir string, entries ...manifest.Entry) {
	t.Helper()
	store := manifest.NewStore(dir, "satkit_manifest.yaml", ".satkit_manifest.lock", nil)
	if err := store.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, entry := range entries {
		if err := store.Record(entry, true); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := store.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}
}

func writeArtifactFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("artifact payload"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func pdSpec(params map[string]any) *Spec {
	return &Spec{
		Name:  "test",
		Items: []Item{{Kind: "pd", Params: params, Select: Selector{Source: "us1"}}},
	}
}

func TestRunGeneratesAndRecords(t *testing.T) {
	recordedDir := t.TempDir()
	dataset, source := testDataset(t, recordedDir)
	cfg := testConfig(t, recordedDir)
	engine := &countingEngine{}

	params := map[string]any{"norm": "l2"}
	report, err := New(cfg, engine, &storage.Local{}, nil).Run(context.Background(), dataset, pdSpec(params))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(report.Items))
	}
	item := report.Items[0]
	if item.Outcome != OutcomeGenerated {
		t.Fatalf("expected generated outcome, got %s (err: %v)", item.Outcome, item.Err)
	}
	if engine.callCount() != 1 {
		t.Errorf("expected 1 generation call, got %d", engine.callCount())
	}
	if _, err := os.Stat(item.Location); err != nil {
		t.Errorf("generated artifact missing: %v", err)
	}
	if _, ok := source.Modality("pd_out"); !ok {
		t.Error("generated modality not attached to source")
	}

	fp, err := fingerprint.Compute("pd", params)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	store := manifest.NewStore(recordedDir, "satkit_manifest.yaml", ".satkit_manifest.lock", nil)
	if err := store.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	entry, found := store.Lookup(source.ID(), "pd", fp)
	if !found {
		t.Fatal("manifest entry not recorded")
	}
	if entry.Location != item.Location {
		t.Errorf("manifest location %q != report location %q", entry.Location, item.Location)
	}
}

func TestRunReusesExistingEntry(t *testing.T) {
	recordedDir := t.TempDir()
	dataset, source := testDataset(t, recordedDir)
	cfg := testConfig(t, recordedDir)
	engine := &countingEngine{}

	params := map[string]any{"norm": "l2"}
	fp, err := fingerprint.Compute("pd", params)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	artifact := writeArtifactFile(t, t.TempDir(), "us1_pd.yaml")
	writeManifest(t, recordedDir, manifest.Entry{
		SourceID:    source.ID(),
		Kind:        "pd",
		Fingerprint: fp,
		Location:    artifact,
		GeneratedAt: time.Now().UTC(),
	})

	report, err := New(cfg, engine, &storage.Local{}, nil).Run(context.Background(), dataset, pdSpec(params))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	item := report.Items[0]
	if item.Outcome != OutcomeReused {
		t.Fatalf("expected reused outcome, got %s (err: %v)", item.Outcome, item.Err)
	}
	if engine.callCount() != 0 {
		t.Errorf("expected no generation calls, got %d", engine.callCount())
	}
	if filepath.Dir(item.Location) != report.WorkingDir {
		t.Errorf("reused artifact %q not copied into working dir %q", item.Location, report.WorkingDir)
	}
	data, err := os.ReadFile(item.Location)
	if err != nil {
		t.Fatalf("read copied artifact: %v", err)
	}
	if string(data) != "artifact payload" {
		t.Errorf("copied artifact content mismatch: %q", data)
	}
}

func TestRunRecoversStaleEntry(t *testing.T) {
	recordedDir := t.TempDir()
	dataset, source := testDataset(t, recordedDir)
	cfg := testConfig(t, recordedDir)
	engine := &countingEngine{}

	params := map[string]any{"norm": "l1"}
	fp, err := fingerprint.Compute("pd", params)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	writeManifest(t, recordedDir, manifest.Entry{
		SourceID:    source.ID(),
		Kind:        "pd",
		Fingerprint: fp,
		Location:    filepath.Join(t.TempDir(), "vanished.yaml"),
		GeneratedAt: time.Now().UTC(),
	})

	report, err := New(cfg, engine, &storage.Local{}, nil).Run(context.Background(), dataset, pdSpec(params))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	item := report.Items[0]
	if item.Outcome != OutcomeGenerated {
		t.Fatalf("expected generated outcome, got %s (err: %v)", item.Outcome, item.Err)
	}
	if !item.StaleRecovered {
		t.Error("expected stale recovery to be flagged")
	}
	if engine.callCount() != 1 {
		t.Errorf("expected 1 generation call, got %d", engine.callCount())
	}

	store := manifest.NewStore(recordedDir, "satkit_manifest.yaml", ".satkit_manifest.lock", nil)
	if err := store.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	entry, found := store.Lookup(source.ID(), "pd", fp)
	if !found {
		t.Fatal("fresh manifest entry not recorded after stale recovery")
	}
	if _, err := os.Stat(entry.Location); err != nil {
		t.Errorf("fresh entry points at missing artifact: %v", err)
	}
}

func TestRunDuplicateItemsGenerateOnce(t *testing.T) {
	recordedDir := t.TempDir()
	dataset, _ := testDataset(t, recordedDir)
	cfg := testConfig(t, recordedDir)
	engine := &countingEngine{}

	item := Item{Kind: "pd", Params: map[string]any{"norm": "l2"}, Select: Selector{Source: "us1"}}
	spec := &Spec{Name: "test", Items: []Item{item, item}}

	report, err := New(cfg, engine, &storage.Local{}, nil).Run(context.Background(), dataset, spec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if engine.callCount() != 1 {
		t.Fatalf("expected exactly 1 generation call for duplicate items, got %d", engine.callCount())
	}
	reused, generated, failed := report.Counts()
	if generated != 1 || reused != 1 || failed != 0 {
		t.Errorf("expected 1 generated + 1 reused, got generated=%d reused=%d failed=%d",
			generated, reused, failed)
	}
}

func TestResolveTieBreak(t *testing.T) {
	params := map[string]any{"norm": "l2"}
	fp, err := fingerprint.Compute("pd", params)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		timeA time.Time
		timeB time.Time
		// wantB selects the entry from the second search root.
		wantB bool
	}{
		{"newer entry wins", base, base.Add(time.Hour), true},
		{"equal timestamps fall back to search order", base, base, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dirA := t.TempDir()
			dirB := t.TempDir()
			artifacts := t.TempDir()
			locA := writeArtifactFile(t, artifacts, "from_a.yaml")
			locB := writeArtifactFile(t, artifacts, "from_b.yaml")

			writeManifest(t, dirA, manifest.Entry{
				SourceID: "us1", Kind: "pd", Fingerprint: fp, Location: locA, GeneratedAt: tc.timeA,
			})
			writeManifest(t, dirB, manifest.Entry{
				SourceID: "us1", Kind: "pd", Fingerprint: fp, Location: locB, GeneratedAt: tc.timeB,
			})

			dataset, _ := testDataset(t, dirA)
			resolver := New(testConfig(t, dirA, dirB), &countingEngine{}, &storage.Local{}, nil)
			defer resolver.Close()

			plan := resolver.Resolve(dataset, pdSpec(params))
			if len(plan.Failed) != 0 {
				t.Fatalf("unexpected planning failures: %+v", plan.Failed)
			}
			if len(plan.Reuse) != 1 {
				t.Fatalf("expected 1 reuse item, got reuse=%d generate=%d", len(plan.Reuse), len(plan.Generate))
			}
			want := locA
			if tc.wantB {
				want = locB
			}
			if got := plan.Reuse[0].ReuseFrom.Location; got != want {
				t.Errorf("tie-break chose %q, want %q", got, want)
			}
		})
	}
}

func TestRunPartialFailure(t *testing.T) {
	recordedDir := t.TempDir()
	dataset, _ := testDataset(t, recordedDir)
	cfg := testConfig(t, recordedDir)
	engine := &countingEngine{fail: map[string]bool{"broken": true}}

	spec := &Spec{
		Name: "test",
		Items: []Item{
			{Kind: "broken", Params: map[string]any{}, Select: Selector{Source: "us1"}},
			{Kind: "pd", Params: map[string]any{"norm": "l2"}, Select: Selector{Source: "us1"}},
		},
	}

	report, err := New(cfg, engine, &storage.Local{}, nil).Run(context.Background(), dataset, spec)
	if err != nil {
		t.Fatalf("Run should tolerate partial failure: %v", err)
	}
	reused, generated, failed := report.Counts()
	if generated != 1 || failed != 1 || reused != 0 {
		t.Fatalf("expected 1 generated + 1 failed, got generated=%d reused=%d failed=%d",
			generated, reused, failed)
	}
	for _, item := range report.Items {
		if item.Outcome != OutcomeFailed {
			continue
		}
		var genErr *GenerationError
		if !errors.As(item.Err, &genErr) {
			t.Errorf("failed item carries %T, want *GenerationError", item.Err)
		}
	}
}

func TestRunAllItemsFailed(t *testing.T) {
	recordedDir := t.TempDir()
	dataset, _ := testDataset(t, recordedDir)
	engine := &countingEngine{fail: map[string]bool{"pd": true}}

	_, err := New(testConfig(t, recordedDir), engine, &storage.Local{}, nil).
		Run(context.Background(), dataset, pdSpec(map[string]any{"norm": "l2"}))
	if !errors.Is(err, ErrAllItemsFailed) {
		t.Fatalf("expected ErrAllItemsFailed, got %v", err)
	}
}

func TestRunAmbiguousSelectorFailsItem(t *testing.T) {
	recordedDir := t.TempDir()
	dataset, _ := testDataset(t, recordedDir, "us1", "us2")
	engine := &countingEngine{}

	spec := &Spec{
		Name: "test",
		Items: []Item{
			{Kind: "pd", Params: map[string]any{"norm": "l2"}},
			{Kind: "pd", Params: map[string]any{"norm": "l2"}, Select: Selector{Source: "us1"}},
		},
	}

	report, err := New(testConfig(t, recordedDir), engine, &storage.Local{}, nil).
		Run(context.Background(), dataset, spec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	_, generated, failed := report.Counts()
	if generated != 1 || failed != 1 {
		t.Fatalf("expected 1 generated + 1 failed, got generated=%d failed=%d", generated, failed)
	}
	for _, item := range report.Items {
		if item.Outcome != OutcomeFailed {
			continue
		}
		var ambiguous *AmbiguousSourceError
		if !errors.As(item.Err, &ambiguous) {
			t.Fatalf("failed item carries %T, want *AmbiguousSourceError", item.Err)
		}
		if len(ambiguous.Matches) != 2 {
			t.Errorf("expected 2 candidate matches, got %d", len(ambiguous.Matches))
		}
	}
}

func TestRunCorruptManifestFailsItem(t *testing.T) {
	recordedDir := t.TempDir()
	dataset, _ := testDataset(t, recordedDir)
	corrupt := filepath.Join(recordedDir, "satkit_manifest.yaml")
	if err := os.WriteFile(corrupt, []byte("{invalid yaml"), 0o644); err != nil {
		t.Fatalf("write corrupt manifest: %v", err)
	}

	report, err := New(testConfig(t, recordedDir), &countingEngine{}, &storage.Local{}, nil).
		Run(context.Background(), dataset, pdSpec(map[string]any{"norm": "l2"}))
	if !errors.Is(err, ErrAllItemsFailed) {
		t.Fatalf("expected ErrAllItemsFailed, got %v", err)
	}
	var parseErr *manifest.ParseError
	if !errors.As(report.Items[0].Err, &parseErr) {
		t.Fatalf("failed item carries %T, want *manifest.ParseError", report.Items[0].Err)
	}
}
