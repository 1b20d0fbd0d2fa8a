package importer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"satkit/internal/hierarchy"
)

const sampleDescription = `
name: minimal
participants:
  - id: p1
    name: Participant One
sessions:
  - name: sess1
    participants: [p1]
    trials:
      - name: trial1
        prompt: "say aaa"
        sources:
          - id: us1
            participant: p1
            modalities:
              - name: audio
                kind: recorded_audio
                sampling_rate: 44100
                values: [0.1, 0.2, 0.3]
                shape: [3]
                time_vector: [0, 0.01, 0.02]
`

func TestLoadBuildsHierarchy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "satkit.yaml")
	if err := os.WriteFile(path, []byte(sampleDescription), 0o644); err != nil {
		t.Fatalf("write description: %v", err)
	}

	dataset, err := New(nil).Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if dataset.Name() != "minimal" {
		t.Errorf("dataset name = %q", dataset.Name())
	}
	session, ok := dataset.Session("sess1")
	if !ok {
		t.Fatal("session sess1 missing")
	}
	trial, ok := session.Trial("trial1")
	if !ok {
		t.Fatal("trial trial1 missing")
	}
	if trial.Meta().Prompt != "say aaa" {
		t.Errorf("prompt = %q", trial.Meta().Prompt)
	}
	source, ok := trial.Source("us1")
	if !ok {
		t.Fatal("source us1 missing")
	}
	if source.RecordedDir() != dir {
		t.Errorf("recorded dir = %q, want %q", source.RecordedDir(), dir)
	}
	modality, ok := source.Modality("audio")
	if !ok {
		t.Fatal("modality audio missing")
	}
	audio, ok := modality.(*hierarchy.RecordedAudio)
	if !ok {
		t.Fatalf("modality has type %T", modality)
	}
	if audio.SamplingRate() != 44100 {
		t.Errorf("sampling rate = %v", audio.SamplingRate())
	}
	if got := audio.Data().TimeLength(); got != 3 {
		t.Errorf("time length = %d", got)
	}
}

func TestParseModalityDataFromFile(t *testing.T) {
	dir := t.TempDir()
	payload := "values: [1, 2]\nshape: [2]\ntime_vector: [0, 0.5]\ntime_offset: 0.25\n"
	if err := os.WriteFile(filepath.Join(dir, "us1_raw.yaml"), []byte(payload), 0o644); err != nil {
		t.Fatalf("write data file: %v", err)
	}
	description := `
participants:
  - id: p1
sessions:
  - name: sess1
    participants: [p1]
    trials:
      - name: trial1
        sources:
          - id: us1
            participant: p1
            modalities:
              - name: raw
                kind: recorded_ultrasound
                frames_per_second: 80
                file: us1_raw.yaml
`
	dataset, err := New(nil).Parse([]byte(description), dir)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	session, _ := dataset.Session("sess1")
	trial, _ := session.Trial("trial1")
	source, _ := trial.Source("us1")
	modality, ok := source.Modality("raw")
	if !ok {
		t.Fatal("modality raw missing")
	}
	if got := modality.Data().TimeOffset(); got != 0.25 {
		t.Errorf("time offset = %v", got)
	}
}

func TestParseRejectsUnknownParticipant(t *testing.T) {
	description := `
participants:
  - id: p1
sessions:
  - name: sess1
    participants: [p1]
    trials:
      - name: trial1
        sources:
          - id: us1
            participant: ghost
`
	_, err := New(nil).Parse([]byte(description), t.TempDir())
	var unknown *hierarchy.UnknownParticipantError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownParticipantError, got %v", err)
	}
	if unknown.ID != "ghost" {
		t.Errorf("error names %q", unknown.ID)
	}
}

func TestParseRejectsMalformedModality(t *testing.T) {
	description := `
participants:
  - id: p1
sessions:
  - name: sess1
    participants: [p1]
    trials:
      - name: trial1
        sources:
          - id: us1
            participant: p1
            modalities:
              - name: audio
                kind: recorded_audio
                values: [1, 2, 3]
                shape: [4]
                time_vector: [0, 1, 2]
`
	_, err := New(nil).Parse([]byte(description), t.TempDir())
	var shape *hierarchy.ShapeMismatchError
	if !errors.As(err, &shape) {
		t.Fatalf("expected ShapeMismatchError, got %v", err)
	}
}

func TestParseRejectsUnsupportedKind(t *testing.T) {
	description := `
participants:
  - id: p1
sessions:
  - name: sess1
    participants: [p1]
    trials:
      - name: trial1
        sources:
          - id: us1
            participant: p1
            modalities:
              - name: video
                kind: recorded_video
`
	_, err := New(nil).Parse([]byte(description), t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "unsupported kind") {
		t.Fatalf("expected unsupported-kind error, got %v", err)
	}
}
