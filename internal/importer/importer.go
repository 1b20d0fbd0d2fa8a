// Package importer builds a dataset hierarchy from a YAML description of a
// recorded-data collection. The description file lists participants, sessions,
// trials, and sources; modality data comes either inline or from per-modality
// data files next to the description.
package importer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"satkit/internal/hierarchy"
	"satkit/internal/logging"
)

// DatasetFile is the on-disk dataset description, conventionally named
// satkit.yaml at the root of a recorded-data directory.
type DatasetFile struct {
	Name         string            `yaml:"name"`
	Participants []ParticipantSpec `yaml:"participants"`
	Sessions     []SessionSpec     `yaml:"sessions"`
}

type ParticipantSpec struct {
	ID         string            `yaml:"id"`
	Name       string            `yaml:"name"`
	Attributes map[string]string `yaml:"attributes"`
}

type SessionSpec struct {
	Name         string      `yaml:"name"`
	Participants []string    `yaml:"participants"`
	Trials       []TrialSpec `yaml:"trials"`
}

type TrialSpec struct {
	Name       string       `yaml:"name"`
	Prompt     string       `yaml:"prompt"`
	RecordedAt time.Time    `yaml:"recorded_at"`
	Sources    []SourceSpec `yaml:"sources"`
}

type SourceSpec struct {
	ID          string `yaml:"id"`
	Participant string `yaml:"participant"`
	// Dir overrides the recorded-data directory the source belongs to;
	// it defaults to the directory holding the description file.
	Dir        string         `yaml:"dir"`
	Modalities []ModalitySpec `yaml:"modalities"`
}

// ModalitySpec describes one recorded stream. Data either sits inline or in a
// separate YAML file referenced by File, resolved relative to the source's
// directory.
type ModalitySpec struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
	File string `yaml:"file"`

	Values     []float64 `yaml:"values"`
	Shape      []int     `yaml:"shape"`
	TimeVector []float64 `yaml:"time_vector"`
	TimeOffset float64   `yaml:"time_offset"`

	SamplingRate    float64 `yaml:"sampling_rate"`
	FramesPerSecond float64 `yaml:"frames_per_second"`
}

// modalityDataFile is the payload layout of a referenced per-modality file.
type modalityDataFile struct {
	Values     []float64 `yaml:"values"`
	Shape      []int     `yaml:"shape"`
	TimeVector []float64 `yaml:"time_vector"`
	TimeOffset float64   `yaml:"time_offset"`
}

// Importer turns dataset descriptions into populated hierarchies.
type Importer struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Importer {
	return &Importer{logger: logging.NewComponentLogger(logger, "importer")}
}

// Load reads a description file and builds the dataset. All hierarchy
// invariants are enforced by the accessors during construction, so a
// description referencing an unknown participant or repeating a name fails
// with the corresponding typed error.
func (i *Importer) Load(path string) (*hierarchy.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset description %s: %w", path, err)
	}
	return i.Parse(data, filepath.Dir(path))
}

// Parse builds a dataset from description bytes. baseDir anchors relative
// source directories and modality data files.
func (i *Importer) Parse(data []byte, baseDir string) (*hierarchy.Dataset, error) {
	var file DatasetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse dataset description: %w", err)
	}
	if file.Name == "" {
		file.Name = filepath.Base(baseDir)
	}

	dataset := hierarchy.NewDataset(file.Name)
	for _, p := range file.Participants {
		if err := dataset.AddParticipant(hierarchy.NewParticipant(p.ID, p.Name, p.Attributes)); err != nil {
			return nil, err
		}
	}

	for _, sessionSpec := range file.Sessions {
		session, err := i.buildSession(sessionSpec, baseDir)
		if err != nil {
			return nil, err
		}
		if err := dataset.AddSession(session); err != nil {
			return nil, err
		}
	}

	i.logger.Info("imported dataset",
		logging.String("dataset", dataset.Name()),
		logging.Int("sessions", dataset.SessionCount()),
		logging.Int("participants", len(dataset.ParticipantIDs())))
	return dataset, nil
}

func (i *Importer) buildSession(spec SessionSpec, baseDir string) (*hierarchy.Session, error) {
	session := hierarchy.NewSession(spec.Name, spec.Participants)
	for _, trialSpec := range spec.Trials {
		trial := hierarchy.NewTrial(trialSpec.Name, hierarchy.TrialMetaData{
			RecordedAt: trialSpec.RecordedAt,
			Prompt:     trialSpec.Prompt,
		})
		for _, sourceSpec := range trialSpec.Sources {
			source, err := i.buildSource(sourceSpec, baseDir)
			if err != nil {
				return nil, fmt.Errorf("session %s, trial %s: %w", spec.Name, trialSpec.Name, err)
			}
			if err := trial.AddSource(source); err != nil {
				return nil, fmt.Errorf("session %s, trial %s: %w", spec.Name, trialSpec.Name, err)
			}
		}
		if err := session.AddTrial(trial); err != nil {
			return nil, err
		}
	}
	return session, nil
}

func (i *Importer) buildSource(spec SourceSpec, baseDir string) (*hierarchy.Source, error) {
	dir := spec.Dir
	if dir == "" {
		dir = baseDir
	} else if !filepath.IsAbs(dir) {
		dir = filepath.Join(baseDir, dir)
	}

	source := hierarchy.NewSource(spec.ID, spec.Participant, dir)
	for _, modalitySpec := range spec.Modalities {
		modality, err := i.buildModality(modalitySpec, dir)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", spec.ID, err)
		}
		if err := source.AddModality(modality); err != nil {
			return nil, fmt.Errorf("source %s: %w", spec.ID, err)
		}
	}
	return source, nil
}

func (i *Importer) buildModality(spec ModalitySpec, sourceDir string) (hierarchy.Modality, error) {
	if spec.File != "" {
		path := spec.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(sourceDir, path)
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read modality data %s: %w", path, err)
		}
		var payload modalityDataFile
		if err := yaml.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("parse modality data %s: %w", path, err)
		}
		spec.Values = payload.Values
		spec.Shape = payload.Shape
		spec.TimeVector = payload.TimeVector
		spec.TimeOffset = payload.TimeOffset
	}

	data := hierarchy.NewModalityData(spec.Values, spec.Shape, spec.TimeVector, spec.TimeOffset)
	switch hierarchy.ModalityKind(spec.Kind) {
	case hierarchy.KindRecordedAudio:
		return hierarchy.NewRecordedAudio(spec.Name, data, spec.SamplingRate), nil
	case hierarchy.KindRecordedUltrasound:
		return hierarchy.NewRecordedUltrasound(spec.Name, data, spec.FramesPerSecond), nil
	case hierarchy.KindSpline:
		return hierarchy.NewSpline(spec.Name, data, "", ""), nil
	case hierarchy.KindContour:
		return hierarchy.NewContour(spec.Name, data, "", ""), nil
	default:
		return nil, fmt.Errorf("modality %s: unsupported kind %q", spec.Name, spec.Kind)
	}
}
