package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"satkit/internal/hierarchy"
)

// artifactFile is the on-disk form of a generated modality. Recorded streams
// keep their native formats; only generation outputs pass through here.
type artifactFile struct {
	Name           string    `yaml:"name"`
	Kind           string    `yaml:"kind"`
	GenerationKind string    `yaml:"generation_kind"`
	Fingerprint    string    `yaml:"fingerprint"`
	Shape          []int     `yaml:"shape"`
	TimeOffset     float64   `yaml:"time_offset"`
	TimeVector     []float64 `yaml:"time_vector"`
	Values         []float64 `yaml:"values"`
}

// writeArtifact persists a generated modality into the run's working
// directory and returns its location.
func writeArtifact(dir string, item PlannedItem, modality hierarchy.Modality) (string, error) {
	data := modality.Data()
	file := artifactFile{
		Name:           modality.Name(),
		Kind:           string(modality.Kind()),
		GenerationKind: item.Kind,
		Fingerprint:    item.Fingerprint,
		Shape:          data.Shape(),
		TimeOffset:     data.TimeOffset(),
		TimeVector:     data.TimeVector(),
		Values:         data.Values(),
	}
	payload, err := yaml.Marshal(&file)
	if err != nil {
		return "", fmt.Errorf("marshal artifact: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact directory: %w", err)
	}
	location := filepath.Join(dir, artifactFileName(item))
	if err := os.WriteFile(location, payload, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return location, nil
}

// artifactFileName builds a stable, filesystem-safe name from the item key.
func artifactFileName(item PlannedItem) string {
	digest := item.Fingerprint
	if i := strings.LastIndex(digest, ":"); i >= 0 {
		digest = digest[i+1:]
	}
	if len(digest) > 12 {
		digest = digest[:12]
	}
	source := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, item.Source.ID())
	return fmt.Sprintf("%s_%s_%s.yaml", source, item.Kind, digest)
}
