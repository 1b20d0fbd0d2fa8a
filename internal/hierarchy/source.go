package hierarchy

import (
	"fmt"
	"sort"
	"sync"
)

// Source holds all synchronized data streams recorded by one originating
// program or device for one participant within one trial. A trial with
// several participants holds several sources; the participant is a property
// of the source, never of an individual modality.
type Source struct {
	id            string
	participantID string
	recordedDir   string

	mu         sync.Mutex
	trial      *Trial
	modalities map[string]Modality
	statistics statisticSet
}

// NewSource builds a source. recordedDir is the recorded-data directory the
// source was imported from; manifest entries for artifacts derived from this
// source are recorded against that directory.
func NewSource(id, participantID, recordedDir string) *Source {
	return &Source{id: id, participantID: participantID, recordedDir: recordedDir}
}

// ID returns the source identifier (the recording-device label).
func (s *Source) ID() string { return s.id }

// ParticipantID returns the weak reference to the recorded participant.
func (s *Source) ParticipantID() string { return s.participantID }

// RecordedDir returns the recorded-data directory owning this source's data.
func (s *Source) RecordedDir() string { return s.recordedDir }

// Trial returns the owning trial, or nil before the source is attached.
func (s *Source) Trial() *Trial {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trial
}

// AddModality inserts a modality under its name. It rejects duplicate names
// with DuplicateKeyError and malformed data with ShapeMismatchError: the
// element count must match the shape and the time axis must match the time
// vector length. Validation happens here, at the insertion point, so a bad
// generation result never becomes retrievable.
func (s *Source) AddModality(modality Modality) error {
	if modality == nil || modality.Name() == "" {
		return &DuplicateKeyError{Container: "source " + s.id + " modalities", Key: ""}
	}
	if err := validateModalityData(modality); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.modalities[modality.Name()]; exists {
		return &DuplicateKeyError{Container: "source " + s.id + " modalities", Key: modality.Name()}
	}
	if s.modalities == nil {
		s.modalities = make(map[string]Modality)
	}
	s.modalities[modality.Name()] = modality
	return nil
}

// ReplaceModality overwrites an existing modality of the same name, or adds
// it when absent. The shape invariants still apply.
func (s *Source) ReplaceModality(modality Modality) error {
	if modality == nil || modality.Name() == "" {
		return &DuplicateKeyError{Container: "source " + s.id + " modalities", Key: ""}
	}
	if err := validateModalityData(modality); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.modalities == nil {
		s.modalities = make(map[string]Modality)
	}
	s.modalities[modality.Name()] = modality
	return nil
}

// Modality looks up a modality by name.
func (s *Source) Modality(name string) (Modality, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	modality, ok := s.modalities[name]
	return modality, ok
}

// ModalityNames returns the modality names in sorted order.
func (s *Source) ModalityNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.modalities))
	for name := range s.modalities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetStatistic stores a statistic under its name, replacing any previous
// value for that name.
func (s *Source) SetStatistic(stat *Statistic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statistics.set(stat)
}

// Statistic looks up a statistic by name.
func (s *Source) Statistic(name string) (*Statistic, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statistics.get(name)
}

// StatisticNames returns the statistic names in sorted order.
func (s *Source) StatisticNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statistics.names()
}

func validateModalityData(modality Modality) error {
	data := modality.Data()
	if data == nil {
		return &ShapeMismatchError{Modality: modality.Name(), Detail: "no data record"}
	}
	if len(data.shape) == 0 {
		return &ShapeMismatchError{Modality: modality.Name(), Detail: "empty shape"}
	}
	for _, dim := range data.shape {
		if dim < 0 {
			return &ShapeMismatchError{Modality: modality.Name(), Detail: "negative dimension"}
		}
	}
	if count := data.elementCount(); count != len(data.values) {
		return &ShapeMismatchError{
			Modality: modality.Name(),
			Detail:   fmt.Sprintf("shape %v implies %d elements but array holds %d", data.shape, count, len(data.values)),
		}
	}
	if data.TimeLength() != len(data.timeVector) {
		return &ShapeMismatchError{
			Modality: modality.Name(),
			Detail:   fmt.Sprintf("time axis has %d samples but time vector has %d", data.TimeLength(), len(data.timeVector)),
		}
	}
	return nil
}
