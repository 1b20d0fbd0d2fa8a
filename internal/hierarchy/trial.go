package hierarchy

import (
	"sort"
	"sync"
	"time"
)

// TrialMetaData records when and how a trial was captured. Data-type details
// (sampling rates, frame rates) belong to the individual modalities, not here.
type TrialMetaData struct {
	RecordedAt   time.Time
	Prompt       string
	DeviceConfig map[string]string
}

// Trial is one synchronized recording event: a keyed mapping of Sources plus
// the trial's metadata and annotation grid.
type Trial struct {
	name string
	meta TrialMetaData
	grid SatGrid

	mu         sync.Mutex
	session    *Session
	dataset    *Dataset
	sources    map[string]*Source
	statistics statisticSet
}

// NewTrial builds a trial. The device-config map inside meta is copied.
func NewTrial(name string, meta TrialMetaData) *Trial {
	config := make(map[string]string, len(meta.DeviceConfig))
	for key, value := range meta.DeviceConfig {
		config[key] = value
	}
	meta.DeviceConfig = config
	return &Trial{name: name, meta: meta}
}

// Name returns the trial's key within its session.
func (t *Trial) Name() string { return t.name }

// Meta returns a copy of the trial metadata.
func (t *Trial) Meta() TrialMetaData {
	config := make(map[string]string, len(t.meta.DeviceConfig))
	for key, value := range t.meta.DeviceConfig {
		config[key] = value
	}
	meta := t.meta
	meta.DeviceConfig = config
	return meta
}

// Grid returns the trial's annotation grid.
func (t *Trial) Grid() *SatGrid { return &t.grid }

// Session returns the owning session, or nil before the trial is attached.
func (t *Trial) Session() *Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

// AddSource inserts a source under its identifier. When the trial is already
// attached to a dataset, the source's participant reference is validated
// against the dataset registry immediately.
func (t *Trial) AddSource(source *Source) error {
	if source == nil || source.id == "" {
		return &DuplicateKeyError{Container: "trial " + t.name + " sources", Key: ""}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.sources[source.id]; exists {
		return &DuplicateKeyError{Container: "trial " + t.name + " sources", Key: source.id}
	}
	if t.dataset != nil && !t.dataset.HasParticipant(source.participantID) {
		return &UnknownParticipantError{ID: source.participantID}
	}
	if t.sources == nil {
		t.sources = make(map[string]*Source)
	}
	t.sources[source.id] = source
	source.mu.Lock()
	source.trial = t
	source.mu.Unlock()
	return nil
}

// Source looks up a source by identifier.
func (t *Trial) Source(id string) (*Source, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	source, ok := t.sources[id]
	return source, ok
}

// SourceIDs returns the source identifiers in sorted order.
func (t *Trial) SourceIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.sources))
	for id := range t.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Sources returns the sources in sorted-identifier order.
func (t *Trial) Sources() []*Source {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.sources))
	for id := range t.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	sources := make([]*Source, 0, len(ids))
	for _, id := range ids {
		sources = append(sources, t.sources[id])
	}
	return sources
}

// SetStatistic stores a statistic under its name, replacing any previous
// value for that name.
func (t *Trial) SetStatistic(stat *Statistic) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statistics.set(stat)
}

// Statistic looks up a statistic by name.
func (t *Trial) Statistic(name string) (*Statistic, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statistics.get(name)
}

// StatisticNames returns the statistic names in sorted order.
func (t *Trial) StatisticNames() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statistics.names()
}

// participantIDsLocked lists the distinct participant references held by the
// trial's sources; the caller holds t.mu.
func (t *Trial) participantIDsLocked() []string {
	seen := make(map[string]struct{}, len(t.sources))
	ids := make([]string, 0, len(t.sources))
	for _, source := range t.sources {
		if _, dup := seen[source.participantID]; dup {
			continue
		}
		seen[source.participantID] = struct{}{}
		ids = append(ids, source.participantID)
	}
	sort.Strings(ids)
	return ids
}
