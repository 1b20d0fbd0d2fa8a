package hierarchy

import (
	"sort"
	"sync"
)

// Session is one recording session: an ordered sequence of Trials (insertion
// order is the recording order) plus a statistics mapping and the set of
// participants who took part. The sequence and the mapping views are distinct
// members on purpose; neither is derived from the other.
type Session struct {
	name           string
	participantIDs []string

	mu         sync.Mutex
	dataset    *Dataset
	trials     []*Trial
	trialIndex map[string]*Trial
	statistics statisticSet
}

// NewSession builds a session. participantIDs are weak references into the
// dataset's registry; they are validated when the session is attached.
func NewSession(name string, participantIDs []string) *Session {
	seen := make(map[string]struct{}, len(participantIDs))
	ids := make([]string, 0, len(participantIDs))
	for _, id := range participantIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return &Session{name: name, participantIDs: ids}
}

// Name returns the session's key within its dataset.
func (s *Session) Name() string { return s.name }

// ParticipantIDs returns the session's participant references, sorted.
func (s *Session) ParticipantIDs() []string {
	ids := make([]string, len(s.participantIDs))
	copy(ids, s.participantIDs)
	return ids
}

// Dataset returns the owning dataset, or nil before the session is attached.
func (s *Session) Dataset() *Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataset
}

// AddTrial appends a trial to the recording sequence and indexes it by name.
// Duplicate names are rejected. When the session is already attached, every
// participant reference held by the trial's sources is validated against the
// dataset registry before the trial becomes reachable.
func (s *Session) AddTrial(trial *Trial) error {
	if trial == nil || trial.name == "" {
		return &DuplicateKeyError{Container: "session " + s.name + " trials", Key: ""}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.trialIndex[trial.name]; exists {
		return &DuplicateKeyError{Container: "session " + s.name + " trials", Key: trial.name}
	}

	trial.mu.Lock()
	defer trial.mu.Unlock()
	if s.dataset != nil {
		for _, id := range trial.participantIDsLocked() {
			if !s.dataset.HasParticipant(id) {
				return &UnknownParticipantError{ID: id}
			}
		}
	}

	if s.trialIndex == nil {
		s.trialIndex = make(map[string]*Trial)
	}
	s.trials = append(s.trials, trial)
	s.trialIndex[trial.name] = trial
	trial.session = s
	trial.dataset = s.dataset
	return nil
}

// TrialCount returns the number of trials in recording order.
func (s *Session) TrialCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trials)
}

// TrialAt returns the trial at the given position in recording order.
func (s *Session) TrialAt(index int) (*Trial, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.trials) {
		return nil, false
	}
	return s.trials[index], true
}

// Trial looks up a trial by name.
func (s *Session) Trial(name string) (*Trial, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trial, ok := s.trialIndex[name]
	return trial, ok
}

// Trials returns the trials in recording order.
func (s *Session) Trials() []*Trial {
	s.mu.Lock()
	defer s.mu.Unlock()
	trials := make([]*Trial, len(s.trials))
	copy(trials, s.trials)
	return trials
}

// SetStatistic stores a statistic under its name, replacing any previous
// value for that name.
func (s *Session) SetStatistic(stat *Statistic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statistics.set(stat)
}

// Statistic looks up a statistic by name.
func (s *Session) Statistic(name string) (*Statistic, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statistics.get(name)
}

// StatisticNames returns the statistic names in sorted order.
func (s *Session) StatisticNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statistics.names()
}

// referencedParticipantsLocked gathers the session's own references plus the
// references of every trial's sources; the caller holds s.mu.
func (s *Session) referencedParticipantsLocked() []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0, len(s.participantIDs))
	for _, id := range s.participantIDs {
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, trial := range s.trials {
		trial.mu.Lock()
		trialIDs := trial.participantIDsLocked()
		trial.mu.Unlock()
		for _, id := range trialIDs {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return ids
}
