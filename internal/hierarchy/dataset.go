package hierarchy

import (
	"sync"
)

// Dataset is the root of the hierarchy for one experiment. It exclusively
// owns the ordered sequence of Sessions and the registry of Participants;
// everything below refers to participants by identifier only, so removing a
// subtree can never destroy a participant.
type Dataset struct {
	name string

	mu           sync.Mutex
	sessions     []*Session
	sessionIndex map[string]*Session
	statistics   statisticSet

	pmu          sync.RWMutex
	participants participantRegistry
}

// NewDataset builds an empty dataset for one experiment import.
func NewDataset(name string) *Dataset {
	return &Dataset{name: name}
}

// Name returns the experiment name.
func (d *Dataset) Name() string { return d.name }

// AddParticipant registers a participant, rejecting duplicate identifiers.
func (d *Dataset) AddParticipant(p *Participant) error {
	d.pmu.Lock()
	defer d.pmu.Unlock()
	return d.participants.add(p)
}

// ResolveParticipant resolves a weak participant reference against the
// registry, returning UnknownParticipantError when the identifier is absent.
func (d *Dataset) ResolveParticipant(id string) (*Participant, error) {
	d.pmu.RLock()
	defer d.pmu.RUnlock()
	return d.participants.resolve(id)
}

// HasParticipant reports whether the identifier is registered.
func (d *Dataset) HasParticipant(id string) bool {
	d.pmu.RLock()
	defer d.pmu.RUnlock()
	return d.participants.contains(id)
}

// ParticipantIDs returns the registered identifiers, sorted.
func (d *Dataset) ParticipantIDs() []string {
	d.pmu.RLock()
	defer d.pmu.RUnlock()
	return d.participants.ids()
}

// AddSession appends a session to the dataset's ordered sequence and indexes
// it by name. Every participant referenced anywhere in the session's subtree
// must already be registered; a dangling reference fails the whole insertion
// with UnknownParticipantError before the session becomes reachable.
func (d *Dataset) AddSession(session *Session) error {
	if session == nil || session.name == "" {
		return &DuplicateKeyError{Container: "dataset " + d.name + " sessions", Key: ""}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.sessionIndex[session.name]; exists {
		return &DuplicateKeyError{Container: "dataset " + d.name + " sessions", Key: session.name}
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	for _, id := range session.referencedParticipantsLocked() {
		if !d.HasParticipant(id) {
			return &UnknownParticipantError{ID: id}
		}
	}

	if d.sessionIndex == nil {
		d.sessionIndex = make(map[string]*Session)
	}
	d.sessions = append(d.sessions, session)
	d.sessionIndex[session.name] = session
	session.dataset = d
	for _, trial := range session.trials {
		trial.mu.Lock()
		trial.dataset = d
		trial.mu.Unlock()
	}
	return nil
}

// RemoveSession detaches a session and, with it, the whole subtree of trials,
// sources, modalities, and annotations. Participants stay registered.
func (d *Dataset) RemoveSession(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	session, ok := d.sessionIndex[name]
	if !ok {
		return false
	}
	delete(d.sessionIndex, name)
	for i, candidate := range d.sessions {
		if candidate == session {
			d.sessions = append(d.sessions[:i], d.sessions[i+1:]...)
			break
		}
	}
	session.mu.Lock()
	session.dataset = nil
	for _, trial := range session.trials {
		trial.mu.Lock()
		trial.dataset = nil
		trial.mu.Unlock()
	}
	session.mu.Unlock()
	return true
}

// SessionCount returns the number of sessions in insertion order.
func (d *Dataset) SessionCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

// SessionAt returns the session at the given position in insertion order.
func (d *Dataset) SessionAt(index int) (*Session, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.sessions) {
		return nil, false
	}
	return d.sessions[index], true
}

// Session looks up a session by name.
func (d *Dataset) Session(name string) (*Session, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	session, ok := d.sessionIndex[name]
	return session, ok
}

// Sessions returns the sessions in insertion order.
func (d *Dataset) Sessions() []*Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	sessions := make([]*Session, len(d.sessions))
	copy(sessions, d.sessions)
	return sessions
}

// SetStatistic stores a statistic under its name, replacing any previous
// value for that name.
func (d *Dataset) SetStatistic(stat *Statistic) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statistics.set(stat)
}

// Statistic looks up a statistic by name.
func (d *Dataset) Statistic(name string) (*Statistic, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.statistics.get(name)
}

// StatisticNames returns the statistic names in sorted order.
func (d *Dataset) StatisticNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.statistics.names()
}
