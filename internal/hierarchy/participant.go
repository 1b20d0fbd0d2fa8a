package hierarchy

import (
	"errors"
	"sort"
	"strings"
)

// Participant identifies one experimental subject. Participants are owned by
// the Dataset registry; every other entity refers to them by identifier only.
type Participant struct {
	id         string
	name       string
	attributes map[string]string
}

// NewParticipant builds a participant. Attributes are free-form metadata such
// as dialect or age group; the map is copied.
func NewParticipant(id, name string, attributes map[string]string) *Participant {
	copied := make(map[string]string, len(attributes))
	for key, value := range attributes {
		copied[key] = value
	}
	return &Participant{id: strings.TrimSpace(id), name: name, attributes: copied}
}

// ID returns the unique participant identifier.
func (p *Participant) ID() string { return p.id }

// Name returns the participant's display name.
func (p *Participant) Name() string { return p.name }

// Attribute returns a metadata value by key.
func (p *Participant) Attribute(key string) (string, bool) {
	value, ok := p.attributes[key]
	return value, ok
}

// participantRegistry is the Dataset-owned mapping of participants. It doubles
// as the reference index: weak references held by Sessions and Sources resolve
// against it.
type participantRegistry struct {
	byID map[string]*Participant
}

func (r *participantRegistry) add(p *Participant) error {
	if p == nil || p.id == "" {
		return errors.New("participant id must not be empty")
	}
	if _, exists := r.byID[p.id]; exists {
		return &DuplicateKeyError{Container: "participant registry", Key: p.id}
	}
	if r.byID == nil {
		r.byID = make(map[string]*Participant)
	}
	r.byID[p.id] = p
	return nil
}

func (r *participantRegistry) resolve(id string) (*Participant, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, &UnknownParticipantError{ID: id}
	}
	return p, nil
}

func (r *participantRegistry) contains(id string) bool {
	_, ok := r.byID[id]
	return ok
}

func (r *participantRegistry) ids() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
