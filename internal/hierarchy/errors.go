package hierarchy

import "fmt"

// DuplicateKeyError reports an insertion whose key already exists in the
// target container. Callers that intend replacement must use an explicit
// replace operation instead.
type DuplicateKeyError struct {
	Container string
	Key       string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s already contains key %q", e.Container, e.Key)
}

// UnknownParticipantError reports a reference to a participant identifier
// that is absent from the owning Dataset's registry.
type UnknownParticipantError struct {
	ID string
}

func (e *UnknownParticipantError) Error() string {
	return fmt.Sprintf("participant %q is not registered in the dataset", e.ID)
}

// ShapeMismatchError reports modality data whose array dimensions disagree
// with each other or with the time vector.
type ShapeMismatchError struct {
	Modality string
	Detail   string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("modality %q shape mismatch: %s", e.Modality, e.Detail)
}
