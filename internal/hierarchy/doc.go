// Package hierarchy implements the container model for multi-modal
// experimental recordings: Dataset, Session, Trial, Source, Modality,
// Annotation, and Statistic.
//
// Containers documented as sequences (a Session's Trials) preserve insertion
// order; containers documented as mappings (a Trial's Sources, a Source's
// Modalities) enforce key uniqueness. Both kinds keep their backing storage
// private: all structural mutation goes through accessor methods that check
// the relevant invariant at the point of insertion and return a typed error
// when it fails. Read accessors hand out copies of slice headers and resolved
// pointers, never the backing containers themselves.
//
// Participants are owned by the Dataset alone. Sessions and Sources refer to
// them by identifier; attaching a subtree validates every reference against
// the Dataset's registry, so a dangling participant reference is caught when
// the subtree is attached rather than on a later lookup.
//
// Every container-owning entity carries its own mutex, which makes accessor
// calls safe for concurrent generation completions that target disjoint
// parents and serializes completions that target the same parent.
package hierarchy
