// Package storage implements the filesystem collaborator the scenario
// resolver uses to confirm and reuse previously generated artifacts:
// existence checks, verified copies into the scenario working directory, and
// a free-space guard for the working filesystem.
package storage
