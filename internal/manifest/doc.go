// Package manifest maintains the per-recorded-data-directory record of
// derived artifacts that have already been generated from that directory's
// recordings.
//
// Each recorded-data directory carries one manifest file
// (satkit_manifest.yaml by default) whose entries are keyed by
// (source identifier, derived-data kind, parameter fingerprint) and point at
// the location the artifact was written to. A lookup miss is a normal result:
// it simply means the artifact has to be generated.
//
// Mutations are buffered in memory and only made durable by Persist, which
// writes a temporary file and renames it into place so a crash can never
// leave a half-written manifest. A missing file on Load is an empty manifest
// (first run); a file that fails to parse is a ParseError and is never
// silently treated as empty, because that would mask corruption as "nothing
// generated yet".
//
// The design is single-writer per directory. Persist is atomic, but two
// processes mutating the same manifest concurrently must be excluded
// externally; Lock/Unlock expose an advisory file lock for that.
package manifest
