// Package scenario resolves declarative requests for derived artifacts
// against recorded data and its manifests.
//
// A scenario file (satkit_scenario.yaml) lists derived-data kinds with
// generation parameters and a source selector. The resolver fingerprints each
// item, searches the manifests of the configured recorded-data directories,
// and produces a plan that reuses every artifact it can confirm on disk and
// schedules generation for the rest. Reuse is strictly preferred: copying a
// confirmed artifact into the run's working directory is always cheaper than
// regenerating it.
//
// A manifest entry whose artifact has gone missing is stale: the resolver
// logs it, regenerates, and records a fresh entry. Manifest parse failures
// poison only the affected directory; generation failures are collected per
// item. Structural violations from the hierarchy are neither: they indicate a
// caller bug and abort the run unchanged.
package scenario
