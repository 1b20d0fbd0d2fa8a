package scenario

import (
	"satkit/internal/hierarchy"
	"satkit/internal/manifest"
)

// Action says how a planned item will be satisfied.
type Action string

const (
	// ActionReuse copies a previously generated artifact into the run's
	// working directory.
	ActionReuse Action = "reuse"
	// ActionGenerate invokes the generation engine.
	ActionGenerate Action = "generate"
)

// PlannedItem is one resolved scenario item.
type PlannedItem struct {
	Index       int
	Kind        string
	Params      map[string]any
	Fingerprint string

	Source      *hierarchy.Source
	SourcePath  string // session/trial/source label for reporting
	ManifestDir string // recorded-data directory owning the source

	Action    Action
	ReuseFrom manifest.Entry // set when Action == ActionReuse
	// Stale marks a generate decision that replaced a manifest entry whose
	// artifact was missing on disk.
	Stale bool
}

// Plan is the resolver's reuse-versus-generate decision for a scenario.
// Failed holds items that could not be planned at all (bad parameters,
// ambiguous selectors, poisoned manifests).
type Plan struct {
	Reuse    []PlannedItem
	Generate []PlannedItem
	Failed   []ItemResult
}

// Items returns the plannable items in scenario order.
func (p *Plan) Items() []PlannedItem {
	items := make([]PlannedItem, 0, len(p.Reuse)+len(p.Generate))
	items = append(items, p.Reuse...)
	items = append(items, p.Generate...)
	// Restore scenario order.
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j-1].Index > items[j].Index; j-- {
			items[j-1], items[j] = items[j], items[j-1]
		}
	}
	return items
}
