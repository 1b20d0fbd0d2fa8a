package hierarchy

import (
	"fmt"
	"sync"
)

// TierKind distinguishes interval tiers from point tiers. A tier is
// homogeneous: it holds intervals or points, never both.
type TierKind int

const (
	TierIntervals TierKind = iota
	TierPoints
)

// Interval is a labelled time span within a tier.
type Interval struct {
	Begin float64
	End   float64
	Text  string
}

// Point is a labelled instant within a tier.
type Point struct {
	Time float64
	Text string
}

// Tier is an ordered sequence of annotation primitives of one kind.
type Tier struct {
	name      string
	kind      TierKind
	intervals []Interval
	points    []Point
}

// NewIntervalTier builds an empty interval tier.
func NewIntervalTier(name string) *Tier {
	return &Tier{name: name, kind: TierIntervals}
}

// NewPointTier builds an empty point tier.
func NewPointTier(name string) *Tier {
	return &Tier{name: name, kind: TierPoints}
}

// Name returns the tier's key within the grid.
func (t *Tier) Name() string { return t.name }

// Kind reports whether the tier holds intervals or points.
func (t *Tier) Kind() TierKind { return t.kind }

// AppendInterval appends to an interval tier, preserving insertion order.
func (t *Tier) AppendInterval(interval Interval) error {
	if t.kind != TierIntervals {
		return fmt.Errorf("tier %q holds points, not intervals", t.name)
	}
	if interval.End < interval.Begin {
		return fmt.Errorf("tier %q: interval ends at %g before it begins at %g", t.name, interval.End, interval.Begin)
	}
	t.intervals = append(t.intervals, interval)
	return nil
}

// AppendPoint appends to a point tier, preserving insertion order.
func (t *Tier) AppendPoint(point Point) error {
	if t.kind != TierPoints {
		return fmt.Errorf("tier %q holds intervals, not points", t.name)
	}
	t.points = append(t.points, point)
	return nil
}

// Len returns the number of primitives in the tier.
func (t *Tier) Len() int {
	if t.kind == TierIntervals {
		return len(t.intervals)
	}
	return len(t.points)
}

// Intervals returns a copy of the interval sequence.
func (t *Tier) Intervals() []Interval {
	copied := make([]Interval, len(t.intervals))
	copy(copied, t.intervals)
	return copied
}

// Points returns a copy of the point sequence.
func (t *Tier) Points() []Point {
	copied := make([]Point, len(t.points))
	copy(copied, t.points)
	return copied
}

// SatGrid is a trial's keyed mapping of tiers. Tier insertion order is kept
// alongside the mapping because grids are displayed in the order their tiers
// were created.
type SatGrid struct {
	mu    sync.Mutex
	tiers map[string]*Tier
	order []string
}

// AddTier inserts a tier under its name, rejecting duplicates.
func (g *SatGrid) AddTier(tier *Tier) error {
	if tier == nil || tier.name == "" {
		return &DuplicateKeyError{Container: "grid tiers", Key: ""}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.tiers[tier.name]; exists {
		return &DuplicateKeyError{Container: "grid tiers", Key: tier.name}
	}
	if g.tiers == nil {
		g.tiers = make(map[string]*Tier)
	}
	g.tiers[tier.name] = tier
	g.order = append(g.order, tier.name)
	return nil
}

// Tier looks up a tier by name.
func (g *SatGrid) Tier(name string) (*Tier, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	tier, ok := g.tiers[name]
	return tier, ok
}

// TierNames returns the tier names in insertion order.
func (g *SatGrid) TierNames() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	names := make([]string, len(g.order))
	copy(names, g.order)
	return names
}
