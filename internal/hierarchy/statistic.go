package hierarchy

import "sort"

// Statistic is a time-invariant derived value attached to a Dataset, Session,
// Trial, or Source. A scalar statistic has a single value.
type Statistic struct {
	name   string
	values []float64
}

// NewStatistic builds a statistic; values are copied.
func NewStatistic(name string, values ...float64) *Statistic {
	copied := make([]float64, len(values))
	copy(copied, values)
	return &Statistic{name: name, values: copied}
}

// Name returns the statistic's key within its owner's statistics mapping.
func (s *Statistic) Name() string { return s.name }

// Values returns a copy of the statistic's values.
func (s *Statistic) Values() []float64 {
	copied := make([]float64, len(s.values))
	copy(copied, s.values)
	return copied
}

// Scalar returns the single value of a scalar statistic. It returns false
// when the statistic holds zero or multiple values.
func (s *Statistic) Scalar() (float64, bool) {
	if len(s.values) != 1 {
		return 0, false
	}
	return s.values[0], true
}

// statisticSet is the statistics mapping shared by the four owner levels.
// Set replaces by design: a statistic is a derived value and recomputing it
// legitimately overwrites the previous result.
type statisticSet struct {
	byName map[string]*Statistic
}

func (set *statisticSet) set(stat *Statistic) {
	if set.byName == nil {
		set.byName = make(map[string]*Statistic)
	}
	set.byName[stat.name] = stat
}

func (set *statisticSet) get(name string) (*Statistic, bool) {
	stat, ok := set.byName[name]
	return stat, ok
}

func (set *statisticSet) names() []string {
	names := make([]string, 0, len(set.byName))
	for name := range set.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
