package scenario

import (
	"fmt"
	"path"

	"satkit/internal/hierarchy"
)

type matchedSource struct {
	source *hierarchy.Source
	// label is session/trial/source, used in reports and errors.
	label string
}

// matchSources walks the dataset and collects every source the selector
// matches, in session and recording order so ambiguity errors list candidates
// deterministically.
func matchSources(dataset *hierarchy.Dataset, sel Selector) ([]matchedSource, error) {
	var matches []matchedSource
	for _, session := range dataset.Sessions() {
		ok, err := patternMatches(sel.Session, session.Name())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		for _, trial := range session.Trials() {
			ok, err := patternMatches(sel.Trial, trial.Name())
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			for _, source := range trial.Sources() {
				ok, err := patternMatches(sel.Source, source.ID())
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
				matches = append(matches, matchedSource{
					source: source,
					label:  session.Name() + "/" + trial.Name() + "/" + source.ID(),
				})
			}
		}
	}
	return matches, nil
}

// selectSource resolves a selector to exactly one source.
func selectSource(dataset *hierarchy.Dataset, sel Selector) (matchedSource, error) {
	matches, err := matchSources(dataset, sel)
	if err != nil {
		return matchedSource{}, err
	}
	switch len(matches) {
	case 0:
		return matchedSource{}, &NoSourceError{Selector: sel}
	case 1:
		return matches[0], nil
	default:
		labels := make([]string, len(matches))
		for i, match := range matches {
			labels[i] = match.label
		}
		return matchedSource{}, &AmbiguousSourceError{Selector: sel, Matches: labels}
	}
}

func patternMatches(pattern, name string) (bool, error) {
	if pattern == "" {
		return true, nil
	}
	ok, err := path.Match(pattern, name)
	if err != nil {
		return false, fmt.Errorf("selector pattern %q: %w", pattern, err)
	}
	return ok, nil
}
