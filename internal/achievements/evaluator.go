package achievements

import "github.com/example/wortbot/internal/mastery"

// Result of one evaluation pass
type Result struct {
	All []string     // previously unlocked plus newly true, catalog order first
	New []Definition // true now and not unlocked before
}

// NewIDs returns the ids of the newly unlocked achievements
func (r Result) NewIDs() []string {
	ids := make([]string, len(r.New))
	for i, d := range r.New {
		ids[i] = d.ID
	}
	return ids
}

// Evaluate rescans the whole catalog. The unlocked set only grows:
// ids in previous are kept even when their predicate is false now.
func Evaluate(s State, previous []string, c mastery.Criteria) Result {
	agg := Aggregate(s, c)

	prev := make(map[string]bool, len(previous))
	for _, id := range previous {
		prev[id] = true
	}

	var res Result
	seen := make(map[string]bool, len(Catalog)+len(previous))
	for _, d := range Catalog {
		unlocked := d.Unlocked(agg)
		if unlocked && !prev[d.ID] {
			res.New = append(res.New, d)
		}
		if unlocked || prev[d.ID] {
			res.All = append(res.All, d.ID)
			seen[d.ID] = true
		}
	}
	// ids no longer in the catalog are never dropped
	for _, id := range previous {
		if !seen[id] {
			res.All = append(res.All, id)
			seen[id] = true
		}
	}
	return res
}
