package bulk

import (
	"sort"
	"strings"
)

// GroupFailuresByCategory buckets failures by the message text before the
// first colon, so "not eligible: requires Receive" and "not eligible:
// requires Fit-Up" land together. Messages without a colon form their own
// bucket. Groups come back sorted by size, largest first.
func GroupFailuresByCategory(failures []Failure) []FailureGroup {
	byCategory := make(map[string][]Failure)
	for _, f := range failures {
		category := f.Message
		if i := strings.Index(f.Message, ":"); i >= 0 {
			category = strings.TrimSpace(f.Message[:i])
		}
		byCategory[category] = append(byCategory[category], f)
	}

	groups := make([]FailureGroup, 0, len(byCategory))
	for category, fs := range byCategory {
		groups = append(groups, FailureGroup{Category: category, Failures: fs})
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].Failures) != len(groups[j].Failures) {
			return len(groups[i].Failures) > len(groups[j].Failures)
		}
		return groups[i].Category < groups[j].Category
	})
	return groups
}
