package output

import (
	"slices"

	"github.com/lexfrei/nginx-ingress-rewriter/internal/rewriter"
)

// EntriesEqual compares two routing entries field by field, including
// directive order.
func EntriesEqual(a, b rewriter.RoutingEntry) bool {
	return a.Host == b.Host &&
		a.Path == b.Path &&
		a.Upstream == b.Upstream &&
		a.Scheme == b.Scheme &&
		a.StripPrefix == b.StripPrefix &&
		slices.Equal(a.ExtraDirectives, b.ExtraDirectives)
}

// Diff computes the difference between current and desired entries.
// Returns entries to add (in desired but not in current) and entries to remove
// (in current but not in desired). Both keep the order of their source slice.
func Diff(current, desired []rewriter.RoutingEntry) (toAdd, toRemove []rewriter.RoutingEntry) {
	for _, want := range desired {
		if !containsEntry(current, want) {
			toAdd = append(toAdd, want)
		}
	}

	for _, have := range current {
		if !containsEntry(desired, have) {
			toRemove = append(toRemove, have)
		}
	}

	return toAdd, toRemove
}

func containsEntry(entries []rewriter.RoutingEntry, entry rewriter.RoutingEntry) bool {
	return slices.ContainsFunc(entries, func(candidate rewriter.RoutingEntry) bool {
		return EntriesEqual(candidate, entry)
	})
}
