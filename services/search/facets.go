package search

import (
	"sort"

	"github.com/meghashyamc/facetsearch/db/searchdb"
)

// FacetEntry carries the count under the active constraints and the count across
// all of the owner's projects.
type FacetEntry struct {
	Label        string `json:"label"`
	Count        int    `json:"count"`
	OverallCount int    `json:"overall_count"`
}

// FacetTable is ordered by overall count descending, then label ascending.
type FacetTable []FacetEntry

func (t FacetTable) Get(label string) (FacetEntry, bool) {
	for _, entry := range t {
		if entry.Label == label {
			return entry, true
		}
	}
	return FacetEntry{}, false
}

func (t FacetTable) Labels() []string {
	labels := make([]string, 0, len(t))
	for _, entry := range t {
		labels = append(labels, entry.Label)
	}
	return labels
}

type Facets struct {
	Technologies FacetTable `json:"technologies"`
	Industries   FacetTable `json:"industries"`
}

// mergeFacetTable builds one row per label in the overall buckets, taking the
// count from the filtered buckets when the label is present there.
func mergeFacetTable(filtered []searchdb.FacetBucket, overall []searchdb.FacetBucket) FacetTable {
	filteredCounts := make(map[string]int, len(filtered))
	for _, bucket := range filtered {
		filteredCounts[bucket.Label] = bucket.Count
	}

	table := make(FacetTable, 0, len(overall))
	for _, bucket := range overall {
		table = append(table, FacetEntry{
			Label:        bucket.Label,
			Count:        filteredCounts[bucket.Label],
			OverallCount: bucket.Count,
		})
	}

	sort.Slice(table, func(i, j int) bool {
		if table[i].OverallCount != table[j].OverallCount {
			return table[i].OverallCount > table[j].OverallCount
		}
		return table[i].Label < table[j].Label
	})

	return table
}
