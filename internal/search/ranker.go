package search

import (
	"sort"
	"strings"

	"spotlight-mcp-server/internal/record"
)

// Rank formats the merged raw rows and orders them so that results whose
// title contains the query (case-insensitive) precede those that do not.
// This is a stable partition on one boolean key, not a relevance score:
// ties keep the per-type iteration order the executor produced.
func Rank(raws []record.Raw, query string) []record.SearchResult {
	results := make([]record.SearchResult, 0, len(raws))
	for _, raw := range raws {
		results = append(results, record.Format(raw))
	}

	q := strings.ToLower(strings.TrimSpace(query))
	sort.SliceStable(results, func(i, j int) bool {
		return titleMatches(results[i].Title, q) && !titleMatches(results[j].Title, q)
	})
	return results
}

func titleMatches(title, lowerQuery string) bool {
	if lowerQuery == "" {
		return false
	}
	return strings.Contains(strings.ToLower(title), lowerQuery)
}
