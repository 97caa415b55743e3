package search

import (
	"strings"
	"unicode/utf8"

	"spotlight-mcp-server/internal/record"
)

// MinQueryLength is the shortest trimmed query worth dispatching. Shorter
// input plans to nothing; callers short-circuit before the executor.
const MinQueryLength = 2

// QueryIntent is a planned, not-yet-executed per-record-type query.
type QueryIntent struct {
	Type  record.Type
	Query string
	Def   record.Definition
}

// Plan builds one intent per participating record type, in enumeration
// order regardless of the order filters were clicked. Pure function of its
// inputs and the static record table.
func Plan(query string, filters *record.FilterSet) []QueryIntent {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < MinQueryLength {
		return nil
	}
	types := filters.Active()
	intents := make([]QueryIntent, 0, len(types))
	for _, t := range types {
		intents = append(intents, QueryIntent{Type: t, Query: q, Def: t.Definition()})
	}
	return intents
}
