package mcp

import (
	"context"
	"fmt"

	"spotlight-mcp-server/internal/record"
	"spotlight-mcp-server/internal/spotlight"
)

// PingTool answers the liveness probe for the overlay machinery.
type PingTool struct {
	controller *spotlight.Controller
}

func (t *PingTool) Name() string { return "ping" }
func (t *PingTool) Description() string {
	return `Check that the spotlight overlay machinery is loaded and responsive.

Returns: {loaded: true, state} where state is the overlay's current
lifecycle state ("closed", "open-results", ...).`
}
func (t *PingTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}
func (t *PingTool) Execute(_ context.Context, _ map[string]interface{}) (interface{}, error) {
	return map[string]interface{}{
		"loaded": true,
		"state":  t.controller.StateNow().String(),
	}, nil
}

// ToggleOverlayTool opens the overlay when closed and closes it otherwise.
type ToggleOverlayTool struct {
	controller *spotlight.Controller
}

func (t *ToggleOverlayTool) Name() string { return "toggle-overlay" }
func (t *ToggleOverlayTool) Description() string {
	return `Toggle the spotlight overlay, as the keyboard shortcut does.

Opening starts a fresh session: empty query, all filters active, no
selection. Closing discards the in-flight search and all session state.

Returns: {overlay} - the post-toggle snapshot.`
}
func (t *ToggleOverlayTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}
func (t *ToggleOverlayTool) Execute(_ context.Context, _ map[string]interface{}) (interface{}, error) {
	t.controller.Toggle()
	return map[string]interface{}{"overlay": t.controller.Snapshot()}, nil
}

// GetOverlayTool reads the overlay's current snapshot.
type GetOverlayTool struct {
	controller *spotlight.Controller
}

func (t *GetOverlayTool) Name() string { return "get-overlay" }
func (t *GetOverlayTool) Description() string {
	return `Read the overlay's full state without changing it.

USE AFTER set-query or toggle-filter: those debounce, so results land
shortly after the call returns. Poll this until state leaves
"open-loading".

Returns: {overlay: {state, query, filters, results, selected_index, error}}`
}
func (t *GetOverlayTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}
func (t *GetOverlayTool) Execute(_ context.Context, _ map[string]interface{}) (interface{}, error) {
	return map[string]interface{}{"overlay": t.controller.Snapshot()}, nil
}

// PerformSearchTool runs a one-shot search, bypassing the debounce.
type PerformSearchTool struct {
	controller *spotlight.Controller
}

func (t *PerformSearchTool) Name() string { return "perform-search" }
func (t *PerformSearchTool) Description() string {
	return `Search records immediately with an explicit query and filter set.

Opens the overlay if needed, replaces its query and filters, and runs the
search synchronously - no debounce. This is the direct command entry
point; set-query is the keystroke-shaped one.

FILTERS: list of record type tokens ("customer", "salesorder", "invoice",
"item", "employee", "vendor", "contact") or ["all"]. Omitted means all.

Results are ranked: records whose title contains the query (case
insensitive) come before those matched only on other fields; database
order is preserved within each group.

Returns: {overlay} - snapshot after the search completed.`
}
func (t *PerformSearchTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Search text; fewer than 2 characters yields the empty state",
			},
			"filters": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Record type tokens to search, or [\"all\"]",
			},
		},
		"required": []string{"query"},
	}
}
func (t *PerformSearchTool) Execute(_ context.Context, args map[string]interface{}) (interface{}, error) {
	query := getStringArg(args, "query")
	filters := getStringSliceArg(args, "filters")

	t.controller.PerformSearch(query, filters)
	return map[string]interface{}{"overlay": t.controller.Snapshot()}, nil
}

// SetQueryTool replaces the overlay query, debounced like typing.
type SetQueryTool struct {
	controller *spotlight.Controller
}

func (t *SetQueryTool) Name() string { return "set-query" }
func (t *SetQueryTool) Description() string {
	return `Replace the overlay's query text, as typing into the input does.

The search fires after the debounce quiet period; rapid successive calls
coalesce into one search. A query under 2 characters clears results. No-op
while the overlay is closed.

Use get-overlay to read the results once they land, or perform-search for
a synchronous round trip.

Returns: {overlay} - immediate snapshot (search may still be pending).`
}
func (t *SetQueryTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "New query text; empty clears the input",
			},
		},
		"required": []string{"query"},
	}
}
func (t *SetQueryTool) Execute(_ context.Context, args map[string]interface{}) (interface{}, error) {
	t.controller.SetQuery(getStringArg(args, "query"))
	return map[string]interface{}{"overlay": t.controller.Snapshot()}, nil
}

// ToggleFilterTool flips one record type filter, or re-selects all.
type ToggleFilterTool struct {
	controller *spotlight.Controller
}

func (t *ToggleFilterTool) Name() string { return "toggle-filter" }
func (t *ToggleFilterTool) Description() string {
	return `Toggle a record type filter chip on the overlay.

PASS "all" to re-select every type. Toggling a concrete type while "all"
is active narrows to just that type; removing the last concrete type
reverts to "all". The current search re-fires (debounced) after the
change. No-op while the overlay is closed.

Returns: {overlay} - immediate snapshot (search may still be pending).`
}
func (t *ToggleFilterTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":        "string",
				"description": "Record type token to toggle, or \"all\"",
			},
		},
		"required": []string{"type"},
	}
}
func (t *ToggleFilterTool) Execute(_ context.Context, args map[string]interface{}) (interface{}, error) {
	token := getStringArg(args, "type")
	if token == record.FilterAll {
		t.controller.SelectAllFilters()
		return map[string]interface{}{"overlay": t.controller.Snapshot()}, nil
	}

	rt, ok := record.ParseType(token)
	if !ok {
		return nil, fmt.Errorf("unknown record type: %q", token)
	}
	t.controller.ToggleFilter(rt)
	return map[string]interface{}{"overlay": t.controller.Snapshot()}, nil
}

// PressKeyTool feeds a keyboard event into the overlay's selection machine.
type PressKeyTool struct {
	controller *spotlight.Controller
}

func (t *PressKeyTool) Name() string { return "press-key" }
func (t *PressKeyTool) Description() string {
	return `Send a keyboard event to the open overlay.

KEYS:
- "ArrowDown"/"ArrowUp": move the selection; clamps at the list edges,
  ArrowUp from the first result returns to no selection (-1)
- "Enter": open the selected record in a new tab and close the overlay;
  no-op when nothing is selected
- "Escape": close the overlay

Arrow keys only act while results are showing.

Returns: {overlay} - snapshot after the key was handled.`
}
func (t *PressKeyTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"key": map[string]interface{}{
				"type":        "string",
				"description": "One of ArrowDown, ArrowUp, Enter, Escape",
			},
		},
		"required": []string{"key"},
	}
}
func (t *PressKeyTool) Execute(_ context.Context, args map[string]interface{}) (interface{}, error) {
	key := getStringArg(args, "key")
	if key == "" {
		return nil, fmt.Errorf("key is required")
	}
	t.controller.Key(key)
	return map[string]interface{}{"overlay": t.controller.Snapshot()}, nil
}

// SelectResultTool moves the selection directly to an index, as hovering does.
type SelectResultTool struct {
	controller *spotlight.Controller
}

func (t *SelectResultTool) Name() string { return "select-result" }
func (t *SelectResultTool) Description() string {
	return `Select a result row by index, as mouse hover does.

Valid only while results are showing; the index must be within the result
list. Follow with open-selected (or press-key Enter) to open it.

Returns: {overlay}`
}
func (t *SelectResultTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"index": map[string]interface{}{
				"type":        "integer",
				"description": "Zero-based result index",
			},
		},
		"required": []string{"index"},
	}
}
func (t *SelectResultTool) Execute(_ context.Context, args map[string]interface{}) (interface{}, error) {
	index := getIntArg(args, "index", -1)
	if !t.controller.SelectIndex(index) {
		return nil, fmt.Errorf("index %d is not selectable in state %s", index, t.controller.StateNow())
	}
	return map[string]interface{}{"overlay": t.controller.Snapshot()}, nil
}

// OpenSelectedTool opens the selected result, as clicking a row does.
type OpenSelectedTool struct {
	controller *spotlight.Controller
}

func (t *OpenSelectedTool) Name() string { return "open-selected" }
func (t *OpenSelectedTool) Description() string {
	return `Open the currently selected result in a new tab and close the overlay.

Equivalent to clicking the highlighted row. Fails when nothing is
selected or no results are showing.

Returns: {overlay} - snapshot after closing (state "closed").`
}
func (t *OpenSelectedTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}
func (t *OpenSelectedTool) Execute(_ context.Context, _ map[string]interface{}) (interface{}, error) {
	if !t.controller.OpenSelected() {
		return nil, fmt.Errorf("no result selected")
	}
	return map[string]interface{}{"overlay": t.controller.Snapshot()}, nil
}
