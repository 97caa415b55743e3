package mcp

import (
	"context"
	"errors"

	"spotlight-mcp-server/internal/browser"
	"spotlight-mcp-server/internal/config"
	"spotlight-mcp-server/internal/session"
)

// GetSessionContextTool reads the currently persisted session context.
type GetSessionContextTool struct {
	store *session.Store
}

func (t *GetSessionContextTool) Name() string { return "get-session-context" }
func (t *GetSessionContextTool) Description() string {
	return `Read the session context currently derived from the host tab.

The context carries the account id, REST base URL, auth token, and an
authenticated flag. An empty account id means extraction has not found a
logged-in page yet; searches then serve the offline demo dataset.

WHEN TO USE:
- To check whether real searches are possible before perform-search
- To debug why results look like sample data

Returns: {session: {account_id, base_url, auth_token, session_id, authenticated}}`
}
func (t *GetSessionContextTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}
func (t *GetSessionContextTool) Execute(_ context.Context, _ map[string]interface{}) (interface{}, error) {
	return map[string]interface{}{"session": t.store.Current()}, nil
}

// RefreshSessionTool re-derives the session context from the host tab.
type RefreshSessionTool struct {
	pages *browser.PageManager
	store *session.Store
	cfg   config.Config
}

func (t *RefreshSessionTool) Name() string { return "refresh-session" }
func (t *RefreshSessionTool) Description() string {
	return `Re-derive session context from the live host tab and persist it.

Runs the full extraction ladder (hostname, query params, inline scripts,
cookies, meta tags, globals, form fields) with delayed retries for pages
that populate session state after load. Extraction never fails: whatever
was found is persisted, even a fully anonymous context.

WHEN TO USE:
- After find-host-tab binds to the logged-in tab
- After the user logs in, logs out, or switches roles
- When searches unexpectedly serve the offline dataset

PREREQUISITE: a host tab (find-host-tab or attach-tab).

Returns: {session: {account_id, base_url, auth_token, session_id, authenticated}}`
}
func (t *RefreshSessionTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}
func (t *RefreshSessionTool) Execute(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
	probe := t.pages.HostProbe()
	if probe == nil {
		return nil, errors.New("no host tab bound; run find-host-tab first")
	}

	ext := session.NewExtractor(probe, t.store, t.cfg.Browser.GetHostPatterns(),
		t.cfg.Session.ShortDelay(), t.cfg.Session.LongDelay())
	sc := ext.ExtractWithRetry(ctx)
	return map[string]interface{}{"session": sc}, nil
}
