package mcp

import (
	"context"
	"fmt"

	"spotlight-mcp-server/internal/browser"
)

// LaunchBrowserTool starts Chrome using the configured launch command.
type LaunchBrowserTool struct {
	pages *browser.PageManager
}

func (t *LaunchBrowserTool) Name() string { return "launch-browser" }
func (t *LaunchBrowserTool) Description() string {
	return `Start or connect to the Chrome instance searches run against.

CALL THIS FIRST unless the server was configured to auto-start.

WHAT IT DOES:
- Launches Chrome with DevTools Protocol enabled (or connects to debugger_url)
- Returns the control URL for debugging

WHEN TO USE:
- At the start of a session when auto_start is off
- After shutdown-browser to reconnect
- Idempotent: safe to call if already connected

TYPICAL WORKFLOW:
1. launch-browser   -> Connect to Chrome
2. find-host-tab    -> Locate the logged-in application tab
3. refresh-session  -> Derive session context from it
4. perform-search   -> Search records

Returns: {status: "started"|"already_connected", control_url}`
}
func (t *LaunchBrowserTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}
func (t *LaunchBrowserTool) Execute(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
	if t.pages.IsConnected() {
		return map[string]interface{}{
			"status":      "already_connected",
			"control_url": t.pages.ControlURL(),
		}, nil
	}

	if err := t.pages.Start(ctx); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"status":      "started",
		"control_url": t.pages.ControlURL(),
	}, nil
}

// ShutdownBrowserTool disconnects from Chrome and releases tracked tabs.
type ShutdownBrowserTool struct {
	pages *browser.PageManager
}

func (t *ShutdownBrowserTool) Name() string { return "shutdown-browser" }
func (t *ShutdownBrowserTool) Description() string {
	return `Disconnect from Chrome and forget all tracked tabs.

WHEN TO USE:
- End of a session to release resources
- Before reconnecting with different settings

WHAT IT DOES:
- Closes tabs this server opened; tabs it merely attached to are left alone
- Drops the host tab binding (searches fall back to the offline dataset)

NOTE: The persisted session context survives shutdown.`
}
func (t *ShutdownBrowserTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}
func (t *ShutdownBrowserTool) Execute(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
	if err := t.pages.Shutdown(ctx); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"status": "stopped",
	}, nil
}

// ListPagesTool reports the tabs the server currently tracks.
type ListPagesTool struct {
	pages *browser.PageManager
}

func (t *ListPagesTool) Name() string { return "list-pages" }
func (t *ListPagesTool) Description() string {
	return `List all browser tabs tracked by the server.

WHEN TO USE:
- To confirm the host tab was found (status "host")
- To get target IDs before attach-tab
- To see which record tabs were opened from search results

Returns: Array of {id, target_id, url, title, status} per tracked tab.`
}
func (t *ListPagesTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}
func (t *ListPagesTool) Execute(_ context.Context, _ map[string]interface{}) (interface{}, error) {
	return map[string]interface{}{"pages": t.pages.List()}, nil
}

// AttachTabTool binds to an existing Chrome tab by its CDP TargetID.
type AttachTabTool struct {
	pages *browser.PageManager
}

func (t *AttachTabTool) Name() string { return "attach-tab" }
func (t *AttachTabTool) Description() string {
	return `Attach to an existing Chrome tab/window by its CDP TargetID.

USE INSTEAD OF find-host-tab when:
- The tab you want does not match the configured host patterns
- You already know the exact target from chrome://inspect or prior calls

Returns: {page: {id, target_id, url, title, status}}`
}
func (t *AttachTabTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"target_id": map[string]interface{}{
				"type":        "string",
				"description": "CDP TargetID to attach",
			},
		},
		"required": []string{"target_id"},
	}
}
func (t *AttachTabTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	targetID := getStringArg(args, "target_id")
	if targetID == "" {
		return nil, fmt.Errorf("target_id is required")
	}

	page, err := t.pages.Attach(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"page": page}, nil
}

// FindHostTabTool locates the logged-in host application tab.
type FindHostTabTool struct {
	pages *browser.PageManager
}

func (t *FindHostTabTool) Name() string { return "find-host-tab" }
func (t *FindHostTabTool) Description() string {
	return `Scan open Chrome tabs for the logged-in host application and bind to it.

The host tab is where session context is derived from and where in-page
searches execute. Matching uses the configured host_patterns (hostname
substrings, e.g. "netsuite.com").

WHEN TO USE:
- After launch-browser, before refresh-session
- After the user logged in or switched accounts
- Idempotent: returns the existing binding while the tab is alive

Returns: {page: {id, target_id, url, title, status: "host"}}`
}
func (t *FindHostTabTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}
func (t *FindHostTabTool) Execute(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
	page, err := t.pages.FindHostTab(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"page": page}, nil
}
