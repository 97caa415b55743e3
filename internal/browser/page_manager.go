package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"spotlight-mcp-server/internal/config"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
)

// PageSession describes the public metadata for a tracked browser tab.
type PageSession struct {
	ID         string    `json:"id"`
	TargetID   string    `json:"target_id,omitempty"`
	URL        string    `json:"url,omitempty"`
	Title      string    `json:"title,omitempty"`
	Status     string    `json:"status,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

type pageRecord struct {
	meta PageSession
	page *rod.Page
}

// PageManager owns the Chrome connection and tracks the tabs we care
// about. One tracked tab can be marked as the "host" tab: the tab showing
// the logged-in host application that session context is derived from and
// in-page searches run against.
type PageManager struct {
	cfg        config.BrowserConfig
	mu         sync.RWMutex
	browser    *rod.Browser
	pages      map[string]*pageRecord
	hostID     string
	hostGen    uint64 // bumped on every host binding change
	controlURL string // WebSocket URL for DevTools
}

func NewPageManager(cfg config.BrowserConfig) *PageManager {
	return &PageManager{
		cfg:   cfg,
		pages: make(map[string]*pageRecord),
	}
}

// Start connects to an existing Chrome or launches a new one using Rod's launcher.
func (m *PageManager) Start(ctx context.Context) error {
	// If we already have a browser, verify it's still alive
	if m.browser != nil {
		// Try a simple operation to test connection health
		_, err := m.browser.Version()
		if err == nil {
			return nil // Browser is healthy, reuse it
		}
		// Browser is dead, clean up and reconnect
		log.Printf("Stale browser connection detected, reconnecting...")
		_ = m.browser.Close()
		m.browser = nil
		m.controlURL = ""
		// Clear tracked pages since they're orphaned
		m.mu.Lock()
		m.pages = make(map[string]*pageRecord)
		m.hostID = ""
		m.mu.Unlock()
	}

	if err := m.loadPages(); err != nil {
		return fmt.Errorf("load pages: %w", err)
	}

	controlURL := m.cfg.DebuggerURL
	if controlURL == "" && len(m.cfg.Launch) > 0 {
		bin := m.cfg.Launch[0]
		launch := launcher.New().Bin(bin).Headless(m.cfg.IsHeadless())
		if len(m.cfg.Launch) > 1 {
			for _, rawFlag := range m.cfg.Launch[1:] {
				flagStr := strings.TrimLeft(rawFlag, "-")
				name, val, hasVal := strings.Cut(flagStr, "=")
				if hasVal {
					launch = launch.Set(flags.Flag(name), val)
				} else {
					launch = launch.Set(flags.Flag(name))
				}
			}
		}
		url, err := launch.Launch()
		if err != nil {
			// Fallback: let Rod pick the port and defaults.
			fallback := launcher.New().Bin(bin).Headless(m.cfg.IsHeadless())
			if alt, altErr := fallback.Launch(); altErr == nil {
				controlURL = alt
			} else {
				return fmt.Errorf("launch chrome: %w (fallback: %v)", err, altErr)
			}
		} else {
			controlURL = url
		}
	}

	if controlURL == "" {
		return errors.New("no debugger_url or launch command provided")
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}

	m.browser = browser
	m.controlURL = controlURL
	log.Printf("Browser connected at %s", controlURL)
	return nil
}

// ControlURL returns the WebSocket debugger URL for the connected browser.
func (m *PageManager) ControlURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.controlURL
}

// IsConnected returns whether the browser is currently connected.
func (m *PageManager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.browser != nil
}

// Shutdown detaches tracked tabs and disconnects from the browser. Tabs we
// attached to belong to the user; only tabs we opened ourselves are closed.
func (m *PageManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, record := range m.pages {
		if record.page != nil && record.meta.Status == "opened" {
			_ = record.page.Close()
		}
		delete(m.pages, id)
	}
	if m.hostID != "" {
		m.hostID = ""
		m.hostGen++
	}

	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	m.controlURL = ""
	log.Printf("Browser shutdown complete")
	return err
}

// List returns lightweight metadata for all tracked tabs.
func (m *PageManager) List() []PageSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]PageSession, 0, len(m.pages))
	for _, record := range m.pages {
		results = append(results, record.meta)
	}
	return results
}

// Attach binds to an existing target by TargetID and tracks it.
func (m *PageManager) Attach(ctx context.Context, targetID string) (*PageSession, error) {
	if m.browser == nil {
		return nil, errors.New("browser not connected")
	}

	page, err := m.browser.PageFromTarget(proto.TargetTargetID(targetID))
	if err != nil {
		return nil, fmt.Errorf("attach to target %s: %w", targetID, err)
	}

	meta := PageSession{
		ID:         uuid.NewString(),
		TargetID:   targetID,
		Status:     "attached",
		CreatedAt:  time.Now(),
		LastActive: time.Now(),
	}
	if info, infoErr := page.Info(); infoErr == nil {
		meta.URL = info.URL
		meta.Title = info.Title
	}

	m.mu.Lock()
	m.pages[meta.ID] = &pageRecord{meta: meta, page: page}
	m.mu.Unlock()

	_ = m.persistPages()
	return &meta, nil
}

// FindHostTab scans the browser's open tabs for one whose hostname matches
// a configured host pattern, attaches to it and marks it as the host tab.
// If a live host tab is already tracked it is returned as-is.
func (m *PageManager) FindHostTab(ctx context.Context) (*PageSession, error) {
	if m.browser == nil {
		return nil, errors.New("browser not connected")
	}

	if rec, ok := m.hostRecord(); ok {
		if _, err := rec.page.Info(); err == nil {
			meta := rec.meta
			return &meta, nil
		}
		// Host tab was closed; drop it and rescan.
		m.mu.Lock()
		delete(m.pages, m.hostID)
		m.hostID = ""
		m.hostGen++
		m.mu.Unlock()
	}

	pages, err := m.browser.Pages()
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}

	for _, page := range pages {
		info, infoErr := page.Context(ctx).Info()
		if infoErr != nil {
			continue
		}
		if !m.matchesHost(info.URL) {
			continue
		}

		meta := PageSession{
			ID:         uuid.NewString(),
			TargetID:   string(info.TargetID),
			URL:        info.URL,
			Title:      info.Title,
			Status:     "host",
			CreatedAt:  time.Now(),
			LastActive: time.Now(),
		}

		m.mu.Lock()
		m.pages[meta.ID] = &pageRecord{meta: meta, page: page}
		m.hostID = meta.ID
		m.hostGen++
		m.mu.Unlock()

		_ = m.persistPages()
		log.Printf("[browser] host tab found: %s", info.URL)
		return &meta, nil
	}

	return nil, fmt.Errorf("no open tab matches host patterns %v", m.cfg.GetHostPatterns())
}

func (m *PageManager) matchesHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, pattern := range m.cfg.GetHostPatterns() {
		if strings.Contains(host, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// OpenURL opens a record page in a new tab. Relative paths are resolved
// against the host tab's origin, matching how result URLs are emitted.
func (m *PageManager) OpenURL(ctx context.Context, rawURL string) error {
	if m.browser == nil {
		return errors.New("browser not connected")
	}

	target, err := m.resolveURL(rawURL)
	if err != nil {
		return err
	}

	page, err := m.browser.Page(proto.TargetCreateTarget{URL: target})
	if err != nil {
		return fmt.Errorf("open %s: %w", target, err)
	}

	meta := PageSession{
		ID:         uuid.NewString(),
		TargetID:   string(page.TargetID),
		URL:        target,
		Status:     "opened",
		CreatedAt:  time.Now(),
		LastActive: time.Now(),
	}

	m.mu.Lock()
	m.pages[meta.ID] = &pageRecord{meta: meta, page: page}
	m.mu.Unlock()

	_ = m.persistPages()
	log.Printf("[browser] opened %s", target)
	return nil
}

func (m *PageManager) resolveURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}

	host, ok := m.HostSession()
	if !ok {
		return "", errors.New("no host tab to resolve relative url against")
	}
	base, err := url.Parse(host.URL)
	if err != nil || base.Scheme == "" {
		return "", fmt.Errorf("host tab url %q is not absolute", host.URL)
	}
	return base.ResolveReference(u).String(), nil
}

// Page returns the underlying Rod page for a tracked tab when present.
func (m *PageManager) Page(id string) (*rod.Page, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.pages[id]
	if !ok || rec.page == nil {
		return nil, false
	}
	return rec.page, true
}

func (m *PageManager) hostRecord() (*pageRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.hostID == "" {
		return nil, false
	}
	rec, ok := m.pages[m.hostID]
	if !ok || rec.page == nil {
		return nil, false
	}
	return rec, true
}

// HostPage returns the Rod page for the host tab when one is tracked.
func (m *PageManager) HostPage() (*rod.Page, bool) {
	rec, ok := m.hostRecord()
	if !ok {
		return nil, false
	}
	return rec.page, true
}

// HostSession returns the host tab's metadata when one is tracked.
func (m *PageManager) HostSession() (PageSession, bool) {
	rec, ok := m.hostRecord()
	if !ok {
		return PageSession{}, false
	}
	return rec.meta, true
}

// HostProbe returns a PageProbe over the host tab, or nil when none is tracked.
func (m *PageManager) HostProbe() *Probe {
	page, ok := m.HostPage()
	if !ok {
		return nil
	}
	return NewProbe(page)
}

// HostEvaluator returns a JS evaluator over the host tab, or nil when none
// is tracked. The nil return doubles as the "no in-page backend" signal.
func (m *PageManager) HostEvaluator() *Evaluator {
	page, ok := m.HostPage()
	if !ok {
		return nil
	}
	return NewEvaluator(page)
}

// HostGeneration counts host binding changes: binding a host tab, dropping
// a dead one, and shutdown each advance it. Consumers that cache anything
// derived from the host tab invalidate when the generation moves.
func (m *PageManager) HostGeneration() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hostGen
}

// UpdateMetadata allows callers to refresh metadata (e.g., URL/title after navigation).
func (m *PageManager) UpdateMetadata(id string, updater func(PageSession) PageSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.pages[id]
	if !ok {
		return
	}
	rec.meta = updater(rec.meta)
}

// GetPage returns the metadata for a tracked tab when available.
func (m *PageManager) GetPage(id string) (PageSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.pages[id]
	if !ok {
		return PageSession{}, false
	}
	return rec.meta, true
}

// persistPages writes tab metadata to disk for continuity across restarts.
func (m *PageManager) persistPages() error {
	if m.cfg.PageStore == "" {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	pages := make([]PageSession, 0, len(m.pages))
	for _, rec := range m.pages {
		pages = append(pages, rec.meta)
	}

	data, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(m.cfg.PageStore), 0o755); err != nil {
		return err
	}
	return os.WriteFile(m.cfg.PageStore, data, 0o644)
}

// loadPages loads persisted metadata (does not auto-attach to targets).
func (m *PageManager) loadPages() error {
	if m.cfg.PageStore == "" {
		return nil
	}

	data, err := os.ReadFile(m.cfg.PageStore)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var pages []PageSession
	if err := json.Unmarshal(data, &pages); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range pages {
		// Mark as detached; find-host-tab or attach-tab re-binds to a live target.
		p.Status = "detached"
		m.pages[p.ID] = &pageRecord{meta: p, page: nil}
	}
	return nil
}
