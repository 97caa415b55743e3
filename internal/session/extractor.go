package session

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
)

// baseURLTemplate derives the account's SuiteTalk host from its account id.
const baseURLTemplate = "https://%s.suitetalk.api.netsuite.com"

var (
	// 1234567.app.netsuite.com
	hostAccountPattern = regexp.MustCompile(`(\d+)\.app\.netsuite\.com`)
	// compid/account key-value pairs embedded in inline page scripts
	scriptAccountPattern = regexp.MustCompile(`(?:compid|account)["']\s*:\s*["']([^"']+)["']`)
	// session token inside the host page's require config blocks
	scriptSessionPattern = regexp.MustCompile(`session['"]\s*:\s*['"]([^"']+)['"]`)
)

// sessionCookieNames are checked in order for the session id.
var sessionCookieNames = []string{"NS_ROUTING_VERSION", "JSESSIONID"}

// authMetaNames are checked in order for an auth token.
var authMetaNames = []string{"csrf-token", "_token"}

// Extractor derives a Context from the attached host page and persists
// every derivation wholesale to the store.
type Extractor struct {
	probe      PageProbe
	store      *Store
	patterns   []string
	shortDelay time.Duration
	longDelay  time.Duration
}

// NewExtractor wires a probe to the process-wide store. hostPatterns is
// the same list the tab matcher binds on, so a tab that binds also
// extracts; the delays govern the bounded retry schedule after page load.
func NewExtractor(probe PageProbe, store *Store, hostPatterns []string, shortDelay, longDelay time.Duration) *Extractor {
	return &Extractor{probe: probe, store: store, patterns: hostPatterns, shortDelay: shortDelay, longDelay: longDelay}
}

// Extract derives the session context once and persists it. It never
// fails: a malformed or half-loaded page yields partial or empty fields.
func (e *Extractor) Extract() Context {
	c := Derive(e.probe, e.patterns)
	if e.store != nil {
		if err := e.store.Put(c); err != nil {
			log.Printf("[session] persist failed: %v", err)
		}
	}
	log.Printf("[session] extracted: account=%q token=%t session_id=%t",
		c.AccountID, c.AuthToken != "", c.SessionID != "")
	return c
}

// ExtractWithRetry runs the post-load schedule: extract immediately, then
// once after the short delay, then once after the long delay, then give up
// silently. A context with either an account id or a token stops the
// schedule early.
func (e *Extractor) ExtractWithRetry(ctx context.Context) Context {
	c := e.Extract()
	for _, delay := range []time.Duration{e.shortDelay, e.longDelay} {
		if c.AccountID != "" || c.AuthToken != "" {
			return c
		}
		select {
		case <-ctx.Done():
			return c
		case <-time.After(delay):
		}
		c = e.Extract()
	}
	return c
}

// Derive reads the probe's signals into a Context. Pure with respect to
// its inputs: an unchanged page yields an identical context. hostPatterns
// gates the query-param/script account fallback to pages on a configured
// host; empty means the stock "netsuite.com".
func Derive(p PageProbe, hostPatterns []string) Context {
	var c Context

	host := p.Hostname()
	if m := hostAccountPattern.FindStringSubmatch(host); m != nil {
		c.AccountID = m[1]
	}
	if c.AccountID == "" && hostMatches(host, hostPatterns) {
		for _, param := range []string{"compid", "account"} {
			if v := p.QueryParam(param); v != "" {
				c.AccountID = v
				break
			}
		}
		if c.AccountID == "" {
			for _, script := range p.InlineScripts() {
				if m := scriptAccountPattern.FindStringSubmatch(script); m != nil {
					c.AccountID = m[1]
					break
				}
			}
		}
	}
	if c.AccountID != "" {
		c.BaseURL = fmt.Sprintf(baseURLTemplate, c.AccountID)
	}

	// Session id and auth token resolve independently, each first-match.
	for _, name := range sessionCookieNames {
		if v := p.Cookie(name); v != "" {
			c.SessionID = v
			break
		}
	}
	c.AuthToken = deriveAuthToken(p)
	c.Authenticated = c.AuthToken != ""
	return c
}

func hostMatches(host string, patterns []string) bool {
	if host == "" {
		return false
	}
	if len(patterns) == 0 {
		patterns = []string{"netsuite.com"}
	}
	lower := strings.ToLower(host)
	for _, pattern := range patterns {
		if pattern != "" && strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// deriveAuthToken tries each token source in order and stops at the first
// non-empty value.
func deriveAuthToken(p PageProbe) string {
	for _, script := range p.InlineScripts() {
		if !strings.Contains(script, "window.require") {
			continue
		}
		if m := scriptSessionPattern.FindStringSubmatch(script); m != nil {
			return m[1]
		}
	}
	for _, name := range authMetaNames {
		if v := p.MetaContent(name); v != "" {
			return v
		}
	}
	if v := p.SessionGlobal(); v != "" {
		return v
	}
	return p.AuthFormValue()
}
