package browser

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-rod/rod"
)

// probeTimeout bounds each individual probe evaluation. Probes are
// best-effort: a hung page yields "" rather than blocking extraction.
const probeTimeout = 3 * time.Second

// Probe reads session-bearing surfaces (address, cookies, inline scripts,
// meta tags, globals, form fields) from a live tab. Every accessor is
// best-effort and returns the zero value on any failure.
type Probe struct {
	page *rod.Page
}

func NewProbe(page *rod.Page) *Probe {
	return &Probe{page: page}
}

func (p *Probe) evalString(js string) string {
	res, err := p.page.Timeout(probeTimeout).Evaluate(&rod.EvalOptions{
		JS:           js,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil || res == nil || res.Value.Nil() {
		return ""
	}
	return res.Value.Str()
}

// Hostname is the host part of the tab's address. Read from tracked page
// info rather than the page context so it works even mid-navigation.
func (p *Probe) Hostname() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	u, err := url.Parse(info.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// QueryParam returns the named query parameter of the tab's address, or "".
func (p *Probe) QueryParam(name string) string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	u, err := url.Parse(info.URL)
	if err != nil {
		return ""
	}
	return u.Query().Get(name)
}

// InlineScripts returns the text bodies of the page's inline scripts.
func (p *Probe) InlineScripts() []string {
	res, err := p.page.Timeout(probeTimeout).Evaluate(&rod.EvalOptions{
		JS: `() => Array.from(document.getElementsByTagName('script'))
			.map((s) => s.textContent || '')
			.filter((t) => t.length > 0)`,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil || res == nil || res.Value.Nil() {
		return nil
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil
	}
	var scripts []string
	if err := json.Unmarshal(raw, &scripts); err != nil {
		return nil
	}
	return scripts
}

// Cookie returns the named cookie value visible to the page, or "".
func (p *Probe) Cookie(name string) string {
	return p.evalString(fmt.Sprintf(`() => {
		for (const pair of document.cookie.split(';')) {
			const idx = pair.indexOf('=');
			if (idx < 0) continue;
			if (pair.slice(0, idx).trim() === %q) {
				return pair.slice(idx + 1).trim();
			}
		}
		return '';
	}`, name))
}

// MetaContent returns the content of the named meta tag, or "".
func (p *Probe) MetaContent(name string) string {
	return p.evalString(fmt.Sprintf(`() => {
		const el = document.querySelector('meta[name=' + JSON.stringify(%q) + ']');
		return (el && el.content) || '';
	}`, name))
}

// SessionGlobal returns the session id exposed on the page's global
// application object, or "".
func (p *Probe) SessionGlobal() string {
	return p.evalString(`() => {
		try {
			return (window.nlExternal && window.nlExternal.session) || '';
		} catch (e) {
			return '';
		}
	}`)
}

// AuthFormValue returns the first non-empty value among form inputs whose
// name hints at a session or auth token, or "".
func (p *Probe) AuthFormValue() string {
	return p.evalString(`() => {
		const inputs = document.querySelectorAll(
			'input[name*="session"], input[name*="auth"], input[name*="token"]');
		for (const el of inputs) {
			if (el.value) return el.value;
		}
		return '';
	}`)
}
