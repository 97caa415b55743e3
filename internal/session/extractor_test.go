package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// fakeProbe is a canned-signal PageProbe for extraction tests.
type fakeProbe struct {
	hostname  string
	params    map[string]string
	scripts   []string
	cookies   map[string]string
	metas     map[string]string
	global    string
	formValue string
}

func (f *fakeProbe) Hostname() string             { return f.hostname }
func (f *fakeProbe) QueryParam(name string) string { return f.params[name] }
func (f *fakeProbe) InlineScripts() []string      { return f.scripts }
func (f *fakeProbe) Cookie(name string) string    { return f.cookies[name] }
func (f *fakeProbe) MetaContent(name string) string { return f.metas[name] }
func (f *fakeProbe) SessionGlobal() string        { return f.global }
func (f *fakeProbe) AuthFormValue() string        { return f.formValue }

func TestDeriveAccountID(t *testing.T) {
	tests := []struct {
		name    string
		probe   fakeProbe
		account string
		baseURL string
	}{
		{
			name:    "hostname pattern wins",
			probe:   fakeProbe{hostname: "1234567.app.netsuite.com", params: map[string]string{"compid": "ignored"}},
			account: "1234567",
			baseURL: "https://1234567.suitetalk.api.netsuite.com",
		},
		{
			name:    "compid query param",
			probe:   fakeProbe{hostname: "system.netsuite.com", params: map[string]string{"compid": "TSTDRV123"}},
			account: "TSTDRV123",
			baseURL: "https://TSTDRV123.suitetalk.api.netsuite.com",
		},
		{
			name:    "account query param",
			probe:   fakeProbe{hostname: "system.netsuite.com", params: map[string]string{"account": "ACCT9"}},
			account: "ACCT9",
			baseURL: "https://ACCT9.suitetalk.api.netsuite.com",
		},
		{
			name: "inline script compid",
			probe: fakeProbe{
				hostname: "system.netsuite.com",
				scripts:  []string{`var cfg = {"compid": "SCRIPT77", "x": 1};`},
			},
			account: "SCRIPT77",
			baseURL: "https://SCRIPT77.suitetalk.api.netsuite.com",
		},
		{
			name:    "non-netsuite host yields nothing",
			probe:   fakeProbe{hostname: "example.com", params: map[string]string{"compid": "NOPE"}},
			account: "",
			baseURL: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Derive(&tc.probe, nil)
			if c.AccountID != tc.account {
				t.Errorf("AccountID = %q, want %q", c.AccountID, tc.account)
			}
			if c.BaseURL != tc.baseURL {
				t.Errorf("BaseURL = %q, want %q", c.BaseURL, tc.baseURL)
			}
		})
	}
}

func TestDeriveHonorsConfiguredHostPatterns(t *testing.T) {
	// The account fallback trusts the same patterns the tab matcher binds
	// on: a tab that binds must also extract.
	probe := &fakeProbe{
		hostname: "erp.internal.example",
		params:   map[string]string{"compid": "CUSTOM1"},
	}

	if c := Derive(probe, []string{"internal.example"}); c.AccountID != "CUSTOM1" {
		t.Errorf("AccountID = %q, want CUSTOM1 with a matching pattern", c.AccountID)
	}
	if c := Derive(probe, []string{"netsuite.com"}); c.AccountID != "" {
		t.Errorf("AccountID = %q, want none for a non-matching pattern", c.AccountID)
	}
	// nil falls back to the stock gate.
	stock := &fakeProbe{hostname: "system.netsuite.com", params: map[string]string{"compid": "STOCK"}}
	if c := Derive(stock, nil); c.AccountID != "STOCK" {
		t.Errorf("AccountID = %q, want STOCK under the default gate", c.AccountID)
	}
}

func TestDeriveAuthTokenPriority(t *testing.T) {
	requireScript := `window.require({"config": {"session": "tok-from-script"}});`

	tests := []struct {
		name  string
		probe fakeProbe
		want  string
	}{
		{
			name: "require script beats everything",
			probe: fakeProbe{
				scripts:   []string{requireScript},
				metas:     map[string]string{"csrf-token": "tok-meta"},
				global:    "tok-global",
				formValue: "tok-form",
			},
			want: "tok-from-script",
		},
		{
			name: "session match outside require blocks is ignored",
			probe: fakeProbe{
				scripts: []string{`var x = {"session": "not-this-one"};`},
				metas:   map[string]string{"csrf-token": "tok-meta"},
			},
			want: "tok-meta",
		},
		{
			name:  "csrf meta beats underscore token meta",
			probe: fakeProbe{metas: map[string]string{"csrf-token": "tok-csrf", "_token": "tok-underscore"}},
			want:  "tok-csrf",
		},
		{
			name:  "underscore token meta",
			probe: fakeProbe{metas: map[string]string{"_token": "tok-underscore"}},
			want:  "tok-underscore",
		},
		{
			name:  "global beats form",
			probe: fakeProbe{global: "tok-global", formValue: "tok-form"},
			want:  "tok-global",
		},
		{
			name:  "form is last resort",
			probe: fakeProbe{formValue: "tok-form"},
			want:  "tok-form",
		},
		{
			name:  "nothing found",
			probe: fakeProbe{},
			want:  "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Derive(&tc.probe, nil)
			if c.AuthToken != tc.want {
				t.Errorf("AuthToken = %q, want %q", c.AuthToken, tc.want)
			}
			if c.Authenticated != (tc.want != "") {
				t.Errorf("Authenticated = %v with token %q", c.Authenticated, c.AuthToken)
			}
		})
	}
}

func TestDeriveSessionCookieOrder(t *testing.T) {
	probe := &fakeProbe{cookies: map[string]string{
		"NS_ROUTING_VERSION": "route-1",
		"JSESSIONID":         "jsess-2",
	}}
	if c := Derive(probe, nil); c.SessionID != "route-1" {
		t.Errorf("SessionID = %q, want route-1", c.SessionID)
	}

	probe = &fakeProbe{cookies: map[string]string{"JSESSIONID": "jsess-2"}}
	if c := Derive(probe, nil); c.SessionID != "jsess-2" {
		t.Errorf("SessionID = %q, want jsess-2", c.SessionID)
	}
}

func TestDeriveIsRepeatable(t *testing.T) {
	probe := &fakeProbe{
		hostname: "555.app.netsuite.com",
		cookies:  map[string]string{"JSESSIONID": "j1"},
		metas:    map[string]string{"csrf-token": "tok"},
	}
	first := Derive(probe, nil)
	second := Derive(probe, nil)
	if first != second {
		t.Errorf("unchanged page produced different contexts: %+v vs %+v", first, second)
	}
}

func TestExtractPersistsWholesale(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "session.json"))

	rich := &fakeProbe{hostname: "777.app.netsuite.com", metas: map[string]string{"csrf-token": "tok"}}
	ext := NewExtractor(rich, store, nil, time.Millisecond, time.Millisecond)
	ext.Extract()

	got := store.Current()
	if got.AccountID != "777" || !got.Authenticated {
		t.Fatalf("stored context = %+v", got)
	}

	// A later, emptier derivation must replace the old record entirely.
	empty := NewExtractor(&fakeProbe{hostname: "example.com"}, store, nil, time.Millisecond, time.Millisecond)
	empty.Extract()

	got = store.Current()
	if got.AccountID != "" || got.Authenticated {
		t.Errorf("old fields leaked through a wholesale replace: %+v", got)
	}
}

func TestExtractWithRetryStopsEarly(t *testing.T) {
	probe := &fakeProbe{hostname: "888.app.netsuite.com"}
	ext := NewExtractor(probe, nil, nil, time.Hour, time.Hour)

	done := make(chan Context, 1)
	go func() {
		done <- ext.ExtractWithRetry(context.Background())
	}()

	select {
	case c := <-done:
		if c.AccountID != "888" {
			t.Errorf("AccountID = %q", c.AccountID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("retry schedule did not stop after a successful extraction")
	}
}

func TestExtractWithRetryHonorsContext(t *testing.T) {
	probe := &fakeProbe{hostname: "example.com"}
	ext := NewExtractor(probe, nil, nil, time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		ext.ExtractWithRetry(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled context did not stop the retry schedule")
	}
}
