package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"spotlight-mcp-server/internal/record"
	"spotlight-mcp-server/internal/session"
)

func TestBuildSuiteQL(t *testing.T) {
	intent := QueryIntent{
		Type:  record.Customer,
		Query: "acme",
		Def:   record.Customer.Definition(),
	}

	q := buildSuiteQL(intent, 20)
	for _, want := range []string{
		"SELECT id, companyname, email, phone, entitystatus",
		"FROM customer",
		"UPPER(companyname) LIKE UPPER('%acme%')",
		"UPPER(email) LIKE UPPER('%acme%')",
		" OR ",
		"ORDER BY companyname",
		"LIMIT 20",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("query missing %q:\n%s", want, q)
		}
	}
}

func TestBuildSuiteQLEscapesQuotes(t *testing.T) {
	intent := QueryIntent{
		Type:  record.Customer,
		Query: "o'brien",
		Def:   record.Customer.Definition(),
	}

	q := buildSuiteQL(intent, 20)
	if !strings.Contains(q, "o''brien") {
		t.Errorf("single quote not doubled:\n%s", q)
	}
	if strings.Contains(q, "'%o'brien%'") {
		t.Errorf("raw quote leaked into literal:\n%s", q)
	}
}

func TestRESTBackendSearch(t *testing.T) {
	var gotPath, gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			Q string `json:"q"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotQuery = body.Q
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{"id": "1", "companyname": "Acme Corporation"},
			},
		})
	}))
	defer srv.Close()

	backend := NewRESTBackend(srv.Client(), 20)
	intent := QueryIntent{Type: record.Customer, Query: "acme", Def: record.Customer.Definition()}
	sess := session.Context{AccountID: "123", BaseURL: srv.URL, AuthToken: "tok"}

	rows, err := backend.Search(context.Background(), intent, sess)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotPath != suiteQLPath {
		t.Errorf("path = %q, want %q", gotPath, suiteQLPath)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if !strings.Contains(gotQuery, "FROM customer") {
		t.Errorf("suiteql body = %q", gotQuery)
	}
	if len(rows) != 1 || rows[0].Type != record.Customer {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0].String("companyname") != "Acme Corporation" {
		t.Errorf("companyname = %q", rows[0].String("companyname"))
	}
}

func TestRESTBackendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "INVALID_LOGIN", http.StatusUnauthorized)
	}))
	defer srv.Close()

	backend := NewRESTBackend(srv.Client(), 20)
	intent := QueryIntent{Type: record.Customer, Query: "acme", Def: record.Customer.Definition()}
	sess := session.Context{BaseURL: srv.URL, AuthToken: "expired"}

	_, err := backend.Search(context.Background(), intent, sess)
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "status 401") {
		t.Errorf("error = %v, want status in message", err)
	}
}

func TestRESTBackendRequiresBaseURL(t *testing.T) {
	backend := NewRESTBackend(nil, 20)
	intent := QueryIntent{Type: record.Customer, Query: "acme", Def: record.Customer.Definition()}

	_, err := backend.Search(context.Background(), intent, session.Context{})
	if err == nil {
		t.Fatal("expected error for session without base url")
	}
}

// fakeEvaluator returns a canned JSON payload (or error) for every eval.
type fakeEvaluator struct {
	payload string
	err     error
	lastJS  string
	calls   int
}

func (f *fakeEvaluator) EvalJSON(_ context.Context, js string) ([]byte, error) {
	f.lastJS = js
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.payload), nil
}

func TestPageBackendSearch(t *testing.T) {
	ev := &fakeEvaluator{payload: `[{"id":"7","companyname":"Acme Corporation"}]`}
	backend := NewPageBackend(ev, 20)
	intent := QueryIntent{Type: record.Customer, Query: "acme", Def: record.Customer.Definition()}

	rows, err := backend.Search(context.Background(), intent, session.Context{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(rows) != 1 || rows[0].String("id") != "7" {
		t.Fatalf("rows = %v", rows)
	}
	for _, want := range []string{"N/search", "search.Type.CUSTOMER", `"contains"`, `"companyname"`} {
		if !strings.Contains(ev.lastJS, want) {
			t.Errorf("rendered script missing %q", want)
		}
	}
}

func TestPageBackendEvalError(t *testing.T) {
	ev := &fakeEvaluator{err: errors.New("tab closed")}
	backend := NewPageBackend(ev, 20)
	intent := QueryIntent{Type: record.Customer, Query: "acme", Def: record.Customer.Definition()}

	if _, err := backend.Search(context.Background(), intent, session.Context{}); err == nil {
		t.Fatal("expected error when evaluation fails")
	}
}

func TestResolveBackend(t *testing.T) {
	tests := []struct {
		name string
		ev   Evaluator
		want string
	}{
		{"nil evaluator", nil, "suiteql"},
		{"probe true", &fakeEvaluator{payload: "true"}, "page"},
		{"probe false", &fakeEvaluator{payload: "false"}, "suiteql"},
		{"probe error", &fakeEvaluator{err: errors.New("no tab")}, "suiteql"},
		{"probe garbage", &fakeEvaluator{payload: "not json"}, "suiteql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := ResolveBackend(tt.ev, nil, 20)
			if backend.Name() != tt.want {
				t.Errorf("backend = %s, want %s", backend.Name(), tt.want)
			}
		})
	}
}

func TestResolverReprobesOnBindingChange(t *testing.T) {
	var gen uint64
	var ev Evaluator
	r := NewResolver(func() Evaluator { return ev }, func() uint64 { return gen }, nil, 20)

	// No host tab at startup: REST, and the answer is cached for the binding.
	if got := r.Backend().Name(); got != "suiteql" {
		t.Fatalf("backend = %s, want suiteql before any host tab", got)
	}

	// Host tab binds after startup; the next resolution must re-probe.
	probe := &fakeEvaluator{payload: "true"}
	ev = probe
	gen++
	if got := r.Backend().Name(); got != "page" {
		t.Fatalf("backend = %s, want page after late bind", got)
	}

	// Stable binding: no re-probe per call.
	calls := probe.calls
	_ = r.Backend()
	if probe.calls != calls {
		t.Errorf("probe reran on an unchanged binding")
	}

	// Host tab dropped: back to REST, never the dead tab's evaluator.
	ev = nil
	gen++
	if got := r.Backend().Name(); got != "suiteql" {
		t.Errorf("backend = %s, want suiteql after host tab lost", got)
	}
}

// hostPageEvaluator answers the capability probe and serves search rows,
// like a live tab with N/search loaded.
type hostPageEvaluator struct {
	rows string
}

func (h *hostPageEvaluator) EvalJSON(_ context.Context, js string) ([]byte, error) {
	if strings.Contains(js, "require.defined") {
		return []byte("true"), nil
	}
	return []byte(h.rows), nil
}

func TestSearchSucceedsAfterLateHostBind(t *testing.T) {
	var gen uint64
	var ev Evaluator
	r := NewResolver(func() Evaluator { return ev }, func() uint64 { return gen }, nil, 20)
	exec := NewExecutor(r.Backend, 0, 0)
	sess := session.Context{AccountID: "123", BaseURL: "https://127.0.0.1:1", AuthToken: "tok"}
	intents := intentsFor("acme", record.Customer)

	// Startup resolution happened without a host tab.
	if got := r.Backend().Name(); got != "suiteql" {
		t.Fatalf("backend = %s, want suiteql", got)
	}

	// find-host-tab binds a tab whose page exposes N/search.
	ev = &hostPageEvaluator{rows: `[{"id":"7","companyname":"Acme Corporation"}]`}
	gen++

	rows := exec.Execute(context.Background(), intents, sess)
	if len(rows) != 1 || rows[0].String("companyname") != "Acme Corporation" {
		t.Fatalf("rows = %v, want the in-page result after the bind", rows)
	}
}

func TestFallbackBackendMatching(t *testing.T) {
	backend := NewFallbackBackend()

	tests := []struct {
		name    string
		typ     record.Type
		query   string
		wantIDs []string
	}{
		{"customer by name", record.Customer, "acme", []string{"123"}},
		{"customer case-insensitive", record.Customer, "ACME", []string{"123"}},
		{"customer by subtitle email", record.Customer, "contact@acme", []string{"123"}},
		{"sales order by tranid", record.SalesOrder, "so-2024", []string{"456"}},
		{"contact via company subtitle", record.Contact, "acme", []string{"404"}},
		{"no match", record.Customer, "zzz", nil},
		{"type mismatch", record.Vendor, "acme", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := QueryIntent{Type: tt.typ, Query: tt.query, Def: tt.typ.Definition()}
			rows, err := backend.Search(context.Background(), intent, session.Context{})
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(rows) != len(tt.wantIDs) {
				t.Fatalf("got %d rows, want %d", len(rows), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if got := rows[i].String("id"); got != want {
					t.Errorf("row %d id = %q, want %q", i, got, want)
				}
			}
		})
	}
}

func TestFallbackBackendCoversEveryType(t *testing.T) {
	backend := NewFallbackBackend()
	for _, typ := range record.AllTypes() {
		// Every demo entry contains a digit id; an empty query matches all.
		intent := QueryIntent{Type: typ, Query: "", Def: typ.Definition()}
		rows, err := backend.Search(context.Background(), intent, session.Context{})
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		if len(rows) == 0 {
			t.Errorf("%s: demo dataset has no entry", typ)
		}
	}
}
