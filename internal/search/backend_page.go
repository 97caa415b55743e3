package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"spotlight-mcp-server/internal/record"
	"spotlight-mcp-server/internal/session"
)

// Evaluator runs a JS expression in the attached tab and returns the
// result marshaled as JSON. *browser.Evaluator satisfies it.
type Evaluator interface {
	EvalJSON(ctx context.Context, js string) ([]byte, error)
}

// pageBackend drives the host page's own structured search primitive
// through the attached tab. It needs no token: the page is already
// authenticated.
type pageBackend struct {
	ev    Evaluator
	limit int
}

// NewPageBackend builds the in-page strategy over an attached tab.
func NewPageBackend(ev Evaluator, limit int) Backend {
	if limit <= 0 {
		limit = DefaultPerTypeLimit
	}
	return &pageBackend{ev: ev, limit: limit}
}

func (b *pageBackend) Name() string { return "page" }

func (b *pageBackend) Search(ctx context.Context, intent QueryIntent, _ session.Context) ([]record.Raw, error) {
	js, err := buildPageSearchJS(intent, b.limit)
	if err != nil {
		return nil, err
	}

	raw, err := b.ev.EvalJSON(ctx, js)
	if err != nil {
		return nil, fmt.Errorf("in-page search %s: %w", intent.Type, err)
	}

	var items []map[string]interface{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode in-page results: %w", err)
	}

	rows := make([]record.Raw, 0, len(items))
	for _, item := range items {
		rows = append(rows, record.Raw{Type: intent.Type, Fields: item})
	}
	return rows, nil
}

// buildPageSearchJS renders the N/search invocation for one intent. The
// promise always resolves (with [] on any in-page error) so a broken page
// script degrades to zero records instead of a rejection.
func buildPageSearchJS(intent QueryIntent, limit int) (string, error) {
	def := intent.Def

	// [['f1','contains',q],'OR',['f2','contains',q],...]
	filters := make([]interface{}, 0, len(def.MatchFields)*2)
	for i, field := range def.MatchFields {
		if i > 0 {
			filters = append(filters, "OR")
		}
		filters = append(filters, []string{field, "contains", intent.Query})
	}
	filtersJSON, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	columnsJSON, err := json.Marshal(def.Columns)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`
	() => new Promise((resolve) => {
		try {
			window.require(['N/search'], (search) => {
				try {
					const columns = %s;
					const obj = search.create({
						type: search.Type.%s,
						filters: %s,
						columns: columns
					});
					const out = [];
					obj.run().each((result) => {
						const row = { id: result.id };
						columns.forEach((c) => {
							try {
								row[c] = result.getText(c) || result.getValue(c) || '';
							} catch (e) {
								row[c] = '';
							}
						});
						out.push(row);
						return out.length < %d;
					});
					resolve(out);
				} catch (e) {
					resolve([]);
				}
			});
		} catch (e) {
			resolve([]);
		}
	})
	`, columnsJSON, def.PageSearchType, filtersJSON, limit), nil
}

// pageSearchProbeJS checks whether the host page exposes the structured
// search primitive.
const pageSearchProbeJS = `
() => !!(window.require && window.require.defined && window.require.defined('N/search'))
`

// ResolveBackend runs the capability probe and picks the strategy: the
// in-page primitive when the attached tab exposes it, otherwise the remote
// SuiteQL endpoint. A nil evaluator (no attached tab) always resolves to
// REST.
func ResolveBackend(ev Evaluator, client *http.Client, limit int) Backend {
	if ev != nil && pageSearchAvailable(ev) {
		log.Printf("[search] in-page search primitive available, using page backend")
		return NewPageBackend(ev, limit)
	}
	log.Printf("[search] using SuiteQL REST backend")
	return NewRESTBackend(client, limit)
}

// Resolver caches the resolved strategy per host-tab binding. The probe
// reruns only when the binding generation moves (host tab bound, replaced,
// or lost), so a tab bound after startup still gets the in-page backend
// and a dead tab's evaluator is never kept.
type Resolver struct {
	mu      sync.Mutex
	ev      func() Evaluator
	binding func() uint64
	client  *http.Client
	limit   int

	resolved bool
	gen      uint64
	backend  Backend
}

// NewResolver wires the evaluator and binding-generation sources,
// typically PageManager's HostEvaluator and HostGeneration.
func NewResolver(ev func() Evaluator, binding func() uint64, client *http.Client, limit int) *Resolver {
	return &Resolver{ev: ev, binding: binding, client: client, limit: limit}
}

// Backend returns the strategy for the current binding, re-probing when
// the binding changed since the last call.
func (r *Resolver) Backend() Backend {
	r.mu.Lock()
	defer r.mu.Unlock()

	gen := r.binding()
	if r.resolved && gen == r.gen {
		return r.backend
	}
	r.backend = ResolveBackend(r.ev(), r.client, r.limit)
	r.gen = gen
	r.resolved = true
	return r.backend
}

func pageSearchAvailable(ev Evaluator) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	raw, err := ev.EvalJSON(ctx, pageSearchProbeJS)
	if err != nil {
		return false
	}
	var available bool
	if err := json.Unmarshal(raw, &available); err != nil {
		return false
	}
	return available
}
