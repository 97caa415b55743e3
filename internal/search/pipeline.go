package search

import (
	"context"
	"errors"

	"spotlight-mcp-server/internal/record"
	"spotlight-mcp-server/internal/session"
)

// Pipeline glues planning, federated execution, and ranking into one
// search call over the current session context.
type Pipeline struct {
	exec    *Executor
	session func() session.Context
}

// NewPipeline wires the executor to a session source (typically
// (*session.Store).Current) consulted fresh on every search.
func NewPipeline(exec *Executor, sessionSource func() session.Context) *Pipeline {
	return &Pipeline{exec: exec, session: sessionSource}
}

// Search plans the query, executes the plan, and ranks the results. A
// too-short query returns (nil, nil). The only error path is orchestration
// misuse (nil filter set): per-type backend failures degrade to partial
// results inside the executor and never surface here.
func (p *Pipeline) Search(ctx context.Context, query string, filters *record.FilterSet) ([]record.SearchResult, error) {
	if filters == nil {
		return nil, errors.New("filter set is required")
	}
	intents := Plan(query, filters)
	if len(intents) == 0 {
		return nil, nil
	}
	raws := p.exec.Execute(ctx, intents, p.session())
	return Rank(raws, query), nil
}
