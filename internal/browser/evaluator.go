package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-rod/rod"
)

// Evaluator runs JS in a tab's context and returns the settled value as
// JSON. Promise results are awaited, so callers can hand it async page
// APIs directly.
type Evaluator struct {
	page *rod.Page
}

func NewEvaluator(page *rod.Page) *Evaluator {
	return &Evaluator{page: page}
}

// EvalJSON evaluates js (a zero-argument function expression) and returns
// the JSON encoding of its resolved value.
func (e *Evaluator) EvalJSON(ctx context.Context, js string) ([]byte, error) {
	res, err := e.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           js,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	if res == nil {
		return nil, errors.New("evaluate: empty result")
	}
	return res.Value.MarshalJSON()
}
