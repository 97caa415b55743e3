package spotlight

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"spotlight-mcp-server/internal/record"
	"spotlight-mcp-server/internal/recorder"
	"spotlight-mcp-server/internal/search"
)

// State is the overlay's lifecycle position.
type State int

const (
	StateClosed State = iota
	StateOpenEmpty
	StateOpenLoading
	StateOpenResults
	StateOpenNoResults
	StateOpenError
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpenEmpty:
		return "open-empty"
	case StateOpenLoading:
		return "open-loading"
	case StateOpenResults:
		return "open-results"
	case StateOpenNoResults:
		return "open-no-results"
	case StateOpenError:
		return "open-error"
	}
	return "unknown"
}

// Searcher runs the search pipeline. *search.Pipeline satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, filters *record.FilterSet) ([]record.SearchResult, error)
}

// Navigator opens a record page in a new browsing context.
type Navigator interface {
	OpenURL(ctx context.Context, rawURL string) error
}

// Options tunes the controller.
type Options struct {
	// Debounce is the quiet period after an edit before a search fires.
	// Zero uses DefaultDebounce.
	Debounce time.Duration
	// SearchTimeout bounds a single pipeline run. Zero uses a 15s default.
	SearchTimeout time.Duration
	// Recorder, when set, traces every completed search.
	Recorder *recorder.Recorder
}

// DefaultDebounce matches the overlay's keystroke quiet period.
const DefaultDebounce = 300 * time.Millisecond

// Controller owns the overlay's search session: current query, active
// filters, ranked results, and the highlighted index. All mutation goes
// through its methods; completion handlers from superseded searches are
// discarded by generation token, never by completion time.
type Controller struct {
	searcher Searcher
	nav      Navigator
	debounce time.Duration
	timeout  time.Duration
	rec      *recorder.Recorder

	mu          sync.Mutex
	initialized bool
	state       State
	query       string
	filters     *record.FilterSet
	results     []record.SearchResult
	selected    int
	generation  uint64
	timer       *time.Timer
	lastErr     string
}

// Snapshot is a consistent copy of the UI-facing session.
type Snapshot struct {
	State         string                `json:"state"`
	Query         string                `json:"query"`
	Filters       []string              `json:"filters"`
	Results       []record.SearchResult `json:"results"`
	SelectedIndex int                   `json:"selected_index"`
	Error         string                `json:"error,omitempty"`
}

// NewController builds a closed, uninitialized controller.
func NewController(searcher Searcher, nav Navigator, opts Options) *Controller {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = 15 * time.Second
	}
	return &Controller{
		searcher: searcher,
		nav:      nav,
		debounce: opts.Debounce,
		timeout:  opts.SearchTimeout,
		rec:      opts.Recorder,
		state:    StateClosed,
		filters:  record.NewFilterSet(),
		selected: -1,
	}
}

// Initialize prepares the controller exactly once; later calls no-op.
func (c *Controller) Initialize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return
	}
	c.initialized = true
	c.resetSessionLocked()
	c.state = StateClosed
}

// Toggle flips between closed and open.
func (c *Controller) Toggle() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return c.openLocked()
	}
	return c.closeLocked()
}

// Open shows the overlay with a fresh session.
func (c *Controller) Open() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateClosed {
		return c.state
	}
	return c.openLocked()
}

// Close hides the overlay, discarding any in-flight search.
func (c *Controller) Close() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Controller) openLocked() State {
	c.resetSessionLocked()
	c.state = StateOpenEmpty
	return c.state
}

func (c *Controller) closeLocked() State {
	c.generation++ // supersede anything in flight
	c.stopTimerLocked()
	c.resetSessionLocked()
	c.state = StateClosed
	return c.state
}

// resetSessionLocked clears the UI-facing session fields.
func (c *Controller) resetSessionLocked() {
	c.query = ""
	c.filters = record.NewFilterSet()
	c.results = nil
	c.selected = -1
	c.lastErr = ""
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// SetQuery records a text edit and schedules a debounced, single-flight
// search; a new edit cancels the pending one. Ignored while closed.
func (c *Controller) SetQuery(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return
	}
	c.query = query
	c.scheduleLocked()
}

// ToggleFilter flips one record-type filter and re-plans the search with
// the current query under the same debounce/cancel rule as a text edit.
func (c *Controller) ToggleFilter(t record.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return
	}
	c.filters.Toggle(t)
	c.scheduleLocked()
}

// SelectAllFilters reverts the set to the "all" sentinel and re-plans.
func (c *Controller) SelectAllFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return
	}
	c.filters.SelectAll()
	c.scheduleLocked()
}

// scheduleLocked supersedes any pending or in-flight search and either
// settles on open-empty (query too short) or arms the debounce timer.
func (c *Controller) scheduleLocked() {
	c.generation++
	c.stopTimerLocked()

	if len(search.Plan(c.query, c.filters)) == 0 {
		c.results = nil
		c.selected = -1
		c.lastErr = ""
		c.state = StateOpenEmpty
		return
	}

	gen := c.generation
	c.timer = time.AfterFunc(c.debounce, func() {
		c.runSearch(gen)
	})
}

// PerformSearch handles the inbound perform-search command: replace query
// and filters, then search immediately (no debounce, still generation
// tokened). Opens the overlay when closed.
func (c *Controller) PerformSearch(query string, filterTokens []string) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.openLocked()
	}
	c.query = query
	c.filters = record.ParseFilterSet(filterTokens)
	c.generation++
	c.stopTimerLocked()

	if len(search.Plan(c.query, c.filters)) == 0 {
		c.results = nil
		c.selected = -1
		c.state = StateOpenEmpty
		c.mu.Unlock()
		return
	}
	gen := c.generation
	c.mu.Unlock()

	c.runSearch(gen)
}

// runSearch executes one debounce generation. Only the most recent
// generation may mutate the session; a superseded run discards its result
// on completion.
func (c *Controller) runSearch(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateOpenLoading
	query := c.query
	filters := c.filters.Clone()
	c.mu.Unlock()

	start := time.Now()
	results, err := c.searchOnce(query, filters)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || c.state == StateClosed {
		return // stale generation: last writer wins by token
	}

	c.results = results
	c.selected = -1
	switch {
	case err != nil:
		log.Printf("[spotlight] search %q failed: %v", query, err)
		c.results = nil
		c.lastErr = err.Error()
		c.state = StateOpenError
	case len(results) == 0:
		c.lastErr = ""
		c.state = StateOpenNoResults
	default:
		c.lastErr = ""
		c.state = StateOpenResults
	}

	c.traceLocked(query, filters, results, time.Since(start), err)
}

// searchOnce runs the pipeline with a bounded context and a panic guard:
// an orchestration panic surfaces as the error state, never as a crash.
func (c *Controller) searchOnce(query string, filters *record.FilterSet) (results []record.SearchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			results, err = nil, fmt.Errorf("search pipeline panic: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return c.searcher.Search(ctx, query, filters)
}

func (c *Controller) traceLocked(query string, filters *record.FilterSet, results []record.SearchResult, elapsed time.Duration, err error) {
	if c.rec == nil {
		return
	}
	perType := make(map[string]int)
	for _, r := range results {
		perType[string(r.Type)]++
	}
	ev := recorder.SearchEvent{
		Query:      query,
		Filters:    filters.Tokens(),
		State:      c.state.String(),
		Results:    len(results),
		PerType:    perType,
		DurationMs: elapsed.Milliseconds(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	c.rec.LogSearch(ev)
}

// Key feeds one overlay keystroke into the state machine. Recognized keys
// are ArrowDown, ArrowUp, Enter, and Escape; anything else no-ops.
func (c *Controller) Key(key string) State {
	c.mu.Lock()

	switch key {
	case "ArrowDown":
		if c.state == StateOpenResults && c.selected < len(c.results)-1 {
			c.selected++
		}
	case "ArrowUp":
		if c.state == StateOpenResults && c.selected > -1 {
			c.selected--
		}
	case "Enter":
		if c.state == StateOpenResults && c.selected >= 0 && c.selected < len(c.results) {
			target := c.results[c.selected].TargetURL
			c.closeLocked()
			c.mu.Unlock()
			c.navigate(target)
			c.mu.Lock()
		}
	case "Escape":
		if c.state != StateClosed {
			c.closeLocked()
		}
	}

	state := c.state
	c.mu.Unlock()
	return state
}

// SelectIndex highlights a result directly (mouse hover/click analogue).
// Reports whether the index was valid for the current results.
func (c *Controller) SelectIndex(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOpenResults || i < -1 || i >= len(c.results) {
		return false
	}
	c.selected = i
	return true
}

// OpenSelected navigates to the highlighted result and closes the
// overlay. Reports whether a navigation happened.
func (c *Controller) OpenSelected() bool {
	c.mu.Lock()
	if c.state != StateOpenResults || c.selected < 0 || c.selected >= len(c.results) {
		c.mu.Unlock()
		return false
	}
	target := c.results[c.selected].TargetURL
	c.closeLocked()
	c.mu.Unlock()

	c.navigate(target)
	return true
}

func (c *Controller) navigate(target string) {
	if c.nav == nil || target == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.nav.OpenURL(ctx, target); err != nil {
		log.Printf("[spotlight] open %q failed: %v", target, err)
	}
}

// Snapshot returns a consistent copy of the current session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	results := make([]record.SearchResult, len(c.results))
	copy(results, c.results)
	return Snapshot{
		State:         c.state.String(),
		Query:         c.query,
		Filters:       c.filters.Tokens(),
		Results:       results,
		SelectedIndex: c.selected,
		Error:         c.lastErr,
	}
}

// StateNow returns the current state.
func (c *Controller) StateNow() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
