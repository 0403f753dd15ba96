// Package dispatch implements the query debouncer and dispatcher. It accepts
// a raw query string per keystroke, waits for a quiet period before issuing a
// single backend search, and guarantees that responses from superseded
// requests never overwrite fresher results.
package dispatch

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/calltime/slate/pkg/core"
	"github.com/calltime/slate/pkg/log"
)

const (
	// DefaultQuiet is the debounce window after the last keystroke.
	DefaultQuiet = 300 * time.Millisecond

	// DefaultMinQueryLength is the minimum trimmed query length that
	// triggers a dispatch. Anything shorter clears the results instead.
	DefaultMinQueryLength = 2

	// DefaultLimit caps how many results a dispatch asks the backend for.
	DefaultLimit = 30
)

// Request is the backend search contract: a query plus an optional limit.
type Request struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// Backend executes a search. Implementations must honor context
// cancellation; a dispatch cancels the previous in-flight request when a
// newer query supersedes it.
type Backend interface {
	Search(ctx context.Context, req Request) ([]core.Result, error)
}

// Panel is the derived visibility state of the results panel. It follows
// solely from whether results are non-empty; there is no independent toggle.
type Panel int

const (
	PanelClosed Panel = iota
	PanelResults
)

// Update is delivered for every state change: a cleared result set (short
// query, backend failure, empty match) or a fresh result set. Backend errors
// are logged inside the dispatcher and never surfaced here.
type Update struct {
	Seq     uint64
	Query   string
	Results []core.Result
	Panel   Panel
}

// Options tunes a Dispatcher. Zero values select the defaults above.
type Options struct {
	Quiet          time.Duration
	MinQueryLength int
	Limit          int
}

type completion struct {
	seq     uint64
	query   string
	results []core.Result
	err     error
}

// Dispatcher serializes all state on a single event-loop goroutine.
// Keystrokes, debounce expiry and backend completions are handled there, so
// no shared state needs locking.
type Dispatcher struct {
	backend Backend
	opts    Options
	logger  *log.Logger

	keystrokes  chan string
	completions chan completion
	updates     chan Update
	done        chan struct{}
	closeOnce   sync.Once
}

// New creates a Dispatcher and starts its event loop.
func New(backend Backend, opts Options) *Dispatcher {
	if opts.Quiet <= 0 {
		opts.Quiet = DefaultQuiet
	}
	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = DefaultMinQueryLength
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}

	d := &Dispatcher{
		backend:     backend,
		opts:        opts,
		logger:      log.ForComponent("dispatch"),
		keystrokes:  make(chan string, 16),
		completions: make(chan completion, 4),
		updates:     make(chan Update, 8),
		done:        make(chan struct{}),
	}
	go d.loop()
	return d
}

// Type feeds one keystroke's worth of query text into the dispatcher.
func (d *Dispatcher) Type(query string) {
	select {
	case d.keystrokes <- query:
	case <-d.done:
	}
}

// Updates returns the stream of state changes. The channel is closed by
// Close.
func (d *Dispatcher) Updates() <-chan Update {
	return d.updates
}

// Close stops the event loop, cancels any in-flight search and closes the
// updates channel. Safe to call more than once.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.done)
	})
}

func (d *Dispatcher) loop() {
	var (
		seq     uint64
		pending string
		cancel  context.CancelFunc
	)

	timer := time.NewTimer(d.opts.Quiet)
	stopTimer(timer)

	defer func() {
		stopTimer(timer)
		if cancel != nil {
			cancel()
		}
		close(d.updates)
	}()

	for {
		select {
		case query := <-d.keystrokes:
			pending = query
			if len(strings.TrimSpace(query)) < d.opts.MinQueryLength {
				// Too short: no request, clear immediately. Bumping the
				// sequence ensures any still-running search is ignored.
				stopTimer(timer)
				if cancel != nil {
					cancel()
					cancel = nil
				}
				seq++
				d.emit(Update{Seq: seq, Query: query, Results: []core.Result{}, Panel: PanelClosed})
				continue
			}
			stopTimer(timer)
			timer.Reset(d.opts.Quiet)

		case <-timer.C:
			seq++
			if cancel != nil {
				cancel()
			}
			ctx, cancelSearch := context.WithCancel(context.Background())
			cancel = cancelSearch
			d.logger.Debugf("dispatching search seq=%d query=%q", seq, pending)
			go d.search(ctx, seq, pending)

		case comp := <-d.completions:
			if comp.seq != seq {
				d.logger.Debugf("discarding stale response seq=%d latest=%d", comp.seq, seq)
				continue
			}
			results := comp.results
			if comp.err != nil {
				if comp.err != context.Canceled {
					d.logger.Errorf("search failed for %q: %v", comp.query, comp.err)
				}
				results = []core.Result{}
			}
			if results == nil {
				results = []core.Result{}
			}
			panel := PanelClosed
			if len(results) > 0 {
				panel = PanelResults
			}
			d.emit(Update{Seq: comp.seq, Query: comp.query, Results: results, Panel: panel})

		case <-d.done:
			return
		}
	}
}

func (d *Dispatcher) search(ctx context.Context, seq uint64, query string) {
	results, err := d.backend.Search(ctx, Request{Query: query, Limit: d.opts.Limit})
	select {
	case d.completions <- completion{seq: seq, query: query, results: results, err: err}:
	case <-d.done:
	}
}

func (d *Dispatcher) emit(u Update) {
	select {
	case d.updates <- u:
	case <-d.done:
	}
}

// stopTimer stops a timer and drains its channel so a later Reset cannot
// observe a spurious expiry.
func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
