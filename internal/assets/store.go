package assets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxRetries  = 5
	DefaultBackoff     = 1000 * time.Millisecond
	DefaultConcurrency = 8

	LoadingText = "Loading assets..."
	FailedText  = "Failed to load assets. Please refresh."
)

// RecordStatus is the load status of a single resource
type RecordStatus int

const (
	Pending RecordStatus = iota
	Loaded
	LoadFailed
)

func (s RecordStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case Loaded:
		return "loaded"
	case LoadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Record is the store's view of one resource. Handle is the decoded resource
// once loaded and is opaque to the store.
type Record struct {
	Key    Key
	Status RecordStatus
	Handle any
}

// State is the store lifecycle: Loading -> {Ready, RetryPending -> Loading, Failed}
type State int

const (
	Loading State = iota
	RetryPending
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case RetryPending:
		return "retry-pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions will happen
func (s State) Terminal() bool {
	return s == Ready || s == Failed
}

// Status is a point-in-time summary used by the renderer
type Status struct {
	State   State
	Retries int
	Max     int
	Text    string
	Failed  []Key
}

// Ready reports whether every manifest entry is loaded
func (s Status) Ready() bool {
	return s.State == Ready
}

// Loader fetches and decodes a single resource. attempt is the number of
// failed passes so far and may be used to defeat caches.
type Loader interface {
	Load(ctx context.Context, key Key, attempt int) (any, error)
}

// LoaderFunc adapts a function to Loader
type LoaderFunc func(ctx context.Context, key Key, attempt int) (any, error)

// Load implements Loader
func (f LoaderFunc) Load(ctx context.Context, key Key, attempt int) (any, error) {
	return f(ctx, key, attempt)
}

// Options tune a Store; zero values take the defaults
type Options struct {
	MaxRetries  int
	Backoff     time.Duration
	Concurrency int
	Clock       quartz.Clock
}

// Store loads and caches the manifest, retrying failed entries as a unit
type Store struct {
	loader      Loader
	logger      *log.Logger
	clock       quartz.Clock
	maxRetries  int
	backoff     time.Duration
	concurrency int

	mu        sync.RWMutex
	manifest  Manifest
	records   map[Key]*Record
	state     State
	retries   int
	text      string
	running   bool
	listeners []func(Status)
}

// NewStore creates an asset store
func NewStore(loader Loader, logger *log.Logger, opts Options) *Store {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}

	return &Store{
		loader:      loader,
		logger:      logger.WithPrefix("assets"),
		clock:       opts.Clock,
		maxRetries:  opts.MaxRetries,
		backoff:     opts.Backoff,
		concurrency: opts.Concurrency,
		records:     make(map[Key]*Record),
		state:       Loading,
		text:        LoadingText,
	}
}

// OnChange registers a callback invoked after every state transition. The
// callback runs on the goroutine that completed the pass and must not block.
func (s *Store) OnChange(fn func(Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Load runs a load pass over the manifest and returns the resulting state.
// Failed entries are retried after the back-off on the store's clock until
// the retry ceiling. A ready or failed store returns immediately, as does a
// store whose previous pass is still in flight or waiting to retry.
func (s *Store) Load(ctx context.Context, manifest Manifest) State {
	s.mu.Lock()
	if s.state.Terminal() || s.running {
		state := s.state
		s.mu.Unlock()
		return state
	}
	s.running = true
	s.manifest = append(Manifest(nil), manifest...)
	for _, key := range s.manifest {
		if _, ok := s.records[key]; !ok {
			s.records[key] = &Record{Key: key, Status: Pending}
		}
	}
	s.mu.Unlock()

	return s.pass(ctx)
}

type loadResult struct {
	handle any
	err    error
}

// pass requests every entry not yet loaded and waits for all to settle
func (s *Store) pass(ctx context.Context) State {
	s.mu.Lock()
	attempt := s.retries
	var pending []Key
	for _, key := range s.manifest {
		if s.records[key].Status != Loaded {
			pending = append(pending, key)
		}
	}
	s.state = Loading
	s.mu.Unlock()

	s.logger.Debug("Starting load pass", "pending", len(pending), "attempt", attempt)

	results := make([]loadResult, len(pending))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, key := range pending {
		g.Go(func() error {
			handle, err := s.loader.Load(ctx, key, attempt)
			results[i] = loadResult{handle: handle, err: err}
			return nil // settle every request, never short-circuit
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	var failed []Key
	for i, key := range pending {
		rec := s.records[key]
		if results[i].err != nil {
			rec.Status = LoadFailed
			rec.Handle = nil
			failed = append(failed, key)
			s.logger.Debug("Asset failed to load", "key", key, "error", results[i].err)
			continue
		}
		rec.Status = Loaded
		rec.Handle = results[i].handle
	}

	switch {
	case len(failed) == 0:
		s.state = Ready
		s.text = ""
		s.running = false
		s.logger.Info("All assets loaded", "count", len(s.manifest))
	default:
		s.retries++
		if s.retries >= s.maxRetries {
			s.state = Failed
			s.text = FailedText
			s.running = false
			s.logger.Error("Asset loading failed permanently", "failed", len(failed), "retries", s.retries)
			break
		}
		s.state = RetryPending
		s.text = fmt.Sprintf("%s retry %d/%d", LoadingText, s.retries, s.maxRetries)
		s.logger.Warn("Retrying assets", "failed", failed, "retry", s.retries, "max", s.maxRetries)
		s.clock.AfterFunc(s.backoff, func() {
			if ctx.Err() != nil {
				s.mu.Lock()
				s.running = false
				s.mu.Unlock()
				return
			}
			s.pass(ctx)
		}, "assets", "retry")
	}

	status := s.statusLocked(failed)
	listeners := append([]func(Status)(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(status)
	}
	return status.State
}

// Status returns the current summary
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var failed []Key
	for _, key := range s.manifest {
		if s.records[key].Status == LoadFailed {
			failed = append(failed, key)
		}
	}
	return s.statusLocked(failed)
}

func (s *Store) statusLocked(failed []Key) Status {
	return Status{
		State:   s.state,
		Retries: s.retries,
		Max:     s.maxRetries,
		Text:    s.text,
		Failed:  failed,
	}
}

// Ready reports whether the store has loaded every manifest entry
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == Ready
}

// Record returns a copy of the record for key
func (s *Store) Record(key Key) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Handle returns the decoded resource for key if it has loaded
func (s *Store) Handle(key Key) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	if !ok || rec.Status != Loaded || rec.Handle == nil {
		return nil, false
	}
	return rec.Handle, true
}
