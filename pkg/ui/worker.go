// This file implements the ReloadWorker, which reloads documents off the
// UI thread when they change on disk.
package ui

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"

	"github.com/vanderheijden86/treestack/pkg/loader"
	"github.com/vanderheijden86/treestack/pkg/model"
)

// WorkerState represents the current state of the reload worker.
type WorkerState int

const (
	// WorkerIdle means the worker is waiting for file changes.
	WorkerIdle WorkerState = iota
	// WorkerProcessing means the worker is loading documents.
	WorkerProcessing
	// WorkerStopped means the worker has been stopped.
	WorkerStopped
)

func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerProcessing:
		return "processing"
	case WorkerStopped:
		return "stopped"
	default:
		return fmt.Sprintf("WorkerState(%d)", int(s))
	}
}

// WorkerError wraps errors with phase and retry context.
type WorkerError struct {
	Phase   string    // "load", "merge"
	Cause   error     // The underlying error
	Time    time.Time // When the error occurred
	Retries int       // Number of consecutive failures
}

func (e WorkerError) Error() string {
	return fmt.Sprintf("%s failed: %v (retries: %d)", e.Phase, e.Cause, e.Retries)
}

func (e WorkerError) Unwrap() error {
	return e.Cause
}

// Sender delivers messages to the running program. *tea.Program
// satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// ReloadWorker watches the loaded documents and sends a fresh forest to
// the UI whenever their content changes.
type ReloadWorker struct {
	// Configuration
	paths         []string
	debounceDelay time.Duration

	// State
	mu       sync.RWMutex
	state    WorkerState
	dirty    bool // True if a change came in while processing
	started  bool
	lastHash string // Content hash of the last forest sent (for dedup)

	// Error tracking
	lastError  *WorkerError
	errorCount int

	// Components
	watchers []*loader.Watcher
	changed  chan struct{}
	program  Sender

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// WorkerConfig configures the ReloadWorker.
type WorkerConfig struct {
	Paths         []string
	DebounceDelay time.Duration
	Program       Sender
}

// NewReloadWorker creates a worker with one watcher per document path.
func NewReloadWorker(cfg WorkerConfig) (*ReloadWorker, error) {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.DebounceDelay == 0 {
		cfg.DebounceDelay = loader.DefaultDebounce
	}

	w := &ReloadWorker{
		paths:         cfg.Paths,
		debounceDelay: cfg.DebounceDelay,
		program:       cfg.Program,
		state:         WorkerIdle,
		changed:       make(chan struct{}, 1),
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}

	for _, path := range cfg.Paths {
		fw, err := loader.NewWatcher(path, cfg.DebounceDelay)
		if err != nil {
			for _, prev := range w.watchers {
				prev.Stop()
			}
			cancel()
			return nil, err
		}
		w.watchers = append(w.watchers, fw)
	}

	return w, nil
}

// SetProgram sets where results are sent. Must be called before Start.
func (w *ReloadWorker) SetProgram(p Sender) {
	w.mu.Lock()
	w.program = p
	w.mu.Unlock()
}

// Start begins watching for file changes and processing in the background.
// Start is idempotent - calling it multiple times has no effect.
func (w *ReloadWorker) Start() error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.mu.Unlock()

	if len(w.watchers) == 0 {
		close(w.done)
		return nil
	}

	for _, fw := range w.watchers {
		if err := fw.Start(); err != nil {
			return err
		}
		go w.forward(fw)
	}
	go w.processLoop()
	return nil
}

// Stop halts the worker and its watchers.
// Stop is idempotent - calling it multiple times has no effect.
func (w *ReloadWorker) Stop() {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	w.state = WorkerStopped
	wasStarted := w.started
	w.mu.Unlock()

	w.cancel()

	for _, fw := range w.watchers {
		fw.Stop()
	}

	if wasStarted {
		select {
		case <-w.done:
		case <-time.After(2 * time.Second):
		}
	}
}

// TriggerRefresh manually reloads the documents.
// Has no effect if the worker is stopped; a refresh requested while one is
// running is folded into a single rerun.
func (w *ReloadWorker) TriggerRefresh() {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	if w.state == WorkerProcessing {
		w.dirty = true
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	go w.process()
}

// Prime records nodes as the content the UI already shows, so a change
// event that reproduces it (e.g. our own save) is skipped.
func (w *ReloadWorker) Prime(nodes []model.Node) {
	hash := ComputeHash(nodes)
	w.mu.Lock()
	w.lastHash = hash
	w.mu.Unlock()
}

// State returns the current worker state.
func (w *ReloadWorker) State() WorkerState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// LastError returns the most recent error (nil if last operation succeeded).
func (w *ReloadWorker) LastError() *WorkerError {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastError
}

// LastHash returns the content hash of the last forest sent.
func (w *ReloadWorker) LastHash() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastHash
}

// forward fans the watcher's change notifications into w.changed.
func (w *ReloadWorker) forward(fw *loader.Watcher) {
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-fw.Changes():
			select {
			case w.changed <- struct{}{}:
			default:
			}
		}
	}
}

func (w *ReloadWorker) processLoop() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.changed:
			w.process()
		}
	}
}

// process reloads all documents and notifies the UI.
func (w *ReloadWorker) process() {
	w.mu.Lock()
	if w.state != WorkerIdle {
		if w.state == WorkerProcessing {
			w.dirty = true
		}
		w.mu.Unlock()
		return
	}
	w.state = WorkerProcessing
	w.dirty = false
	w.mu.Unlock()

	// nil when unchanged or failed
	nodes := w.reload()

	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	wasDirty := w.dirty
	w.state = WorkerIdle
	program := w.program
	w.mu.Unlock()

	if program != nil && nodes != nil {
		program.Send(DocumentReadyMsg{Nodes: nodes, Hash: w.LastHash()})
	}

	if wasDirty {
		go w.process()
	}
}

// safeCompute executes fn and recovers from any panics.
func (w *ReloadWorker) safeCompute(phase string, fn func() error) *WorkerError {
	var result *WorkerError
	func() {
		defer func() {
			if r := recover(); r != nil {
				result = &WorkerError{
					Phase: phase,
					Cause: fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
					Time:  time.Now(),
				}
			}
		}()
		if err := fn(); err != nil {
			result = &WorkerError{
				Phase: phase,
				Cause: err,
				Time:  time.Now(),
			}
		}
	}()
	return result
}

// recordError tracks an error and updates error state.
func (w *ReloadWorker) recordError(err *WorkerError) {
	w.mu.Lock()
	w.lastError = err
	if err != nil {
		w.errorCount++
		err.Retries = w.errorCount
	} else {
		w.errorCount = 0
	}
	w.mu.Unlock()
}

// reload loads and merges the documents. Returns nil if loading fails or
// the content is unchanged.
func (w *ReloadWorker) reload() []model.Node {
	if len(w.paths) == 0 {
		return nil
	}
	start := time.Now()

	var nodes []model.Node
	loadErr := w.safeCompute("load", func() error {
		results, err := loader.LoadAll(w.ctx, w.paths)
		if err != nil {
			return err
		}
		nodes, err = loader.Merge(results)
		return err
	})
	if loadErr != nil {
		log.Printf("reload: error loading documents: %v", loadErr)
		w.recordError(loadErr)
		w.mu.RLock()
		program := w.program
		w.mu.RUnlock()
		if program != nil {
			// Editors often write partial files; the next save usually fixes it
			program.Send(DocumentErrorMsg{Err: loadErr, Recoverable: true})
		}
		return nil
	}

	hash := ComputeHash(nodes)
	w.mu.RLock()
	lastHash := w.lastHash
	w.mu.RUnlock()
	if hash == lastHash && lastHash != "" {
		log.Printf("reload: content unchanged (hash=%s), skipping", hashPrefix(hash))
		w.recordError(nil)
		return nil
	}

	w.recordError(nil)
	w.mu.Lock()
	w.lastHash = hash
	w.mu.Unlock()

	log.Printf("reload: loaded %d documents in %v (hash=%s)", len(w.paths), time.Since(start), hashPrefix(hash))
	return nodes
}

// ComputeHash returns a content hash of the persisted fields of nodes.
func ComputeHash(nodes []model.Node) string {
	data, err := json.Marshal(model.ToRecords(nodes))
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashPrefix returns up to 16 characters of hash for logging.
func hashPrefix(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}

// DocumentReadyMsg is sent to the UI when reloaded documents are ready.
type DocumentReadyMsg struct {
	Nodes []model.Node
	Hash  string
}

// DocumentErrorMsg is sent to the UI when reloading fails.
type DocumentErrorMsg struct {
	Err         error
	Recoverable bool // True if we expect to recover on next file change
}
