package ui

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/treestack/pkg/loader"
	"github.com/vanderheijden86/treestack/pkg/model"
)

// recordingSender collects messages sent by the worker.
type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingSender) messages() []tea.Msg {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tea.Msg(nil), r.msgs...)
}

// waitFor polls until cond is true or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func writeDoc(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
}

func TestReloadWorker_NewWithoutPaths(t *testing.T) {
	worker, err := NewReloadWorker(WorkerConfig{})
	if err != nil {
		t.Fatalf("NewReloadWorker failed: %v", err)
	}
	if err := worker.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer worker.Stop()

	if worker.State() != WorkerIdle {
		t.Errorf("Expected idle state, got %v", worker.State())
	}
	worker.TriggerRefresh()
	time.Sleep(50 * time.Millisecond)
	if worker.LastHash() != "" {
		t.Error("Expected no hash without documents")
	}
}

func TestReloadWorker_StartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	writeDoc(t, path, `{"nodes":[{"key":"a"}]}`)

	worker, err := NewReloadWorker(WorkerConfig{Paths: []string{path}, DebounceDelay: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewReloadWorker failed: %v", err)
	}
	if err := worker.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := worker.Start(); err != nil {
		t.Fatalf("second Start should be a no-op: %v", err)
	}

	worker.Stop()
	worker.Stop()

	if worker.State() != WorkerStopped {
		t.Errorf("Expected stopped state, got %v", worker.State())
	}
	worker.TriggerRefresh()
	if worker.State() != WorkerStopped {
		t.Error("TriggerRefresh should not restart a stopped worker")
	}
}

func TestReloadWorker_TriggerRefreshSendsNodes(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.yaml")
	writeDoc(t, a, `{"nodes":[{"key":"a","children":[{"key":"a1"}]}]}`)
	writeDoc(t, b, "nodes:\n  - key: b\n")

	sender := &recordingSender{}
	worker, err := NewReloadWorker(WorkerConfig{Paths: []string{a, b}, Program: sender})
	if err != nil {
		t.Fatalf("NewReloadWorker failed: %v", err)
	}
	defer worker.Stop()

	worker.TriggerRefresh()
	if !waitFor(t, 2*time.Second, func() bool { return len(sender.messages()) == 1 }) {
		t.Fatalf("expected one message, got %d", len(sender.messages()))
	}
	msg, ok := sender.messages()[0].(DocumentReadyMsg)
	if !ok {
		t.Fatalf("expected DocumentReadyMsg, got %T", sender.messages()[0])
	}
	if len(msg.Nodes) != 2 || msg.Nodes[0].Key != "a" || msg.Nodes[1].Key != "b" {
		t.Errorf("unexpected nodes %+v", msg.Nodes)
	}
	if msg.Hash == "" || msg.Hash != worker.LastHash() {
		t.Errorf("hash mismatch: %q vs %q", msg.Hash, worker.LastHash())
	}
}

func TestReloadWorker_DedupUnchangedContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	writeDoc(t, path, `{"nodes":[{"key":"a"}]}`)

	sender := &recordingSender{}
	worker, err := NewReloadWorker(WorkerConfig{Paths: []string{path}, Program: sender})
	if err != nil {
		t.Fatalf("NewReloadWorker failed: %v", err)
	}
	defer worker.Stop()

	r, err := loader.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	worker.Prime(r.Nodes)

	worker.TriggerRefresh()
	if !waitFor(t, time.Second, func() bool { return worker.State() == WorkerIdle }) {
		t.Fatal("worker did not settle")
	}
	time.Sleep(50 * time.Millisecond)
	if n := len(sender.messages()); n != 0 {
		t.Errorf("primed content should not be resent, got %d messages", n)
	}
}

func TestReloadWorker_ErrorIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	writeDoc(t, path, `{"nodes":[`)

	sender := &recordingSender{}
	worker, err := NewReloadWorker(WorkerConfig{Paths: []string{path}, Program: sender})
	if err != nil {
		t.Fatalf("NewReloadWorker failed: %v", err)
	}
	defer worker.Stop()

	worker.TriggerRefresh()
	if !waitFor(t, 2*time.Second, func() bool { return len(sender.messages()) == 1 }) {
		t.Fatal("expected an error message")
	}
	msg, ok := sender.messages()[0].(DocumentErrorMsg)
	if !ok {
		t.Fatalf("expected DocumentErrorMsg, got %T", sender.messages()[0])
	}
	if !msg.Recoverable {
		t.Error("load errors should be recoverable")
	}
	var le *loader.LoadError
	if !errors.As(msg.Err, &le) || le.Phase != "parse" {
		t.Errorf("expected parse LoadError, got %v", msg.Err)
	}
	if last := worker.LastError(); last == nil || last.Retries != 1 {
		t.Errorf("expected LastError with 1 retry, got %+v", last)
	}

	// A good write clears the error.
	writeDoc(t, path, `{"nodes":[{"key":"a"}]}`)
	worker.TriggerRefresh()
	if !waitFor(t, 2*time.Second, func() bool { return worker.LastError() == nil }) {
		t.Error("error should clear after a successful reload")
	}
}

func TestReloadWorker_WatchesFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	writeDoc(t, path, `{"nodes":[{"key":"a"}]}`)

	sender := &recordingSender{}
	worker, err := NewReloadWorker(WorkerConfig{Paths: []string{path}, DebounceDelay: 20 * time.Millisecond, Program: sender})
	if err != nil {
		t.Fatalf("NewReloadWorker failed: %v", err)
	}
	if err := worker.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer worker.Stop()

	writeDoc(t, path, `{"nodes":[{"key":"a"},{"key":"b"}]}`)
	if !waitFor(t, 3*time.Second, func() bool { return len(sender.messages()) > 0 }) {
		t.Fatal("timed out waiting for reload")
	}
	msg, ok := sender.messages()[0].(DocumentReadyMsg)
	if !ok || len(msg.Nodes) != 2 {
		t.Errorf("expected reloaded forest with 2 roots, got %+v", sender.messages()[0])
	}
}

func TestWorkerError(t *testing.T) {
	cause := errors.New("boom")
	err := WorkerError{Phase: "load", Cause: cause, Retries: 2}
	if !errors.Is(err, cause) {
		t.Error("WorkerError should unwrap to its cause")
	}
	if got := err.Error(); got != "load failed: boom (retries: 2)" {
		t.Errorf("Error() = %q", got)
	}
}

func TestSafeComputeRecoversPanic(t *testing.T) {
	w := &ReloadWorker{}
	werr := w.safeCompute("load", func() error { panic("bad") })
	if werr == nil || werr.Phase != "load" {
		t.Fatalf("expected recovered WorkerError, got %+v", werr)
	}
	if w.safeCompute("load", func() error { return nil }) != nil {
		t.Error("expected nil for success")
	}
}

func TestComputeHash(t *testing.T) {
	a := []model.Node{{Key: "a", Label: "A", IsVisible: true}}
	b := []model.Node{{Key: "a", Label: "B", IsVisible: true}}
	if ComputeHash(a) == ComputeHash(b) {
		t.Error("different labels should hash differently")
	}
	if ComputeHash(a) != ComputeHash([]model.Node{{Key: "a", Label: "A", IsVisible: true}}) {
		t.Error("hash should be deterministic")
	}
	if got := hashPrefix("abc"); got != "abc" {
		t.Errorf("hashPrefix short = %q", got)
	}
	if got := hashPrefix("0123456789abcdef0123"); got != "0123456789abcdef" {
		t.Errorf("hashPrefix long = %q", got)
	}
}

func TestWorkerStateString(t *testing.T) {
	if WorkerProcessing.String() != "processing" || WorkerState(9).String() != "WorkerState(9)" {
		t.Error("unexpected WorkerState strings")
	}
}
