package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	write := func(fontSize int) {
		t.Helper()
		content := `
settings:
  - name: fontSize
    kind: required
    type: int
    default: 12
layers:
  - name: defaults
    values:
      fontSize: ` + string(rune('0'+fontSize)) + `
`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write settings file: %v", err)
		}
	}
	write(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reloads := make(chan *Graph, 4)
	w := NewWatcher(NewParser(), []string{path})
	w.debounce = 50 * time.Millisecond

	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func(g *Graph, err error) {
			if err != nil {
				t.Errorf("Reload failed: %v", err)
				return
			}
			reloads <- g
		})
	}()

	// Initial load is delivered before watching starts.
	g := waitForGraph(t, reloads)
	if got := resolveInt(t, g, "defaults", "fontSize"); got != 1 {
		t.Errorf("Expected initial fontSize 1, got %d", got)
	}

	// Give the watcher time to register before mutating the file.
	time.Sleep(200 * time.Millisecond)
	write(7)

	for {
		g = waitForGraph(t, reloads)
		if got := resolveInt(t, g, "defaults", "fontSize"); got == 7 {
			break
		}
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// Cancellation during the debounce window must return promptly without
// leaking the pending timer.
func TestWatcher_CancelMidDebounce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	content := `
settings:
  - name: fontSize
    kind: required
    type: int
    default: 12
layers:
  - name: defaults
    values: {}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write settings file: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWatcher(NewParser(), []string{path})
	w.debounce = 10 * time.Second // far longer than the test

	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func(*Graph, error) {})
	}()

	// Trigger a change so a debounce timer is armed, then cancel inside
	// the window.
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(path, []byte(content+"\n"), 0o644); err != nil {
		t.Fatalf("Failed to rewrite settings file: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancellation")
	}
}

func waitForGraph(t *testing.T, reloads <-chan *Graph) *Graph {
	t.Helper()
	select {
	case g := <-reloads:
		return g
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for reload")
		return nil
	}
}

func resolveInt(t *testing.T, g *Graph, layer, setting string) int64 {
	t.Helper()
	n, ok := g.Layer(layer)
	if !ok {
		t.Fatalf("Layer %s not found", layer)
	}
	v, err := n.Resolve(setting)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	return v.(int64)
}
