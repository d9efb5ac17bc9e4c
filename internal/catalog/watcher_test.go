package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bft-labs/icmprog/internal/ports"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...ports.Field) {}
func (nopLogger) Info(string, ...ports.Field)  {}
func (nopLogger) Warn(string, ...ports.Field)  {}
func (nopLogger) Error(string, ...ports.Field) {}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(path, []byte(jsonCatalog), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded := make(chan *Catalog, 4)
	failed := make(chan error, 4)
	w := NewWatcher(path, nopLogger{}, func(c *Catalog) { loaded <- c })
	w.SetDebounce(20 * time.Millisecond)
	w.OnError(func(err error) { failed <- err })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte(`{"OutputDirectory": ".", "Models": [`), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-failed:
	case c := <-loaded:
		t.Fatalf("broken file loaded: %+v", c)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload attempt after broken write")
	}

	if err := os.WriteFile(path, []byte(singleModelJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-loaded:
		if c.Len() != 1 {
			t.Errorf("reloaded Len() = %d, want 1", c.Len())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after valid write")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(path, []byte(jsonCatalog), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded := make(chan *Catalog, 1)
	w := NewWatcher(path, nopLogger{}, func(c *Catalog) { loaded <- c })
	w.SetDebounce(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-loaded:
		t.Fatalf("unrelated file triggered reload: %+v", c)
	case <-time.After(300 * time.Millisecond):
	}
}

const singleModelJSON = `{"OutputDirectory": ".", "Models": [
  {"Model": "YB300", "ProbeType": "Temperature", "SetPoint": 115, "HardStart": 50, "MinimumOutputVoltage": 17}
]}`
