package app

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/icmprog/internal/catalog"
	"github.com/bft-labs/icmprog/internal/device"
	"github.com/bft-labs/icmprog/internal/domain"
	"github.com/bft-labs/icmprog/internal/ports"
)

// memStore is an in-memory ports.RecordStore.
type memStore struct {
	mu      sync.Mutex
	records map[string]string
	err     error
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]string)}
}

func (m *memStore) Exists(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.records[id]
	return ok, nil
}

func (m *memStore) Create(ctx context.Context, id, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records[id] = content
	return nil
}

func (m *memStore) get(id string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.records[id]
	return v, ok
}

// fakeProgrammer returns a fixed outcome and counts calls. When release is
// set, Program blocks until it is closed.
type fakeProgrammer struct {
	mu      sync.Mutex
	calls   int
	frames  []domain.Frame
	outcome domain.Outcome
	release chan struct{}
}

func (f *fakeProgrammer) Program(ctx context.Context, frame domain.Frame) domain.Outcome {
	f.mu.Lock()
	f.calls++
	f.frames = append(f.frames, frame)
	release := f.release
	out := f.outcome
	f.mu.Unlock()

	if release != nil {
		<-release
	}
	return out
}

func (f *fakeProgrammer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// pipeChannel adapts one end of net.Pipe to ports.Channel.
type pipeChannel struct {
	net.Conn
	timeout time.Duration
}

func (p *pipeChannel) SetReadTimeout(d time.Duration) error {
	p.timeout = d
	return nil
}

func (p *pipeChannel) Read(b []byte) (int, error) {
	if p.timeout > 0 {
		_ = p.Conn.SetReadDeadline(time.Now().Add(p.timeout))
	}
	n, err := p.Conn.Read(b)
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return n, domain.ErrReadTimeout
	}
	return n, err
}

// emulatorLocator hands out a fresh pipe to a running emulator per Locate.
type emulatorLocator struct {
	emu *device.Emulator
	err error
}

func (l *emulatorLocator) Locate(ctx context.Context) (ports.Channel, error) {
	if l.err != nil {
		return nil, l.err
	}
	host, dev := net.Pipe()
	go func() {
		defer dev.Close()
		_ = l.emu.Serve(context.Background(), dev)
	}()
	return &pipeChannel{Conn: host}, nil
}

// silentLocator returns a channel whose far end never answers.
type silentLocator struct{}

func (silentLocator) Locate(ctx context.Context) (ports.Channel, error) {
	host, dev := net.Pipe()
	go func() {
		// Drain writes so the host side does not block.
		buf := make([]byte, 64)
		for {
			if _, err := dev.Read(buf); err != nil {
				return
			}
		}
	}()
	return &pipeChannel{Conn: host}, nil
}

// panicLocator panics while locating.
type panicLocator struct{}

func (panicLocator) Locate(ctx context.Context) (ports.Channel, error) {
	panic("driver fault")
}

// snapshotRecorder collects observer snapshots.
type snapshotRecorder struct {
	ch chan Snapshot
}

func newSnapshotRecorder() *snapshotRecorder {
	return &snapshotRecorder{ch: make(chan Snapshot, 256)}
}

func (r *snapshotRecorder) OnSnapshot(s Snapshot) {
	r.ch <- s
}

// waitFor returns the first snapshot satisfying pred.
func (r *snapshotRecorder) waitFor(t *testing.T, pred func(Snapshot) bool) Snapshot {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case s := <-r.ch:
			if pred(s) {
				return s
			}
		case <-timeout:
			t.Fatal("timed out waiting for snapshot")
			return Snapshot{}
		}
	}
}

func testCatalog(t *testing.T, check bool) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(".", check, []domain.Profile{
		{Model: "YB180", Probe: domain.ProbeTemperature, SetPoint: 128, HardStart: 50, MinimumOutput: 17},
		{Model: "YB240", Probe: domain.ProbeTemperature, SetPoint: 123, HardStart: 50, MinimumOutput: 17},
		{Model: "YB500", Probe: domain.ProbePressure, SetPoint: 300, HardStart: 10, MinimumOutput: 20},
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}
