package app

import (
	"context"
	"errors"
	"testing"

	"github.com/bft-labs/icmprog/internal/domain"
)

func TestGuard_CheckingOff(t *testing.T) {
	store := newMemStore()
	store.records["U1"] = "x"
	g := NewGuard(store, false, &mockLogger{})

	if g.IsAlreadyProgrammed(context.Background(), "U1") {
		t.Error("IsAlreadyProgrammed() = true with checking off")
	}
}

func TestGuard_CheckingOn(t *testing.T) {
	store := newMemStore()
	store.records["U1"] = "x"
	g := NewGuard(store, true, &mockLogger{})

	if !g.IsAlreadyProgrammed(context.Background(), "U1") {
		t.Error("IsAlreadyProgrammed(U1) = false, want true")
	}
	if g.IsAlreadyProgrammed(context.Background(), "U2") {
		t.Error("IsAlreadyProgrammed(U2) = true, want false")
	}
}

func TestGuard_LookupError(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("disk gone")
	g := NewGuard(store, true, &mockLogger{})

	if g.IsAlreadyProgrammed(context.Background(), "U1") {
		t.Error("IsAlreadyProgrammed() = true on lookup error")
	}
}

func TestGuard_RecordSuccess(t *testing.T) {
	store := newMemStore()
	g := NewGuard(store, false, &mockLogger{})
	p := domain.Profile{Model: "YB180", Probe: domain.ProbeTemperature, SetPoint: 128, HardStart: 50, MinimumOutput: 17}

	if err := g.RecordSuccess(context.Background(), "U1", p); err != nil {
		t.Fatalf("RecordSuccess() error = %v", err)
	}
	got, ok := store.get("U1")
	if !ok || got != p.Summary() {
		t.Errorf("record = %q, %v; want %q", got, ok, p.Summary())
	}

	store.err = errors.New("read-only")
	if err := g.RecordSuccess(context.Background(), "U2", p); err == nil {
		t.Error("RecordSuccess() error = nil on store failure")
	}
}
