package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bft-labs/icmprog/internal/domain"
)

const unitID = "123456S123456789010D1234"

func TestRecordStore_CreateThenExists(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "records")
	s := NewRecordStore(dir)

	ok, err := s.Exists(ctx, unitID)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if ok {
		t.Fatal("Exists() = true before Create")
	}

	content := "YB180 ProbeType: Temperature SetPoint: 128 HardStart: 50 MinimumOutputVoltage: 17"
	if err := s.Create(ctx, unitID, content); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	ok, err = s.Exists(ctx, unitID)
	if err != nil || !ok {
		t.Fatalf("Exists() = %v, %v; want true, nil", ok, err)
	}

	data, err := os.ReadFile(filepath.Join(dir, unitID))
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	if string(data) != content {
		t.Errorf("record = %q, want %q", data, content)
	}

	if _, err := os.Stat(filepath.Join(dir, unitID+".tmp")); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestRecordStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore(t.TempDir())

	if err := s.Create(ctx, unitID, "first"); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(ctx, unitID, "second"); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(filepath.Join(s.Dir(), unitID))
	if string(data) != "second" {
		t.Errorf("record = %q, want second", data)
	}
}

func TestRecordStore_RejectsBadIDs(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore(t.TempDir())

	for _, id := range []string{"", ".", "..", "../escape", `a\b`, "a/b"} {
		t.Run(id, func(t *testing.T) {
			if _, err := s.Exists(ctx, id); !errors.Is(err, domain.ErrInvalidUnitID) {
				t.Errorf("Exists(%q) error = %v, want ErrInvalidUnitID", id, err)
			}
			if err := s.Create(ctx, id, "x"); !errors.Is(err, domain.ErrInvalidUnitID) {
				t.Errorf("Create(%q) error = %v, want ErrInvalidUnitID", id, err)
			}
		})
	}
}

func TestNewRecordStore_DefaultDir(t *testing.T) {
	if got := NewRecordStore("").Dir(); got != "." {
		t.Errorf("Dir() = %q, want .", got)
	}
}
