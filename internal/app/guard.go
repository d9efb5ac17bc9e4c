package app

import (
	"context"
	"fmt"

	"github.com/bft-labs/icmprog/internal/domain"
	"github.com/bft-labs/icmprog/internal/ports"
)

// Guard consults the audit records before a write and adds one after a
// successful write.
type Guard struct {
	store  ports.RecordStore
	check  bool
	logger ports.Logger
}

// NewGuard creates a guard over store. With check off every unit is treated
// as new, but successful writes are still recorded.
func NewGuard(store ports.RecordStore, check bool, logger ports.Logger) *Guard {
	return &Guard{store: store, check: check, logger: logger}
}

// Checking reports whether duplicate detection is on.
func (g *Guard) Checking() bool {
	return g.check
}

// IsAlreadyProgrammed reports whether unitID has an audit record. A lookup
// failure is logged and reported as not programmed.
func (g *Guard) IsAlreadyProgrammed(ctx context.Context, unitID string) bool {
	if !g.check || g.store == nil {
		return false
	}

	ok, err := g.store.Exists(ctx, unitID)
	if err != nil {
		g.logger.Warn("audit record lookup failed",
			ports.String("unit", unitID),
			ports.Err(err),
		)
		return false
	}
	return ok
}

// RecordSuccess writes the audit record for a programmed unit.
func (g *Guard) RecordSuccess(ctx context.Context, unitID string, p domain.Profile) error {
	if g.store == nil {
		return nil
	}
	if err := g.store.Create(ctx, unitID, p.Summary()); err != nil {
		return fmt.Errorf("record %s: %w", unitID, err)
	}
	return nil
}
