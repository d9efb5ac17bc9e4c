package ports

import (
	"context"

	"github.com/bft-labs/icmprog/internal/domain"
)

// ResultPublisher ships finished programming attempts to line monitoring.
// Publishing is best effort; errors are logged by the caller and never
// change the outcome of an attempt.
type ResultPublisher interface {
	Publish(ctx context.Context, result domain.Result) error
}
