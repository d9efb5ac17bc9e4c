package ports

import (
	"context"
	"io"
	"time"
)

// Channel is an open duplex byte stream to the programmer.
// Serial ports opened by the serial adapter satisfy it.
type Channel interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds each Read call. A Read that times out returns
	// domain.ErrReadTimeout.
	SetReadTimeout(t time.Duration) error
}

// PortLocator resolves the channel to the programmer.
type PortLocator interface {
	// Locate opens the single matching channel.
	// Returns domain.ErrDeviceNotFound when nothing matches and
	// domain.ErrAmbiguousDevice when more than one candidate does.
	Locate(ctx context.Context) (Channel, error)
}
