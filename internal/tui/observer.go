package tui

import "github.com/bft-labs/icmprog/internal/app"

// ChanObserver forwards station snapshots to a channel without blocking the
// station loop. When the reader falls behind, older snapshots are dropped.
type ChanObserver struct {
	ch chan app.Snapshot
}

// NewChanObserver creates an observer buffering up to size snapshots.
func NewChanObserver(size int) *ChanObserver {
	if size <= 0 {
		size = 16
	}
	return &ChanObserver{ch: make(chan app.Snapshot, size)}
}

// OnSnapshot implements app.Observer.
func (o *ChanObserver) OnSnapshot(s app.Snapshot) {
	for {
		select {
		case o.ch <- s:
			return
		default:
		}
		select {
		case <-o.ch:
		default:
		}
	}
}

// C returns the snapshot channel.
func (o *ChanObserver) C() <-chan app.Snapshot {
	return o.ch
}
