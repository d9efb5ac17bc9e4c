// Package device emulates the ICM325A programmer firmware on the far side
// of a serial link, for tests and bench work without hardware.
package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bft-labs/icmprog/internal/domain"
)

// Replies sent by the programmer firmware.
const (
	ReplyPass        = domain.ReplyPass
	ReplyFail        = "FAIL"
	ReplyChecksumErr = "CHECKSUM_ERR"
	ReplyBadCommand  = "FAIL, invalid serial command"
	ReplyIdentity    = "ICM325A PROG"
)

// WriteFunc stands in for the NFC write to the module. Returning false
// makes the emulator answer FAIL.
type WriteFunc func(frame domain.Frame) bool

// Emulator answers program and query commands the way the firmware does.
type Emulator struct {
	mu       sync.Mutex
	write    WriteFunc
	last     domain.Frame
	hasLast  bool
	accepted int
}

// NewEmulator creates an emulator whose writes always succeed.
func NewEmulator() *Emulator {
	return &Emulator{write: func(domain.Frame) bool { return true }}
}

// SetWrite replaces the write hook.
func (e *Emulator) SetWrite(fn WriteFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.write = fn
}

// LastFrame returns the last frame that passed the checksum test.
func (e *Emulator) LastFrame() (domain.Frame, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last, e.hasLast
}

// Accepted returns the number of frames that passed the checksum test.
func (e *Emulator) Accepted() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.accepted
}

// Serve processes commands from rw until ctx is cancelled or the link
// closes. A closed link ends Serve with a nil error.
func (e *Emulator) Serve(ctx context.Context, rw io.ReadWriter) error {
	cmd := make([]byte, 1)
	for {
		if ctx.Err() != nil {
			return nil
		}

		if _, err := io.ReadFull(rw, cmd); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return fmt.Errorf("read command: %w", err)
		}

		if err := e.handle(rw, cmd[0]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return err
		}
	}
}

func (e *Emulator) handle(rw io.ReadWriter, cmd byte) error {
	switch cmd {
	case domain.CommandProgram:
		var f domain.Frame
		if _, err := io.ReadFull(rw, f[:]); err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		return reply(rw, e.program(f))
	case domain.CommandQuery:
		return reply(rw, ReplyIdentity)
	default:
		return reply(rw, ReplyBadCommand)
	}
}

func (e *Emulator) program(f domain.Frame) string {
	if !f.Verify() {
		return ReplyChecksumErr
	}

	e.mu.Lock()
	e.last = f
	e.hasLast = true
	e.accepted++
	write := e.write
	e.mu.Unlock()

	if !write(f) {
		return ReplyFail
	}
	return ReplyPass
}

func reply(w io.Writer, line string) error {
	if _, err := io.WriteString(w, line+"\n"); err != nil {
		return fmt.Errorf("write reply: %w", err)
	}
	return nil
}
