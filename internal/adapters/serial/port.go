// Package serial connects the programming session to the programmer's
// virtual COM port.
package serial

import (
	"errors"
	"fmt"
	"time"

	bugst "go.bug.st/serial"

	"github.com/bft-labs/icmprog/internal/domain"
)

// Port implements ports.Channel over an open serial port.
type Port struct {
	port bugst.Port
	name string
}

// NewPort wraps an open serial port.
func NewPort(p bugst.Port, name string) *Port {
	return &Port{port: p, name: name}
}

// Name returns the OS name of the port.
func (p *Port) Name() string {
	return p.name
}

// Read reads from the port. The library reports an expired read timeout as
// zero bytes with no error; that is returned as domain.ErrReadTimeout.
func (p *Port) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if err != nil {
		return n, fmt.Errorf("read %s: %w", p.name, err)
	}
	if n == 0 && len(b) > 0 {
		return 0, domain.ErrReadTimeout
	}
	return n, nil
}

// Write writes to the port.
func (p *Port) Write(b []byte) (int, error) {
	n, err := p.port.Write(b)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", p.name, err)
	}
	return n, nil
}

// SetReadTimeout bounds each Read call.
func (p *Port) SetReadTimeout(d time.Duration) error {
	return p.port.SetReadTimeout(d)
}

// Close releases the port.
func (p *Port) Close() error {
	return p.port.Close()
}

// Mode returns the line settings for the given baud rate: 8 data bits,
// no parity, one stop bit, no flow control.
func Mode(baud int) *bugst.Mode {
	return &bugst.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}
}

// OpenRaw opens a port without the timeout mapping, for the device emulator.
func OpenRaw(name string, baud int) (bugst.Port, error) {
	p, err := bugst.Open(name, Mode(baud))
	if err != nil {
		return nil, classifyOpenError(name, err)
	}
	return p, nil
}

func classifyOpenError(name string, err error) error {
	if code, ok := portErrorCode(err); ok && code == bugst.PortNotFound {
		return fmt.Errorf("open %s: %w", name, domain.ErrDeviceNotFound)
	}
	return fmt.Errorf("open %s: %w", name, err)
}

func portErrorCode(err error) (bugst.PortErrorCode, bool) {
	var pv bugst.PortError
	if errors.As(err, &pv) {
		return pv.Code(), true
	}
	var pp *bugst.PortError
	if errors.As(err, &pp) && pp != nil {
		return pp.Code(), true
	}
	return 0, false
}
