package serial

import (
	"context"
	"errors"
	"testing"
	"time"

	bugst "go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/bft-labs/icmprog/internal/domain"
	"github.com/bft-labs/icmprog/internal/ports"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...ports.Field) {}
func (nopLogger) Info(string, ...ports.Field)  {}
func (nopLogger) Warn(string, ...ports.Field)  {}
func (nopLogger) Error(string, ...ports.Field) {}

// fakePort implements bugst.Port with scripted reads.
type fakePort struct {
	bugst.Port
	reads   [][]byte
	written []byte
	timeout time.Duration
	closed  bool
}

func (f *fakePort) Read(b []byte) (int, error) {
	if len(f.reads) == 0 {
		return 0, nil
	}
	n := copy(b, f.reads[0])
	f.reads = f.reads[1:]
	return n, nil
}

func (f *fakePort) Write(b []byte) (int, error) {
	f.written = append(f.written, b...)
	return len(b), nil
}

func (f *fakePort) SetReadTimeout(d time.Duration) error {
	f.timeout = d
	return nil
}

func (f *fakePort) Close() error {
	f.closed = true
	return nil
}

func stlink(name string) *enumerator.PortDetails {
	return &enumerator.PortDetails{Name: name, IsUSB: true, VID: "0483", PID: "374b", Product: "STM32 STLink"}
}

func newTestLocator(cfg Config, details []*enumerator.PortDetails) (*Locator, *[]string) {
	var opened []string
	l := NewLocator(cfg, nopLogger{})
	l.list = func() ([]*enumerator.PortDetails, error) { return details, nil }
	l.open = func(name string, mode *bugst.Mode) (bugst.Port, error) {
		opened = append(opened, name)
		return &fakePort{}, nil
	}
	return l, &opened
}

func TestLocator_SingleMatch(t *testing.T) {
	l, opened := newTestLocator(Config{Match: "stlink", BaudRate: 19200}, []*enumerator.PortDetails{
		{Name: "/dev/ttyS0"},
		stlink("/dev/ttyACM0"),
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "10c4", PID: "ea60", Product: "CP2102"},
	})

	ch, err := l.Locate(context.Background())
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if p := ch.(*Port); p.Name() != "/dev/ttyACM0" {
		t.Errorf("opened %s, want /dev/ttyACM0", p.Name())
	}
	if len(*opened) != 1 {
		t.Errorf("opened %v", *opened)
	}
}

func TestLocator_NoMatch(t *testing.T) {
	l, opened := newTestLocator(Config{Match: "stlink"}, []*enumerator.PortDetails{{Name: "/dev/ttyS0"}})

	_, err := l.Locate(context.Background())
	if !errors.Is(err, domain.ErrDeviceNotFound) {
		t.Errorf("Locate() error = %v, want ErrDeviceNotFound", err)
	}
	if len(*opened) != 0 {
		t.Error("a port was opened")
	}
}

func TestLocator_Ambiguous(t *testing.T) {
	l, opened := newTestLocator(Config{Match: "0483:374B"}, []*enumerator.PortDetails{
		stlink("/dev/ttyACM0"), stlink("/dev/ttyACM1"),
	})

	_, err := l.Locate(context.Background())
	if !errors.Is(err, domain.ErrAmbiguousDevice) {
		t.Errorf("Locate() error = %v, want ErrAmbiguousDevice", err)
	}
	if len(*opened) != 0 {
		t.Error("a port was opened")
	}
}

func TestLocator_ExplicitPortSkipsDiscovery(t *testing.T) {
	l, opened := newTestLocator(Config{PortName: "COM9", Match: "stlink"}, nil)
	l.list = func() ([]*enumerator.PortDetails, error) {
		t.Error("enumerator called with explicit port")
		return nil, nil
	}

	if _, err := l.Locate(context.Background()); err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if len(*opened) != 1 || (*opened)[0] != "COM9" {
		t.Errorf("opened %v, want [COM9]", *opened)
	}
}

func TestLocator_EnumerationError(t *testing.T) {
	l, _ := newTestLocator(Config{Match: "stlink"}, nil)
	l.list = func() ([]*enumerator.PortDetails, error) { return nil, errors.New("no sysfs") }

	_, err := l.Locate(context.Background())
	if err == nil || errors.Is(err, domain.ErrDeviceNotFound) {
		t.Errorf("Locate() error = %v, want enumeration failure", err)
	}
}

func TestMatches(t *testing.T) {
	info := PortInfo{Name: "/dev/ttyACM0", Product: "STM32 STLink", VIDPID: "0483:374B", SerialNumber: "066DFF"}

	tests := []struct {
		match string
		want  bool
	}{
		{"STLink", true},
		{"stlink", true},
		{"0483:374b", true},
		{"066dff", true},
		{"ttyACM0", true},
		{"CP210", false},
		{"", false},
		{"  ", false},
	}
	for _, tt := range tests {
		if got := Matches(info, tt.match); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.match, got, tt.want)
		}
	}
}

func TestPort_ReadTimeout(t *testing.T) {
	fp := &fakePort{reads: [][]byte{[]byte("PA"), []byte("SS\n")}}
	p := NewPort(fp, "test")
	buf := make([]byte, 8)

	if n, err := p.Read(buf); err != nil || string(buf[:n]) != "PA" {
		t.Fatalf("Read() = %q, %v", buf[:n], err)
	}
	if n, err := p.Read(buf); err != nil || string(buf[:n]) != "SS\n" {
		t.Fatalf("Read() = %q, %v", buf[:n], err)
	}
	if _, err := p.Read(buf); !errors.Is(err, domain.ErrReadTimeout) {
		t.Errorf("Read() error = %v, want ErrReadTimeout", err)
	}
}

func TestPort_Delegates(t *testing.T) {
	fp := &fakePort{}
	p := NewPort(fp, "test")

	if err := p.SetReadTimeout(3 * time.Second); err != nil || fp.timeout != 3*time.Second {
		t.Errorf("SetReadTimeout: %v %v", err, fp.timeout)
	}
	if _, err := p.Write([]byte{'P'}); err != nil || string(fp.written) != "P" {
		t.Errorf("Write: %v %q", err, fp.written)
	}
	if err := p.Close(); err != nil || !fp.closed {
		t.Errorf("Close: %v %v", err, fp.closed)
	}
}

func TestMode(t *testing.T) {
	m := Mode(19200)
	if m.BaudRate != 19200 || m.DataBits != 8 || m.Parity != bugst.NoParity || m.StopBits != bugst.OneStopBit {
		t.Errorf("Mode() = %+v", m)
	}
}
