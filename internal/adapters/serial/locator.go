package serial

import (
	"context"
	"fmt"
	"strings"

	bugst "go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/bft-labs/icmprog/internal/domain"
	"github.com/bft-labs/icmprog/internal/ports"
)

// Config selects and configures the programmer port.
type Config struct {
	// PortName opens this port directly and skips discovery
	PortName string

	// Match is a case-insensitive substring of the USB product
	// descriptor, VID:PID, serial number or port name
	Match string

	BaudRate int
}

// PortInfo describes one enumerated port.
type PortInfo struct {
	Name         string
	Product      string
	VIDPID       string
	SerialNumber string
	IsUSB        bool
	Matches      bool
}

// Locator implements ports.PortLocator.
type Locator struct {
	cfg    Config
	logger ports.Logger

	list func() ([]*enumerator.PortDetails, error)
	open func(name string, mode *bugst.Mode) (bugst.Port, error)
}

// NewLocator creates a locator for cfg.
func NewLocator(cfg Config, logger ports.Logger) *Locator {
	return &Locator{
		cfg:    cfg,
		logger: logger,
		list:   enumerator.GetDetailedPortsList,
		open:   bugst.Open,
	}
}

// Locate resolves exactly one port and opens it.
func (l *Locator) Locate(ctx context.Context) (ports.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := l.cfg.PortName
	if name == "" {
		var err error
		if name, err = l.resolve(); err != nil {
			return nil, err
		}
	}

	p, err := l.open(name, Mode(l.cfg.BaudRate))
	if err != nil {
		return nil, classifyOpenError(name, err)
	}

	l.logger.Debug("opened programmer port", ports.String("port", name), ports.Int("baud", l.cfg.BaudRate))
	return NewPort(p, name), nil
}

func (l *Locator) resolve() (string, error) {
	infos, err := l.ports()
	if err != nil {
		return "", err
	}

	var names []string
	for _, info := range infos {
		if info.Matches {
			names = append(names, info.Name)
		}
	}

	switch len(names) {
	case 0:
		return "", fmt.Errorf("no port matches %q: %w", l.cfg.Match, domain.ErrDeviceNotFound)
	case 1:
		return names[0], nil
	default:
		return "", fmt.Errorf("ports %s all match %q: %w", strings.Join(names, ", "), l.cfg.Match, domain.ErrAmbiguousDevice)
	}
}

// Ports lists the serial ports, marking the ones that match the configured
// descriptor.
func (l *Locator) Ports() ([]PortInfo, error) {
	return l.ports()
}

func (l *Locator) ports() ([]PortInfo, error) {
	details, err := l.list()
	if err != nil {
		return nil, fmt.Errorf("enumerate ports: %w", err)
	}

	infos := make([]PortInfo, 0, len(details))
	for _, d := range details {
		info := PortInfo{
			Name:         d.Name,
			Product:      d.Product,
			SerialNumber: d.SerialNumber,
			IsUSB:        d.IsUSB,
		}
		if d.IsUSB {
			info.VIDPID = strings.ToUpper(d.VID + ":" + d.PID)
		}
		info.Matches = Matches(info, l.cfg.Match)
		infos = append(infos, info)
	}
	return infos, nil
}

// Matches reports whether match is a case-insensitive substring of the
// port's product, VID:PID, serial number or name. An empty match never
// matches.
func Matches(info PortInfo, match string) bool {
	m := strings.ToLower(strings.TrimSpace(match))
	if m == "" {
		return false
	}
	for _, field := range []string{info.Product, info.VIDPID, info.SerialNumber, info.Name} {
		if field != "" && strings.Contains(strings.ToLower(field), m) {
			return true
		}
	}
	return false
}
