package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bft-labs/icmprog/internal/domain"
	"github.com/bft-labs/icmprog/internal/ports"
)

// DefaultReadTimeout bounds the wait for the device reply. The firmware
// pauses about a second and then performs the NFC write before answering.
const DefaultReadTimeout = 10 * time.Second

// maxReplyLen caps a reply line; the firmware never sends more than a few words.
const maxReplyLen = 256

// Programmer runs one write exchange with the device.
type Programmer interface {
	Program(ctx context.Context, frame domain.Frame) domain.Outcome
}

// Session performs single-attempt exchanges with the programmer. Every
// failure, including a panic in the transport, becomes an Outcome.
type Session struct {
	locator ports.PortLocator
	timeout time.Duration
	logger  ports.Logger
}

// NewSession creates a session. A non-positive timeout selects DefaultReadTimeout.
func NewSession(locator ports.PortLocator, timeout time.Duration, logger ports.Logger) *Session {
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	return &Session{locator: locator, timeout: timeout, logger: logger}
}

// Program opens the channel, sends the frame, reads one reply line and
// closes the channel.
func (s *Session) Program(ctx context.Context, frame domain.Frame) (out domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("programming exchange panicked", ports.Any("panic", r))
			out = domain.CommFailed(fmt.Errorf("unexpected failure: %v", r))
		}
	}()

	ch, err := s.locator.Locate(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrDeviceNotFound) || errors.Is(err, domain.ErrAmbiguousDevice) {
			s.logger.Warn("programmer not available", ports.Err(err))
			return domain.NotFound(err.Error())
		}
		s.logger.Warn("open programmer failed", ports.Err(err))
		return domain.CommFailed(err)
	}
	defer func() {
		if err := ch.Close(); err != nil {
			s.logger.Debug("close programmer", ports.Err(err))
		}
	}()

	return s.Exchange(ch, frame)
}

// Exchange runs the write protocol on an already-open channel.
func (s *Session) Exchange(ch ports.Channel, frame domain.Frame) (out domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("programming exchange panicked", ports.Any("panic", r))
			out = domain.CommFailed(fmt.Errorf("unexpected failure: %v", r))
		}
	}()

	if err := ch.SetReadTimeout(s.timeout); err != nil {
		return domain.CommFailed(fmt.Errorf("set read timeout: %w", err))
	}

	s.logger.Debug("sending frame", ports.String("frame", frame.String()))

	if _, err := ch.Write([]byte{domain.CommandProgram}); err != nil {
		return domain.CommFailed(fmt.Errorf("write command: %w", err))
	}
	if _, err := ch.Write(frame[:]); err != nil {
		return domain.CommFailed(fmt.Errorf("write frame: %w", err))
	}

	line, err := readLine(ch, s.timeout)
	if err != nil {
		return domain.CommFailed(err)
	}

	s.logger.Debug("device reply", ports.String("reply", line))

	if line == domain.ReplyPass {
		return domain.Succeeded()
	}
	return domain.Rejected(line)
}

// Query asks the device for its identity line.
func (s *Session) Query(ctx context.Context) (string, error) {
	ch, err := s.locator.Locate(ctx)
	if err != nil {
		return "", err
	}
	defer ch.Close()

	if err := ch.SetReadTimeout(s.timeout); err != nil {
		return "", fmt.Errorf("set read timeout: %w", err)
	}
	if _, err := ch.Write([]byte{domain.CommandQuery}); err != nil {
		return "", fmt.Errorf("write command: %w", err)
	}
	return readLine(ch, s.timeout)
}

// readLine reads up to a newline, giving up once timeout has elapsed.
// A trailing carriage return is dropped.
func readLine(r io.Reader, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	var sb strings.Builder
	buf := make([]byte, 1)

	for {
		n, err := r.Read(buf)
		if n == 1 {
			if buf[0] == '\n' {
				return strings.TrimSuffix(sb.String(), "\r"), nil
			}
			if sb.Len() >= maxReplyLen {
				return "", fmt.Errorf("reply longer than %d bytes", maxReplyLen)
			}
			sb.WriteByte(buf[0])
		}

		if err != nil {
			if errors.Is(err, domain.ErrReadTimeout) {
				return "", fmt.Errorf("no reply after %s: %w", timeout, err)
			}
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("link closed before reply: %w", err)
			}
			return "", fmt.Errorf("read reply: %w", err)
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("no reply after %s: %w", timeout, domain.ErrReadTimeout)
		}
	}
}
