package domain

import (
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	// FrameSize is the fixed length of a command frame.
	FrameSize = 16

	// FunctionProgram identifies a parameter write.
	FunctionProgram = 201

	// CommandProgram is the marker byte sent ahead of a frame.
	CommandProgram = 'P'

	// CommandQuery asks the device for its identity line.
	CommandQuery = 'Q'

	// ReplyPass is the only reply accepted as a successful write.
	ReplyPass = "PASS"
)

// Frame is the wire encoding of one Profile.
//
//	0     checksum
//	1     function identifier (201)
//	2     probe flag (0 temperature, 1 pressure)
//	3..4  set point, big-endian
//	5     hard-start duration
//	6     minimum output level
//	7..15 reserved, zero
type Frame [FrameSize]byte

// Checksum returns the two's complement of the low byte of the sum of b.
// Appending it to b makes the byte sum zero modulo 256.
func Checksum(b []byte) byte {
	sum := 0
	for _, v := range b {
		sum += int(v)
	}
	return byte(^sum + 1)
}

// Encode builds the command frame for p. The profile is validated first;
// an invalid profile is never encoded.
func Encode(p Profile) (Frame, error) {
	var f Frame
	if err := p.Validate(); err != nil {
		return f, fmt.Errorf("encode: %w", err)
	}

	f[1] = FunctionProgram
	if p.Probe == ProbePressure {
		f[2] = 1
	}
	binary.BigEndian.PutUint16(f[3:5], uint16(p.SetPoint))
	f[5] = byte(p.HardStart)
	f[6] = byte(p.MinimumOutput)
	f[0] = Checksum(f[1:])

	return f, nil
}

// Verify reports whether the frame's byte sum is zero modulo 256.
func (f Frame) Verify() bool {
	var sum byte
	for _, b := range f {
		sum += b
	}
	return sum == 0
}

// String renders the frame as space-separated hex bytes.
func (f Frame) String() string {
	var sb strings.Builder
	for i, b := range f {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}
