// Package scanner accumulates keyboard-wedge barcode input.
//
// Hand scanners on the line type each character as a key press and finish
// with Enter. Only letters and digits are kept; letters are upper-cased.
package scanner

import "strings"

// MaxLen bounds the buffer so a stuck key cannot grow it without limit.
const MaxLen = 64

// Buffer collects one scan at a time. The zero value is ready to use.
type Buffer struct {
	sb strings.Builder
}

// Feed appends r if it is a letter or digit and reports whether it was kept.
func (b *Buffer) Feed(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
	case r >= 'a' && r <= 'z':
		r -= 'a' - 'A'
	default:
		return false
	}
	if b.sb.Len() >= MaxLen {
		return false
	}
	b.sb.WriteRune(r)
	return true
}

// FeedString feeds every rune of s.
func (b *Buffer) FeedString(s string) {
	for _, r := range s {
		b.Feed(r)
	}
}

// Terminate returns the accumulated scan and clears the buffer.
func (b *Buffer) Terminate() string {
	s := b.sb.String()
	b.sb.Reset()
	return s
}

// Reset discards any partial scan.
func (b *Buffer) Reset() {
	b.sb.Reset()
}

// Len returns the number of buffered characters.
func (b *Buffer) Len() int {
	return b.sb.Len()
}

// String returns the partial scan without clearing it.
func (b *Buffer) String() string {
	return b.sb.String()
}
