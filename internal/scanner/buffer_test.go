package scanner

import (
	"strings"
	"testing"
)

func TestBuffer_Feed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"letters and digits", "W123456S", "W123456S"},
		{"lowercase upcased", "abcYB300", "ABCYB300"},
		{"punctuation dropped", "AB-12 /yb\t", "AB12YB"},
		{"non ascii dropped", "ÄB1", "B1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Buffer
			b.FeedString(tt.input)
			if got := b.Terminate(); got != tt.want {
				t.Errorf("Terminate() = %q, want %q", got, tt.want)
			}
			if b.Len() != 0 {
				t.Errorf("Len() after Terminate = %d, want 0", b.Len())
			}
		})
	}
}

func TestBuffer_MaxLen(t *testing.T) {
	var b Buffer
	b.FeedString(strings.Repeat("A", MaxLen+10))
	if b.Len() != MaxLen {
		t.Errorf("Len() = %d, want %d", b.Len(), MaxLen)
	}
	if b.Feed('B') {
		t.Error("Feed() accepted a rune past MaxLen")
	}
}

func TestBuffer_Reset(t *testing.T) {
	var b Buffer
	b.FeedString("ABC")
	if b.String() != "ABC" {
		t.Errorf("String() = %q, want ABC", b.String())
	}
	b.Reset()
	if got := b.Terminate(); got != "" {
		t.Errorf("Terminate() after Reset = %q, want empty", got)
	}
}
