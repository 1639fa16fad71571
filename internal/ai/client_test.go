package ai

import (
	"strings"
	"testing"
)

func TestTruncateShortTextUnchanged(t *testing.T) {
	if got := Truncate("hello", MaxReplyLength); got != "hello" {
		t.Fatalf("expected unchanged text, got %q", got)
	}
}

func TestTruncateCapsLength(t *testing.T) {
	long := strings.Repeat("x", MaxReplyLength+500)
	got := Truncate(long, MaxReplyLength)
	if len([]rune(got)) != MaxReplyLength {
		t.Fatalf("expected %d runes, got %d", MaxReplyLength, len([]rune(got)))
	}
}

func TestTruncateRuneSafe(t *testing.T) {
	text := strings.Repeat("é", 10)
	got := Truncate(text, 4)
	if got != "éééé" {
		t.Fatalf("expected 4 runes, got %q", got)
	}
}
