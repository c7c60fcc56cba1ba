package textutil

import (
	"strings"
	"testing"
)

func TestSanitizePathSegment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Face/Off", "Face-Off"},
		{"  AC\\DC Live ", "AC-DC Live"},
		{"Star Wars: Episode IV", "Star Wars: Episode IV"},
		{"../escape", "-escape"},
		{"..", ""},
	}
	for _, tt := range tests {
		got := SanitizePathSegment(tt.in)
		if got != tt.want {
			t.Fatalf("SanitizePathSegment(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if strings.ContainsAny(got, "/\\") {
			t.Fatalf("separator survived in %q", got)
		}
	}
}

func TestStripTags(t *testing.T) {
	got := StripTags("<p>A <b>bold</b>\n show &amp; more</p>")
	if got != "A bold show & more" {
		t.Fatalf("unexpected result %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 4); got != "a..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Fatalf("short strings should pass through, got %q", got)
	}
	if got := Truncate("héllo", 2); got != "hé" {
		t.Fatalf("expected rune-safe cut, got %q", got)
	}
}
