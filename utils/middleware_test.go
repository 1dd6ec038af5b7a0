package utils

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalizeOperator(t *testing.T) {
	if got := normalizeOperator(""); got != "recepcion" {
		t.Errorf("blank operator = %q, want recepcion", got)
	}
	if got := normalizeOperator("   "); got != "recepcion" {
		t.Errorf("whitespace operator = %q, want recepcion", got)
	}
	if got := normalizeOperator("  marta "); got != "marta" {
		t.Errorf("operator not trimmed: %q", got)
	}

	// Truncation must count runes, not bytes: a name of accented
	// characters is two bytes per rune.
	long := strings.Repeat("á", 100)
	got := normalizeOperator(long)
	if utf8.RuneCountInString(got) != 80 {
		t.Fatalf("expected 80 runes, got %d", utf8.RuneCountInString(got))
	}
	if !utf8.ValidString(got) {
		t.Fatal("truncated operator is not valid UTF-8")
	}

	short := "marta-recepción"
	if got := normalizeOperator(short); got != short {
		t.Errorf("short operator altered: %q", got)
	}
}
