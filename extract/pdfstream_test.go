package extract

import (
	"strings"
	"testing"
)

func TestStreamText_Operators(t *testing.T) {
	data := []byte("BT\n/F1 12 Tf\n72 720 Td\n(Hello) Tj\n(World) Tj\nET")
	got := streamText(data)
	if !strings.Contains(got, "Hello") || !strings.Contains(got, "World") {
		t.Fatalf("streamText = %q", got)
	}
}

func TestStreamText_NextLineOperator(t *testing.T) {
	data := []byte("(first) Tj\nT*\n(second) '")
	got := streamText(data)
	if !strings.Contains(got, "\n") {
		t.Fatalf("expected line break preserved, got %q", got)
	}
	if !strings.Contains(got, "second") {
		t.Fatalf("quote operator text missing: %q", got)
	}
}

func TestDecodePDFString_Escapes(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`plain`, "plain"},
		{`a\(b\)c`, "a(b)c"},
		{`tab\there`, "tab\there"},
		{`back\\slash`, `back\slash`},
		{`oct\040al`, "oct al"}, // \040 = space
	}
	for _, tt := range tests {
		if got := decodePDFString([]byte(tt.raw)); got != tt.want {
			t.Errorf("decodePDFString(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestCleanStreamText(t *testing.T) {
	got := cleanStreamText("a    b\n\nc\td")
	if got != "a b\n\nc d" {
		t.Fatalf("cleanStreamText = %q, want %q", got, "a b\n\nc d")
	}
}
