package llm

import "testing"

func TestWordWrap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{"empty", "", 10, ""},
		{"fits", "HELLO WORLD", 22, "HELLO WORLD"},
		{"wraps", "THE QUICK BROWN FOX JUMPS", 10, "THE QUICK\nBROWN FOX\nJUMPS"},
		{"long word kept whole", "EXTRAORDINARY", 5, "EXTRAORDINARY"},
		{"zero width passthrough", "A B C", 0, "A B C"},
		{"existing newlines kept", "A\nB C", 10, "A\nB C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WordWrap(tt.text, tt.width); got != tt.want {
				t.Errorf("WordWrap(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

func TestTruncateForLog(t *testing.T) {
	if got := TruncateForLog("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := TruncateForLog("a longer line of text", 8); got != "a longer..." {
		t.Errorf("got %q", got)
	}
	if got := TruncateForLog("multi\nline", 20); got != "multi line" {
		t.Errorf("got %q", got)
	}
}
