package model

import "testing"

func TestSanitizeXML_ReplacesDiscouraged(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"a\x01b", "a.b"},
		{"tab\tand\nnewline", "tab\tand\nnewline"},
		{"bell\x07", "bell."},
		{"\x0b\x0c", ".."},
		{"del\u007f", "del."},
		{"nel\u0085kept", "nel\u0085kept"},
		{"c1\u0090", "c1."},
		{"nonchar﷐", "nonchar."},
		{"plane1\U0001FFFE", "plane1."},
		{"last\U0010FFFF", "last."},
		{"héllo wörld 你好", "héllo wörld 你好"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeXML(tt.in); got != tt.want {
			t.Errorf("SanitizeXML(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeXML_PreservesOtherBytes(t *testing.T) {
	in := "prefix\x02middle\x1fsuffix"
	got := SanitizeXML(in)
	if got != "prefix.middle.suffix" {
		t.Fatalf("got %q", got)
	}
	if len(got) != len(in) {
		t.Errorf("ASCII replacements should keep the length: got %d, want %d", len(got), len(in))
	}
}

func TestSanitizeXML_InvalidUTF8Untouched(t *testing.T) {
	in := "bad\xffbyte"
	if got := SanitizeXML(in); got != in {
		t.Errorf("invalid UTF-8 bytes should pass through unchanged, got %q", got)
	}
}
