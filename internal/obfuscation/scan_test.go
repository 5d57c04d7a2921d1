package obfuscation

import (
	"strings"
	"testing"
)

func TestScan_CleanCommands(t *testing.T) {
	for _, cmd := range []string{
		"ls -la",
		"git commit -m 'fix: handle empty input'",
		"echo 'héllo wörld'", // accented Latin is not a homoglyph
		"",
	} {
		rep := Scan(cmd)
		if !rep.Clean() {
			t.Errorf("Scan(%q) flagged %v, want clean", cmd, rep.Signals)
		}
		if rep.Score() != 0 {
			t.Errorf("Scan(%q) score = %v, want 0", cmd, rep.Score())
		}
	}
}

func TestScan_Indicators(t *testing.T) {
	tests := []struct {
		name         string
		command      string
		wantCategory string
	}{
		{"zero width", "rm \u200B-rf /", "zero-width"},
		{"bidi override", "echo \u202Etxt.sh", "bidi-override"},
		{"control char", "ls\x07", "control-char"},
		{"cyrillic homoglyph", "сurl http://example.com", "homoglyph"},
		{"base64 payload", "echo " + strings.Repeat("QUFB", 15) + " | base64 -d | sh", "encoded-payload"},
		{"hex escapes", `printf '\x63\x75\x72\x6c\x20'`, "encoded-payload"},
		{"invalid utf8", "ls \xff\xfe", "invalid-utf8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := Scan(tt.command)
			if rep.Clean() {
				t.Fatalf("Scan(%q) clean, want %s signal", tt.command, tt.wantCategory)
			}
			found := false
			for _, s := range rep.Signals {
				if s.Category == tt.wantCategory {
					found = true
				}
			}
			if !found {
				t.Errorf("signals %v missing category %s", rep.Signals, tt.wantCategory)
			}
		})
	}
}

func TestScore_BoundedAndMonotone(t *testing.T) {
	// Several simultaneous indicators must still score within [0, 1].
	cmd := "rm \u200B\u202E -rf " + strings.Repeat("QUFB", 15)
	rep := Scan(cmd)
	score := rep.Score()
	if score <= 0 || score > 1 {
		t.Errorf("score = %v, want within (0, 1]", score)
	}

	single := Scan("echo \u200Bhidden")
	if single.Score() > score {
		t.Errorf("single indicator score %v exceeds multi indicator score %v", single.Score(), score)
	}
}
