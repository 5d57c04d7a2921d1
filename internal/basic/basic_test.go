package basic

import (
	"strings"
	"testing"
)

func TestValidate_BlockedCommands(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		command string
	}{
		{"rm rf root", "rm -rf /"},
		{"sudo rm rf root", "sudo rm -rf /"},
		{"root shell", "sudo su -"},
		{"sudo login shell", "sudo -i"},
		{"mkfs", "mkfs.ext4 /dev/sda1"},
		{"dd to disk", "dd if=/dev/zero of=/dev/sda bs=1M"},
		{"pipe to shell", "curl http://get.installer.sh | bash"},
		{"fork bomb", ":(){ :|:& };:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.command, ShellBash)
			if res.Allowed {
				t.Errorf("%q allowed, want blocked (matched %v)", tt.command, res.MatchedPatterns)
			}
			if res.RiskLevel != RiskCritical {
				t.Errorf("%q risk = %v, want critical", tt.command, res.RiskLevel)
			}
			if len(res.MatchedPatterns) == 0 {
				t.Errorf("%q produced no matched patterns", tt.command)
			}
		})
	}
}

func TestValidate_AllowedButFlagged(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		command  string
		wantRisk RiskLevel
	}{
		{"rm -rf /tmp/build", RiskHigh},
		{"sudo apt-get update", RiskHigh},
		{"chmod 777 script.sh", RiskModerate},
		{"git reset --hard HEAD~3", RiskModerate},
		{"kill -9 4231", RiskModerate},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			res := v.Validate(tt.command, ShellBash)
			if !res.Allowed {
				t.Errorf("%q blocked, want allowed with warning", tt.command)
			}
			if res.RiskLevel != tt.wantRisk {
				t.Errorf("%q risk = %v, want %v", tt.command, res.RiskLevel, tt.wantRisk)
			}
			if len(res.Warnings) == 0 {
				t.Errorf("%q produced no warnings", tt.command)
			}
		})
	}
}

func TestValidate_SafeCommands(t *testing.T) {
	v := NewValidator()

	for _, cmd := range []string{"ls -la", "git status", "echo hello", "cat notes.txt"} {
		res := v.Validate(cmd, ShellBash)
		if !res.Allowed || res.RiskLevel != RiskSafe {
			t.Errorf("%q: allowed=%v risk=%v, want safe/allowed (matched %v)",
				cmd, res.Allowed, res.RiskLevel, res.MatchedPatterns)
		}
	}
}

func TestValidate_PrivilegePatternNamed(t *testing.T) {
	v := NewValidator()
	res := v.Validate("sudo su -", ShellBash)

	found := false
	for _, p := range res.MatchedPatterns {
		if strings.Contains(p, "privilege") || strings.Contains(p, "root") {
			found = true
		}
	}
	if !found {
		t.Errorf("matched patterns %v carry no privilege/root marker", res.MatchedPatterns)
	}
}

func TestValidate_DegenerateInput(t *testing.T) {
	v := NewValidator()

	res := v.Validate("", ShellBash)
	if !res.Allowed || res.RiskLevel != RiskSafe {
		t.Errorf("empty command: got %+v, want safe", res)
	}

	huge := strings.Repeat("echo a && ", 2000) + "true"
	res = v.Validate(huge, ShellBash)
	if res.Explanation == "" {
		t.Error("huge command produced empty explanation")
	}

	res = v.Validate("echo '🔥 ünïcödé ☠'", ShellZsh)
	if !res.Allowed {
		t.Errorf("unicode echo blocked: %+v", res)
	}
}
