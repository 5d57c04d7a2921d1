package basic

import "regexp"

type rule struct {
	name   string
	reason string
	risk   RiskLevel
	block  bool
	regex  *regexp.Regexp
}

// builtinRules is the deterministic pattern table. Ordering does not matter:
// every matching rule is reported and the highest severity wins.
func builtinRules() []rule {
	return []rule{
		{
			name:   "filesystem-wipe",
			reason: "Recursive force delete at filesystem root",
			risk:   RiskCritical,
			block:  true,
			regex:  regexp.MustCompile(`(?i)\brm\s+(-[a-z]*r[a-z]*f|-[a-z]*f[a-z]*r)\s+(/\*?|/\s|/$)`),
		},
		{
			name:   "filesystem-format",
			reason: "Filesystem format command",
			risk:   RiskCritical,
			block:  true,
			regex:  regexp.MustCompile(`(?i)\bmkfs(\.[a-z0-9]+)?\b|\bwipefs\b`),
		},
		{
			name:   "raw-disk-write",
			reason: "Raw write to a block device",
			risk:   RiskCritical,
			block:  true,
			regex:  regexp.MustCompile(`(?i)\bdd\s+[^|]*of=/dev/(sd|hd|nvme|vd|xvd|md)`),
		},
		{
			name:   "fork-bomb",
			reason: "Fork bomb construct",
			risk:   RiskCritical,
			block:  true,
			regex:  regexp.MustCompile(`:\(\)\s*\{\s*:\|:&\s*\}\s*;?\s*:`),
		},
		{
			name:   "root-shell-privilege",
			reason: "Interactive root shell",
			risk:   RiskCritical,
			block:  true,
			regex:  regexp.MustCompile(`(?i)\bsudo\s+(su\b|-i\b|bash\b|sh\b)|\bsu\s+-\s*$|\bsu\s+root\b`),
		},
		{
			name:   "pipe-to-shell",
			reason: "Remote content piped directly into a shell",
			risk:   RiskCritical,
			block:  true,
			regex:  regexp.MustCompile(`(?i)\b(curl|wget)\b[^|]*\|\s*(sudo\s+)?(sh|bash|zsh|python3?|node)\b`),
		},
		{
			name:   "shell-history-wipe",
			reason: "Clearing shell history",
			risk:   RiskHigh,
			block:  false,
			regex:  regexp.MustCompile(`(?i)\bhistory\s+-c\b|>\s*~/\.bash_history`),
		},
		{
			name:   "privilege-escalation",
			reason: "Privilege escalation via sudo/su",
			risk:   RiskHigh,
			block:  false,
			regex:  regexp.MustCompile(`(?i)\bsudo\b|\bsu\b\s`),
		},
		{
			name:   "recursive-delete",
			reason: "Recursive force delete",
			risk:   RiskHigh,
			block:  false,
			regex:  regexp.MustCompile(`(?i)\brm\s+-[a-z]*r[a-z]*f|\brm\s+-[a-z]*f[a-z]*r`),
		},
		{
			name:   "system-power",
			reason: "System shutdown or reboot",
			risk:   RiskHigh,
			block:  false,
			regex:  regexp.MustCompile(`(?i)\b(shutdown|reboot|halt|poweroff)\b`),
		},
		{
			name:   "sensitive-file-read",
			reason: "Read of credential or shadow files",
			risk:   RiskHigh,
			block:  false,
			regex:  regexp.MustCompile(`(?i)/etc/(shadow|sudoers)\b|\.ssh/id_[a-z0-9]+|\.aws/credentials`),
		},
		{
			name:   "world-writable-chmod",
			reason: "chmod granting world-writable permissions",
			risk:   RiskModerate,
			block:  false,
			regex:  regexp.MustCompile(`(?i)\bchmod\s+(-[a-z]+\s+)?(0?777|a\+rwx)\b`),
		},
		{
			name:   "git-hard-reset",
			reason: "Destructive git reset",
			risk:   RiskModerate,
			block:  false,
			regex:  regexp.MustCompile(`(?i)\bgit\s+reset\s+--hard\b|\bgit\s+clean\s+-[a-z]*f`),
		},
		{
			name:   "crontab-modify",
			reason: "Scheduled-task modification",
			risk:   RiskModerate,
			block:  false,
			regex:  regexp.MustCompile(`(?i)\bcrontab\b\s+(-e\b|-\s|[^-])`),
		},
		{
			name:   "kill-force",
			reason: "Forced process termination",
			risk:   RiskModerate,
			block:  false,
			regex:  regexp.MustCompile(`(?i)\bkill\s+-9\b|\bkillall\b`),
		},
	}
}
