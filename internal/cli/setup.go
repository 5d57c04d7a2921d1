package cli

import (
	"fmt"
	"strings"

	"github.com/shellsentry/shellsentry/internal/audit"
	"github.com/shellsentry/shellsentry/internal/basic"
	"github.com/shellsentry/shellsentry/internal/behavior"
	"github.com/shellsentry/shellsentry/internal/config"
	"github.com/shellsentry/shellsentry/internal/safety"
)

// session bundles the objects every command needs: resolved config, a
// validator built from the active profile and pack, and the audit trail.
type session struct {
	cfg       *config.Config
	validator *safety.AdvancedValidator
	logger    *audit.Logger
}

func newSession() (*session, error) {
	cfg, err := config.Load(packPath, logPath, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	pack, err := behavior.Load(cfg.PackPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load behavior pack: %w", err)
	}

	validator, err := safety.New(cfg.Validator, safety.WithPack(pack))
	if err != nil {
		return nil, fmt.Errorf("failed to build validator: %w", err)
	}

	logger, err := audit.New(cfg.LogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	return &session{cfg: cfg, validator: validator, logger: logger}, nil
}

func (s *session) close() {
	if s.logger != nil {
		s.logger.Close()
	}
}

func shellKind() basic.ShellKind {
	switch strings.ToLower(shell) {
	case "zsh":
		return basic.ShellZsh
	case "sh":
		return basic.ShellSh
	case "fish":
		return basic.ShellFish
	case "powershell", "pwsh":
		return basic.ShellPowerShell
	default:
		return basic.ShellBash
	}
}

func patternStrings(res safety.Result) []string {
	out := make([]string, 0, len(res.BehavioralPatterns))
	for _, p := range res.BehavioralPatterns {
		out = append(out, string(p))
	}
	return out
}

func levelIcon(level safety.ThreatLevel) string {
	switch {
	case level >= safety.High:
		return "✗"
	case level >= safety.Concerning:
		return "⚠"
	default:
		return "✓"
	}
}
