// Package basic is the deterministic first-pass classifier: a severity-ranked
// regex rule table that assigns a risk level and the list of matched pattern
// names for a command. The advanced validator builds on top of this result;
// the basic layer itself has no state and no heuristics.
package basic

import "fmt"

// RiskLevel is the basic classification of a command.
type RiskLevel int

const (
	RiskSafe RiskLevel = iota
	RiskModerate
	RiskHigh
	RiskCritical
)

func (r RiskLevel) String() string {
	switch r {
	case RiskSafe:
		return "safe"
	case RiskModerate:
		return "moderate"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return fmt.Sprintf("risklevel(%d)", int(r))
	}
}

// ShellKind identifies the shell a command is generated for. Classification
// is shell-aware only at the key level: results are cached and reported per
// (command, shell) pair.
type ShellKind string

const (
	ShellBash       ShellKind = "bash"
	ShellZsh        ShellKind = "zsh"
	ShellSh         ShellKind = "sh"
	ShellFish       ShellKind = "fish"
	ShellPowerShell ShellKind = "powershell"
)

// Result is the basic classification output.
type Result struct {
	Allowed         bool
	RiskLevel       RiskLevel
	Explanation     string
	Warnings        []string
	MatchedPatterns []string
	ConfidenceScore float64
}

// Provider classifies a command for a shell. The advanced validator depends
// on this interface so tests can substitute a stub.
type Provider interface {
	Validate(command string, shell ShellKind) Result
}

// Validator is the built-in Provider: an ordered rule table where the
// highest-severity match decides the outcome and every match is reported.
type Validator struct {
	rules []rule
}

// NewValidator returns a Validator with the built-in rule table.
func NewValidator() *Validator {
	return &Validator{rules: builtinRules()}
}

// Validate classifies a command. It accepts any string, including empty or
// arbitrarily large input, and always returns a well-formed Result.
func (v *Validator) Validate(command string, shell ShellKind) Result {
	if command == "" {
		return Result{
			Allowed:         true,
			RiskLevel:       RiskSafe,
			Explanation:     "Empty command",
			Warnings:        []string{},
			MatchedPatterns: []string{},
			ConfidenceScore: 1.0,
		}
	}

	res := Result{
		Allowed:         true,
		RiskLevel:       RiskSafe,
		Explanation:     "No dangerous patterns matched",
		Warnings:        []string{},
		MatchedPatterns: []string{},
		ConfidenceScore: 0.9,
	}

	for _, r := range v.rules {
		if !r.regex.MatchString(command) {
			continue
		}
		res.MatchedPatterns = append(res.MatchedPatterns, r.name)
		res.Warnings = append(res.Warnings, r.reason)
		if r.risk > res.RiskLevel {
			res.RiskLevel = r.risk
			res.Explanation = r.reason
		}
		if r.block {
			res.Allowed = false
		}
	}

	if len(res.MatchedPatterns) > 0 {
		res.ConfidenceScore = 0.95
	}
	return res
}
