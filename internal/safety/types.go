// Package safety implements the advanced command-safety validation engine:
// behavioral scoring, context-sensitive escalation, attack-chain detection,
// and adaptive learning from user feedback, layered on top of the basic
// pattern classifier. The entry point is AdvancedValidator.
package safety

import (
	"fmt"

	"github.com/shellsentry/shellsentry/internal/basic"
)

// ThreatLevel is the ordered severity classification of a command. The order
// is load-bearing: escalation logic only ever raises the level within one
// analysis pass.
type ThreatLevel int

const (
	Safe ThreatLevel = iota
	Suspicious
	Concerning
	High
	Critical
)

func (t ThreatLevel) String() string {
	switch t {
	case Safe:
		return "safe"
	case Suspicious:
		return "suspicious"
	case Concerning:
		return "concerning"
	case High:
		return "high"
	case Critical:
		return "critical"
	default:
		return fmt.Sprintf("threatlevel(%d)", int(t))
	}
}

func maxLevel(a, b ThreatLevel) ThreatLevel {
	if b > a {
		return b
	}
	return a
}

// threatFromRisk maps the basic classifier's risk level onto the advanced
// threat scale.
func threatFromRisk(r basic.RiskLevel) ThreatLevel {
	switch r {
	case basic.RiskSafe:
		return Safe
	case basic.RiskModerate:
		return Suspicious
	case basic.RiskHigh:
		return High
	case basic.RiskCritical:
		return Critical
	default:
		return Suspicious
	}
}

// BehavioralPattern names a category of suspicious intent, independent of
// severity. A command may exhibit zero or several.
type BehavioralPattern string

const (
	DataExfiltration     BehavioralPattern = "data_exfiltration"
	SystemReconnaissance BehavioralPattern = "reconnaissance"
	PersistenceMechanism BehavioralPattern = "persistence"
	PrivilegeEscalation  BehavioralPattern = "privilege_escalation"
	CredentialAccess     BehavioralPattern = "credential_access"
	DefenseEvasion       BehavioralPattern = "defense_evasion"
)

// UserPrivileges describes the privileges the command would run with.
type UserPrivileges struct {
	IsRoot       bool
	HasSudo      bool
	Groups       []string
	EffectiveUID int
}

// SystemMetrics is a point-in-time resource snapshot, each usage in 0–100.
type SystemMetrics struct {
	CPUUsage          float64
	MemoryUsage       float64
	DiskUsage         float64
	ActiveConnections int
}

// ValidationContext is optional caller-supplied execution context. It is
// read-only to the engine: no field is ever mutated during analysis.
type ValidationContext struct {
	Cwd              string
	Environment      map[string]string
	CommandHistory   []string
	UserPrivileges   UserPrivileges
	NetworkAvailable bool
	SystemMetrics    SystemMetrics
	Timestamp        int64
}

// Result is the engine's sole output type.
type Result struct {
	// Basic is the pass-through result from the pattern classifier.
	Basic basic.Result

	ThreatLevel        ThreatLevel
	BehavioralPatterns []BehavioralPattern
	ContextualWarnings []string
	BehavioralWarnings []string

	// MLScores maps lowercase category names to confidence in [0, 1].
	// Empty when behavioral analysis is disabled.
	MLScores map[string]float64

	Recommendations    []string
	RequiresMonitoring bool

	// AnalysisTimeMS is the wall time of this analysis, always > 0.
	AnalysisTimeMS uint64
}

// HasPattern reports whether the result carries a behavioral pattern.
func (r *Result) HasPattern(p BehavioralPattern) bool {
	for _, have := range r.BehavioralPatterns {
		if have == p {
			return true
		}
	}
	return false
}

// UserFeedback is a verdict a user recorded about a prior assessment.
type UserFeedback int

const (
	// FeedbackApproved confirms the command was safe to run.
	FeedbackApproved UserFeedback = iota
	// FeedbackRejected confirms the command was dangerous.
	FeedbackRejected
	// FeedbackFalsePositive reports a safe command that was flagged.
	FeedbackFalsePositive
	// FeedbackFalseNegative reports a dangerous command that was missed.
	FeedbackFalseNegative
)

func (f UserFeedback) String() string {
	switch f {
	case FeedbackApproved:
		return "approved"
	case FeedbackRejected:
		return "rejected"
	case FeedbackFalsePositive:
		return "false_positive"
	case FeedbackFalseNegative:
		return "false_negative"
	default:
		return fmt.Sprintf("feedback(%d)", int(f))
	}
}

// Statistics is a snapshot of the validator's running counters.
type Statistics struct {
	TotalCommands         uint64
	BlockedCommands       uint64
	AverageAnalysisTimeMS float64
}
