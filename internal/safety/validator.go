package safety

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shellsentry/shellsentry/internal/basic"
	"github.com/shellsentry/shellsentry/internal/behavior"
	"github.com/shellsentry/shellsentry/internal/shellparse"
	"github.com/shellsentry/shellsentry/internal/signature"
)

// AdvancedValidator layers behavioral, contextual, chain, and adaptive
// analysis on top of a basic pattern classifier. It is safe for concurrent
// use; analysis never returns an error, only an assessment.
type AdvancedValidator struct {
	cfg      Config
	provider basic.Provider
	pack     *behavior.Pack

	behavioral  *behavioralAnalyzer
	contextEval *contextEvaluator
	chain       *chainAnalyzer

	learning *learningStore
	cache    *resultCache
	stats    *statsTracker
}

// Option customizes a validator at construction time.
type Option func(*AdvancedValidator)

// WithProvider swaps the basic classifier, mainly for tests.
func WithProvider(p basic.Provider) Option {
	return func(v *AdvancedValidator) { v.provider = p }
}

// WithPack replaces the detector vocabulary.
func WithPack(pack *behavior.Pack) Option {
	return func(v *AdvancedValidator) { v.pack = pack }
}

// New builds a validator for the given config. The only error is a config
// validation failure, wrapped around ErrInvalidConfig.
func New(cfg Config, opts ...Option) (*AdvancedValidator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	v := &AdvancedValidator{
		cfg:      cfg,
		provider: basic.NewValidator(),
		pack:     behavior.Builtin(),
		learning: newLearningStore(),
		cache:    newResultCache(),
		stats:    &statsTracker{},
	}
	for _, opt := range opts {
		opt(v)
	}

	v.behavioral = &behavioralAnalyzer{pack: v.pack, threshold: cfg.MLConfidenceThreshold}
	v.contextEval = &contextEvaluator{pack: v.pack}
	v.chain = &chainAnalyzer{pack: v.pack}
	return v, nil
}

// Config returns a copy of the active configuration.
func (v *AdvancedValidator) Config() Config { return v.cfg }

// AnalyzeCommand runs the full pipeline over a single command. vctx may be
// nil; a nil context skips contextual evaluation without error.
func (v *AdvancedValidator) AnalyzeCommand(command string, shell basic.ShellKind, vctx *ValidationContext) Result {
	start := time.Now()
	sig := signature.For(command)
	key := cacheKey(command, shell, vctx)

	if cached, ok := v.cache.get(key); ok {
		cached.AnalysisTimeMS = elapsedMS(start)
		v.stats.record(cached.AnalysisTimeMS, !cached.Basic.Allowed)
		return cached
	}

	basicRes := v.provider.Validate(command, shell)
	result := Result{
		Basic:       basicRes,
		ThreatLevel: threatFromRisk(basicRes.RiskLevel),
	}
	parsed := shellparse.Parse(command)

	var learned learnedEntry
	var hasLearned bool
	if v.cfg.EnableAdaptiveLearning {
		learned, hasLearned = v.learning.lookup(sig)
	}

	if v.cfg.EnableMLAnalysis {
		bias := biasNone
		if hasLearned && learned.Feedback == FeedbackFalsePositive {
			// Dampening grows with how often the false positive was confirmed.
			bias = biasNone - fpBiasScale*learned.Confidence
		}
		rep := v.behavioral.score(command, parsed, bias)
		result.MLScores = rep.scores
		result.BehavioralPatterns = rep.patterns
		result.BehavioralWarnings = rep.warnings
		result.ThreatLevel = maxLevel(result.ThreatLevel, behavioralLevel(rep))

		// Basic classifier hits on privilege rules surface as a pattern too.
		if !result.HasPattern(PrivilegeEscalation) && mentionsPrivilege(basicRes.MatchedPatterns) {
			result.BehavioralPatterns = append(result.BehavioralPatterns, PrivilegeEscalation)
		}
	}

	if v.cfg.EnableContextAnalysis && vctx != nil {
		floor, warnings := v.contextEval.evaluate(command, parsed, vctx)
		result.ContextualWarnings = append(result.ContextualWarnings, warnings...)
		result.ThreatLevel = maxLevel(result.ThreatLevel, floor)
	}

	if v.cfg.EnableThreatIntel {
		if warnings := checkIntel(strings.ToLower(command), v.pack); len(warnings) > 0 {
			result.ContextualWarnings = append(result.ContextualWarnings, warnings...)
			result.ThreatLevel = maxLevel(result.ThreatLevel, Concerning)
		}
	}

	if hasLearned {
		v.applyFeedback(&result, learned)
	}

	result.Recommendations = append(result.Recommendations, recommendationsFor(result.ThreatLevel)...)
	result.RequiresMonitoring = result.ThreatLevel >= High
	result.AnalysisTimeMS = elapsedMS(start)

	v.stats.record(result.AnalysisTimeMS, !basicRes.Allowed)
	v.cache.put(key, sig, result)
	return result
}

// AnalyzeChain analyzes a sequence of commands together. Each command is
// assessed individually first; chain signatures then raise the combined
// verdict, never lower it.
func (v *AdvancedValidator) AnalyzeChain(commands []string, shell basic.ShellKind) Result {
	if len(commands) == 0 {
		return v.AnalyzeCommand("", shell, nil)
	}

	start := time.Now()
	var worst Result
	for i, cmd := range commands {
		res := v.AnalyzeCommand(cmd, shell, nil)
		if i == 0 || res.ThreatLevel > worst.ThreatLevel {
			worst = res
		}
	}

	if !v.cfg.EnableChainAnalysis {
		return worst
	}

	// MaxChainLength bounds the signature scan only; every command in the
	// sequence gets the per-command assessment above.
	window := commands
	if len(window) > v.cfg.MaxChainLength {
		window = window[:v.cfg.MaxChainLength]
	}
	rep := v.chain.analyze(window)
	for _, p := range rep.patterns {
		if !worst.HasPattern(p) {
			worst.BehavioralPatterns = append(worst.BehavioralPatterns, p)
		}
	}
	worst.BehavioralWarnings = append(worst.BehavioralWarnings, rep.warnings...)

	if rep.floor > worst.ThreatLevel {
		worst.ThreatLevel = rep.floor
		worst.Recommendations = recommendationsFor(worst.ThreatLevel)
	}
	worst.RequiresMonitoring = worst.ThreatLevel >= High
	worst.AnalysisTimeMS = elapsedMS(start)
	return worst
}

// RecordFeedback stores a user verdict for the command's signature and
// evicts any cached results that signature produced. With adaptive learning
// disabled the feedback is accepted and discarded.
func (v *AdvancedValidator) RecordFeedback(command string, fb UserFeedback) error {
	if fb < FeedbackApproved || fb > FeedbackFalseNegative {
		return fmt.Errorf("%w: %d", ErrUnknownFeedback, int(fb))
	}
	if !v.cfg.EnableAdaptiveLearning {
		return nil
	}

	sig := signature.For(command)
	v.learning.record(sig, fb)
	v.cache.invalidateSignature(sig)
	return nil
}

// GetStatistics returns a snapshot of the running counters.
func (v *AdvancedValidator) GetStatistics() Statistics {
	return v.stats.snapshot()
}

func (v *AdvancedValidator) applyFeedback(result *Result, learned learnedEntry) {
	switch learned.Feedback {
	case FeedbackApproved:
		result.Recommendations = append(result.Recommendations,
			"Previously approved by user - consider allowing")
	case FeedbackRejected:
		result.Recommendations = append(result.Recommendations,
			"Previously rejected by user - block recommended")
		result.ThreatLevel = maxLevel(result.ThreatLevel, High)
	case FeedbackFalsePositive:
		result.Recommendations = append(result.Recommendations,
			"Previously flagged as false positive - reduce sensitivity")
	case FeedbackFalseNegative:
		result.Recommendations = append(result.Recommendations,
			"Previously reported as missed threat - increase scrutiny")
		result.ThreatLevel = maxLevel(result.ThreatLevel, Concerning)
	}
}

// behavioralLevel converts one behavioral report into a threat level.
// Exfiltration and persistence always clear High, as does any score above
// 0.8 whether or not the pattern itself was detected.
func behavioralLevel(rep behavioralReport) ThreatLevel {
	level := Safe

	for _, p := range rep.patterns {
		if p == DataExfiltration || p == PersistenceMechanism {
			level = maxLevel(level, High)
		}
	}
	for _, score := range rep.scores {
		switch {
		case score > 0.8:
			level = maxLevel(level, High)
		case score > 0.7:
			level = maxLevel(level, Concerning)
		case score > 0.5:
			level = maxLevel(level, Suspicious)
		}
	}
	switch {
	case len(rep.patterns) >= 2:
		level = maxLevel(level, Concerning)
	case len(rep.patterns) == 1:
		level = maxLevel(level, Suspicious)
	}
	return level
}

func recommendationsFor(level ThreatLevel) []string {
	switch level {
	case Critical:
		return []string{
			"Block this command",
			"Review the session for related activity",
		}
	case High:
		return []string{
			"Require explicit user confirmation before execution",
			"Log the full command for audit",
		}
	case Concerning:
		return []string{"Monitor execution closely"}
	case Suspicious:
		return []string{"Log for later review"}
	default:
		return nil
	}
}

func mentionsPrivilege(patterns []string) bool {
	for _, p := range patterns {
		lower := strings.ToLower(p)
		if strings.Contains(lower, "privilege") || strings.Contains(lower, "root") {
			return true
		}
	}
	return false
}

func cacheKey(command string, shell basic.ShellKind, vctx *ValidationContext) string {
	if vctx == nil {
		return command + "\x1f" + string(shell)
	}
	return command + "\x1f" + string(shell) + "\x1f" + contextDigest(vctx)
}

// contextDigest folds every context field that can influence analysis into a
// fixed-size key component, so two calls share a cache entry only when their
// contexts are interchangeable. Timestamp is excluded: the engine never reads
// it, and keying on it would make every context-bearing call a cache miss.
func contextDigest(vctx *ValidationContext) string {
	h := sha256.New()
	field := func(parts ...string) {
		for _, p := range parts {
			h.Write([]byte(p))
			h.Write([]byte{0x1f})
		}
	}

	p := vctx.UserPrivileges
	field(vctx.Cwd,
		strconv.FormatBool(p.IsRoot),
		strconv.FormatBool(p.HasSudo),
		strconv.Itoa(p.EffectiveUID),
		strconv.FormatBool(vctx.NetworkAvailable))
	field(p.Groups...)

	m := vctx.SystemMetrics
	field(strconv.FormatFloat(m.CPUUsage, 'g', -1, 64),
		strconv.FormatFloat(m.MemoryUsage, 'g', -1, 64),
		strconv.FormatFloat(m.DiskUsage, 'g', -1, 64),
		strconv.Itoa(m.ActiveConnections))

	field(vctx.CommandHistory...)

	env := make([]string, 0, len(vctx.Environment))
	for k, val := range vctx.Environment {
		env = append(env, k+"="+val)
	}
	sort.Strings(env)
	field(env...)

	return hex.EncodeToString(h.Sum(nil))
}

func elapsedMS(start time.Time) uint64 {
	ms := uint64(time.Since(start).Milliseconds())
	if ms == 0 {
		ms = 1
	}
	return ms
}
