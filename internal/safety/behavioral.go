package safety

import (
	"path"
	"strings"

	"github.com/shellsentry/shellsentry/internal/behavior"
	"github.com/shellsentry/shellsentry/internal/obfuscation"
	"github.com/shellsentry/shellsentry/internal/shellparse"
)

// behavioralAnalyzer scores a command against the pack vocabulary, one
// detector per pattern category. Scores are confidences in [0, 1]; the
// threshold that turns a score into a detection belongs to the caller.
type behavioralAnalyzer struct {
	pack      *behavior.Pack
	threshold float64
}

// behavioralReport carries everything one scoring pass produced.
type behavioralReport struct {
	patterns []BehavioralPattern
	scores   map[string]float64
	warnings []string
}

// bias multipliers applied per learned signature, see validator.go.
const (
	biasNone    = 1.0
	fpBiasScale = 0.3
)

func (a *behavioralAnalyzer) score(command string, parsed *shellparse.Command, bias float64) behavioralReport {
	rep := behavioralReport{scores: make(map[string]float64)}
	lower := strings.ToLower(command)
	execs := lowerExecutables(parsed)

	detect := func(p BehavioralPattern, conf float64, warning string) {
		conf = clamp01(conf * bias)
		if conf <= 0 {
			return
		}
		rep.scores[string(p)] = conf
		if conf > a.threshold {
			rep.patterns = append(rep.patterns, p)
			rep.warnings = append(rep.warnings, warning)
		}
	}

	if conf := a.exfiltrationScore(lower, parsed, execs); conf > 0 {
		detect(DataExfiltration, conf,
			"Potential data exfiltration: local data is read and sent to a remote endpoint")
	}
	if conf := a.reconScore(lower, execs); conf > 0 {
		detect(SystemReconnaissance, conf,
			"System reconnaissance: multiple enumeration commands combined")
	}
	if conf := a.persistenceScore(lower, parsed); conf > 0 {
		detect(PersistenceMechanism, conf,
			"Persistence mechanism: command modifies an autostart surface")
	}
	if conf := a.escalationScore(lower, parsed, execs); conf > 0 {
		detect(PrivilegeEscalation, conf,
			"Privilege escalation: elevation combined with reconnaissance")
	}
	if conf := a.credentialScore(lower, execs); conf > 0 {
		detect(CredentialAccess, conf,
			"Credential access: command touches a secret store")
	}
	if conf := a.evasionScore(command, lower); conf > 0 {
		detect(DefenseEvasion, conf,
			"Defense evasion: obfuscated input or trace removal")
	}

	return rep
}

// exfiltrationScore looks for the read-then-egress shape: a data-collection
// primitive feeding an outbound transfer, stronger when sensitive paths or
// outbound markers appear.
func (a *behavioralAnalyzer) exfiltrationScore(lower string, parsed *shellparse.Command, execs []string) float64 {
	hasRead := anyPrimitive(lower, execs, a.pack.ReadPrimitives)
	hasEgress := anyPrimitive(lower, execs, a.pack.EgressPrimitives)
	if !hasRead && !hasEgress {
		return 0
	}

	var conf float64
	switch {
	case hasRead && hasEgress:
		conf = 0.6
		if parsed.HasOperator("|") {
			conf += 0.05
		}
	case hasEgress:
		// Egress alone only matters when it is clearly outbound.
		if !containsAny(lower, a.pack.OutboundMarkers) {
			return 0
		}
		conf = 0.45
	default:
		return 0
	}

	if containsAny(lower, a.pack.OutboundMarkers) {
		conf += 0.15
	}
	if containsAny(lower, a.pack.SensitivePaths) {
		conf += 0.15
	}
	return clamp01(conf)
}

// reconScore counts distinct enumeration primitives; one alone is routine,
// several in one line reads as footprinting.
func (a *behavioralAnalyzer) reconScore(lower string, execs []string) float64 {
	count := 0
	for _, prim := range a.pack.ReconPrimitives {
		if matchPrimitive(lower, execs, prim) {
			count++
		}
	}
	if count == 0 {
		return 0
	}
	conf := 0.35 + 0.25*float64(count-1)
	return clamp01(min(conf, 0.95))
}

func (a *behavioralAnalyzer) persistenceScore(lower string, parsed *shellparse.Command) float64 {
	for _, rc := range []string{".bashrc", ".zshrc", ".profile"} {
		if parsed.AppendsTo(rc) {
			return 0.85
		}
	}
	if containsAny(lower, a.pack.PersistenceSurfaces) {
		return 0.8
	}
	return 0
}

// escalationScore fires when elevation appears together with reconnaissance
// in the same input; bare sudo use is left to the basic classifier.
func (a *behavioralAnalyzer) escalationScore(lower string, parsed *shellparse.Command, execs []string) float64 {
	elevated := containsAny(lower, a.pack.ElevationPrimitives)
	if !elevated {
		for _, seg := range parsed.Segments {
			if seg.Sudo {
				elevated = true
				break
			}
		}
	}
	if !elevated {
		return 0
	}
	for _, prim := range a.pack.ReconPrimitives {
		if matchPrimitive(lower, execs, prim) {
			return 0.75
		}
	}
	return 0
}

func (a *behavioralAnalyzer) credentialScore(lower string, execs []string) float64 {
	if !containsAny(lower, a.pack.CredentialPaths) {
		return 0
	}
	if anyPrimitive(lower, execs, a.pack.ReadPrimitives) {
		return 0.85
	}
	return 0.7
}

func (a *behavioralAnalyzer) evasionScore(command, lower string) float64 {
	conf := obfuscation.Scan(command).Score()
	if strings.Contains(lower, "history -c") || strings.Contains(lower, "unset histfile") ||
		strings.Contains(lower, "shred ") {
		conf = max(conf, 0.7)
	}
	return clamp01(conf)
}

func anyPrimitive(lower string, execs []string, prims []string) bool {
	for _, prim := range prims {
		if matchPrimitive(lower, execs, prim) {
			return true
		}
	}
	return false
}

// matchPrimitive matches multiword primitives by substring and single-word
// primitives against segment executables, so "id" does not fire inside
// "docker" or "rapid".
func matchPrimitive(lower string, execs []string, prim string) bool {
	prim = strings.ToLower(strings.TrimSpace(prim))
	if prim == "" {
		return false
	}
	if strings.Contains(prim, " ") || strings.Contains(prim, "/") {
		return strings.Contains(lower, prim)
	}
	for _, e := range execs {
		if e == prim {
			return true
		}
	}
	return false
}

// containsAny does raw substring matching; trailing spaces in fragments are
// significant and act as crude word boundaries.
func containsAny(lower string, fragments []string) bool {
	for _, f := range fragments {
		if f != "" && strings.Contains(lower, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

func lowerExecutables(parsed *shellparse.Command) []string {
	execs := parsed.Executables()
	out := make([]string, 0, len(execs))
	for _, e := range execs {
		out = append(out, strings.ToLower(path.Base(e)))
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
