package safety

import (
	"strings"

	"github.com/shellsentry/shellsentry/internal/behavior"
	"github.com/shellsentry/shellsentry/internal/shellparse"
)

// chainAnalyzer looks for multi-command attack shapes that no single command
// in the sequence exhibits on its own. Order matters for every signature.
type chainAnalyzer struct {
	pack *behavior.Pack
}

type chainReport struct {
	patterns []BehavioralPattern
	warnings []string
	floor    ThreatLevel
}

func (a *chainAnalyzer) analyze(commands []string) chainReport {
	rep := chainReport{floor: Safe}

	type step struct {
		lower  string
		parsed *shellparse.Command
		execs  []string
	}
	steps := make([]step, 0, len(commands))
	for _, cmd := range commands {
		parsed := shellparse.Parse(cmd)
		steps = append(steps, step{
			lower:  strings.ToLower(cmd),
			parsed: parsed,
			execs:  lowerExecutables(parsed),
		})
	}

	firstIndex := func(prims []string) int {
		for i, s := range steps {
			if anyPrimitive(s.lower, s.execs, prims) {
				return i
			}
		}
		return -1
	}
	firstIndexAfter := func(prims []string, after int) int {
		for i := after + 1; i < len(steps); i++ {
			if anyPrimitive(steps[i].lower, steps[i].execs, prims) {
				return i
			}
		}
		return -1
	}

	// Reconnaissance followed by elevation.
	if recon := firstIndex(a.pack.ReconPrimitives); recon >= 0 {
		for i := recon + 1; i < len(steps); i++ {
			elevated := containsAny(steps[i].lower, a.pack.ElevationPrimitives)
			if !elevated {
				for _, seg := range steps[i].parsed.Segments {
					if seg.Sudo {
						elevated = true
						break
					}
				}
			}
			if elevated {
				rep.patterns = append(rep.patterns, PrivilegeEscalation)
				rep.warnings = append(rep.warnings,
					"Command chain performs reconnaissance before escalating privileges")
				rep.floor = maxLevel(rep.floor, High)
				break
			}
		}
	}

	// Discovery, packaging, egress, in that order.
	if disc := firstIndex(a.pack.ReadPrimitives); disc >= 0 {
		if pkg := firstIndexAfter(a.pack.PackagingPrimitives, disc); pkg >= 0 {
			if firstIndexAfter(a.pack.EgressPrimitives, pkg) >= 0 {
				rep.patterns = append(rep.patterns, DataExfiltration)
				rep.warnings = append(rep.warnings,
					"Command chain collects, packages, and transfers data off the host")
				rep.floor = maxLevel(rep.floor, High)
			}
		}
	}

	// Download followed by execution of the downloaded file.
	downloadExec := false
	for i := 0; i < len(steps) && !downloadExec; i++ {
		target := downloadTarget(steps[i].parsed)
		if target == "" {
			continue
		}
		for j := i + 1; j < len(steps); j++ {
			if executesFile(steps[j].parsed, target) {
				downloadExec = true
				break
			}
		}
	}
	if downloadExec {
		rep.patterns = append(rep.patterns, DefenseEvasion)
		rep.warnings = append(rep.warnings,
			"Command chain downloads a file and then executes it")
		rep.floor = maxLevel(rep.floor, High)
	}

	return rep
}

// downloadTarget returns the output file of a curl -o / wget -O style
// download, or "" when the step is not a download-to-file. Short flags do
// not carry values in the parse, so the target is the first non-URL arg.
func downloadTarget(parsed *shellparse.Command) string {
	for _, seg := range parsed.Segments {
		switch seg.Executable {
		case "curl":
			if v := seg.Flags["output"]; v != "" {
				return v
			}
			if seg.HasFlag("o", "output") {
				return firstLocalArg(seg)
			}
		case "wget":
			if v := seg.Flags["output-document"]; v != "" {
				return v
			}
			if seg.HasFlag("O", "output-document") {
				return firstLocalArg(seg)
			}
		}
	}
	return ""
}

func firstLocalArg(seg shellparse.Segment) string {
	for _, arg := range seg.Args {
		if !strings.Contains(arg, "://") {
			return arg
		}
	}
	return ""
}

// executesFile reports whether any segment runs the named file, directly or
// through an interpreter or chmod +x.
func executesFile(parsed *shellparse.Command, target string) bool {
	base := target
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	for _, seg := range parsed.Segments {
		exe := strings.TrimPrefix(seg.Executable, "./")
		if exe == base || exe == target {
			return true
		}
		switch seg.Executable {
		case "bash", "sh", "zsh", "python", "python3", "perl", "chmod":
			for _, arg := range seg.Args {
				if arg == target || strings.TrimPrefix(arg, "./") == base {
					return true
				}
			}
		}
	}
	return false
}
