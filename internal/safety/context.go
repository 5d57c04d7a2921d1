package safety

import (
	"strings"

	"github.com/shellsentry/shellsentry/internal/behavior"
	"github.com/shellsentry/shellsentry/internal/shellparse"
)

// contextEvaluator raises the threat floor based on where and as whom a
// command would run. It only ever adds warnings and raises the floor; a
// benign context leaves the basic assessment untouched.
type contextEvaluator struct {
	pack *behavior.Pack
}

func (e *contextEvaluator) evaluate(command string, parsed *shellparse.Command, vctx *ValidationContext) (ThreatLevel, []string) {
	floor := Safe
	var warnings []string
	lower := strings.ToLower(command)

	inTmp := inTemporaryDir(vctx.Cwd)
	if inTmp {
		warnings = append(warnings, "Command executes from a temporary directory, a common staging area for payloads")
		floor = maxLevel(floor, Concerning)
	}

	if vctx.UserPrivileges.IsRoot {
		warnings = append(warnings, "Command runs with root privileges; any mistake is unrecoverable")
		floor = maxLevel(floor, Concerning)

		if inTmp && executesFreshBinary(parsed) {
			warnings = append(warnings, "Root execution of a freshly made-executable file from a temporary directory")
			floor = maxLevel(floor, High)
		}
	}

	if m := vctx.SystemMetrics; m.CPUUsage > 90 || m.MemoryUsage > 90 {
		warnings = append(warnings, "System is under heavy load; resource-intensive commands may destabilize it")
	}

	if e.followsRecon(vctx.CommandHistory) && containsAny(lower, e.pack.EgressPrimitives) {
		warnings = append(warnings, "Outbound transfer follows reconnaissance activity in recent history")
		floor = maxLevel(floor, Suspicious)
	}

	return floor, warnings
}

// followsRecon checks the last few history entries for enumeration commands.
func (e *contextEvaluator) followsRecon(history []string) bool {
	start := len(history) - 3
	if start < 0 {
		start = 0
	}
	for _, prev := range history[start:] {
		parsed := shellparse.Parse(prev)
		if anyPrimitive(strings.ToLower(prev), lowerExecutables(parsed), e.pack.ReconPrimitives) {
			return true
		}
	}
	return false
}

func inTemporaryDir(cwd string) bool {
	for _, dir := range []string{"/tmp", "/var/tmp", "/dev/shm"} {
		if cwd == dir || strings.HasPrefix(cwd, dir+"/") {
			return true
		}
	}
	return false
}

// executesFreshBinary matches the chmod +x then ./run shape inside one line.
func executesFreshBinary(parsed *shellparse.Command) bool {
	sawChmodX := false
	for _, seg := range parsed.Segments {
		switch {
		case seg.Executable == "chmod" && strings.Contains(seg.Raw, "+x"):
			sawChmodX = true
		case sawChmodX && strings.HasPrefix(seg.Executable, "./"):
			return true
		}
	}
	return false
}
