package safety

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shellsentry/shellsentry/internal/behavior"
)

var rawIPURL = regexp.MustCompile(`https?://(\d{1,3}\.){3}\d{1,3}`)

// checkIntel matches the command against the pack's known drop and paste
// endpoints plus raw-IP URLs. Purely local lookup; no network calls are
// ever made.
func checkIntel(lower string, pack *behavior.Pack) []string {
	var warnings []string
	for _, ind := range pack.IntelIndicators {
		if ind != "" && strings.Contains(lower, strings.ToLower(ind)) {
			warnings = append(warnings, fmt.Sprintf("Command references %s, a known data drop endpoint", ind))
		}
	}
	if rawIPURL.MatchString(lower) {
		warnings = append(warnings, "Command targets a raw IP address instead of a hostname")
	}
	return warnings
}
