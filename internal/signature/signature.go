// Package signature derives stable keys from command text. Feedback and
// learned state are indexed by signature rather than raw command so that
// "cat /var/log/syslog.1" and "cat /var/log/syslog.2" share one entry while
// unrelated commands never collide.
package signature

import (
	"regexp"
	"strings"
)

var (
	ipAddr    = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	absPath   = regexp.MustCompile(`/[^\s'"]+`)
	bareNum   = regexp.MustCompile(`\b\d+\b`)
	homePath  = regexp.MustCompile(`~/[^\s'"]*`)
	whiteruns = regexp.MustCompile(`\s+`)
)

// For computes the signature of a command. The function is pure and
// deterministic: the same literal command always yields the same signature.
//
// Normalization steps: lowercase, collapse whitespace, then abstract the
// argument noise that varies between otherwise-identical invocations
// (IP addresses, absolute and home-relative paths, bare numbers).
func For(command string) string {
	s := strings.ToLower(strings.TrimSpace(command))
	s = whiteruns.ReplaceAllString(s, " ")
	s = ipAddr.ReplaceAllString(s, "[ip]")
	s = homePath.ReplaceAllString(s, "[path]")
	s = absPath.ReplaceAllString(s, "[path]")
	s = bareNum.ReplaceAllString(s, "[n]")
	return s
}
