// Package obfuscation detects attempts to disguise what a command does:
// invisible or direction-flipping Unicode, homoglyph substitution, and long
// encoded payloads. Hits feed the defense-evasion behavioral score — an
// obfuscated command is suspicious regardless of what hides inside it.
package obfuscation

import (
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"
)

// Signal is one detected obfuscation indicator.
type Signal struct {
	Category    string  // "zero-width", "bidi-override", "homoglyph", "control-char", "encoded-payload"
	Description string
	Weight      float64 // contribution to the evasion score, 0.0–1.0
}

// Report is the result of scanning one command.
type Report struct {
	Signals []Signal
}

// Clean reports whether no obfuscation indicators were found.
func (r Report) Clean() bool { return len(r.Signals) == 0 }

// Score aggregates signal weights into a single confidence in [0, 1].
func (r Report) Score() float64 {
	var score float64
	for _, s := range r.Signals {
		if s.Weight > score {
			score = s.Weight
		}
	}
	if len(r.Signals) > 1 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// base64Payload matches base64 runs long enough to hide a command rather
// than carry a short value.
var base64Payload = regexp.MustCompile(`[A-Za-z0-9+/]{40,}={0,2}`)

// hexEscapes matches runs of 4+ hex escapes like \x63\x75\x72\x6c.
var hexEscapes = regexp.MustCompile(`(\\\\?x[0-9a-fA-F]{2}){4,}`)

// Scan inspects a command for obfuscation indicators. It accepts any byte
// sequence, including invalid UTF-8, and never fails.
func Scan(command string) Report {
	var rep Report

	seen := make(map[string]bool)
	add := func(category, description string, weight float64) {
		if seen[category] {
			return
		}
		seen[category] = true
		rep.Signals = append(rep.Signals, Signal{
			Category:    category,
			Description: description,
			Weight:      weight,
		})
	}

	for i := 0; i < len(command); {
		r, size := utf8.DecodeRuneInString(command[i:])
		if r == utf8.RuneError && size == 1 {
			add("invalid-utf8", "command contains invalid UTF-8 byte sequences", 0.6)
			i++
			continue
		}

		switch {
		case isZeroWidth(r):
			add("zero-width", fmt.Sprintf("zero-width character U+%04X can hide content from review", r), 0.85)
		case isBidiOverride(r):
			add("bidi-override", fmt.Sprintf("bidirectional override U+%04X can make displayed text differ from executed text", r), 0.9)
		case isTagCharacter(r):
			add("tag-char", fmt.Sprintf("Unicode tag character U+%04X can smuggle hidden content", r), 0.85)
		case isUnsafeControl(r):
			add("control-char", fmt.Sprintf("control character U+%04X should not appear in commands", r), 0.7)
		default:
			if latin, ok := homoglyphOf(r); ok {
				add("homoglyph", fmt.Sprintf("character U+%04X visually imitates Latin '%c'", r, latin), 0.6)
			}
		}
		i += size
	}

	if base64Payload.MatchString(command) {
		add("encoded-payload", "long base64 run may hide an encoded command", 0.55)
	}
	if hexEscapes.MatchString(command) {
		add("encoded-payload", "hex escape run may hide an encoded command", 0.55)
	}

	return rep
}

func isZeroWidth(r rune) bool {
	switch r {
	case '\u200B', // zero width space
		'\u200C', // zero width non-joiner
		'\u200D', // zero width joiner
		'\uFEFF', // zero width no-break space
		'\u2060', // word joiner
		'\u180E', // mongolian vowel separator
		'\u200E', // left-to-right mark
		'\u200F': // right-to-left mark
		return true
	}
	return false
}

func isBidiOverride(r rune) bool {
	switch r {
	case '\u202A', '\u202B', '\u202C', '\u202D', '\u202E',
		'\u2066', '\u2067', '\u2068', '\u2069':
		return true
	}
	return false
}

func isTagCharacter(r rune) bool {
	return r >= 0xE0001 && r <= 0xE007F
}

func isUnsafeControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return (r >= 0x00 && r <= 0x1F) || r == 0x7F || (r >= 0x80 && r <= 0x9F)
}

// homoglyphOf reports the Latin letter a Cyrillic or Greek rune imitates.
func homoglyphOf(r rune) (rune, bool) {
	if unicode.Is(unicode.Cyrillic, r) {
		latin, ok := cyrillicHomoglyphs[r]
		return latin, ok
	}
	if unicode.Is(unicode.Greek, r) {
		latin, ok := greekHomoglyphs[r]
		return latin, ok
	}
	return 0, false
}

var cyrillicHomoglyphs = map[rune]rune{
	'а': 'a', 'А': 'A', 'В': 'B', 'с': 'c', 'С': 'C',
	'е': 'e', 'Е': 'E', 'Н': 'H', 'і': 'i', 'І': 'I',
	'К': 'K', 'М': 'M', 'о': 'o', 'О': 'O', 'р': 'p',
	'Р': 'P', 'Т': 'T', 'х': 'x', 'Х': 'X', 'у': 'y', 'У': 'Y',
}

var greekHomoglyphs = map[rune]rune{
	'Α': 'A', 'Β': 'B', 'Ε': 'E', 'Η': 'H', 'Ι': 'I',
	'Κ': 'K', 'Μ': 'M', 'Ν': 'N', 'Ο': 'O', 'ο': 'o',
	'Ρ': 'P', 'Τ': 'T', 'Χ': 'X', 'Υ': 'Y', 'Ζ': 'Z',
}
