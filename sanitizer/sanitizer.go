// Package sanitizer rewrites message text before it is queued, based on
// composable rules made of a character filter and a transform.
package sanitizer

import (
	"encoding/hex"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Filter flags for character matching
const (
	FilterNonPrintable uint64 = 1 << iota // Runes not printable per strconv.IsPrint
	FilterControl                         // unicode.IsControl
	FilterLineBreak                       // '\n' and '\r'
)

// Transform flags
const (
	TransformStrip     uint64 = 1 << iota // Remove the rune
	TransformHexEncode                    // Replace with "<xx..>" of its UTF-8 bytes
	TransformSpace                        // Replace with a single space
)

// PolicyPreset names a pre-configured rule set
type PolicyPreset string

const (
	PolicyRaw    PolicyPreset = "raw"    // Passthrough
	PolicyTxt    PolicyPreset = "txt"    // Hex-encode anything not printable
	PolicySingle PolicyPreset = "single" // Fold line breaks to spaces, strip other controls
)

type rule struct {
	filter    uint64
	transform uint64
}

var policyRules = map[PolicyPreset][]rule{
	PolicyRaw: {},
	PolicyTxt: {{filter: FilterNonPrintable, transform: TransformHexEncode}},
	PolicySingle: {
		{filter: FilterLineBreak, transform: TransformSpace},
		{filter: FilterControl, transform: TransformStrip},
	},
}

// filterOrder fixes the evaluation order of filter flags
var filterOrder = []uint64{FilterLineBreak, FilterControl, FilterNonPrintable}

var filterCheckers = map[uint64]func(rune) bool{
	FilterNonPrintable: func(r rune) bool { return !strconv.IsPrint(r) },
	FilterControl:      unicode.IsControl,
	FilterLineBreak:    func(r rune) bool { return r == '\n' || r == '\r' },
}

// Sanitizer holds an ordered rule list. Rules are fixed after construction,
// so one Sanitizer can be shared by concurrent callers of Sanitize.
type Sanitizer struct {
	rules []rule
}

// New creates a Sanitizer with no rules
func New() *Sanitizer {
	return &Sanitizer{}
}

// Rule appends a custom rule; earlier rules win
func (s *Sanitizer) Rule(filter uint64, transform uint64) *Sanitizer {
	s.rules = append(s.rules, rule{filter: filter, transform: transform})
	return s
}

// Policy appends the rules of a preset; unknown presets add nothing
func (s *Sanitizer) Policy(preset PolicyPreset) *Sanitizer {
	if rules, ok := policyRules[preset]; ok {
		s.rules = append(s.rules, rules...)
	}
	return s
}

// Sanitize applies the rules to data, first matching rule per rune
func (s *Sanitizer) Sanitize(data string) string {
	if len(s.rules) == 0 {
		return data
	}

	buf := make([]byte, 0, len(data)+16)
	for _, r := range data {
		matched := false
		for _, rl := range s.rules {
			if matchesFilter(r, rl.filter) {
				buf = applyTransform(buf, r, rl.transform)
				matched = true
				break
			}
		}
		if !matched {
			buf = utf8.AppendRune(buf, r)
		}
	}
	return string(buf)
}

func matchesFilter(r rune, filterMask uint64) bool {
	for _, flag := range filterOrder {
		if filterMask&flag != 0 && filterCheckers[flag](r) {
			return true
		}
	}
	return false
}

func applyTransform(buf []byte, r rune, transformMask uint64) []byte {
	switch {
	case transformMask&TransformStrip != 0:
		return buf

	case transformMask&TransformHexEncode != 0:
		var runeBytes [utf8.UTFMax]byte
		n := utf8.EncodeRune(runeBytes[:], r)
		buf = append(buf, '<')
		buf = hex.AppendEncode(buf, runeBytes[:n])
		return append(buf, '>')

	case transformMask&TransformSpace != 0:
		return append(buf, ' ')
	}
	return utf8.AppendRune(buf, r)
}
