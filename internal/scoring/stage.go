package scoring

import (
	"strconv"
	"strings"
	"unicode"
)

// Stage is a normalized disease stage. Valid stages are >= 1.
type Stage int

// DefaultStage is used whenever a stage label cannot be interpreted
const DefaultStage Stage = 1

var romanStages = map[string]Stage{
	"I":   1,
	"II":  2,
	"III": 3,
	"IV":  4,
}

// ParseStage converts a free-text stage label into a Stage.
//
// Labels containing digits are read by dropping every non-digit ("Stage 3B" is 3).
// Labels without digits are scanned for a roman numeral token I to IV with an
// optional A/B/C sub-stage suffix ("Stage IIIA" is 3). Anything else, and any
// value below 1, yields DefaultStage.
func ParseStage(label string) Stage {
	var digits strings.Builder
	for _, r := range label {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() > 0 {
		n, err := strconv.Atoi(digits.String())
		if err != nil || n < 1 {
			return DefaultStage
		}
		return Stage(n)
	}

	tokens := strings.FieldsFunc(strings.ToUpper(label), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, tok := range tokens {
		if s, ok := romanStages[tok]; ok {
			return s
		}
		if n := len(tok); n > 1 && strings.ContainsRune("ABC", rune(tok[n-1])) {
			if s, ok := romanStages[tok[:n-1]]; ok {
				return s
			}
		}
	}
	return DefaultStage
}

// Int returns the stage as a plain integer
func (s Stage) Int() int {
	return int(s)
}
