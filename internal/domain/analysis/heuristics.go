package analysis

import (
	"fmt"
	"regexp"
)

// Check is a single heuristic: a pure predicate over raw source text and the
// advisory reported when it matches.
type Check struct {
	Name     string
	Advisory string
	Match    func(source string) bool
}

var (
	jsonParsePattern  = regexp.MustCompile(`JSON\.parse`)
	awaitPattern      = regexp.MustCompile(`\bawait\b`)
	asyncPattern      = regexp.MustCompile(`\basync\b`)
	storagePattern    = regexp.MustCompile(`localStorage|sessionStorage|getItem|setItem`)
	getElementPattern = regexp.MustCompile(`document\.getElementById`)
	inlineIDPattern   = regexp.MustCompile(`<[^>]*\bid\s*=`)
)

// DefaultChecks is the ordered heuristic list. These are text patterns, not
// scope analysis, so they flag some valid code and miss some broken code.
var DefaultChecks = []Check{
	{
		Name:     "json-parse",
		Advisory: "JSON parsing error — check your JSON format.",
		Match:    jsonParsePattern.MatchString,
	},
	{
		Name:     "await-outside-async",
		Advisory: "'await' used inside a non-async function.",
		Match: func(source string) bool {
			return awaitPattern.MatchString(source) && !asyncPattern.MatchString(source)
		},
	},
	{
		Name:     "web-storage",
		Advisory: "localStorage may throw errors (blocked/full).",
		Match:    storagePattern.MatchString,
	},
	{
		Name:     "missing-dom-element",
		Advisory: "DOM element you are trying to access may not exist.",
		Match: func(source string) bool {
			return getElementPattern.MatchString(source) && !inlineIDPattern.MatchString(source)
		},
	},
}

// SizeCheck flags snippets longer than max bytes. It is placed ahead of the
// pattern checks so oversized snippets are never executed.
func SizeCheck(max int) Check {
	return Check{
		Name:     "oversize",
		Advisory: fmt.Sprintf("Snippet is longer than %d bytes; only shorter snippets are run.", max),
		Match:    func(source string) bool { return len(source) > max },
	}
}

// Scanner runs heuristic checks in order.
type Scanner struct {
	checks []Check
}

// NewScanner creates a scanner over the given checks, or DefaultChecks when
// none are passed.
func NewScanner(checks ...Check) *Scanner {
	if len(checks) == 0 {
		checks = DefaultChecks
	}
	return &Scanner{checks: checks}
}

// Scan returns the first matching check, or nil.
func (s *Scanner) Scan(source string) *Check {
	for i := range s.checks {
		if s.checks[i].Match(source) {
			return &s.checks[i]
		}
	}
	return nil
}

// With returns a scanner that runs checks before the receiver's own.
func (s *Scanner) With(checks ...Check) *Scanner {
	merged := make([]Check, 0, len(checks)+len(s.checks))
	merged = append(merged, checks...)
	merged = append(merged, s.checks...)
	return &Scanner{checks: merged}
}
