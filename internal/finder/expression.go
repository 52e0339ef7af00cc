// SPDX-License-Identifier: MPL-2.0

package finder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

type (
	// matcher is either a delimited regular expression or a plain pattern.
	matcher struct {
		re    *regexp.Regexp
		plain string
	}

	// comparator is a numeric test such as "< 3" or ">= 10k".
	comparator struct {
		op     string
		target float64
	}
)

var closingDelimiters = map[byte]byte{'(': ')', '[': ']', '{': '}', '<': '>'}

// compileRegex recognizes delimited PCRE-style expressions ("/\.php$/i").
// ok is false when s is not delimited and should be treated as a plain pattern.
func compileRegex(s string) (re *regexp.Regexp, ok bool, err error) {
	if len(s) < 3 {
		return nil, false, nil
	}
	start := s[0]
	if start >= 0x80 || (unicode.IsLetter(rune(start)) || unicode.IsDigit(rune(start)) || unicode.IsSpace(rune(start)) || start == '\\' || start == '*' || start == '?') {
		return nil, false, nil
	}
	end := start
	if c, found := closingDelimiters[start]; found {
		end = c
	}
	last := strings.LastIndexByte(s, end)
	if last <= 0 {
		return nil, false, nil
	}

	var goFlags strings.Builder
	for _, f := range s[last+1:] {
		switch f {
		case 'i', 'm', 's', 'U':
			goFlags.WriteRune(f)
		case 'x', 'u', 'A', 'D', 'S', 'X', 'J':
			// No Go equivalent; harmless to drop for path patterns.
		default:
			return nil, false, nil
		}
	}

	expr := s[1:last]
	if goFlags.Len() > 0 {
		expr = "(?" + goFlags.String() + ")" + expr
	}
	re, err = regexp.Compile(expr)
	if err != nil {
		return nil, true, fmt.Errorf("invalid regular expression %q: %w", s, err)
	}
	return re, true, nil
}

func newMatcher(s string) (matcher, error) {
	re, ok, err := compileRegex(s)
	if err != nil {
		return matcher{}, err
	}
	if ok {
		return matcher{re: re}, nil
	}
	return matcher{plain: s}, nil
}

// containedIn reports whether the subject matches the regex or contains the plain pattern.
func (m matcher) containedIn(subject string) bool {
	if m.re != nil {
		return m.re.MatchString(subject)
	}
	return strings.Contains(subject, m.plain)
}

var comparatorPattern = regexp.MustCompile(`(?i)^\s*(==|!=|[<>]=?)?\s*([0-9.]+)\s*([kmg]i?)?\s*$`)

func parseComparator(s string) (comparator, error) {
	m := comparatorPattern.FindStringSubmatch(s)
	if m == nil {
		return comparator{}, fmt.Errorf("don't understand %q as a number test", s)
	}

	target, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return comparator{}, fmt.Errorf("don't understand %q as a number test: %w", s, err)
	}
	switch strings.ToLower(m[3]) {
	case "k":
		target *= 1000
	case "ki":
		target *= 1024
	case "m":
		target *= 1000000
	case "mi":
		target *= 1024 * 1024
	case "g":
		target *= 1000000000
	case "gi":
		target *= 1024 * 1024 * 1024
	}

	op := m[1]
	if op == "" {
		op = "=="
	}
	return comparator{op: op, target: target}, nil
}

func (c comparator) test(v float64) bool {
	switch c.op {
	case ">":
		return v > c.target
	case ">=":
		return v >= c.target
	case "<":
		return v < c.target
	case "<=":
		return v <= c.target
	case "!=":
		return v != c.target
	default:
		return v == c.target
	}
}

// allowsDeeper reports whether values >= v may still pass an upper-bound test.
func (c comparator) allowsDeeper(v float64) bool {
	switch c.op {
	case "<", "<=", "==":
		return c.test(v)
	default:
		return true
	}
}
