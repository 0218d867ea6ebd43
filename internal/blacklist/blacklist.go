// Package blacklist decides whether a request path is exempt from
// canonicalization.
//
// Each rule is a regular expression fragment searched anywhere in the path
// (unanchored, case-sensitive). A '/' in a fragment is an ordinary literal,
// so "/neos.*" matches any path containing "/neos".
package blacklist

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
)

// Rule is a compiled blacklist entry.
type Rule struct {
	Pattern string
	Active  bool

	re *regexp.Regexp
}

// Matcher holds compiled rules. It is immutable after Compile and safe for
// concurrent use.
type Matcher struct {
	rules  []Rule
	active []Rule
}

// Compile validates and compiles every pattern, active or not. All invalid
// patterns are reported together.
func Compile(rules map[string]bool) (*Matcher, error) {
	patterns := make([]string, 0, len(rules))
	for pattern := range rules {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)

	m := &Matcher{rules: make([]Rule, 0, len(patterns))}
	var errs []error
	for _, pattern := range patterns {
		re, err := compilePattern(pattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("blacklist pattern %q: %w", pattern, err))
			continue
		}
		rule := Rule{Pattern: pattern, Active: rules[pattern], re: re}
		m.rules = append(m.rules, rule)
		if rule.Active {
			m.active = append(m.active, rule)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return m, nil
}

// MustCompile is like Compile but panics on invalid patterns.
func MustCompile(rules map[string]bool) *Matcher {
	m, err := Compile(rules)
	if err != nil {
		panic(err)
	}
	return m
}

// Matches compiles rules and tests path against them in one call. Prefer
// Compile once at startup on request paths.
func Matches(path string, rules map[string]bool) (bool, error) {
	if len(rules) == 0 {
		return false, nil
	}
	m, err := Compile(rules)
	if err != nil {
		return false, err
	}
	return m.Matches(path), nil
}

// Match returns the first active pattern, in lexical order, found in path.
func (m *Matcher) Match(path string) (string, bool) {
	if m == nil {
		return "", false
	}
	for _, rule := range m.active {
		if rule.re.MatchString(path) {
			return rule.Pattern, true
		}
	}
	return "", false
}

func (m *Matcher) Matches(path string) bool {
	_, ok := m.Match(path)
	return ok
}

// Rules returns all configured rules in evaluation order.
func (m *Matcher) Rules() []Rule {
	if m == nil {
		return nil
	}
	return append([]Rule(nil), m.rules...)
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, errors.New("pattern is empty")
	}
	return regexp.Compile(pattern)
}
