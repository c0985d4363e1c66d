package task

import (
	"fmt"
	"regexp"
)

// Rule is a validation predicate applied to an executor result. A result
// that fails its task's rule counts as a failed attempt even though the
// executor returned without error.
type Rule interface {
	// Name identifies the rule in logs.
	Name() string

	// Matches reports whether result satisfies the rule.
	Matches(result string) bool
}

// RuleFunc adapts a plain predicate into a Rule.
type RuleFunc struct {
	RuleName string
	Fn       func(result string) bool
}

// Name implements Rule.
func (r RuleFunc) Name() string {
	if r.RuleName == "" {
		return "func"
	}
	return r.RuleName
}

// Matches implements Rule.
func (r RuleFunc) Matches(result string) bool {
	if r.Fn == nil {
		return true
	}
	return r.Fn(result)
}

type regexRule struct {
	name string
	re   *regexp.Regexp
}

// NewRegexRule builds a Rule that accepts results matching pattern.
func NewRegexRule(name, pattern string) (Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid rule pattern %q: %w", pattern, err)
	}
	return &regexRule{name: name, re: re}, nil
}

func (r *regexRule) Name() string { return r.name }

func (r *regexRule) Matches(result string) bool { return r.re.MatchString(result) }
