// Package substitute converts publisher escape tokens such as "[small beta]"
// into the unicode characters they stand for.
package substitute

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	errEmptyToken       = errors.New("empty token")
	errEmptyReplacement = errors.New("empty replacement")
	errBracket          = errors.New("brackets are not allowed")
	errDuplicateToken   = errors.New("duplicate token")
)

// Rule maps one bracketed escape token to its replacement.
// Token is the text between the brackets, e.g. "prime or minute".
type Rule struct {
	Token       string `yaml:"token"`
	Replacement string `yaml:"replacement"`
}

// Bracketed returns the token as it appears in publisher text.
func (r Rule) Bracketed() string {
	return "[" + r.Token + "]"
}

// Substitutor replaces escape tokens using an immutable rule table.
// It is safe for concurrent use.
type Substitutor struct {
	rules   []Rule
	byToken map[string]string
	pattern *regexp.Regexp
}

// New validates rules and compiles them into a Substitutor.
// Tokens must be unique and free of brackets, which keeps bracketed tokens
// from overlapping. Replacements must be non-empty and free of brackets, so
// substituted output never matches again.
func New(rules []Rule) (*Substitutor, error) {
	if err := validate(rules); err != nil {
		return nil, err
	}

	byToken := make(map[string]string, len(rules))
	tokens := make([]string, 0, len(rules))
	for _, rule := range rules {
		byToken[rule.Token] = rule.Replacement
		tokens = append(tokens, rule.Token)
	}

	own := make([]Rule, len(rules))
	copy(own, rules)

	return &Substitutor{
		rules:   own,
		byToken: byToken,
		pattern: compile(tokens),
	}, nil
}

// MustNew is like New but panics on invalid rules.
func MustNew(rules []Rule) *Substitutor {
	s, err := New(rules)
	if err != nil {
		panic(err)
	}

	return s
}

// Rules returns a copy of the rule table in match-table order.
func (s *Substitutor) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)

	return out
}

// Substitute replaces every registered token in text, left to right.
// Unknown bracketed text is left untouched.
func (s *Substitutor) Substitute(text string) string {
	if s == nil || s.pattern == nil || !strings.Contains(text, "[") {
		return text
	}

	return s.pattern.ReplaceAllStringFunc(text, func(match string) string {
		token := strings.TrimSuffix(strings.TrimPrefix(match, "["), "]")
		token = strings.TrimSuffix(strings.TrimPrefix(token, "["), "]")

		replacement, ok := s.byToken[token]
		if !ok {
			return match
		}

		return replacement
	})
}

func compile(tokens []string) *regexp.Regexp {
	if len(tokens) == 0 {
		return nil
	}

	sorted := make([]string, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})

	quoted := make([]string, len(sorted))
	for i, token := range sorted {
		quoted[i] = regexp.QuoteMeta(token)
	}

	group := "(?:" + strings.Join(quoted, "|") + ")"

	return regexp.MustCompile(`\[\[` + group + `\]\]|\[` + group + `\]`)
}

func validate(rules []Rule) error {
	seen := make(map[string]bool, len(rules))
	for i, rule := range rules {
		if rule.Token == "" {
			return fmt.Errorf("rule %d: %w", i, errEmptyToken)
		}

		if rule.Replacement == "" {
			return fmt.Errorf("rule %d (%q): %w", i, rule.Token, errEmptyReplacement)
		}

		if strings.ContainsAny(rule.Token, "[]") || strings.ContainsAny(rule.Replacement, "[]") {
			return fmt.Errorf("rule %d (%q): %w", i, rule.Token, errBracket)
		}

		if seen[rule.Token] {
			return fmt.Errorf("rule %d (%q): %w", i, rule.Token, errDuplicateToken)
		}

		seen[rule.Token] = true
	}

	return nil
}
