package substitute

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"
)

//go:embed rsc_rules.yaml
var rscRules []byte

var defaultSubstitutor = MustNew(DefaultRules())

// DefaultRules returns the RSC escape-token table.
func DefaultRules() []Rule {
	rules, err := LoadRules(bytes.NewReader(rscRules))
	if err != nil {
		panic(fmt.Sprintf("substitute: embedded rules: %v", err))
	}

	return rules
}

// Default returns the Substitutor built from DefaultRules.
func Default() *Substitutor {
	return defaultSubstitutor
}

// LoadRules decodes a YAML list of {token, replacement} entries.
// An empty document yields no rules.
func LoadRules(r io.Reader) ([]Rule, error) {
	var rules []Rule
	if err := yaml.NewDecoder(r).Decode(&rules); err != nil {
		if errors.Is(err, io.EOF) {
			return []Rule{}, nil
		}

		return nil, fmt.Errorf("decode rules: %w", err)
	}

	if err := validate(rules); err != nil {
		return nil, err
	}

	return rules, nil
}

// LoadRulesFile reads rules from a YAML file.
func LoadRulesFile(path string) ([]Rule, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()

	rules, err := LoadRules(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return rules, nil
}

// Merge returns base with extra applied on top. A token present in both keeps
// its position in base and takes the replacement from extra; new tokens are
// appended in the order they appear in extra.
func Merge(base, extra []Rule) []Rule {
	merged := make([]Rule, len(base), len(base)+len(extra))
	copy(merged, base)

	index := make(map[string]int, len(merged))
	for i, rule := range merged {
		index[rule.Token] = i
	}

	for _, rule := range extra {
		if i, ok := index[rule.Token]; ok {
			merged[i].Replacement = rule.Replacement

			continue
		}

		index[rule.Token] = len(merged)
		merged = append(merged, rule)
	}

	return merged
}
