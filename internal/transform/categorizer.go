package transform

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var rulesYAML []byte

type categoryRule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

type ruleSet struct {
	Rules    []categoryRule `yaml:"rules"`
	Fallback string         `yaml:"fallback"`
}

var rules = mustLoadRules()

func mustLoadRules() ruleSet {
	var rs ruleSet
	if err := yaml.Unmarshal(rulesYAML, &rs); err != nil {
		panic(fmt.Sprintf("transform: parse embedded rules: %v", err))
	}
	if rs.Fallback == "" || len(rs.Rules) == 0 {
		panic("transform: embedded rules are incomplete")
	}
	// lowercase once so Categorize only folds the haystack
	for i := range rs.Rules {
		for j, kw := range rs.Rules[i].Keywords {
			rs.Rules[i].Keywords[j] = strings.ToLower(kw)
		}
	}
	return rs
}

// Categorize assigns a category from the ordered keyword rules. It is a pure
// string lookup: re-running it on identical input always yields the same
// category, which the idempotent import path depends on.
func Categorize(description, counterparty string) string {
	haystack := strings.ToLower(description + " " + counterparty)
	for _, rule := range rules.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(haystack, kw) {
				return rule.Category
			}
		}
	}
	return rules.Fallback
}
