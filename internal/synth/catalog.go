package synth

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type institutionEntry struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Routing string `yaml:"routing"`
	Country string `yaml:"country"`
}

type accountTemplate struct {
	Name               string `yaml:"name"`
	Type               string `yaml:"type"`
	Currency           string `yaml:"currency"`
	BaseBalanceCents   int64  `yaml:"base_balance_cents"`
	BalanceSpreadCents int64  `yaml:"balance_spread_cents"`
}

type transactionTemplate struct {
	Counterparty string `yaml:"counterparty"`
	Description  string `yaml:"description"`
	Kind         string `yaml:"kind"` // expense or income
	MinCents     int64  `yaml:"min_cents"`
	MaxCents     int64  `yaml:"max_cents"`
}

type catalogData struct {
	Institutions []institutionEntry    `yaml:"institutions"`
	Accounts     []accountTemplate     `yaml:"accounts"`
	Transactions []transactionTemplate `yaml:"transactions"`
}

// catalog is parsed once at package init. It is never mutated afterwards;
// public accessors hand out copies.
var catalog = mustLoadCatalog()

func mustLoadCatalog() catalogData {
	var c catalogData
	if err := yaml.Unmarshal(catalogYAML, &c); err != nil {
		panic(fmt.Sprintf("synth: parse embedded catalog: %v", err))
	}
	if len(c.Institutions) == 0 || len(c.Accounts) == 0 || len(c.Transactions) == 0 {
		panic("synth: embedded catalog is missing sections")
	}
	for _, t := range c.Transactions {
		if t.MinCents <= 0 || t.MaxCents < t.MinCents {
			panic(fmt.Sprintf("synth: bad amount range for template %q", t.Counterparty))
		}
		if t.Kind != "expense" && t.Kind != "income" {
			panic(fmt.Sprintf("synth: bad kind %q for template %q", t.Kind, t.Counterparty))
		}
	}
	return c
}
