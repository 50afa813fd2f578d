// Package market maps free-text bookmaker market names to canonical market codes.
package market

import (
	"fmt"
	"regexp"
	"strings"

	"tipbot/internal/model"
)

// RuleKind defines how a rule matches market text.
type RuleKind string

// Supported rule kinds.
const (
	RuleContains RuleKind = "contains"
	RuleRegex    RuleKind = "regex"
)

// Rule is a single matching rule of a market definition.
type Rule struct {
	Kind  RuleKind
	Value string

	re *regexp.Regexp
}

// Contains returns a substring rule. Matching is case-insensitive.
func Contains(s string) Rule {
	return Rule{Kind: RuleContains, Value: strings.ToLower(s)}
}

// Regex returns a case-insensitive regular expression rule.
// It panics on an invalid pattern; catalogs are built from literals.
func Regex(pattern string) Rule {
	return Rule{Kind: RuleRegex, Value: pattern, re: regexp.MustCompile("(?i)" + pattern)}
}

// Match reports whether the lowercased text satisfies the rule.
func (r Rule) Match(text string) bool {
	switch r.Kind {
	case RuleContains:
		return strings.Contains(text, r.Value)
	case RuleRegex:
		return r.re != nil && r.re.MatchString(text)
	}
	return false
}

// Def describes one canonical market.
type Def struct {
	Code        string
	Label       string // short human label
	DisplayName string // typical name as shown by the bookmaker
	Group       string
	Rules       []Rule
}

// Matches reports whether any of the definition's rules match text.
func (d Def) Matches(text string) bool {
	t := strings.ToLower(text)
	for _, r := range d.Rules {
		if r.Match(t) {
			return true
		}
	}
	return false
}

// Catalog is an ordered registry of market definitions per sport.
// Order is part of the contract: the first matching definition wins.
type Catalog struct {
	bySport map[model.Sport][]Def
}

// NewCatalog builds a catalog and checks that codes are unique per sport.
func NewCatalog(defs map[model.Sport][]Def) (*Catalog, error) {
	for sport, list := range defs {
		seen := make(map[string]bool, len(list))
		for _, d := range list {
			code := strings.ToUpper(d.Code)
			if seen[code] {
				return nil, fmt.Errorf("duplicate market code %q for %s", d.Code, sport)
			}
			seen[code] = true
		}
	}
	return &Catalog{bySport: defs}, nil
}

// Markets returns the ordered definitions of a sport.
func (c *Catalog) Markets(sport model.Sport) []Def {
	return c.bySport[sport]
}

// Find resolves free text to a market. Pattern rules are tried first in
// catalog order, then a literal containment check of the display name or label.
func (c *Catalog) Find(text string, sport model.Sport) (Def, bool) {
	defs := c.bySport[sport]
	for _, d := range defs {
		if d.Matches(text) {
			return d, true
		}
	}
	t := strings.ToLower(text)
	for _, d := range defs {
		if strings.Contains(t, strings.ToLower(d.DisplayName)) || strings.Contains(t, strings.ToLower(d.Label)) {
			return d, true
		}
	}
	return Def{}, false
}

// ByCode looks up a market by its code, case-insensitively.
func (c *Catalog) ByCode(code string, sport model.Sport) (Def, bool) {
	code = strings.ToUpper(code)
	for _, d := range c.bySport[sport] {
		if strings.ToUpper(d.Code) == code {
			return d, true
		}
	}
	return Def{}, false
}
