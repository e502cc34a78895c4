// Package ingredient provides fuzzy ingredient identity.
// Ingredient names carry no authoritative key, so every component that
// compares names goes through Normalize and a Matcher from this package.
package ingredient

import "strings"

// qualifierTokens are stripped from names before comparison, in order:
// size, freshness, then preparation qualifiers. The tables are data so
// they can be extended without touching call sites.
var qualifierTokens = []string{
	// size
	"large", "medium", "small",
	// freshness
	"fresh", "dried", "frozen", "canned",
	// preparation
	"chopped", "minced", "diced", "sliced", "whole",
	"ground", "crushed", "grated", "shredded",
}

// leafFormSuffixes are trailing tokens that describe the form an
// ingredient is sold or measured in rather than the ingredient itself.
var leafFormSuffixes = []string{
	"leaves", "leaf", "sprigs", "sprig", "cloves", "clove",
}

var qualifierSet = toSet(qualifierTokens)
var suffixSet = toSet(leafFormSuffixes)

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// Normalize maps a raw ingredient name to its canonical comparison key.
// Pure and deterministic: lowercases, strips qualifier tokens and
// leaf-form suffixes, and collapses whitespace. If stripping would leave
// nothing, the lowercased name is kept so a key is never empty for a
// non-empty input.
func Normalize(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" {
		return ""
	}

	fields := strings.Fields(lowered)
	kept := make([]string, 0, len(fields))
	for i, f := range fields {
		f = strings.Trim(f, ",.()")
		if f == "" {
			continue
		}
		if _, ok := qualifierSet[f]; ok {
			continue
		}
		// leaf-form tokens only count as suffixes: "clove" as the sole
		// token is the spice, not a form of garlic
		if _, ok := suffixSet[f]; ok && i > 0 {
			continue
		}
		kept = append(kept, f)
	}

	if len(kept) == 0 {
		return strings.Join(strings.Fields(lowered), " ")
	}
	return strings.Join(kept, " ")
}

// Matcher decides whether two raw ingredient names refer to the same
// pantry concept.
type Matcher func(a, b string) bool

// ContainsMatch is the default identity rule: bidirectional substring
// containment of normalized keys. Deliberately over-matches short names
// ("pepper" matches both "black pepper" and "bell pepper"); kept for
// compatibility with the aggregation and deduction semantics built on it.
func ContainsMatch(a, b string) bool {
	ka, kb := Normalize(a), Normalize(b)
	if ka == "" || kb == "" {
		return false
	}
	return strings.Contains(ka, kb) || strings.Contains(kb, ka)
}

// TokenSubsetMatch is a stricter matcher: the token set of one key must
// be a subset of the other's. "black pepper" still matches "pepper" but
// no longer matches "black bean" through shared substrings.
func TokenSubsetMatch(a, b string) bool {
	ka, kb := Normalize(a), Normalize(b)
	if ka == "" || kb == "" {
		return false
	}
	ta, tb := strings.Fields(ka), strings.Fields(kb)
	return subset(ta, tb) || subset(tb, ta)
}

func subset(inner, outer []string) bool {
	set := toSet(outer)
	for _, t := range inner {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}

// SameIngredient applies the default containment rule.
func SameIngredient(a, b string) bool {
	return ContainsMatch(a, b)
}
