package models

import (
	"encoding/json"
	"slices"

	pstrings "fundops/pkg/platform/strings"
)

// PolicySet is a set of policy names. The zero value is an empty set.
type PolicySet map[string]struct{}

// NewPolicySet trims names and drops blanks and duplicates.
func NewPolicySet(names ...string) PolicySet {
	set := make(PolicySet, len(names))
	for _, n := range pstrings.DedupeAndTrim(names) {
		set[n] = struct{}{}
	}
	return set
}

func (p PolicySet) Len() int { return len(p) }

func (p PolicySet) Contains(name string) bool {
	_, ok := p[name]
	return ok
}

func (p PolicySet) Union(other PolicySet) PolicySet {
	out := make(PolicySet, len(p)+len(other))
	for n := range p {
		out[n] = struct{}{}
	}
	for n := range other {
		out[n] = struct{}{}
	}
	return out
}

func (p PolicySet) Intersect(other PolicySet) PolicySet {
	out := make(PolicySet)
	for n := range p {
		if other.Contains(n) {
			out[n] = struct{}{}
		}
	}
	return out
}

// Difference returns the names in p that are not in other.
func (p PolicySet) Difference(other PolicySet) PolicySet {
	out := make(PolicySet)
	for n := range p {
		if !other.Contains(n) {
			out[n] = struct{}{}
		}
	}
	return out
}

func (p PolicySet) SubsetOf(other PolicySet) bool {
	for n := range p {
		if !other.Contains(n) {
			return false
		}
	}
	return true
}

func (p PolicySet) Equal(other PolicySet) bool {
	return len(p) == len(other) && p.SubsetOf(other)
}

// Sorted returns the names in lexical order; never nil.
func (p PolicySet) Sorted() []string {
	out := make([]string, 0, len(p))
	for n := range p {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

func (p PolicySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Sorted())
}

func (p *PolicySet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*p = NewPolicySet(names...)
	return nil
}

// Well-known policy names. The catalog decides which ones each role may hold.
const (
	PolicyAccessLogin                = "access_login"
	PolicyViewOnly                   = "view_only"
	PolicyPortfolioManagerFullAccess = "portfolio_manager_full_access"
	PolicyAdministratorEndpoints     = "administrator_endpoints"
	PolicyOperationsEndpoints        = "operations_endpoints"
	PolicyProfileEndpoints           = "profile_endpoints"
)
