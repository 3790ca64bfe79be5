// Package catalog holds the fixed, per-role universe of grantable policies.
// A Catalog is built once at startup and never mutated.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fundops/internal/identity/models"
	dErrors "fundops/pkg/domain-errors"
)

type Catalog struct {
	sets map[models.Role]models.PolicySet
}

// Default returns the compiled-in catalog.
func Default() *Catalog {
	c, _ := New(map[models.Role][]string{
		models.RoleAdministrator: {
			models.PolicyAccessLogin,
			models.PolicyViewOnly,
			models.PolicyPortfolioManagerFullAccess,
			models.PolicyAdministratorEndpoints,
			models.PolicyOperationsEndpoints,
			models.PolicyProfileEndpoints,
		},
		models.RoleInvestor: {
			models.PolicyAccessLogin,
			models.PolicyViewOnly,
			models.PolicyProfileEndpoints,
		},
	})
	return c
}

// New builds a catalog. Every recognized role must have an entry, and no
// unrecognized role may appear.
func New(entries map[models.Role][]string) (*Catalog, error) {
	sets := make(map[models.Role]models.PolicySet, len(entries))
	for role, names := range entries {
		if !role.IsValid() {
			return nil, fmt.Errorf("catalog: unknown role %q", role)
		}
		sets[role] = models.NewPolicySet(names...)
	}
	for _, role := range models.Roles() {
		if _, ok := sets[role]; !ok {
			return nil, fmt.Errorf("catalog: missing entry for role %q", role)
		}
	}
	return &Catalog{sets: sets}, nil
}

type fileFormat struct {
	Roles map[string][]string `yaml:"roles"`
}

// Parse reads a YAML catalog:
//
//	roles:
//	  administrator: [view_only, portfolio_manager_full_access]
//	  investor: [view_only]
func Parse(data []byte) (*Catalog, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse yaml: %w", err)
	}
	entries := make(map[models.Role][]string, len(f.Roles))
	for name, policies := range f.Roles {
		entries[models.Role(name)] = policies
	}
	return New(entries)
}

// Load reads a YAML catalog from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// LoadOrDefault loads path, or returns Default when path is empty.
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// For returns a copy of the policies role may hold.
func (c *Catalog) For(role models.Role) (models.PolicySet, error) {
	set, ok := c.sets[role]
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnknownRole, "unknown role: "+string(role))
	}
	return set.Union(nil), nil
}

// Filter splits requested into the part the catalog allows for role and
// the part it drops.
func (c *Catalog) Filter(role models.Role, requested models.PolicySet) (effective, dropped models.PolicySet, err error) {
	allowed, err := c.For(role)
	if err != nil {
		return nil, nil, err
	}
	return requested.Intersect(allowed), requested.Difference(allowed), nil
}

// Marshal renders the catalog in the format Parse reads.
func (c *Catalog) Marshal() ([]byte, error) {
	f := fileFormat{Roles: make(map[string][]string, len(c.sets))}
	for role, set := range c.sets {
		f.Roles[string(role)] = set.Sorted()
	}
	return yaml.Marshal(f)
}
