package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"fundops/internal/identity/models"
	id "fundops/pkg/domain"
)

// InMemory keeps one map per identity class.
type InMemory struct {
	mu      sync.RWMutex
	classes map[models.Role]map[id.IdentityID]*models.Identity
}

func NewInMemory() *InMemory {
	classes := make(map[models.Role]map[id.IdentityID]*models.Identity)
	for _, role := range models.Roles() {
		classes[role] = make(map[id.IdentityID]*models.Identity)
	}
	return &InMemory{classes: classes}
}

// FindMatches scans every class, so a credential present in both classes
// yields two matches.
func (s *InMemory) FindMatches(_ context.Context, email, passwordHash string) ([]models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []models.Match
	for _, role := range s.roles() {
		for _, ident := range s.classes[role] {
			if ident.EmailAddress == email && ident.PasswordHash == passwordHash {
				m := models.MatchFromIdentity(cloneIdentity(ident))
				m.Role = role
				matches = append(matches, m)
			}
		}
	}
	return matches, nil
}

func (s *InMemory) Create(_ context.Context, ident *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	class, ok := s.classes[ident.Role]
	if !ok {
		return ErrNotFound
	}
	for _, existing := range class {
		if existing.EmailAddress == ident.EmailAddress {
			return ErrEmailTaken
		}
	}
	class[ident.ID] = cloneIdentity(ident)
	return nil
}

// EmailRegistered reports whether email is already used within role's class.
func (s *InMemory) EmailRegistered(_ context.Context, role models.Role, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, existing := range s.classes[role] {
		if existing.EmailAddress == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemory) FindByID(_ context.Context, role models.Role, identityID id.IdentityID) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ident, ok := s.classes[role][identityID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneIdentity(ident), nil
}

// FindByIDForUpdate is FindByID; InMemoryTx provides the lock.
func (s *InMemory) FindByIDForUpdate(ctx context.Context, role models.Role, identityID id.IdentityID) (*models.Identity, error) {
	return s.FindByID(ctx, role, identityID)
}

func (s *InMemory) UpdatePolicySet(_ context.Context, role models.Role, identityID id.IdentityID, set models.PolicySet, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ident, ok := s.classes[role][identityID]
	if !ok {
		return ErrNotFound
	}
	ident.ApplyPolicies(set.Union(nil), now)
	return nil
}

func (s *InMemory) SetActive(_ context.Context, role models.Role, identityID id.IdentityID, active bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ident, ok := s.classes[role][identityID]
	if !ok {
		return ErrNotFound
	}
	ident.Active = active
	ident.UpdatedAt = now
	return nil
}

// ListByPolicy returns identities of role holding policy, ordered by email.
func (s *InMemory) ListByPolicy(_ context.Context, role models.Role, policy string, activeOnly bool) ([]*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Identity
	for _, ident := range s.classes[role] {
		if activeOnly && !ident.Active {
			continue
		}
		if ident.Policies.Contains(policy) {
			out = append(out, cloneIdentity(ident))
		}
	}
	slices.SortFunc(out, func(a, b *models.Identity) int {
		return strings.Compare(a.EmailAddress, b.EmailAddress)
	})
	return out, nil
}

// Insert stores ident under role without any validation. Tests use it to
// plant corrupt data (duplicates, unknown roles).
func (s *InMemory) Insert(role models.Role, ident *models.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classes[role]; !ok {
		s.classes[role] = make(map[id.IdentityID]*models.Identity)
	}
	c := cloneIdentity(ident)
	c.Role = role
	s.classes[role][c.ID] = c
}

// roles returns class keys in a stable order. Caller holds mu.
func (s *InMemory) roles() []models.Role {
	roles := make([]models.Role, 0, len(s.classes))
	for r := range s.classes {
		roles = append(roles, r)
	}
	slices.Sort(roles)
	return roles
}
