package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fundops/internal/identity/models"
	id "fundops/pkg/domain"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.now = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) newIdentity(role models.Role, email string, policies ...string) *models.Identity {
	ident, err := models.NewIdentity(id.NewIdentityID(), role, "First", "Second", email, "hash", models.NewPolicySet(policies...), s.now)
	s.Require().NoError(err)
	return ident
}

func (s *InMemoryStoreSuite) TestCreate() {
	ctx := context.Background()

	s.Run("email is unique within a class", func() {
		s.Require().NoError(s.store.Create(ctx, s.newIdentity(models.RoleInvestor, "dup@x.com")))
		err := s.store.Create(ctx, s.newIdentity(models.RoleInvestor, "dup@x.com"))
		s.True(errors.Is(err, ErrEmailTaken))
	})

	s.Run("same email allowed across classes", func() {
		s.NoError(s.store.Create(ctx, s.newIdentity(models.RoleAdministrator, "dup@x.com")))
	})

	s.Run("email registration is per class", func() {
		taken, err := s.store.EmailRegistered(ctx, models.RoleInvestor, "dup@x.com")
		s.Require().NoError(err)
		s.True(taken)

		taken, err = s.store.EmailRegistered(ctx, models.RoleInvestor, "free@x.com")
		s.Require().NoError(err)
		s.False(taken)
	})
}

func (s *InMemoryStoreSuite) TestFindMatches() {
	ctx := context.Background()
	admin := s.newIdentity(models.RoleAdministrator, "a@x.com")
	investor := s.newIdentity(models.RoleInvestor, "a@x.com")
	s.Require().NoError(s.store.Create(ctx, admin))
	s.Require().NoError(s.store.Create(ctx, investor))

	s.Run("matches both classes tagged with role", func() {
		matches, err := s.store.FindMatches(ctx, "a@x.com", "hash")
		s.Require().NoError(err)
		s.Require().Len(matches, 2)
		s.Equal(models.RoleAdministrator, matches[0].Role)
		s.Equal(models.RoleInvestor, matches[1].Role)
	})

	s.Run("wrong hash matches nothing", func() {
		matches, err := s.store.FindMatches(ctx, "a@x.com", "other")
		s.Require().NoError(err)
		s.Empty(matches)
	})

	s.Run("planted unknown class is still reported", func() {
		ghost := s.newIdentity(models.RoleInvestor, "a@x.com")
		s.store.Insert(models.Role("auditor"), ghost)
		matches, err := s.store.FindMatches(ctx, "a@x.com", "hash")
		s.Require().NoError(err)
		s.Len(matches, 3)
	})
}

func (s *InMemoryStoreSuite) TestUpdatesReturnCopies() {
	ctx := context.Background()
	ident := s.newIdentity(models.RoleAdministrator, "a@x.com", models.PolicyViewOnly)
	s.Require().NoError(s.store.Create(ctx, ident))

	got, err := s.store.FindByID(ctx, models.RoleAdministrator, ident.ID)
	s.Require().NoError(err)
	got.Policies["superuser"] = struct{}{}

	again, err := s.store.FindByIDForUpdate(ctx, models.RoleAdministrator, ident.ID)
	s.Require().NoError(err)
	s.False(again.Policies.Contains("superuser"))

	later := s.now.Add(time.Minute)
	s.Require().NoError(s.store.UpdatePolicySet(ctx, models.RoleAdministrator, ident.ID,
		models.NewPolicySet(models.PolicyViewOnly, models.PolicyPortfolioManagerFullAccess), later))
	s.Require().NoError(s.store.SetActive(ctx, models.RoleAdministrator, ident.ID, false, later))

	again, err = s.store.FindByID(ctx, models.RoleAdministrator, ident.ID)
	s.Require().NoError(err)
	s.Equal(2, again.Policies.Len())
	s.False(again.Active)
	s.Equal(later, again.UpdatedAt)
}

func (s *InMemoryStoreSuite) TestNotFound() {
	ctx := context.Background()
	missing := id.NewIdentityID()

	_, err := s.store.FindByID(ctx, models.RoleInvestor, missing)
	s.ErrorIs(err, ErrNotFound)
	s.ErrorIs(s.store.UpdatePolicySet(ctx, models.RoleInvestor, missing, models.PolicySet{}, s.now), ErrNotFound)
	s.ErrorIs(s.store.SetActive(ctx, models.RoleInvestor, missing, true, s.now), ErrNotFound)
}

func (s *InMemoryStoreSuite) TestListByPolicy() {
	ctx := context.Background()
	pm := s.newIdentity(models.RoleAdministrator, "b@x.com", models.PolicyPortfolioManagerFullAccess)
	pm2 := s.newIdentity(models.RoleAdministrator, "a@x.com", models.PolicyPortfolioManagerFullAccess)
	viewer := s.newIdentity(models.RoleAdministrator, "c@x.com", models.PolicyViewOnly)
	for _, i := range []*models.Identity{pm, pm2, viewer} {
		s.Require().NoError(s.store.Create(ctx, i))
	}
	s.Require().NoError(s.store.SetActive(ctx, models.RoleAdministrator, pm.ID, false, s.now))

	all, err := s.store.ListByPolicy(ctx, models.RoleAdministrator, models.PolicyPortfolioManagerFullAccess, false)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal("a@x.com", all[0].EmailAddress)

	active, err := s.store.ListByPolicy(ctx, models.RoleAdministrator, models.PolicyPortfolioManagerFullAccess, true)
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal(pm2.ID, active[0].ID)
}
