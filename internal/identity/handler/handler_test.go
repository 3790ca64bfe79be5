package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"fundops/internal/identity/handler/mocks"
	"fundops/internal/identity/models"
	id "fundops/pkg/domain"
	dErrors "fundops/pkg/domain-errors"
	"fundops/pkg/testutil"
)

type IdentityHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestIdentityHandlerSuite(t *testing.T) {
	suite.Run(t, new(IdentityHandlerSuite))
}

func (s *IdentityHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.RegisterPublic(s.router)
	h.RegisterSelf(s.router)
	h.RegisterAdmin(s.router)
}

func (s *IdentityHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *IdentityHandlerSuite) decode(body io.Reader) map[string]any {
	var out map[string]any
	s.Require().NoError(json.NewDecoder(body).Decode(&out))
	return out
}

func (s *IdentityHandlerSuite) TestPolicyList() {
	cases := map[string][]string{
		`"view_only"`:                    {"view_only"},
		`["view_only","access_login"]`:   {"view_only", "access_login"},
		`null`:                           nil,
		`[]`:                             {},
	}
	for in, want := range cases {
		var p PolicyList
		s.Require().NoError(json.Unmarshal([]byte(in), &p), in)
		s.Equal(want, []string(p), in)
	}

	var p PolicyList
	s.Error(json.Unmarshal([]byte(`42`), &p))
}

func (s *IdentityHandlerSuite) TestLogin() {
	s.Run("success returns bearer token", func() {
		expires := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
		identityID := id.NewIdentityID()
		s.service.EXPECT().Login(gomock.Any(), models.LoginRequest{EmailAddress: "a@x.com", Password: "pwd"}).
			Return(&models.LoginResult{
				Identity:  models.Match{ID: identityID, Role: models.RoleInvestor, Active: true},
				Token:     "tok",
				ExpiresAt: expires,
			}, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/login", map[string]string{
			"email_address": "a@x.com", "password": "pwd",
		})
		rr := testutil.DoRequest(s.router, req)

		s.Equal(http.StatusOK, rr.Code)
		body := s.decode(rr.Body)
		s.Equal("tok", body["access_token"])
		s.Equal("Bearer", body["token_type"])
		s.Equal("investor", body["role"])
		s.Equal(identityID.String(), body["identity_id"])
	})

	s.Run("ambiguous credentials return candidate roles", func() {
		s.service.EXPECT().Login(gomock.Any(), gomock.Any()).
			Return(nil, &models.AmbiguousRoleError{Roles: []models.Role{models.RoleAdministrator, models.RoleInvestor}})

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/login", map[string]string{
			"email_address": "a@x.com", "password": "pwd",
		})
		rr := testutil.DoRequest(s.router, req)

		s.Equal(http.StatusConflict, rr.Code)
		body := s.decode(rr.Body)
		s.Equal("ambiguous_role", body["error"])
		s.ElementsMatch([]any{"administrator", "investor"}, body["roles"])
	})

	s.Run("bad credentials are 401", func() {
		s.service.EXPECT().Login(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUnauthenticated, "invalid email address or password"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/login", map[string]string{
			"email_address": "a@x.com", "password": "wrong",
		})
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusUnauthorized, rr.Code)
	})

	s.Run("data fault is an opaque 500", func() {
		s.service.EXPECT().Login(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInternal, "unable to complete authentication"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/login", map[string]string{
			"email_address": "a@x.com", "password": "pwd",
		})
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusInternalServerError, rr.Code)
		s.NotContains(rr.Body.String(), "authentication")
	})

	s.Run("unknown role hint rejected before service", func() {
		s.service.EXPECT().Login(gomock.Any(), gomock.Any()).Times(0)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/login", map[string]string{
			"email_address": "a@x.com", "password": "pwd", "role": "auditor",
		})
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("malformed json is 400", func() {
		s.service.EXPECT().Login(gomock.Any(), gomock.Any()).Times(0)
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/login", "{bad"))
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}

func (s *IdentityHandlerSuite) TestUpdatePolicies() {
	identityID := id.NewIdentityID()
	path := "/identities/administrator/" + identityID.String() + "/policies"

	s.Run("single string is normalized to a set", func() {
		s.service.EXPECT().UpdatePolicies(gomock.Any(), models.PolicyUpdateRequest{
			IdentityID: identityID,
			Role:       models.RoleAdministrator,
			Policies:   models.NewPolicySet("view_only"),
		}).Return(models.NewPolicySet("view_only"), nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, path, `{"policies":"view_only"}`))
		s.Equal(http.StatusOK, rr.Code)
		body := s.decode(rr.Body)
		s.Equal([]any{"view_only"}, body["policies"])
	})

	s.Run("list form with duplicates", func() {
		s.service.EXPECT().UpdatePolicies(gomock.Any(), models.PolicyUpdateRequest{
			IdentityID: identityID,
			Role:       models.RoleAdministrator,
			Policies:   models.NewPolicySet("view_only", "superuser"),
		}).Return(models.NewPolicySet("view_only"), nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, path,
			`{"policies":["view_only","superuser","view_only"]}`))
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("unknown role in path", func() {
		s.service.EXPECT().UpdatePolicies(gomock.Any(), gomock.Any()).Times(0)
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost,
			"/identities/auditor/"+identityID.String()+"/policies", `{"policies":"view_only"}`))
		testutil.RequireError(s.T(), rr, http.StatusBadRequest, "unknown_role")
	})

	s.Run("malformed identity id", func() {
		s.service.EXPECT().UpdatePolicies(gomock.Any(), gomock.Any()).Times(0)
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost,
			"/identities/investor/not-a-uuid/policies", `{"policies":"view_only"}`))
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("missing identity is 404", func() {
		s.service.EXPECT().UpdatePolicies(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "identity not found"))
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, path, `{"policies":[]}`))
		s.Equal(http.StatusNotFound, rr.Code)
	})

	s.Run("store timeout is 504", func() {
		s.service.EXPECT().UpdatePolicies(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeTimeout, "failed to update policies"))
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, path, `{"policies":[]}`))
		s.Equal(http.StatusGatewayTimeout, rr.Code)
	})
}

func (s *IdentityHandlerSuite) TestCreateIdentity() {
	s.Run("created", func() {
		identityID := id.NewIdentityID()
		s.service.EXPECT().CreateIdentity(gomock.Any(), models.CreateIdentityRequest{
			Role:         models.RoleInvestor,
			FirstName:    "Grace",
			SecondName:   "Hopper",
			EmailAddress: "grace@x.com",
			Password:     "password1",
			Policies:     models.NewPolicySet("access_login"),
		}).Return(&models.Identity{ID: identityID, Role: models.RoleInvestor, EmailAddress: "grace@x.com", PasswordHash: "secret-hash"}, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/identities", map[string]any{
			"role": "investor", "first_name": "Grace", "second_name": "Hopper",
			"email_address": "grace@x.com", "password": "password1", "policies": "access_login",
		})
		rr := testutil.DoRequest(s.router, req)

		s.Equal(http.StatusCreated, rr.Code)
		s.NotContains(rr.Body.String(), "secret-hash")
		s.Equal(identityID.String(), s.decode(rr.Body)["id"])
	})

	s.Run("short password fails validation", func() {
		s.service.EXPECT().CreateIdentity(gomock.Any(), gomock.Any()).Times(0)
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/identities", map[string]any{
			"role": "investor", "first_name": "Grace", "second_name": "Hopper",
			"email_address": "grace@x.com", "password": "short",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.RequireError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("duplicate email conflicts", func() {
		s.service.EXPECT().CreateIdentity(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "email address already registered for this role"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/identities", map[string]any{
			"role": "investor", "first_name": "Grace", "second_name": "Hopper",
			"email_address": "grace@x.com", "password": "password1",
		})
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusConflict, rr.Code)
	})
}

func (s *IdentityHandlerSuite) TestSetActive() {
	identityID := id.NewIdentityID()
	s.service.EXPECT().SetActive(gomock.Any(), models.RoleInvestor, identityID, false).
		Return(&models.Identity{ID: identityID, Role: models.RoleInvestor, Active: false}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost,
		"/identities/investor/"+identityID.String()+"/deactivate"))
	s.Equal(http.StatusOK, rr.Code)
	s.Equal(false, s.decode(rr.Body)["active"])
}

func (s *IdentityHandlerSuite) TestMe() {
	identityID := id.NewIdentityID()
	s.service.EXPECT().GetIdentity(gomock.Any(), models.RoleAdministrator, identityID).
		Return(&models.Identity{ID: identityID, Role: models.RoleAdministrator}, nil)

	req := testutil.WithActor(testutil.NewRequest(s.T(), http.MethodGet, "/me"), identityID, "administrator")
	rr := testutil.DoRequest(s.router, req)
	s.Equal(http.StatusOK, rr.Code)
	s.Equal("administrator", s.decode(rr.Body)["role"])
}

func (s *IdentityHandlerSuite) TestListPortfolioManagers() {
	s.service.EXPECT().ListPortfolioManagers(gomock.Any()).Return(nil, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/portfolio-managers"))
	s.Equal(http.StatusOK, rr.Code)
	s.Equal([]any{}, s.decode(rr.Body)["identities"])
}
