// Package httptransport assembles the versioned HTTP surface: shared
// middleware, service endpoints and the guarded identity and fund routes.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	fundhandler "fundops/internal/fund/handler"
	identityhandler "fundops/internal/identity/handler"
	"fundops/internal/identity/models"
	"fundops/internal/platform/metrics"
	id "fundops/pkg/domain"
	"fundops/pkg/platform/httputil"
	"fundops/pkg/platform/middleware/admin"
	authmw "fundops/pkg/platform/middleware/auth"
	"fundops/pkg/platform/middleware/metadata"
	"fundops/pkg/platform/middleware/ratelimit"
	request "fundops/pkg/platform/middleware/request"
	"fundops/pkg/platform/middleware/requesttime"
)

const defaultRequestTimeout = 30 * time.Second

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps carries everything NewRouter mounts. Nil optional fields disable
// the corresponding feature.
type Deps struct {
	Logger   *slog.Logger
	Version  string
	Gatherer prometheus.Gatherer
	HTTP     *metrics.HTTP

	Tokens   authmw.TokenValidator
	Policies authmw.PolicyChecker

	Identity *identityhandler.Handler
	Funds    *fundhandler.Handler

	LoginLimiter   *ratelimit.Limiter
	AdminToken     string
	AdminPrefixes  []netip.Prefix
	HealthChecks   map[string]HealthCheck
	RequestTimeout time.Duration
}

// NewRouter wires the public, self-service, administrative and fund routes.
func NewRouter(d Deps) http.Handler {
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(d.Logger))
	r.Use(request.Logger(d.Logger))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	if d.HTTP != nil {
		r.Use(request.Latency(d.HTTP))
	}

	r.Get("/healthz", handleHealth(d.HealthChecks))
	r.Get("/status", handleStatus(d.Version))
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(request.Timeout(timeout))
		v1.Use(request.ContentTypeJSON)

		v1.Group(func(pub chi.Router) {
			if d.LoginLimiter != nil {
				pub.Use(d.LoginLimiter.Middleware)
			}
			d.Identity.RegisterPublic(pub)
		})

		v1.Group(func(authed chi.Router) {
			authed.Use(authmw.RequireAuth(d.Tokens, id.APIVersionV1, d.Logger))
			d.Identity.RegisterSelf(authed)

			authed.Route("/admin", func(ar chi.Router) {
				ar.Use(admin.AllowPrefixes(d.AdminPrefixes, d.Logger))
				ar.Use(admin.RequireServiceToken(d.AdminToken, d.Logger))
				ar.Use(authmw.RequireRole(string(models.RoleAdministrator), d.Logger))
				ar.Use(authmw.RequirePolicy(d.Policies, models.PolicyAdministratorEndpoints, d.Logger))
				d.Identity.RegisterAdmin(ar)
			})

			authed.Group(func(fr chi.Router) {
				fr.Use(authmw.RequireRole(string(models.RoleAdministrator), d.Logger))
				d.Funds.RegisterReads(fr)
				fr.Group(func(wr chi.Router) {
					wr.Use(authmw.RequirePolicy(d.Policies, models.PolicyPortfolioManagerFullAccess, d.Logger))
					d.Funds.RegisterWrites(wr)
				})
			})
		})
	})

	return r
}

type statusResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

func handleStatus(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, statusResponse{Service: "fundops", Version: version, Status: "ok"})
	}
}

// handleHealth runs every check and reports 503 when any fails.
func handleHealth(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		results := make(map[string]string, len(checks))
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "up"
		}
		httputil.WriteJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": results})
	}
}
