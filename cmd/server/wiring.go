package main

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	fundhandler "fundops/internal/fund/handler"
	fundmetrics "fundops/internal/fund/metrics"
	fundmodels "fundops/internal/fund/models"
	fundservice "fundops/internal/fund/service"
	fundstore "fundops/internal/fund/store"
	"fundops/internal/identity/catalog"
	"fundops/internal/identity/credential"
	identityhandler "fundops/internal/identity/handler"
	"fundops/internal/identity/lockout"
	identitymetrics "fundops/internal/identity/metrics"
	identityservice "fundops/internal/identity/service"
	identitystore "fundops/internal/identity/store"
	"fundops/internal/identity/token"
	"fundops/internal/platform/config"
	"fundops/internal/platform/postgres"
	"fundops/internal/platform/redis"
	httptransport "fundops/internal/transport/http"
	audit "fundops/pkg/platform/audit"
	"fundops/pkg/platform/audit/publishers/compliance"
	"fundops/pkg/platform/audit/publishers/security"
	auditkafka "fundops/pkg/platform/audit/store/kafka"
	auditmemory "fundops/pkg/platform/audit/store/memory"
	auditpostgres "fundops/pkg/platform/audit/store/postgres"
	"fundops/pkg/platform/circuit"
	"fundops/pkg/platform/tx"
)

const tokenIssuer = "fundops"

// app holds the constructed services and the resources to release on exit.
type app struct {
	identity        *identityservice.Service
	tokens          *token.Service
	identityHandler *identityhandler.Handler
	fundHandler     *fundhandler.Handler
	health          map[string]httptransport.HealthCheck
	closers         []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp picks Postgres or in-memory stores, the lockout backend and the
// audit sink from cfg, then wires the services and handlers.
func buildApp(ctx context.Context, cfg config.Server, log *slog.Logger, reg prometheus.Registerer) (*app, error) {
	a := &app{health: map[string]httptransport.HealthCheck{}}

	cat, err := catalog.LoadOrDefault(cfg.PolicyCatalogPath)
	if err != nil {
		return nil, logStartupError(log, "policy catalog", err)
	}
	hasher, err := credential.New(cfg.Credential.Scheme, cfg.Credential.Pepper, cfg.Credential.Iterations)
	if err != nil {
		return nil, logStartupError(log, "credential hasher", err)
	}

	var (
		db            *sql.DB
		runner        tx.Runner
		identityStore identityservice.IdentityStore
		fundStore     fundservice.FundStore
		auditStore    audit.Store
	)
	if cfg.UsePostgres() {
		db, err = postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{})
		if err != nil {
			return nil, logStartupError(log, "postgres", err)
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		if err := postgres.Migrate(db); err != nil {
			a.close()
			return nil, logStartupError(log, "migrations", err)
		}
		runner = tx.NewPostgresTx(db, cfg.StoreTimeout)
		identityStore = identitystore.NewPostgres(db)
		fundStore = fundstore.NewPostgres(db)
		auditStore = auditpostgres.New(db)
		a.health["postgres"] = db.PingContext
	} else {
		runner = tx.NewInMemoryTx(cfg.StoreTimeout)
		identityStore = identitystore.NewInMemory()
		fundStore = fundstore.NewInMemory()
		auditStore = auditmemory.NewInMemoryStore()
	}

	if len(cfg.Kafka.Brokers) > 0 {
		ks, err := auditkafka.New(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			a.close()
			return nil, logStartupError(log, "kafka audit", err)
		}
		a.closers = append(a.closers, ks.Close)
		if err := ks.EnsureTopic(ctx, 3, -1); err != nil {
			a.close()
			return nil, logStartupError(log, "kafka audit topic", err)
		}
		auditStore = ks
	}

	guard, err := buildLockout(ctx, cfg, log, a)
	if err != nil {
		a.close()
		return nil, err
	}

	complianceAuditor := compliance.New(auditStore,
		compliance.WithLogger(log),
		compliance.WithMetrics(compliance.NewMetrics(reg)),
	)
	securityAuditor := security.New(auditStore, log)
	a.tokens = token.New(cfg.JWTSigningKey, tokenIssuer, cfg.TokenTTL)

	a.identity = identityservice.New(identityStore, runner, cat, hasher,
		identityservice.WithLogger(log),
		identityservice.WithMetrics(identitymetrics.New(reg)),
		identityservice.WithTokenIssuer(a.tokens),
		identityservice.WithLoginGuard(guard),
		identityservice.WithComplianceAuditor(complianceAuditor),
		identityservice.WithSecurityAuditor(securityAuditor),
		identityservice.WithStoreTimeout(cfg.StoreTimeout),
	)
	funds := fundservice.New(fundStore, runner, a.identity,
		fundservice.WithLogger(log),
		fundservice.WithMetrics(fundmetrics.New(reg)),
		fundservice.WithComplianceAuditor(complianceAuditor),
		fundservice.WithPolicy(fundmodels.Policy{EnforceCapitalTarget: cfg.Fund.EnforceCapitalTarget}),
		fundservice.WithStoreTimeout(cfg.StoreTimeout),
	)

	a.identityHandler = identityhandler.New(a.identity, log)
	a.fundHandler = fundhandler.New(funds, log)
	return a, nil
}

// buildLockout prefers Redis behind a circuit breaker with an in-process
// fallback. Without REDIS_URL the in-process store is used directly.
func buildLockout(ctx context.Context, cfg config.Server, log *slog.Logger, a *app) (*lockout.Guard, error) {
	local := lockout.NewMemoryStore()
	var store lockout.Store = local

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, logStartupError(log, "redis", err)
	}
	if client != nil {
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.health["redis"] = client.Health
		store = lockout.NewFallbackStore(
			lockout.NewRedisStore(client.Client),
			local,
			circuit.New("lockout-redis"),
			log,
		)
	}
	return lockout.NewGuard(store, cfg.Lockout.Threshold, cfg.Lockout.Window, lockout.WithLogger(log)), nil
}
