package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"fundops/internal/platform/config"
	"fundops/internal/platform/httpserver"
	"fundops/internal/platform/logger"
	"fundops/internal/platform/metrics"
	httptransport "fundops/internal/transport/http"
	"fundops/pkg/platform/middleware/ratelimit"
)

const shutdownTimeout = 10 * time.Second

func runServe(ctx context.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.SlogLevel())
	for _, w := range cfg.Warnings {
		log.Warn(w)
	}

	adminPrefixes, err := parsePrefixes(cfg.Admin.AllowedCIDRs)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := buildApp(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer a.close()

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:   log,
		Version:  version,
		Gatherer: reg,
		HTTP:     metrics.NewHTTP(reg),
		Tokens:   a.tokens,
		Policies: a.identity,
		Identity: a.identityHandler,
		Funds:    a.fundHandler,
		LoginLimiter: ratelimit.New(ratelimit.Config{
			RequestsPerSecond: cfg.LoginRate.RequestsPerSecond,
			Burst:             cfg.LoginRate.Burst,
		}),
		AdminToken:    cfg.Admin.ServiceToken,
		AdminPrefixes: adminPrefixes,
		HealthChecks:  a.health,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting fundops",
			"addr", cfg.Addr,
			"version", version,
			"postgres", cfg.UsePostgres(),
			"redis", cfg.Redis.URL != "",
			"kafka_audit", len(cfg.Kafka.Brokers) > 0,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// parsePrefixes accepts CIDRs and bare addresses.
func parsePrefixes(raw []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(raw))
	for _, s := range raw {
		if p, err := netip.ParsePrefix(s); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_ALLOWED_CIDRS: invalid entry %q", s)
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func logStartupError(log *slog.Logger, component string, err error) error {
	log.Error("startup failed", "component", component, "error", err)
	return fmt.Errorf("%s: %w", component, err)
}
