package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	jwttoken "secureupdate/internal/jwt_token"
	"secureupdate/internal/platform/config"
	"secureupdate/internal/platform/httpserver"
	"secureupdate/internal/platform/kafka/producer"
	"secureupdate/internal/platform/logger"
	platformmetrics "secureupdate/internal/platform/metrics"
	"secureupdate/internal/updates"
	"secureupdate/internal/updates/access"
	"secureupdate/internal/updates/integrity"
	updatemetrics "secureupdate/internal/updates/metrics"
	"secureupdate/internal/updates/service"
	audit "secureupdate/pkg/platform/audit"
	"secureupdate/pkg/platform/audit/publisher"
	kafkastore "secureupdate/pkg/platform/audit/store/kafka"
	auditmemory "secureupdate/pkg/platform/audit/store/memory"
	"secureupdate/pkg/platform/audit/worker"
	"secureupdate/pkg/platform/middleware/auth"
	"secureupdate/pkg/platform/middleware/request"
	"secureupdate/pkg/platform/middleware/requesttime"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal/updates.
func main() {
	log := logger.New()
	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Warn("failed to close registry backend", "error", err)
		}
	}()

	auditStore, closeAudit, err := openAuditStore(ctx, cfg.Audit, log)
	if err != nil {
		return err
	}
	defer closeAudit()

	reg := platformmetrics.NewRegistry()
	pub := publisher.New(cfg.Audit.BufferSize, publisher.WithLogger(log))
	svc, err := newService(cfg, backend, pub, updatemetrics.New(reg, pub.Pending), log)
	if err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	router := newRouter(svc, jwttoken.NewCallerValidator(jwtService), reg, log)
	srv := httpserver.New(cfg.Addr, router)
	auditWorker := worker.NewWorker(auditStore, pub,
		worker.WithInterval(cfg.Audit.FlushInterval),
		worker.WithLogger(log),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "starting secure-update registry", "addr", cfg.Addr, "backend", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := auditWorker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownGrace)
		defer cancel()
		log.InfoContext(shutdownCtx, "shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newService(cfg config.Server, backend *registryBackend, pub service.AuditPublisher, m *updatemetrics.Metrics, log *slog.Logger) (*updates.Service, error) {
	var validator integrity.Validator = integrity.Default()
	if cfg.Integrity.RequireCID {
		validator = integrity.Chain{integrity.Default(), integrity.ContentID{}}
	}
	opts := []service.Option{
		service.WithAuthorizer(access.NewPolicy(cfg.Auth.AdminIdentities...)),
		service.WithValidator(validator),
		service.WithAuditPublisher(pub),
		service.WithMetrics(m),
		service.WithLogger(log),
	}
	if backend.tx != nil {
		opts = append(opts, service.WithStoreTx(backend.tx))
	}
	return updates.NewService(backend.updates, backend.state, opts...)
}

func openAuditStore(ctx context.Context, cfg config.AuditConfig, log *slog.Logger) (audit.Store, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		log.InfoContext(ctx, "audit stream kept in memory")
		return auditmemory.NewInMemoryStore(), func() {}, nil
	}
	p, err := producer.New(ctx, producer.Config{Brokers: cfg.KafkaBrokers, Topic: cfg.Topic})
	if err != nil {
		return nil, nil, err
	}
	if err := p.EnsureTopic(ctx, 3, 1); err != nil {
		p.Close()
		return nil, nil, err
	}
	log.InfoContext(ctx, "audit stream publishing to kafka", "topic", p.Topic())
	return kafkastore.New(p), p.Close, nil
}

func newRouter(svc *updates.Service, validator auth.CallerValidator, reg *prometheus.Registry, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", platformmetrics.Handler(reg))

	updates.NewHandler(svc, validator, log).Register(r)
	return r
}
