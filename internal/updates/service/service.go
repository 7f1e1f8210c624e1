package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks UpdateStore,StateStore,AuditPublisher

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"

	"secureupdate/internal/updates/access"
	"secureupdate/internal/updates/integrity"
	updatemetrics "secureupdate/internal/updates/metrics"
	"secureupdate/internal/updates/models"
	audit "secureupdate/pkg/platform/audit"
)

// UpdateStore is the persistent registry: model_id -> latest Update.
type UpdateStore interface {
	Put(ctx context.Context, modelID string, u *models.Update) error
	Get(ctx context.Context, modelID string) (*models.Update, error)
}

// StateStore holds the contract state captured at instantiation.
type StateStore interface {
	SaveState(ctx context.Context, state *models.ContractState) error
	LoadState(ctx context.Context) (*models.ContractState, error)
}

// AuditPublisher receives an event after each completed or refused call.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Authorizer decides whether caller may mutate the registry given the
// stored admin identity.
type Authorizer interface {
	Authorize(caller, admin string) access.Decision
}

var tracer = otel.Tracer("secureupdate/internal/updates/service")

// Service is the contract surface: Instantiate, AddUpdate and GetUpdate.
type Service struct {
	updates    UpdateStore
	state      StateStore
	tx         StoreTx
	authorizer Authorizer
	validator  integrity.Validator
	auditor    *auditEmitter
	metrics    *updatemetrics.Metrics
	logger     *slog.Logger
}

type serviceConfig struct {
	tx             StoreTx
	authorizer     Authorizer
	validator      integrity.Validator
	auditPublisher AuditPublisher
	metrics        *updatemetrics.Metrics
	logger         *slog.Logger
}

type Option func(*serviceConfig)

// WithStoreTx sets the transactional boundary for mutating calls.
func WithStoreTx(tx StoreTx) Option {
	return func(c *serviceConfig) {
		c.tx = tx
	}
}

// WithAuthorizer replaces the single-admin gate.
func WithAuthorizer(a Authorizer) Option {
	return func(c *serviceConfig) {
		c.authorizer = a
	}
}

// WithValidator replaces the default integrity validator.
func WithValidator(v integrity.Validator) Option {
	return func(c *serviceConfig) {
		c.validator = v
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(c *serviceConfig) {
		c.auditPublisher = p
	}
}

func WithMetrics(m *updatemetrics.Metrics) Option {
	return func(c *serviceConfig) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

// New constructs the contract service.
func New(updates UpdateStore, state StateStore, opts ...Option) (*Service, error) {
	if updates == nil {
		return nil, errors.New("update store is required")
	}
	if state == nil {
		return nil, errors.New("state store is required")
	}
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.tx == nil {
		cfg.tx = newInMemoryStoreTx()
	}
	if cfg.authorizer == nil {
		cfg.authorizer = access.NewPolicy()
	}
	if cfg.validator == nil {
		cfg.validator = integrity.Default()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Service{
		updates:    updates,
		state:      state,
		tx:         cfg.tx,
		authorizer: cfg.authorizer,
		validator:  cfg.validator,
		auditor:    newAuditEmitter(cfg.logger, cfg.auditPublisher),
		metrics:    cfg.metrics,
		logger:     cfg.logger,
	}, nil
}
