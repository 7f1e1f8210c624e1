// Package updates is the secure update registry: an admin-gated mapping from
// model identifier to the latest published update record.
package updates

import (
	"log/slog"

	"secureupdate/internal/updates/handler"
	"secureupdate/internal/updates/service"
	"secureupdate/pkg/platform/middleware/auth"
)

// Service exposes the contract calls.
type Service = service.Service

// Handler wires HTTP endpoints to the contract service.
type Handler = handler.Handler

// NewService constructs the contract service over the given stores.
func NewService(updates service.UpdateStore, state service.StateStore, opts ...service.Option) (*Service, error) {
	return service.New(updates, state, opts...)
}

// NewHandler constructs the HTTP handler for the contract routes.
func NewHandler(s *Service, validator auth.CallerValidator, logger *slog.Logger) *Handler {
	return handler.New(s, validator, logger)
}
