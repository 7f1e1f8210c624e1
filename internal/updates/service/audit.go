package service

import (
	"context"
	"log/slog"

	audit "secureupdate/pkg/platform/audit"
)

// auditEmitter forwards contract events to the publisher. Publishing is
// observational: a failure is logged and never changes the call's result.
type auditEmitter struct {
	logger    *slog.Logger
	publisher AuditPublisher
}

func newAuditEmitter(logger *slog.Logger, publisher AuditPublisher) *auditEmitter {
	return &auditEmitter{logger: logger, publisher: publisher}
}

func (e *auditEmitter) emit(ctx context.Context, event audit.Event) {
	if e == nil || e.publisher == nil {
		return
	}
	if err := e.publisher.Emit(ctx, event); err != nil && e.logger != nil {
		e.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"model_id", event.ModelID,
			"error", err,
		)
	}
}

func (e *auditEmitter) emitInstantiated(ctx context.Context, admin string) {
	e.emit(ctx, audit.Event{
		Action:   string(audit.EventContractInstantiated),
		Caller:   admin,
		Decision: "admin_captured",
	})
}

func (e *auditEmitter) emitUpdateAdded(ctx context.Context, caller, modelID, version string) {
	e.emit(ctx, audit.Event{
		Action:        string(audit.EventUpdateAdded),
		Caller:        caller,
		ModelID:       modelID,
		UpdateVersion: version,
		Decision:      "stored",
	})
}

func (e *auditEmitter) emitUpdateRefused(ctx context.Context, action audit.AuditEvent, caller, modelID, reason string) {
	e.emit(ctx, audit.Event{
		Action:   string(action),
		Caller:   caller,
		ModelID:  modelID,
		Decision: "refused",
		Reason:   reason,
	})
}
