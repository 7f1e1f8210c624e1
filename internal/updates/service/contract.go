package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"secureupdate/internal/updates/access"
	updatemetrics "secureupdate/internal/updates/metrics"
	"secureupdate/internal/updates/models"
	dErrors "secureupdate/pkg/domain-errors"
	audit "secureupdate/pkg/platform/audit"
	"secureupdate/pkg/platform/sentinel"
	"secureupdate/pkg/requestcontext"
)

// Call names used for spans and the call duration histogram.
const (
	callInstantiate = "instantiate"
	callAddUpdate   = "add_update"
	callGetUpdate   = "get_update"
)

// Instantiate records caller as the registry admin together with the
// contract name and version. It succeeds once; later calls return conflict.
func (s *Service) Instantiate(ctx context.Context, caller string) (*models.Response, error) {
	ctx, span := tracer.Start(ctx, "updates.Instantiate")
	defer span.End()
	defer s.observe(callInstantiate, time.Now())

	if caller == "" {
		err := dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
		recordSpanError(span, err)
		return nil, err
	}

	state := &models.ContractState{
		Admin:          caller,
		Contract:       models.ContractName,
		Version:        models.ContractVersion,
		InstantiatedAt: requestcontext.Now(ctx),
	}
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.state.SaveState(txCtx, state); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "contract already instantiated")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save contract state")
		}
		return nil
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	s.auditor.emitInstantiated(ctx, caller)

	resp := &models.Response{}
	resp.AddAttribute("method", "instantiate").AddAttribute("admin", caller)
	return resp, nil
}

// AddUpdate stores req under its model identifier, replacing any earlier
// record. The caller must be the admin and the record must pass the
// integrity validator; on any failure nothing is written.
func (s *Service) AddUpdate(ctx context.Context, caller string, req *models.AddUpdateRequest) (*models.Response, error) {
	ctx, span := tracer.Start(ctx, "updates.AddUpdate")
	defer span.End()
	defer s.observe(callAddUpdate, time.Now())

	if err := req.Validate(); err != nil {
		s.rejected(updatemetrics.ReasonMalformed)
		recordSpanError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("model_id", req.ModelID))

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		admin, err := s.loadAdmin(txCtx)
		if err != nil {
			return err
		}
		if s.authorizer.Authorize(caller, admin) != access.Allow {
			return dErrors.New(dErrors.CodeUnauthorized, "caller is not the registry admin")
		}

		update := models.NewUpdate(*req)
		if verdict := s.validator.Validate(update); !verdict.OK {
			return dErrors.New(dErrors.CodeInvalidEncryption, verdict.Reason)
		}

		if err := s.updates.Put(txCtx, update.ModelID, update); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store update")
		}
		return nil
	})
	if err != nil {
		recordSpanError(span, err)
		s.refused(ctx, caller, req.ModelID, err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementUpdatesAdded()
	}
	s.auditor.emitUpdateAdded(ctx, caller, req.ModelID, req.UpdateVersion)

	resp := &models.Response{}
	resp.AddAttribute("action", "add_update").AddAttribute("model_id", req.ModelID)
	return resp, nil
}

// GetUpdate returns the record last stored for modelID. It is public and
// never modifies state.
func (s *Service) GetUpdate(ctx context.Context, modelID string) (*models.Update, error) {
	ctx, span := tracer.Start(ctx, "updates.GetUpdate", trace.WithAttributes(attribute.String("model_id", modelID)))
	defer span.End()
	defer s.observe(callGetUpdate, time.Now())

	if err := models.RequireModelID(modelID); err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	update, err := s.updates.Get(ctx, modelID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.queried("miss")
			return nil, dErrors.New(dErrors.CodeNotFound, "no update stored for model "+modelID)
		}
		s.queried("error")
		recordSpanError(span, err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load update")
	}
	s.queried("hit")
	return update, nil
}

// ContractInfo returns the state recorded at instantiation.
func (s *Service) ContractInfo(ctx context.Context) (*models.ContractState, error) {
	state, err := s.state.LoadState(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "contract not instantiated")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contract state")
	}
	return state, nil
}

// loadAdmin returns the stored admin identity, or "" before instantiation
// so the gate denies every caller.
func (s *Service) loadAdmin(ctx context.Context) (string, error) {
	state, err := s.state.LoadState(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", nil
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contract state")
	}
	return state.Admin, nil
}

func (s *Service) refused(ctx context.Context, caller, modelID string, err error) {
	var de *dErrors.Error
	reason := err.Error()
	if errors.As(err, &de) {
		reason = de.Message
	}
	switch {
	case dErrors.HasCode(err, dErrors.CodeUnauthorized):
		s.rejected(updatemetrics.ReasonUnauthorized)
		s.auditor.emitUpdateRefused(ctx, audit.EventUpdateUnauthorized, caller, modelID, reason)
	case dErrors.HasCode(err, dErrors.CodeInvalidEncryption):
		s.rejected(updatemetrics.ReasonInvalidEncryption)
		s.auditor.emitUpdateRefused(ctx, audit.EventUpdateRejected, caller, modelID, reason)
	}
}

func (s *Service) rejected(reason string) {
	if s.metrics != nil {
		s.metrics.IncrementRejected(reason)
	}
}

func (s *Service) queried(result string) {
	if s.metrics != nil {
		s.metrics.IncrementQuery(result)
	}
}

func (s *Service) observe(call string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveCall(call, start)
	}
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
}
