package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"secureupdate/internal/updates/models"
	dErrors "secureupdate/pkg/domain-errors"
	"secureupdate/pkg/platform/httputil"
	"secureupdate/pkg/platform/middleware/auth"
	"secureupdate/pkg/requestcontext"
)

// Service defines the contract operations exposed over HTTP.
type Service interface {
	Instantiate(ctx context.Context, caller string) (*models.Response, error)
	AddUpdate(ctx context.Context, caller string, req *models.AddUpdateRequest) (*models.Response, error)
	GetUpdate(ctx context.Context, modelID string) (*models.Update, error)
	ContractInfo(ctx context.Context) (*models.ContractState, error)
}

// Handler serves the contract endpoints.
type Handler struct {
	service   Service
	validator auth.CallerValidator
	logger    *slog.Logger
}

// New creates a new contract Handler. validator authenticates the callers of
// mutating endpoints.
func New(service Service, validator auth.CallerValidator, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		validator: validator,
		logger:    logger,
	}
}

// Register registers the contract routes with the chi router.
// GET /updates/{model_id} takes a single path segment; ids containing "/"
// are read through POST /contract/query.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireCaller(h.validator, h.logger))
		r.Post("/contract/instantiate", h.HandleInstantiate)
		r.Post("/contract/execute", h.HandleExecute)
	})
	r.Post("/contract/query", h.HandleQuery)
	r.Get("/contract/info", h.HandleContractInfo)
	r.Get("/updates/{model_id}", h.HandleGetUpdate)
}

func (h *Handler) HandleInstantiate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if _, ok := httputil.DecodeAndPrepare[models.InstantiateMsg](w, r, h.logger, ctx, requestID); !ok {
		return
	}

	caller := requestcontext.Caller(ctx)
	resp, err := h.service.Instantiate(ctx, caller)
	if err != nil {
		h.logFailure(ctx, "instantiate", err, "caller", caller)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "contract instantiated",
		"request_id", requestID,
		"admin", caller,
	)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	msg, ok := httputil.DecodeAndPrepare[models.ExecuteMsg](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	caller := requestcontext.Caller(ctx)
	resp, err := h.service.AddUpdate(ctx, caller, msg.AddUpdate)
	if err != nil {
		h.logFailure(ctx, "add_update", err, "caller", caller, "model_id", msg.AddUpdate.ModelID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	msg, ok := httputil.DecodeAndPrepare[models.QueryMsg](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	h.writeUpdate(ctx, w, msg.GetUpdate.ModelID)
}

func (h *Handler) HandleGetUpdate(w http.ResponseWriter, r *http.Request) {
	h.writeUpdate(r.Context(), w, chi.URLParam(r, "model_id"))
}

func (h *Handler) HandleContractInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	info, err := h.service.ContractInfo(ctx)
	if err != nil {
		h.logFailure(ctx, "contract_info", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, info)
}

func (h *Handler) writeUpdate(ctx context.Context, w http.ResponseWriter, modelID string) {
	update, err := h.service.GetUpdate(ctx, modelID)
	if err != nil {
		h.logFailure(ctx, "get_update", err, "model_id", modelID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, update)
}

// logFailure logs client errors at warn and everything else at error.
func (h *Handler) logFailure(ctx context.Context, call string, err error, attrs ...any) {
	args := append([]any{
		"call", call,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	}, attrs...)
	if dErrors.ToHTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "contract call failed", args...)
		return
	}
	h.logger.WarnContext(ctx, "contract call refused", args...)
}
