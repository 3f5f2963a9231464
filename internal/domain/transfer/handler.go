package transfer

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/partnerdesk/partner-api/internal/domain/partner"
	"github.com/partnerdesk/partner-api/internal/middleware"
	"github.com/partnerdesk/partner-api/internal/pkg/errorhandler"
	"github.com/partnerdesk/partner-api/internal/pkg/response"
	"github.com/partnerdesk/partner-api/internal/pkg/validator"
)

type Handler struct {
	svc  *Service
	repo *Repository
}

func NewHandler(svc *Service, repo *Repository) *Handler {
	return &Handler{svc: svc, repo: repo}
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	h.handleTransfer(w, r, h.svc.Execute)
}

func (h *Handler) ForcedTransfer(w http.ResponseWriter, r *http.Request) {
	h.handleTransfer(w, r, h.svc.ExecuteForced)
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request, exec func(ctx context.Context, actor uuid.UUID, req Request) (*Result, error)) {
	adminID := middleware.GetAdminID(r.Context())
	if adminID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req Request
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	result, err := exec(r.Context(), adminID, req)
	if err != nil {
		h.respondTransferError(r, w, err)
		return
	}
	response.OK(w, result)
}

// History returns a partner's balance-log rows, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	partnerID, err := uuid.Parse(chi.URLParam(r, "partnerID"))
	if err != nil {
		response.BadRequest(w, "invalid partner id")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	records, err := h.repo.ListByPartner(r.Context(), partnerID, limit, offset)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load balance log", err)
		return
	}
	response.OK(w, map[string]interface{}{"records": records, "count": len(records)})
}

func (h *Handler) respondTransferError(r *http.Request, w http.ResponseWriter, err error) {
	var rej *Rejection
	if errors.As(err, &rej) {
		details := map[string]string{"limit": strconv.FormatInt(rej.Limit, 10)}
		if rej.Channel != nil {
			details["channel"] = string(*rej.Channel)
		}

		switch {
		case errors.Is(err, ErrInvalidAmount),
			errors.Is(err, ErrChannelRequired),
			errors.Is(err, ErrSamePartner),
			errors.Is(err, ErrInvalidTierPair):
			response.ErrorWithDetails(w, http.StatusBadRequest, "BAD_REQUEST", rej.Reason.Error(), details)
		default:
			response.ErrorWithDetails(w, http.StatusConflict, "TRANSFER_REJECTED", rej.Reason.Error(), details)
		}
		return
	}

	switch {
	case errors.Is(err, partner.ErrNotFound):
		response.NotFound(w, "partner not found")
	case errors.Is(err, ErrConcurrentModification):
		response.Conflict(w, "balance changed concurrently, re-fetch and retry")
	case errors.Is(err, ErrPartialFailure):
		errorhandler.HandleError(r.Context(), w, http.StatusConflict, "PARTIAL_FAILURE", "transfer outcome unknown, re-fetch balances before retrying", err)
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "transfer failed", err)
	}
}

func (h *Handler) Routes(authMiddleware, adminOnly func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.Transfer)
	r.With(adminOnly).Post("/forced", h.ForcedTransfer)
	r.Get("/log/{partnerID}", h.History)
	return r
}
