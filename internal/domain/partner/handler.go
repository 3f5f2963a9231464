package partner

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/partnerdesk/partner-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondLookupError(w, err)
		return
	}
	response.OK(w, p)
}

func (h *Handler) Descendants(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	partners, err := h.svc.DescendantsOf(r.Context(), id)
	if err != nil {
		respondLookupError(w, err)
		return
	}
	response.OK(w, map[string]interface{}{"partners": partners, "count": len(partners)})
}

func (h *Handler) Ancestors(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	chain, err := h.svc.AncestorChain(r.Context(), id)
	if err != nil {
		respondLookupError(w, err)
		return
	}
	response.OK(w, map[string]interface{}{"partners": chain})
}

func (h *Handler) Wallet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	snap, err := h.svc.SnapshotWallet(r.Context(), id)
	if err != nil {
		respondLookupError(w, err)
		return
	}
	response.OK(w, snap)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/descendants", h.Descendants)
	r.Get("/{id}/ancestors", h.Ancestors)
	r.Get("/{id}/wallet", h.Wallet)
	return r
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid partner id")
		return uuid.Nil, false
	}
	return id, true
}

func respondLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		response.NotFound(w, "partner not found")
		return
	}
	response.InternalError(w)
}
