package noshow

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/repaircoin/repaircoin-api/internal/domain/shop"
	"github.com/repaircoin/repaircoin-api/internal/middleware"
	"github.com/repaircoin/repaircoin-api/internal/pkg/response"
	"github.com/repaircoin/repaircoin-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Record registers a no-show for the acting shop.
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	shopID := middleware.GetShopID(r.Context())
	if shopID == uuid.Nil {
		response.Forbidden(w, "shop credentials required")
		return
	}

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		response.BadRequest(w, "invalid customer_id")
		return
	}

	rec, standing, err := h.svc.RecordNoShow(r.Context(), shopID, customerID, req.BookingRef)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, recordResponse{Record: rec, Standing: standing})
}

// Dispute lets the record's customer contest it.
func (h *Handler) Dispute(w http.ResponseWriter, r *http.Request) {
	recordID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid record id")
		return
	}

	customerID := middleware.GetUserID(r.Context())
	if customerID == uuid.Nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	var req disputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	rec, err := h.svc.FileDispute(r.Context(), recordID, customerID, req.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, rec)
}

// ResolveDispute settles a pending dispute.
func (h *Handler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	recordID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid record id")
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	rec, err := h.svc.ResolveDispute(r.Context(), recordID, req.Resolution == "approved")
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, rec)
}

// Standing reports a customer's standing with the acting shop.
func (h *Handler) Standing(w http.ResponseWriter, r *http.Request) {
	shopID := middleware.GetShopID(r.Context())
	if shopID == uuid.Nil {
		response.Forbidden(w, "shop credentials required")
		return
	}

	customerID, err := uuid.Parse(chi.URLParam(r, "customerId"))
	if err != nil {
		response.BadRequest(w, "invalid customer id")
		return
	}

	standing, count, err := h.svc.GetStanding(r.Context(), customerID, shopID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, standingResponse{
		CustomerID:     customerID.String(),
		ShopID:         shopID.String(),
		Standing:       standing,
		EffectiveCount: count,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrRecordNotFound):
		response.NotFound(w, "no-show record not found")
	case errors.Is(err, ErrDisputeAlreadyFiled):
		response.Conflict(w, "DISPUTE_ALREADY_FILED", "a dispute has already been filed for this record")
	case errors.Is(err, ErrDisputeAlreadyResolved):
		response.Conflict(w, "DISPUTE_ALREADY_RESOLVED", "this dispute has already been resolved")
	case errors.Is(err, ErrNoDispute):
		response.BadRequest(w, "no dispute filed for this record")
	case errors.Is(err, shop.ErrNotFound):
		response.NotFound(w, "shop not found")
	case errors.Is(err, shop.ErrInactive):
		response.Forbidden(w, "shop is not active")
	default:
		response.InternalError(w)
	}
}

// Routes mounts the no-show endpoints.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.With(middleware.RequireShop()).Post("/", h.Record)
	r.With(middleware.RequireShop()).Get("/standing/{customerId}", h.Standing)
	r.With(middleware.RequireCustomer()).Post("/{id}/dispute", h.Dispute)
	r.With(middleware.RequireShopOrAdmin()).Post("/{id}/dispute/resolve", h.ResolveDispute)
	return r
}
