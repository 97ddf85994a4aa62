package redemption

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/repaircoin/repaircoin-api/internal/domain/customer"
	"github.com/repaircoin/repaircoin-api/internal/domain/ledger"
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

// Create opens a session for the acting shop.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	shopID := middleware.GetShopID(r.Context())
	if shopID == uuid.Nil {
		response.Forbidden(w, "shop credentials required")
		return
	}

	var req createSessionRequest
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

	session, qrToken, err := h.svc.Create(r.Context(), shopID, customerID, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, createSessionResponse{
		SessionID: session.ID.String(),
		Status:    session.Status,
		ExpiresAt: session.ExpiresAt,
		QRToken:   qrToken,
	})
}

// Approve lets the session's customer authorize the deduction.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.svc.Approve)
}

// Reject lets the session's customer decline the deduction.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.svc.Reject)
}

// GetStatus is the shop's polling endpoint.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid session id")
		return
	}

	session, err := h.svc.GetStatus(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, statusResponse{
		SessionID: session.ID.String(),
		Status:    session.Status,
		ExpiresAt: session.ExpiresAt,
	})
}

// Execute performs the spend for an approved session.
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		response.BadRequest(w, "invalid session_id")
		return
	}

	session, entry, err := h.svc.Execute(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, executeResponse{
		SessionID:     session.ID.String(),
		Status:        session.Status,
		LedgerEntryID: entry.ID.String(),
		Amount:        entry.Amount,
	})
}

// ValidateQR runs the collapsed approve+spend path.
func (h *Handler) ValidateQR(w http.ResponseWriter, r *http.Request) {
	var req qrValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	session, entry, err := h.svc.ValidateQR(r.Context(), req.QRPayload)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, executeResponse{
		SessionID:     session.ID.String(),
		Status:        session.Status,
		LedgerEntryID: entry.ID.String(),
		Amount:        entry.Amount,
	})
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, sessionID, customerID uuid.UUID) (*Session, error)) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid session id")
		return
	}

	customerID := middleware.GetUserID(r.Context())
	if customerID == uuid.Nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	session, err := fn(r.Context(), sessionID, customerID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, statusResponse{
		SessionID: session.ID.String(),
		Status:    session.Status,
		ExpiresAt: session.ExpiresAt,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		response.Error(w, http.StatusBadRequest, "INVALID_AMOUNT", "amount must be positive with at most two decimal places")
	case errors.Is(err, ledger.ErrInsufficientBalance):
		response.UnprocessableEntity(w, "INSUFFICIENT_BALANCE", "available balance cannot cover this amount")
	case errors.Is(err, ErrSessionNotFound):
		response.NotFound(w, "session not found")
	case errors.Is(err, ErrSessionExpired):
		response.Gone(w, "SESSION_EXPIRED", "session has expired")
	case errors.Is(err, ErrSessionAlreadyResolved):
		response.Conflict(w, "SESSION_ALREADY_RESOLVED", "session is no longer pending")
	case errors.Is(err, ErrInvalidQR):
		response.BadRequest(w, "invalid or consumed qr payload")
	case errors.Is(err, customer.ErrNotFound):
		response.NotFound(w, "customer not found")
	case errors.Is(err, shop.ErrNotFound):
		response.NotFound(w, "shop not found")
	case errors.Is(err, shop.ErrInactive):
		response.Forbidden(w, "shop is not active")
	default:
		response.InternalError(w)
	}
}

// SessionRoutes mounts the session lifecycle endpoints.
func (h *Handler) SessionRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.With(middleware.RequireShop()).Post("/", h.Create)
	r.With(middleware.RequireShop()).Get("/{id}", h.GetStatus)
	r.With(middleware.RequireCustomer()).Post("/{id}/approve", h.Approve)
	r.With(middleware.RequireCustomer()).Post("/{id}/reject", h.Reject)
	return r
}

// ExecuteRoutes mounts the shop-facing spend endpoint.
func (h *Handler) ExecuteRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(middleware.RequireShop())
	r.Post("/execute", h.Execute)
	return r
}

// QRRoutes mounts the collapsed approve+spend endpoint.
func (h *Handler) QRRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(middleware.RequireShop())
	r.Post("/validate", h.ValidateQR)
	return r
}
