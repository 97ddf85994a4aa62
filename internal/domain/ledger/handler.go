package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/repaircoin/repaircoin-api/internal/domain/customer"
	"github.com/repaircoin/repaircoin-api/internal/middleware"
	"github.com/repaircoin/repaircoin-api/internal/pkg/jwt"
	"github.com/repaircoin/repaircoin-api/internal/pkg/response"
	"github.com/repaircoin/repaircoin-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Balance reports the projector's view for a customer. Customers may only
// read their own balance; shops and admins may read any.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.resolveCustomer(w, r, chi.URLParam(r, "customerId"))
	if !ok {
		return
	}

	proj, err := h.svc.Balance(r.Context(), customerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, proj)
}

// History returns a page of the customer's ledger entries.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.resolveCustomer(w, r, chi.URLParam(r, "customerId"))
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, total, limit, err := h.svc.History(r.Context(), customerID, limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.WithMeta(w, entries, response.Meta{Total: total, Limit: limit, Offset: offset})
}

// Earn records an earn-class entry for the acting shop.
func (h *Handler) Earn(w http.ResponseWriter, r *http.Request) {
	shopID := middleware.GetShopID(r.Context())
	if shopID == uuid.Nil {
		response.Forbidden(w, "shop credentials required")
		return
	}

	var req earnRequest
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

	entries, err := h.svc.RecordEarn(r.Context(), EarnParams{
		CustomerID: customerID,
		ShopID:     shopID,
		Kind:       Kind(req.Kind),
		Amount:     req.Amount,
		Reference:  req.Reference,
		Metadata:   Metadata(req.Metadata),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, entries)
}

// Refund reverses part or all of a prior redemption.
func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	refundOf, err := uuid.Parse(req.RefundOf)
	if err != nil {
		response.BadRequest(w, "invalid refund_of")
		return
	}

	entry, err := h.svc.ReverseRedemption(r.Context(), refundOf, req.Amount, req.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, entry)
}

// RequestMint earmarks the caller's balance for an external wallet mint.
func (h *Handler) RequestMint(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	proj, err := h.svc.RequestMint(r.Context(), userID, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, proj)
}

// CompleteMint settles a pending mint. Admin only; driven by the wallet
// bridge once the external credit is confirmed.
func (h *Handler) CompleteMint(w http.ResponseWriter, r *http.Request) {
	var req mintCompleteRequest
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

	entry, err := h.svc.CompleteMint(r.Context(), customerID, req.Amount, req.MintSource, req.TxRef)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, entry)
}

// Transfer records a wallet transfer from the caller to another customer.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	toID, err := uuid.Parse(req.ToCustomerID)
	if err != nil {
		response.BadRequest(w, "invalid to_customer_id")
		return
	}

	out, in, err := h.svc.Transfer(r.Context(), userID, toID, req.Amount, req.WalletRef)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, transferResponse{Out: out, In: in})
}

// resolveCustomer parses the path customer ID and enforces that customers
// only read themselves.
func (h *Handler) resolveCustomer(w http.ResponseWriter, r *http.Request, raw string) (uuid.UUID, bool) {
	customerID, err := uuid.Parse(raw)
	if err != nil {
		response.BadRequest(w, "invalid customer id")
		return uuid.Nil, false
	}

	if middleware.GetRole(r.Context()) == jwt.RoleCustomer && middleware.GetUserID(r.Context()) != customerID {
		response.Forbidden(w, "customers may only access their own ledger")
		return uuid.Nil, false
	}
	return customerID, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		response.Error(w, http.StatusBadRequest, "INVALID_AMOUNT", "amount must be positive with at most two decimal places")
	case errors.Is(err, ErrInsufficientBalance):
		response.UnprocessableEntity(w, "INSUFFICIENT_BALANCE", "available balance cannot cover this amount")
	case errors.Is(err, ErrInsufficientPendingMint):
		response.UnprocessableEntity(w, "INSUFFICIENT_PENDING_MINT", "pending mint balance cannot cover this amount")
	case errors.Is(err, ErrRefundExceedsOriginal):
		response.Conflict(w, "REFUND_EXCEEDS_ORIGINAL", "cumulative refunds would exceed the original redemption")
	case errors.Is(err, ErrNotRefundable):
		response.BadRequest(w, "referenced entry is not a redemption")
	case errors.Is(err, ErrEntryNotFound):
		response.NotFound(w, "ledger entry not found")
	case errors.Is(err, ErrDuplicateReference):
		response.Conflict(w, "DUPLICATE_REFERENCE", "reference already used with a different amount")
	case errors.Is(err, customer.ErrNotFound):
		response.NotFound(w, "customer not found")
	default:
		response.InternalError(w)
	}
}
