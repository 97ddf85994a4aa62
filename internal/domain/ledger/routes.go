package ledger

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/repaircoin/repaircoin-api/internal/middleware"
)

// BalanceRoutes mounts the projector-backed read surface.
func (h *Handler) BalanceRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/{customerId}", h.Balance)
	return r
}

// EarningRoutes mounts the shop-facing earn endpoint.
func (h *Handler) EarningRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(middleware.RequireShop())
	r.Post("/", h.Earn)
	return r
}

// RefundRoutes mounts the redemption reversal endpoint.
func (h *Handler) RefundRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(middleware.RequireShopOrAdmin())
	r.Post("/", h.Refund)
	return r
}

// MintRoutes mounts the wallet mint endpoints.
func (h *Handler) MintRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.With(middleware.RequireCustomer()).Post("/request", h.RequestMint)
	r.With(middleware.RequireAdmin()).Post("/complete", h.CompleteMint)
	return r
}

// TransferRoutes mounts the customer transfer endpoint.
func (h *Handler) TransferRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(middleware.RequireCustomer())
	r.Post("/", h.Transfer)
	return r
}
