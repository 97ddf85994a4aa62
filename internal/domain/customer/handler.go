package customer

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/repaircoin/repaircoin-api/internal/middleware"
	"github.com/repaircoin/repaircoin-api/internal/pkg/response"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

type deviceRequest struct {
	Token string `json:"token"`
}

// RegisterDevice stores the caller's FCM token for approval pushes.
func (h *Handler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if err := h.repo.UpdateDeviceToken(r.Context(), userID, req.Token); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "customer not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]bool{"registered": req.Token != ""})
}

// Me returns the caller's account record (counters and tier; the available
// balance lives behind the balances endpoint).
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	c, err := h.repo.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "customer not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, c)
}
