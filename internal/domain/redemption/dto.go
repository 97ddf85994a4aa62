package redemption

import (
	"time"

	"github.com/shopspring/decimal"
)

type createSessionRequest struct {
	CustomerID string          `json:"customer_id" validate:"required,uuid"`
	Amount     decimal.Decimal `json:"amount"`
}

type createSessionResponse struct {
	SessionID string    `json:"session_id"`
	Status    Status    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	QRToken   string    `json:"qr_token"`
}

type statusResponse struct {
	SessionID string    `json:"session_id"`
	Status    Status    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
}

type executeRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
}

type executeResponse struct {
	SessionID     string          `json:"session_id"`
	Status        Status          `json:"status"`
	LedgerEntryID string          `json:"ledger_entry_id"`
	Amount        decimal.Decimal `json:"amount"`
}

type qrValidateRequest struct {
	QRPayload string `json:"qr_payload" validate:"required"`
}
