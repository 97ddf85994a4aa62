package ledger

import (
	"github.com/shopspring/decimal"
)

type earnRequest struct {
	CustomerID string            `json:"customer_id" validate:"required,uuid"`
	Kind       string            `json:"kind" validate:"required,earn_kind"`
	Amount     decimal.Decimal   `json:"amount"`
	Reference  string            `json:"reference" validate:"omitempty,max=128"`
	Metadata   map[string]string `json:"metadata"`
}

type refundRequest struct {
	RefundOf string          `json:"refund_of" validate:"required,uuid"`
	Amount   decimal.Decimal `json:"amount"`
	Reason   string          `json:"reason" validate:"required,max=256"`
}

type mintRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type mintCompleteRequest struct {
	CustomerID string          `json:"customer_id" validate:"required,uuid"`
	Amount     decimal.Decimal `json:"amount"`
	MintSource string          `json:"mint_source" validate:"required,max=64"`
	TxRef      string          `json:"tx_ref" validate:"omitempty,max=128"`
}

type transferRequest struct {
	ToCustomerID string          `json:"to_customer_id" validate:"required,uuid"`
	Amount       decimal.Decimal `json:"amount"`
	WalletRef    string          `json:"wallet_ref" validate:"omitempty,max=128"`
}

type transferResponse struct {
	Out *Entry `json:"out"`
	In  *Entry `json:"in"`
}
