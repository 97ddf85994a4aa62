package noshow

import (
	"time"

	"github.com/google/uuid"
)

// DisputeStatus tracks the lifecycle of a customer dispute on a record.
type DisputeStatus string

const (
	DisputeNone     DisputeStatus = "none"
	DisputePending  DisputeStatus = "pending"
	DisputeApproved DisputeStatus = "approved"
	DisputeRejected DisputeStatus = "rejected"
)

// Record is one no-show event. Records are never deleted; a reversed record
// keeps its history but is excluded from the effective count.
type Record struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	CustomerID    uuid.UUID     `db:"customer_id" json:"customer_id"`
	ShopID        uuid.UUID     `db:"shop_id" json:"shop_id"`
	BookingRef    *string       `db:"booking_ref" json:"booking_ref,omitempty"`
	Disputed      bool          `db:"disputed" json:"disputed"`
	DisputeStatus DisputeStatus `db:"dispute_status" json:"dispute_status"`
	DisputeReason *string       `db:"dispute_reason" json:"dispute_reason,omitempty"`
	Reversed      bool          `db:"reversed" json:"reversed"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// Standing is a customer's status with one shop, derived from the effective
// no-show count against that shop's thresholds.
type Standing string

const (
	StandingNone            Standing = "none"
	StandingCaution         Standing = "caution"
	StandingDepositRequired Standing = "deposit_required"
	StandingSuspended       Standing = "suspended"
)

// StandingFor maps an effective no-show count to a standing using a shop's
// ascending thresholds. A zero threshold disables that rung.
func StandingFor(count, caution, deposit, suspension int) Standing {
	switch {
	case suspension > 0 && count >= suspension:
		return StandingSuspended
	case deposit > 0 && count >= deposit:
		return StandingDepositRequired
	case caution > 0 && count >= caution:
		return StandingCaution
	default:
		return StandingNone
	}
}
