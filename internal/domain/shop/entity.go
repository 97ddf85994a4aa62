package shop

import (
	"time"

	"github.com/google/uuid"
)

// Shop is a participating repair shop. Onboarding and billing live in a
// separate service; this API reads the fields the loyalty core depends on.
// The three thresholds configure no-show standing, by ascending count.
type Shop struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	Name                string    `db:"name" json:"name"`
	Active              bool      `db:"active" json:"active"`
	CautionThreshold    int       `db:"caution_threshold" json:"caution_threshold"`
	DepositThreshold    int       `db:"deposit_threshold" json:"deposit_threshold"`
	SuspensionThreshold int       `db:"suspension_threshold" json:"suspension_threshold"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}
