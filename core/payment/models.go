package payment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ngoma/core"
)

// Statuses
const (
	StatusPaid    = "paid"
	StatusPending = "pending"
)

// Record is a student's fee record for one (student, batch, month) triple;
// Month is normalized to the first of the month (UTC).
type Record struct {
	ID        string     `json:"id"`
	StudentID string     `json:"student_id"`
	BatchID   string     `json:"batch_id"`
	Month     time.Time  `json:"month"`
	Amount    float64    `json:"amount"`
	Status    string     `json:"status"`
	Method    string     `json:"method,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	PaidOn    *time.Time `json:"paid_on,omitempty"`
	CreatedAt time.Time  `json:"created_at"` // UTC
	UpdatedAt time.Time  `json:"updated_at"` // UTC
}

// UpsertPayment contains information needed to reconcile a payment record.
type UpsertPayment struct {
	StudentID string     `json:"student_id" validate:"required,uuid4"`
	BatchID   string     `json:"batch_id" validate:"required,uuid4"`
	Month     string     `json:"month" validate:"required,yyyymm"`
	Amount    *float64   `json:"amount" validate:"omitempty,gt=0"`
	Status    string     `json:"status" validate:"omitempty,oneof=paid pending"`
	Method    string     `json:"method" validate:"omitempty,oneof=cash card upi bank_transfer"`
	Notes     string     `json:"notes"`
	PaidOn    *time.Time `json:"paid_on"`
}

func (up *UpsertPayment) Validate(validate *validator.Validate) error {
	up.Notes = core.CleanString(up.Notes)
	return validate.Struct(up)
}

// ParseMonth parses a "YYYY-MM" month string to its first-of-month timestamp.
func ParseMonth(month string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01", month, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

type QueryFilter struct {
	StudentID string `query:"student_id"`
	BatchID   string `query:"batch_id"`
	Month     string `query:"month"` // "YYYY-MM"
	Status    string `query:"status"`
}

// BatchMonthRow merges a student's identity with their payment record for a
// month. Recorded is explicit: absence of a record is not an error but an
// implicit "not yet paid" state defaulting to pending and the batch fee.
type BatchMonthRow struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Email       string `json:"email"`
	Recorded    bool   `json:"recorded"`
	Record      Record `json:"record"`
}

// StatusBucket sums and counts records sharing a status.
type StatusBucket struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// Summary always carries both buckets, even when zero.
type Summary struct {
	Paid    StatusBucket `json:"paid"`
	Pending StatusBucket `json:"pending"`
}
