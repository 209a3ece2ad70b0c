package schedule

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ngoma/core"
)

// ClassSchedule is one scheduled class session of a batch.
type ClassSchedule struct {
	ID          string    `json:"id"`
	BatchID     string    `json:"batch_id"`
	Date        time.Time `json:"date"` // day start, UTC
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	Location    string    `json:"location"`
	Notes       string    `json:"notes"`
	IsPublished bool      `json:"is_published"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewSchedule contains information needed to create a ClassSchedule.
type NewSchedule struct {
	BatchID   string    `json:"batch_id" validate:"required,uuid4"`
	Date      time.Time `json:"date" validate:"required"`
	StartTime string    `json:"start_time" validate:"required"`
	EndTime   string    `json:"end_time" validate:"required"`
	Location  string    `json:"location"`
	Notes     string    `json:"notes"`
}

func (ns *NewSchedule) Validate(validate *validator.Validate) error {
	ns.Location = core.CleanString(ns.Location)
	return validate.Struct(ns)
}

// UpdateSchedule defines what information may be provided to modify a ClassSchedule.
type UpdateSchedule struct {
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Location  string    `json:"location"`
	Notes     string    `json:"notes"`
}

func (us *UpdateSchedule) Validate(validate *validator.Validate) error {
	us.Location = core.CleanString(us.Location)
	return validate.Struct(us)
}

type QueryFilter struct {
	BatchID     string    `query:"batch_id"`
	StartDate   time.Time `query:"start_date"`
	EndDate     time.Time `query:"end_date"`
	IsPublished *bool     `query:"is_published"`
}
