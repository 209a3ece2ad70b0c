package batch

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ngoma/core"
)

// Levels
const (
	LevelBasic        = "basic"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Schedule is the weekly time slot shared by a batch's classes.
type Schedule struct {
	Days      []string `json:"days"`
	StartTime string   `json:"start_time"` // "HH:MM"
	EndTime   string   `json:"end_time"`   // "HH:MM"
}

type Batch struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Level        string    `json:"level"`
	Schedule     Schedule  `json:"schedule"`
	InstructorID string    `json:"instructor_id"`
	StudentIDs   []string  `json:"student_ids"`
	MaxStudents  int       `json:"max_students"`
	MonthlyFee   float64   `json:"monthly_fee"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// IsFull reports whether the roster has reached capacity.
func (b Batch) IsFull() bool {
	return len(b.StudentIDs) >= b.MaxStudents
}

// HasStudent reports whether the student is a current member of the roster.
func (b Batch) HasStudent(studentID string) bool {
	for _, id := range b.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// NewBatch contains information needed to create a new Batch.
type NewBatch struct {
	Name         string   `json:"name" validate:"required"`
	Description  string   `json:"description"`
	Level        string   `json:"level" validate:"required,oneof=basic intermediate advanced"`
	Days         []string `json:"days" validate:"required,min=1,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime    string   `json:"start_time" validate:"required"`
	EndTime      string   `json:"end_time" validate:"required"`
	InstructorID string   `json:"instructor_id" validate:"omitempty,uuid4"`
	MaxStudents  int      `json:"max_students" validate:"required,min=1"`
	MonthlyFee   float64  `json:"monthly_fee" validate:"min=0"`
}

func (nb *NewBatch) Validate(validate *validator.Validate) error {
	nb.Name = core.CleanString(nb.Name)
	return validate.Struct(nb)
}

// UpdateBatch defines what information may be provided to modify an existing Batch.
type UpdateBatch struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Level        string   `json:"level" validate:"omitempty,oneof=basic intermediate advanced"`
	Days         []string `json:"days" validate:"omitempty,min=1,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	InstructorID string   `json:"instructor_id" validate:"omitempty,uuid4"`
	MaxStudents  int      `json:"max_students" validate:"omitempty,min=1"`
	MonthlyFee   *float64 `json:"monthly_fee" validate:"omitempty,min=0"`
	IsActive     *bool    `json:"is_active"`
}

func (ub *UpdateBatch) Validate(validate *validator.Validate) error {
	ub.Name = core.CleanString(ub.Name)
	return validate.Struct(ub)
}

type QueryFilter struct {
	Search       string `query:"search"`
	Level        string `query:"level"`
	InstructorID string `query:"instructor_id"`
	StudentID    string `query:"student_id"`
	IsActive     *bool  `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Level == "" && qf.InstructorID == "" && qf.StudentID == "" && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Level = core.CleanString(qf.Level, true /* lower */)
}
