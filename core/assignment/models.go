package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ngoma/core"
)

// Submission statuses
const (
	StatusSubmitted = "submitted"
	StatusGraded    = "graded"
)

type Assignment struct {
	ID          string    `json:"id"`
	BatchID     string    `json:"batch_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	MaxPoints   float64   `json:"max_points"`

	// Denormalized aggregates; caches re-derived from submissions on every
	// grading/submission transaction and on resync.
	TotalSubmissions  int     `json:"total_submissions"`
	GradedSubmissions int     `json:"graded_submissions"`
	AverageScore      float64 `json:"average_score"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Submission belongs to one (assignment, student) pair; at most one per pair,
// later submissions overwrite rather than duplicate.
type Submission struct {
	ID           string     `json:"id"`
	AssignmentID string     `json:"assignment_id"`
	StudentID    string     `json:"student_id"`
	Text         string     `json:"text,omitempty"`
	URL          string     `json:"url,omitempty"`
	Status       string     `json:"status"`
	Grade        *float64   `json:"grade,omitempty"`
	Feedback     string     `json:"feedback,omitempty"`
	SubmittedAt  time.Time  `json:"submitted_at"` // UTC
	GradedAt     *time.Time `json:"graded_at,omitempty"`
	GradedBy     string     `json:"graded_by,omitempty"`
}

// NewAssignment contains information needed to create an Assignment.
type NewAssignment struct {
	BatchID     string    `json:"batch_id" validate:"required,uuid4"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	MaxPoints   float64   `json:"max_points" validate:"required,gt=0"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	return validate.Struct(na)
}

// UpdateAssignment defines what information may be provided to modify an Assignment.
type UpdateAssignment struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	MaxPoints   float64   `json:"max_points" validate:"omitempty,gt=0"`
}

func (ua *UpdateAssignment) Validate(validate *validator.Validate) error {
	ua.Title = core.CleanString(ua.Title)
	return validate.Struct(ua)
}

// SubmitInput contains a student's submission content.
type SubmitInput struct {
	Text string `json:"text" validate:"required_without=URL"`
	URL  string `json:"url" validate:"omitempty,url"`
}

func (si *SubmitInput) Validate(validate *validator.Validate) error {
	si.Text = core.CleanString(si.Text)
	si.URL = core.CleanString(si.URL)
	return validate.Struct(si)
}

// GradeInput contains a grading decision for a submission.
type GradeInput struct {
	Grade    float64 `json:"grade" validate:"min=0"`
	Feedback string  `json:"feedback"`
}

func (gi *GradeInput) Validate(validate *validator.Validate) error {
	gi.Feedback = core.CleanString(gi.Feedback)
	return validate.Struct(gi)
}

type QueryFilter struct {
	BatchID   string    `query:"batch_id"`
	StudentID string    `query:"student_id"`
	DueFrom   time.Time `query:"due_from"`
	DueTo     time.Time `query:"due_to"`
}
