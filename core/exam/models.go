package exam

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ngoma/core"
)

type Exam struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	BatchID   string    `json:"batch_id"`
	Title     string    `json:"title"`
	ExamDate  time.Time `json:"exam_date"`

	MarksObtained float64 `json:"marks_obtained"`
	TotalMarks    float64 `json:"total_marks"`

	// Derived at write time from the marks and persisted; later changes to
	// TotalMarks do not retroactively recompute stored exams.
	Percentage float64 `json:"percentage"`
	Grade      string  `json:"grade"`

	IsPublished bool      `json:"is_published"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewExam contains information needed to record an exam result.
type NewExam struct {
	StudentID     string    `json:"student_id" validate:"required,uuid4"`
	BatchID       string    `json:"batch_id" validate:"required,uuid4"`
	Title         string    `json:"title" validate:"required"`
	ExamDate      time.Time `json:"exam_date" validate:"required"`
	MarksObtained float64   `json:"marks_obtained" validate:"min=0"`
	TotalMarks    float64   `json:"total_marks" validate:"required,gt=0,gtefield=MarksObtained"`
	IsPublished   bool      `json:"is_published"`
}

func (ne *NewExam) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	return validate.Struct(ne)
}

// UpdateExam defines what information may be provided to modify an Exam.
type UpdateExam struct {
	Title         string    `json:"title"`
	ExamDate      time.Time `json:"exam_date"`
	MarksObtained *float64  `json:"marks_obtained" validate:"omitempty,min=0"`
	TotalMarks    *float64  `json:"total_marks" validate:"omitempty,gt=0"`
	IsPublished   *bool     `json:"is_published"`
}

func (ue *UpdateExam) Validate(validate *validator.Validate) error {
	ue.Title = core.CleanString(ue.Title)
	return validate.Struct(ue)
}

type QueryFilter struct {
	StudentID   string    `query:"student_id"`
	BatchID     string    `query:"batch_id"`
	StartDate   time.Time `query:"start_date"`
	EndDate     time.Time `query:"end_date"`
	IsPublished *bool     `query:"is_published"`
}

// StudentStats aggregates a student's published exams.
type StudentStats struct {
	StudentID   string         `json:"student_id"`
	Count       int            `json:"count"`
	AveragePct  float64        `json:"average_pct"`
	BestPct     float64        `json:"best_pct"`
	WorstPct    float64        `json:"worst_pct"`
	GradeCounts map[string]int `json:"grade_counts"`
}
