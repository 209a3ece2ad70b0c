package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ngoma/core"
)

// Status of a single student's attendance entry.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
)

// Valid returns true when the status is a supported value.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	default:
		return false
	}
}

// Counted returns true when the status counts towards attendance percentage.
func (s Status) Counted() bool {
	return s == StatusPresent || s == StatusLate
}

// Entry is one student's status within a Record.
type Entry struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name,omitempty"`
	Status      Status `json:"status"`
}

// Record is the single attendance record of a batch for one calendar day.
// Entries for students no longer enrolled in the batch are never pruned; they
// persist as historical data after roster changes.
type Record struct {
	ID        string    `json:"id"`
	BatchID   string    `json:"batch_id"`
	Date      time.Time `json:"date"` // day start, UTC
	Topic     string    `json:"topic"`
	Duration  int       `json:"duration"` // minutes
	MarkedBy  string    `json:"marked_by"`
	Entries   []Entry   `json:"entries"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Percent returns round(100 * (present + late) / total); 0 when there are no entries.
func (r Record) Percent() int {
	var counted int
	for _, e := range r.Entries {
		if e.Status.Counted() {
			counted++
		}
	}
	return core.Pct(counted, len(r.Entries))
}

// MarkEntry is one student's status in a Mark call.
type MarkEntry struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
	Status    string `json:"status" validate:"required,oneof=present absent late excused"`
}

// Mark contains information needed to reconcile a batch's attendance for a day.
type Mark struct {
	BatchID  string      `json:"batch_id" validate:"required,uuid4"`
	Date     time.Time   `json:"date" validate:"required"`
	Topic    string      `json:"topic"`
	Duration int         `json:"duration" validate:"omitempty,min=0"`
	Entries  []MarkEntry `json:"entries" validate:"required,min=1,dive"`
}

func (m *Mark) Validate(validate *validator.Validate) error {
	m.Topic = core.CleanString(m.Topic)
	return validate.Struct(m)
}

type QueryFilter struct {
	BatchID   string    `query:"batch_id"`
	StudentID string    `query:"student_id"`
	StartDate time.Time `query:"start_date"`
	EndDate   time.Time `query:"end_date"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.BatchID == "" && qf.StudentID == "" && qf.StartDate.IsZero() && qf.EndDate.IsZero()
}

// StudentSummary aggregates one student's attendance over a date range.
type StudentSummary struct {
	StudentID    string `json:"student_id"`
	TotalClasses int    `json:"total_classes"`
	Present      int    `json:"present"`
	Absent       int    `json:"absent"`
	Late         int    `json:"late"`
	Excused      int    `json:"excused"`
	Percent      int    `json:"percent"`
}

// BatchSummary aggregates a batch's attendance records over a date range.
// AveragePercent is the arithmetic mean of each record's percentage.
type BatchSummary struct {
	BatchID        string       `json:"batch_id"`
	TotalRecords   int          `json:"total_records"`
	AveragePercent int          `json:"average_percent"`
	Records        []DaySummary `json:"records"`
}

// DaySummary is one record's date and derived percentage.
type DaySummary struct {
	Date    time.Time `json:"date"`
	Percent int       `json:"percent"`
}
