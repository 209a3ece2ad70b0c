package attendance

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core"
	"github.com/trezcool/ngoma/core/batch"
	"github.com/trezcool/ngoma/core/user"
)

var (
	// errors
	ErrNotFound          = errors.New("attendance record not found")
	ErrStudentNotInBatch = errors.New("student is not enrolled in this batch")
)

type (
	Repository interface {
		// UpsertRecord reconciles the (batch, day) record in a single atomic
		// operation: the store enforces uniqueness on (batch_id, date) and an
		// existing record's entries, topic, duration and marker are overwritten.
		UpsertRecord(ctx context.Context, rec Record) (Record, error)
		GetRecordByID(ctx context.Context, id string) (Record, error)
		GetRecord(ctx context.Context, batchID string, date time.Time) (Record, error)
		// FilterRecords applies AND operation on available QueryFilter fields;
		// StudentID matches records containing an entry for that student.
		FilterRecords(ctx context.Context, filter QueryFilter) ([]Record, error)
		DeleteRecordsByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Mark(ctx context.Context, markedBy string, m Mark) (Record, error)
		GetByID(ctx context.Context, id string) (Record, error)
		Filter(ctx context.Context, filter QueryFilter) ([]Record, error)
		Delete(ctx context.Context, ids ...string) error
		StudentSummary(ctx context.Context, studentID string, startDate, endDate time.Time) (StudentSummary, error)
		BatchSummary(ctx context.Context, batchID string, startDate, endDate time.Time) (BatchSummary, error)
	}

	service struct {
		repo    Repository
		batches batch.Repository
		users   user.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, batches batch.Repository, users user.Repository) Service {
	return &service{
		repo:    repo,
		batches: batches,
		users:   users,
	}
}

// Mark reconciles a batch's attendance for the calendar day of m.Date: the
// existing record is overwritten if present, created otherwise. Only currently
// enrolled students may appear in the entry list; their display names are
// resolved and stored with the record.
func (svc *service) Mark(ctx context.Context, markedBy string, m Mark) (Record, error) {
	b, err := svc.batches.GetBatchByID(ctx, m.BatchID)
	if err != nil {
		return Record{}, err
	}

	entries := make([]Entry, 0, len(m.Entries))
	for _, e := range m.Entries {
		if !b.HasStudent(e.StudentID) {
			return Record{}, core.NewValidationError(ErrStudentNotInBatch,
				core.FieldError{Field: "entries", Error: ErrStudentNotInBatch.Error()})
		}
		usr, err := svc.users.GetUserByID(ctx, e.StudentID)
		if err != nil {
			return Record{}, errors.Wrap(err, "loading student")
		}
		entries = append(entries, Entry{StudentID: e.StudentID, StudentName: usr.Name, Status: Status(e.Status)})
	}

	now := time.Now().UTC()
	rec := Record{
		BatchID:   b.ID,
		Date:      core.DayStart(m.Date),
		Topic:     m.Topic,
		Duration:  m.Duration,
		MarkedBy:  markedBy,
		Entries:   entries,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.UpsertRecord(ctx, rec)
}

func (svc *service) GetByID(ctx context.Context, id string) (Record, error) {
	return svc.repo.GetRecordByID(ctx, id)
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter) ([]Record, error) {
	if !filter.StartDate.IsZero() {
		filter.StartDate = core.DayStart(filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		filter.EndDate = core.DayStart(filter.EndDate)
	}
	return svc.repo.FilterRecords(ctx, filter)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteRecordsByID(ctx, ids...)
}

// StudentSummary classifies every record referencing the student within the
// date range; percent = round(100 * (present + late) / total classes).
func (svc *service) StudentSummary(ctx context.Context, studentID string, startDate, endDate time.Time) (StudentSummary, error) {
	recs, err := svc.Filter(ctx, QueryFilter{StudentID: studentID, StartDate: startDate, EndDate: endDate})
	if err != nil {
		return StudentSummary{}, errors.Wrap(err, "filtering records")
	}

	sum := StudentSummary{StudentID: studentID}
	for _, rec := range recs {
		for _, e := range rec.Entries {
			if e.StudentID != studentID {
				continue
			}
			sum.TotalClasses++
			switch e.Status {
			case StatusPresent:
				sum.Present++
			case StatusAbsent:
				sum.Absent++
			case StatusLate:
				sum.Late++
			case StatusExcused:
				sum.Excused++
			}
		}
	}
	sum.Percent = core.Pct(sum.Present+sum.Late, sum.TotalClasses)
	return sum, nil
}

// BatchSummary averages each record's derived percentage over the date range.
func (svc *service) BatchSummary(ctx context.Context, batchID string, startDate, endDate time.Time) (BatchSummary, error) {
	if _, err := svc.batches.GetBatchByID(ctx, batchID); err != nil {
		return BatchSummary{}, err
	}

	recs, err := svc.Filter(ctx, QueryFilter{BatchID: batchID, StartDate: startDate, EndDate: endDate})
	if err != nil {
		return BatchSummary{}, errors.Wrap(err, "filtering records")
	}

	sum := BatchSummary{BatchID: batchID, Records: make([]DaySummary, 0, len(recs))}
	var pctTotal int
	for _, rec := range recs {
		pct := rec.Percent()
		pctTotal += pct
		sum.Records = append(sum.Records, DaySummary{Date: rec.Date, Percent: pct})
	}
	sum.TotalRecords = len(recs)
	if sum.TotalRecords > 0 {
		sum.AveragePercent = int(math.Round(float64(pctTotal) / float64(sum.TotalRecords)))
	}
	return sum, nil
}
