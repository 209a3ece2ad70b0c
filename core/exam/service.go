package exam

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core"
	"github.com/trezcool/ngoma/core/batch"
)

var (
	// errors
	ErrNotFound = errors.New("exam not found")
)

type (
	Repository interface {
		CreateExam(ctx context.Context, e Exam) (Exam, error)
		GetExamByID(ctx context.Context, id string) (Exam, error)
		FilterExams(ctx context.Context, filter QueryFilter) ([]Exam, error)
		UpdateExam(ctx context.Context, e Exam, isPublished *bool) (Exam, error)
		DeleteExamsByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Create(ctx context.Context, createdBy string, ne NewExam) (Exam, error)
		GetByID(ctx context.Context, id string) (Exam, error)
		Filter(ctx context.Context, filter QueryFilter) ([]Exam, error)
		Update(ctx context.Context, id string, ue UpdateExam) (Exam, error)
		Delete(ctx context.Context, ids ...string) error
		StudentStats(ctx context.Context, studentID string) (StudentStats, error)
	}

	service struct {
		repo    Repository
		batches batch.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, batches batch.Repository) Service {
	return &service{
		repo:    repo,
		batches: batches,
	}
}

func (svc *service) Create(ctx context.Context, createdBy string, ne NewExam) (Exam, error) {
	if _, err := svc.batches.GetBatchByID(ctx, ne.BatchID); err != nil {
		return Exam{}, err
	}

	now := time.Now().UTC()
	e := Exam{
		StudentID:     ne.StudentID,
		BatchID:       ne.BatchID,
		Title:         ne.Title,
		ExamDate:      core.DayStart(ne.ExamDate),
		MarksObtained: ne.MarksObtained,
		TotalMarks:    ne.TotalMarks,
		IsPublished:   ne.IsPublished,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	e.Percentage, e.Grade = Derive(e.MarksObtained, e.TotalMarks)
	return svc.repo.CreateExam(ctx, e)
}

func (svc *service) GetByID(ctx context.Context, id string) (Exam, error) {
	return svc.repo.GetExamByID(ctx, id)
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter) ([]Exam, error) {
	return svc.repo.FilterExams(ctx, filter)
}

// Update re-derives percentage and grade whenever the marks change; saving the
// record is the only thing that refreshes the stored derivation.
func (svc *service) Update(ctx context.Context, id string, ue UpdateExam) (Exam, error) {
	e, err := svc.repo.GetExamByID(ctx, id)
	if err != nil {
		return Exam{}, err
	}

	if ue.Title != "" {
		e.Title = ue.Title
	}
	if !ue.ExamDate.IsZero() {
		e.ExamDate = core.DayStart(ue.ExamDate)
	}
	if ue.MarksObtained != nil {
		e.MarksObtained = *ue.MarksObtained
	}
	if ue.TotalMarks != nil {
		e.TotalMarks = *ue.TotalMarks
	}
	if e.MarksObtained > e.TotalMarks {
		return Exam{}, core.NewValidationError(errors.New("marks obtained cannot exceed total marks"))
	}
	e.Percentage, e.Grade = Derive(e.MarksObtained, e.TotalMarks)
	e.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateExam(ctx, e, ue.IsPublished)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteExamsByID(ctx, ids...)
}

// StudentStats aggregates all of the student's published exams.
func (svc *service) StudentStats(ctx context.Context, studentID string) (StudentStats, error) {
	published := true
	exams, err := svc.repo.FilterExams(ctx, QueryFilter{StudentID: studentID, IsPublished: &published})
	if err != nil {
		return StudentStats{}, errors.Wrap(err, "filtering exams")
	}

	stats := StudentStats{
		StudentID:   studentID,
		Count:       len(exams),
		GradeCounts: make(map[string]int),
	}
	if stats.Count == 0 {
		return stats, nil
	}

	var total float64
	stats.BestPct = exams[0].Percentage
	stats.WorstPct = exams[0].Percentage
	for _, e := range exams {
		total += e.Percentage
		if e.Percentage > stats.BestPct {
			stats.BestPct = e.Percentage
		}
		if e.Percentage < stats.WorstPct {
			stats.WorstPct = e.Percentage
		}
		stats.GradeCounts[e.Grade]++
	}
	stats.AveragePct = core.Round2(total / float64(stats.Count))
	return stats, nil
}
