package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/ngoma/core/exam"
)

type examRepository struct {
	db *DB
}

var _ exam.Repository = (*examRepository)(nil)

func NewExamRepository(db *DB) exam.Repository {
	return &examRepository{db: db}
}

func (repo *examRepository) CreateExam(ctx context.Context, e exam.Exam) (exam.Exam, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	repo.db.exams[e.ID] = &e
	return e, nil
}

func (repo *examRepository) GetExamByID(ctx context.Context, id string) (exam.Exam, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if e, ok := repo.db.exams[id]; ok {
		return *e, nil
	}
	return exam.Exam{}, exam.ErrNotFound
}

func (repo *examRepository) FilterExams(ctx context.Context, filter exam.QueryFilter) ([]exam.Exam, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	exams := make([]exam.Exam, 0)
	for _, e := range repo.db.exams {
		if matchesExamFilter(*e, filter) {
			exams = append(exams, *e)
		}
	}
	sort.Slice(exams, func(i, j int) bool { return exams[i].ExamDate.After(exams[j].ExamDate) })
	return exams, nil
}

func matchesExamFilter(e exam.Exam, filter exam.QueryFilter) bool {
	if filter.StudentID != "" && e.StudentID != filter.StudentID {
		return false
	}
	if filter.BatchID != "" && e.BatchID != filter.BatchID {
		return false
	}
	if !filter.StartDate.IsZero() && e.ExamDate.Before(filter.StartDate) {
		return false
	}
	if !filter.EndDate.IsZero() && e.ExamDate.After(filter.EndDate) {
		return false
	}
	if filter.IsPublished != nil && e.IsPublished != *filter.IsPublished {
		return false
	}
	return true
}

func (repo *examRepository) UpdateExam(ctx context.Context, e exam.Exam, isPublished *bool) (exam.Exam, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.exams[e.ID]
	if !ok {
		return exam.Exam{}, exam.ErrNotFound
	}
	orig.Title = e.Title
	orig.ExamDate = e.ExamDate
	orig.MarksObtained = e.MarksObtained
	orig.TotalMarks = e.TotalMarks
	orig.Percentage = e.Percentage
	orig.Grade = e.Grade
	orig.UpdatedAt = e.UpdatedAt
	if isPublished != nil {
		orig.IsPublished = *isPublished
	}
	return *orig, nil
}

func (repo *examRepository) DeleteExamsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.exams, id)
	}
	return nil
}
