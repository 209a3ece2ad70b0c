package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ngoma/core"
	"github.com/trezcool/ngoma/core/assignment"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	repo.db.assignments[a.ID] = &a
	return a, nil
}

func (repo *assignmentRepository) GetAssignmentByID(ctx context.Context, id string) (assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.assignments[id]; ok {
		return *a, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) FilterAssignments(ctx context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	assignments := make([]assignment.Assignment, 0)
	for _, a := range repo.db.assignments {
		if repo.matchesAssignmentFilter(*a, filter) {
			assignments = append(assignments, *a)
		}
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].DueDate.After(assignments[j].DueDate) })
	return assignments, nil
}

func (repo *assignmentRepository) matchesAssignmentFilter(a assignment.Assignment, filter assignment.QueryFilter) bool {
	if filter.BatchID != "" && a.BatchID != filter.BatchID {
		return false
	}
	if filter.StudentID != "" {
		var found bool
		for _, sub := range repo.db.submissions {
			if sub.AssignmentID == a.ID && sub.StudentID == filter.StudentID {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if !filter.DueFrom.IsZero() && a.DueDate.Before(filter.DueFrom) {
		return false
	}
	if !filter.DueTo.IsZero() && a.DueDate.After(filter.DueTo) {
		return false
	}
	return true
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.assignments[a.ID]
	if !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	orig.Title = a.Title
	orig.Description = a.Description
	orig.DueDate = a.DueDate
	orig.MaxPoints = a.MaxPoints
	orig.UpdatedAt = a.UpdatedAt
	return *orig, nil
}

func (repo *assignmentRepository) DeleteAssignmentsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.assignments, id)
		for subID, sub := range repo.db.submissions {
			if sub.AssignmentID == id {
				delete(repo.db.submissions, subID)
			}
		}
	}
	return nil
}

func (repo *assignmentRepository) UpsertSubmission(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.assignments[sub.AssignmentID]; !ok {
		return assignment.Submission{}, assignment.ErrNotFound
	}

	var saved *assignment.Submission
	for _, orig := range repo.db.submissions {
		if orig.AssignmentID == sub.AssignmentID && orig.StudentID == sub.StudentID {
			orig.Text = sub.Text
			orig.URL = sub.URL
			orig.Status = sub.Status
			orig.Grade = sub.Grade
			orig.Feedback = sub.Feedback
			orig.SubmittedAt = sub.SubmittedAt
			orig.GradedAt = sub.GradedAt
			orig.GradedBy = sub.GradedBy
			saved = orig
			break
		}
	}
	if saved == nil {
		if sub.ID == "" {
			sub.ID = uuid.New().String()
		}
		repo.db.submissions[sub.ID] = &sub
		saved = &sub
	}

	repo.reaggregate(sub.AssignmentID)
	return *saved, nil
}

func (repo *assignmentRepository) GetSubmissionByID(ctx context.Context, id string) (assignment.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sub, ok := repo.db.submissions[id]; ok {
		return *sub, nil
	}
	return assignment.Submission{}, assignment.ErrSubmissionNotFound
}

func (repo *assignmentRepository) GetSubmission(ctx context.Context, assignmentID, studentID string) (assignment.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, sub := range repo.db.submissions {
		if sub.AssignmentID == assignmentID && sub.StudentID == studentID {
			return *sub, nil
		}
	}
	return assignment.Submission{}, assignment.ErrSubmissionNotFound
}

func (repo *assignmentRepository) QuerySubmissions(ctx context.Context, assignmentID string) ([]assignment.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subs := make([]assignment.Submission, 0)
	for _, sub := range repo.db.submissions {
		if sub.AssignmentID == assignmentID {
			subs = append(subs, *sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs, nil
}

func (repo *assignmentRepository) GradeSubmission(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.submissions[sub.ID]
	if !ok {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	orig.Status = sub.Status
	orig.Grade = sub.Grade
	orig.Feedback = sub.Feedback
	orig.GradedAt = sub.GradedAt
	orig.GradedBy = sub.GradedBy

	repo.reaggregate(orig.AssignmentID)
	return *orig, nil
}

func (repo *assignmentRepository) ResyncAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a, ok := repo.db.assignments[id]
	if !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	repo.reaggregate(id)
	return *a, nil
}

// reaggregate re-derives the assignment's submission aggregates; callers must
// hold the write lock.
func (repo *assignmentRepository) reaggregate(assignmentID string) {
	a, ok := repo.db.assignments[assignmentID]
	if !ok {
		return
	}

	var total, graded int
	var sum float64
	for _, sub := range repo.db.submissions {
		if sub.AssignmentID != assignmentID {
			continue
		}
		total++
		if sub.Grade != nil {
			graded++
			sum += *sub.Grade
		}
	}

	a.TotalSubmissions = total
	a.GradedSubmissions = graded
	if graded > 0 {
		a.AverageScore = core.Round2(sum / float64(graded))
	} else {
		a.AverageScore = 0
	}
	a.UpdatedAt = time.Now().UTC()
}
