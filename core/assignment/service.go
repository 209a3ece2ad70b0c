package assignment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core"
	"github.com/trezcool/ngoma/core/batch"
)

var (
	// errors
	ErrNotFound           = errors.New("assignment not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrTooHigh            = errors.New("grade cannot exceed the assignment's max points")
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string) (Assignment, error)
		FilterAssignments(ctx context.Context, filter QueryFilter) ([]Assignment, error)
		UpdateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		DeleteAssignmentsByID(ctx context.Context, ids ...string) error

		// UpsertSubmission reconciles the (assignment, student) submission and
		// re-derives the parent assignment's aggregates in one transaction.
		UpsertSubmission(ctx context.Context, sub Submission) (Submission, error)
		GetSubmissionByID(ctx context.Context, id string) (Submission, error)
		GetSubmission(ctx context.Context, assignmentID, studentID string) (Submission, error)
		QuerySubmissions(ctx context.Context, assignmentID string) ([]Submission, error)
		// GradeSubmission persists the grading decision and re-aggregates the
		// parent assignment's graded count and average score in one transaction.
		GradeSubmission(ctx context.Context, sub Submission) (Submission, error)
		// ResyncAssignment recomputes the assignment's denormalized aggregates
		// from its submissions.
		ResyncAssignment(ctx context.Context, id string) (Assignment, error)
	}

	Service interface {
		Create(ctx context.Context, createdBy string, na NewAssignment) (Assignment, error)
		GetByID(ctx context.Context, id string) (Assignment, error)
		Filter(ctx context.Context, filter QueryFilter) ([]Assignment, error)
		Update(ctx context.Context, id string, ua UpdateAssignment) (Assignment, error)
		Delete(ctx context.Context, ids ...string) error
		Submit(ctx context.Context, assignmentID, studentID string, si SubmitInput) (Submission, error)
		Grade(ctx context.Context, submissionID, gradedBy string, gi GradeInput) (Submission, error)
		GetSubmission(ctx context.Context, assignmentID, studentID string) (Submission, error)
		QuerySubmissions(ctx context.Context, assignmentID string) ([]Submission, error)
		Resync(ctx context.Context, id string) (Assignment, error)
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

func (svc *service) Create(ctx context.Context, createdBy string, na NewAssignment) (Assignment, error) {
	if _, err := svc.batches.GetBatchByID(ctx, na.BatchID); err != nil {
		return Assignment{}, err
	}

	now := time.Now().UTC()
	a := Assignment{
		BatchID:     na.BatchID,
		Title:       na.Title,
		Description: na.Description,
		DueDate:     na.DueDate.UTC(),
		MaxPoints:   na.MaxPoints,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateAssignment(ctx, a)
}

func (svc *service) GetByID(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignmentByID(ctx, id)
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter) ([]Assignment, error) {
	return svc.repo.FilterAssignments(ctx, filter)
}

func (svc *service) Update(ctx context.Context, id string, ua UpdateAssignment) (Assignment, error) {
	a, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, err
	}

	if ua.Title != "" {
		a.Title = ua.Title
	}
	if ua.Description != "" {
		a.Description = ua.Description
	}
	if !ua.DueDate.IsZero() {
		a.DueDate = ua.DueDate.UTC()
	}
	if ua.MaxPoints > 0 {
		a.MaxPoints = ua.MaxPoints
	}
	a.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAssignment(ctx, a)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteAssignmentsByID(ctx, ids...)
}

// Submit reconciles the (assignment, student) submission: a first submission
// increments the assignment's submission counter; a re-submission overwrites
// content, resets status to submitted and clears any previous grade so a stale
// grade never survives newer content.
func (svc *service) Submit(ctx context.Context, assignmentID, studentID string, si SubmitInput) (Submission, error) {
	a, err := svc.repo.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return Submission{}, err
	}

	b, err := svc.batches.GetBatchByID(ctx, a.BatchID)
	if err != nil {
		return Submission{}, err
	}
	if !b.HasStudent(studentID) {
		return Submission{}, core.NewValidationError(errors.New("student is not part of this batch"))
	}

	sub := Submission{
		AssignmentID: a.ID,
		StudentID:    studentID,
		Text:         si.Text,
		URL:          si.URL,
		Status:       StatusSubmitted,
		SubmittedAt:  time.Now().UTC(),
	}
	return svc.repo.UpsertSubmission(ctx, sub)
}

// Grade transitions a submission to graded and re-aggregates the parent
// assignment's graded count and average score from all graded submissions.
func (svc *service) Grade(ctx context.Context, submissionID, gradedBy string, gi GradeInput) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}

	a, err := svc.repo.GetAssignmentByID(ctx, sub.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	if gi.Grade > a.MaxPoints {
		return Submission{}, core.NewValidationError(ErrTooHigh, core.FieldError{Field: "grade", Error: ErrTooHigh.Error()})
	}

	now := time.Now().UTC()
	sub.Grade = &gi.Grade
	sub.Feedback = gi.Feedback
	sub.Status = StatusGraded
	sub.GradedAt = &now
	sub.GradedBy = gradedBy
	return svc.repo.GradeSubmission(ctx, sub)
}

func (svc *service) GetSubmission(ctx context.Context, assignmentID, studentID string) (Submission, error) {
	return svc.repo.GetSubmission(ctx, assignmentID, studentID)
}

func (svc *service) QuerySubmissions(ctx context.Context, assignmentID string) ([]Submission, error) {
	return svc.repo.QuerySubmissions(ctx, assignmentID)
}

// Resync recomputes the denormalized aggregates from the submission rows.
func (svc *service) Resync(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.ResyncAssignment(ctx, id)
}
