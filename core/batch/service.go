package batch

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core"
	"github.com/trezcool/ngoma/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("batch not found")
	ErrBatchFull       = errors.New("batch is full")
	ErrAlreadyEnrolled = errors.New("student is already in this batch")
	ErrNotStudent      = errors.New("user is not a student")
)

type (
	Repository interface {
		CreateBatch(ctx context.Context, b Batch) (Batch, error)
		GetBatchByID(ctx context.Context, id string) (Batch, error)
		FilterBatches(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Batch, error)
		UpdateBatch(ctx context.Context, b Batch, isActive *bool) (Batch, error)
		DeleteBatchesByID(ctx context.Context, ids ...string) error
		// AddStudent appends the student to the roster and updates the
		// student's denormalized current-batch label in the same transaction.
		AddStudent(ctx context.Context, b Batch, usr user.User) (Batch, error)
		// RemoveStudent filters the student out of the roster; when the
		// student's current-batch label points at this batch it is cleared in
		// the same transaction.
		RemoveStudent(ctx context.Context, b Batch, studentID string) (Batch, error)
	}

	Service interface {
		Create(ctx context.Context, nb NewBatch) (Batch, error)
		GetByID(ctx context.Context, id string) (Batch, error)
		Filter(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Batch, error)
		Update(ctx context.Context, id string, ub UpdateBatch) (Batch, error)
		Delete(ctx context.Context, ids ...string) error
		AddStudent(ctx context.Context, batchID, studentID string) (Batch, error)
		RemoveStudent(ctx context.Context, batchID, studentID string) (Batch, error)
	}

	service struct {
		repo  Repository
		users user.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, users user.Repository) Service {
	return &service{
		repo:  repo,
		users: users,
	}
}

func (svc *service) Create(ctx context.Context, nb NewBatch) (Batch, error) {
	now := time.Now().UTC()
	b := Batch{
		Name:        nb.Name,
		Description: nb.Description,
		Level:       nb.Level,
		Schedule: Schedule{
			Days:      nb.Days,
			StartTime: nb.StartTime,
			EndTime:   nb.EndTime,
		},
		InstructorID: nb.InstructorID,
		MaxStudents:  nb.MaxStudents,
		MonthlyFee:   nb.MonthlyFee,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateBatch(ctx, b)
}

func (svc *service) GetByID(ctx context.Context, id string) (Batch, error) {
	return svc.repo.GetBatchByID(ctx, id)
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Batch, error) {
	return svc.repo.FilterBatches(ctx, filter, ordering...)
}

func (svc *service) Update(ctx context.Context, id string, ub UpdateBatch) (Batch, error) {
	orig, err := svc.repo.GetBatchByID(ctx, id)
	if err != nil {
		return Batch{}, err
	}

	b := orig
	if ub.Name != "" {
		b.Name = ub.Name
	}
	if ub.Description != "" {
		b.Description = ub.Description
	}
	if ub.Level != "" {
		b.Level = ub.Level
	}
	if ub.Days != nil {
		b.Schedule.Days = ub.Days
	}
	if ub.StartTime != "" {
		b.Schedule.StartTime = ub.StartTime
	}
	if ub.EndTime != "" {
		b.Schedule.EndTime = ub.EndTime
	}
	if ub.InstructorID != "" {
		b.InstructorID = ub.InstructorID
	}
	if ub.MaxStudents > 0 {
		b.MaxStudents = ub.MaxStudents
	}
	if ub.MonthlyFee != nil {
		b.MonthlyFee = *ub.MonthlyFee
	}
	b.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateBatch(ctx, b, ub.IsActive)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteBatchesByID(ctx, ids...)
}

// AddStudent enrolls a student, enforcing capacity and membership invariants.
func (svc *service) AddStudent(ctx context.Context, batchID, studentID string) (Batch, error) {
	b, err := svc.repo.GetBatchByID(ctx, batchID)
	if err != nil {
		return Batch{}, err
	}

	usr, err := svc.users.GetUserByID(ctx, studentID)
	if err != nil {
		return Batch{}, err
	}
	if !usr.IsStudent() {
		return Batch{}, core.NewValidationError(ErrNotStudent)
	}
	if b.HasStudent(studentID) {
		return Batch{}, core.NewValidationError(ErrAlreadyEnrolled)
	}
	if b.IsFull() {
		return Batch{}, core.NewValidationError(ErrBatchFull)
	}
	return svc.repo.AddStudent(ctx, b, usr)
}

// RemoveStudent is idempotent: removing a non-member is a no-op.
func (svc *service) RemoveStudent(ctx context.Context, batchID, studentID string) (Batch, error) {
	b, err := svc.repo.GetBatchByID(ctx, batchID)
	if err != nil {
		return Batch{}, err
	}
	if !b.HasStudent(studentID) {
		return b, nil
	}
	return svc.repo.RemoveStudent(ctx, b, studentID)
}
