package task

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound = errors.New("task not found")
)

type (
	Repository interface {
		CreateTask(ctx context.Context, t Task) (Task, error)
		GetTaskByID(ctx context.Context, id string) (Task, error)
		FilterTasks(ctx context.Context, filter QueryFilter) ([]Task, error)
		UpdateTask(ctx context.Context, t Task) (Task, error)
		DeleteTasksByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Create(ctx context.Context, createdBy string, nt NewTask) (Task, error)
		GetByID(ctx context.Context, id string) (Task, error)
		Filter(ctx context.Context, filter QueryFilter) ([]Task, error)
		Update(ctx context.Context, id string, ut UpdateTask) (Task, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, createdBy string, nt NewTask) (Task, error) {
	now := time.Now().UTC()
	t := Task{
		Title:       nt.Title,
		Description: nt.Description,
		AssignedTo:  nt.AssignedTo,
		Status:      StatusTodo,
		Priority:    nt.Priority,
		DueDate:     nt.DueDate,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	return svc.repo.CreateTask(ctx, t)
}

func (svc *service) GetByID(ctx context.Context, id string) (Task, error) {
	return svc.repo.GetTaskByID(ctx, id)
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter) ([]Task, error) {
	filter.Clean()
	return svc.repo.FilterTasks(ctx, filter)
}

func (svc *service) Update(ctx context.Context, id string, ut UpdateTask) (Task, error) {
	t, err := svc.repo.GetTaskByID(ctx, id)
	if err != nil {
		return Task{}, err
	}

	if ut.Title != "" {
		t.Title = ut.Title
	}
	if ut.Description != "" {
		t.Description = ut.Description
	}
	if ut.AssignedTo != "" {
		t.AssignedTo = ut.AssignedTo
	}
	if ut.Status != "" {
		t.Status = ut.Status
	}
	if ut.Priority != "" {
		t.Priority = ut.Priority
	}
	if ut.DueDate != nil {
		t.DueDate = ut.DueDate
	}
	t.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTask(ctx, t)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteTasksByID(ctx, ids...)
}
