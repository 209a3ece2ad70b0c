package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core"
	"github.com/trezcool/ngoma/core/batch"
	"github.com/trezcool/ngoma/core/notification"
)

var (
	// errors
	ErrNotFound = errors.New("class schedule not found")
)

type (
	Repository interface {
		CreateSchedule(ctx context.Context, cs ClassSchedule) (ClassSchedule, error)
		GetScheduleByID(ctx context.Context, id string) (ClassSchedule, error)
		FilterSchedules(ctx context.Context, filter QueryFilter) ([]ClassSchedule, error)
		UpdateSchedule(ctx context.Context, cs ClassSchedule, isPublished *bool) (ClassSchedule, error)
		DeleteSchedulesByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Create(ctx context.Context, createdBy string, ns NewSchedule) (ClassSchedule, error)
		GetByID(ctx context.Context, id string) (ClassSchedule, error)
		Filter(ctx context.Context, filter QueryFilter) ([]ClassSchedule, error)
		Update(ctx context.Context, id string, us UpdateSchedule) (ClassSchedule, error)
		Delete(ctx context.Context, ids ...string) error
		// Publish toggles the published flag. A false→true transition fans out
		// one notification per enrolled student, fire-and-forget: notification
		// failures are logged and never roll back the publish.
		Publish(ctx context.Context, id string, publish bool) (ClassSchedule, error)
	}

	service struct {
		repo    Repository
		batches batch.Repository
		notifs  notification.Service
		logger  core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, batches batch.Repository, notifs notification.Service, logger core.Logger) Service {
	return &service{
		repo:    repo,
		batches: batches,
		notifs:  notifs,
		logger:  logger,
	}
}

func (svc *service) Create(ctx context.Context, createdBy string, ns NewSchedule) (ClassSchedule, error) {
	if _, err := svc.batches.GetBatchByID(ctx, ns.BatchID); err != nil {
		return ClassSchedule{}, err
	}

	now := time.Now().UTC()
	cs := ClassSchedule{
		BatchID:   ns.BatchID,
		Date:      core.DayStart(ns.Date),
		StartTime: ns.StartTime,
		EndTime:   ns.EndTime,
		Location:  ns.Location,
		Notes:     ns.Notes,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateSchedule(ctx, cs)
}

func (svc *service) GetByID(ctx context.Context, id string) (ClassSchedule, error) {
	return svc.repo.GetScheduleByID(ctx, id)
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter) ([]ClassSchedule, error) {
	if !filter.StartDate.IsZero() {
		filter.StartDate = core.DayStart(filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		filter.EndDate = core.DayStart(filter.EndDate)
	}
	return svc.repo.FilterSchedules(ctx, filter)
}

func (svc *service) Update(ctx context.Context, id string, us UpdateSchedule) (ClassSchedule, error) {
	cs, err := svc.repo.GetScheduleByID(ctx, id)
	if err != nil {
		return ClassSchedule{}, err
	}

	if !us.Date.IsZero() {
		cs.Date = core.DayStart(us.Date)
	}
	if us.StartTime != "" {
		cs.StartTime = us.StartTime
	}
	if us.EndTime != "" {
		cs.EndTime = us.EndTime
	}
	if us.Location != "" {
		cs.Location = us.Location
	}
	if us.Notes != "" {
		cs.Notes = us.Notes
	}
	cs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSchedule(ctx, cs, nil)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteSchedulesByID(ctx, ids...)
}

func (svc *service) Publish(ctx context.Context, id string, publish bool) (ClassSchedule, error) {
	cs, err := svc.repo.GetScheduleByID(ctx, id)
	if err != nil {
		return ClassSchedule{}, err
	}

	fanOut := publish && !cs.IsPublished

	cs.UpdatedAt = time.Now().UTC()
	cs, err = svc.repo.UpdateSchedule(ctx, cs, &publish)
	if err != nil {
		return ClassSchedule{}, err
	}

	if fanOut {
		svc.notifyStudents(ctx, cs)
	}
	return cs, nil
}

func (svc *service) notifyStudents(ctx context.Context, cs ClassSchedule) {
	b, err := svc.batches.GetBatchByID(ctx, cs.BatchID)
	if err != nil {
		svc.logger.Error("schedule publish: loading batch", err)
		return
	}
	if len(b.StudentIDs) == 0 {
		return
	}

	_, err = svc.notifs.FanOut(ctx, notification.Broadcast{
		UserIDs: b.StudentIDs,
		Title:   "New class scheduled",
		Message: fmt.Sprintf("%s: class on %s from %s to %s", b.Name, cs.Date.Format("2006-01-02"), cs.StartTime, cs.EndTime),
		Meta:    notification.Meta{"schedule_id": cs.ID, "batch_id": cs.BatchID},
	}, notification.TypeSchedule)
	if err != nil {
		svc.logger.Error("schedule publish: notifying students", err)
	}
}
