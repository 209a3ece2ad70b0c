package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/ngoma/core/schedule"
)

type scheduleRepository struct {
	db *DB
}

var _ schedule.Repository = (*scheduleRepository)(nil)

func NewScheduleRepository(db *DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) CreateSchedule(ctx context.Context, cs schedule.ClassSchedule) (schedule.ClassSchedule, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if cs.ID == "" {
		cs.ID = uuid.New().String()
	}
	repo.db.schedules[cs.ID] = &cs
	return cs, nil
}

func (repo *scheduleRepository) GetScheduleByID(ctx context.Context, id string) (schedule.ClassSchedule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if cs, ok := repo.db.schedules[id]; ok {
		return *cs, nil
	}
	return schedule.ClassSchedule{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) FilterSchedules(ctx context.Context, filter schedule.QueryFilter) ([]schedule.ClassSchedule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	scheds := make([]schedule.ClassSchedule, 0)
	for _, cs := range repo.db.schedules {
		if matchesScheduleFilter(*cs, filter) {
			scheds = append(scheds, *cs)
		}
	}
	sort.Slice(scheds, func(i, j int) bool {
		if scheds[i].Date.Equal(scheds[j].Date) {
			return scheds[i].StartTime < scheds[j].StartTime
		}
		return scheds[i].Date.Before(scheds[j].Date)
	})
	return scheds, nil
}

func matchesScheduleFilter(cs schedule.ClassSchedule, filter schedule.QueryFilter) bool {
	if filter.BatchID != "" && cs.BatchID != filter.BatchID {
		return false
	}
	if !filter.StartDate.IsZero() && cs.Date.Before(filter.StartDate) {
		return false
	}
	if !filter.EndDate.IsZero() && cs.Date.After(filter.EndDate) {
		return false
	}
	if filter.IsPublished != nil && cs.IsPublished != *filter.IsPublished {
		return false
	}
	return true
}

func (repo *scheduleRepository) UpdateSchedule(ctx context.Context, cs schedule.ClassSchedule, isPublished *bool) (schedule.ClassSchedule, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.schedules[cs.ID]
	if !ok {
		return schedule.ClassSchedule{}, schedule.ErrNotFound
	}
	orig.Date = cs.Date
	orig.StartTime = cs.StartTime
	orig.EndTime = cs.EndTime
	orig.Location = cs.Location
	orig.Notes = cs.Notes
	orig.UpdatedAt = cs.UpdatedAt
	if isPublished != nil {
		orig.IsPublished = *isPublished
	}
	return *orig, nil
}

func (repo *scheduleRepository) DeleteSchedulesByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.schedules, id)
	}
	return nil
}
