package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ngoma/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, orig := range repo.db.attendance {
		if orig.BatchID == rec.BatchID && orig.Date.Equal(rec.Date) {
			orig.Topic = rec.Topic
			orig.Duration = rec.Duration
			orig.MarkedBy = rec.MarkedBy
			orig.Entries = rec.Entries
			orig.UpdatedAt = rec.UpdatedAt
			return *orig, nil
		}
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	repo.db.attendance[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) GetRecordByID(ctx context.Context, id string) (attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rec, ok := repo.db.attendance[id]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) GetRecord(ctx context.Context, batchID string, date time.Time) (attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, rec := range repo.db.attendance {
		if rec.BatchID == batchID && rec.Date.Equal(date) {
			return *rec, nil
		}
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) FilterRecords(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, rec := range repo.db.attendance {
		if matchesAttendanceFilter(*rec, filter) {
			recs = append(recs, *rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date.After(recs[j].Date) })
	return recs, nil
}

func matchesAttendanceFilter(rec attendance.Record, filter attendance.QueryFilter) bool {
	if filter.BatchID != "" && rec.BatchID != filter.BatchID {
		return false
	}
	if filter.StudentID != "" {
		var found bool
		for _, e := range rec.Entries {
			if e.StudentID == filter.StudentID {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if !filter.StartDate.IsZero() && rec.Date.Before(filter.StartDate) {
		return false
	}
	if !filter.EndDate.IsZero() && rec.Date.After(filter.EndDate) {
		return false
	}
	return true
}

func (repo *attendanceRepository) DeleteRecordsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.attendance, id)
	}
	return nil
}
