package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ngoma/core"
	"github.com/trezcool/ngoma/core/batch"
	"github.com/trezcool/ngoma/core/user"
)

type batchRepository struct {
	db *DB
}

var _ batch.Repository = (*batchRepository)(nil)

func NewBatchRepository(db *DB) batch.Repository {
	return &batchRepository{db: db}
}

func (repo *batchRepository) query() []batch.Batch {
	batches := make([]batch.Batch, 0, len(repo.db.batches))
	for _, b := range repo.db.batches {
		batches = append(batches, *b)
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].CreatedAt.After(batches[j].CreatedAt) })
	return batches
}

func (repo *batchRepository) CreateBatch(ctx context.Context, b batch.Batch) (batch.Batch, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.StudentIDs == nil {
		b.StudentIDs = []string{}
	}
	repo.db.batches[b.ID] = &b
	return b, nil
}

func (repo *batchRepository) GetBatchByID(ctx context.Context, id string) (batch.Batch, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if b, ok := repo.db.batches[id]; ok {
		return *b, nil
	}
	return batch.Batch{}, batch.ErrNotFound
}

func (repo *batchRepository) FilterBatches(ctx context.Context, filter batch.QueryFilter, ordering ...core.DBOrdering) ([]batch.Batch, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	batches := make([]batch.Batch, 0)
	for _, b := range repo.query() {
		if matchesBatchFilter(b, filter) {
			batches = append(batches, b)
		}
	}
	return batches, nil
}

func matchesBatchFilter(b batch.Batch, filter batch.QueryFilter) bool {
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(b.Name), search) &&
			!strings.Contains(strings.ToLower(b.Description), search) {
			return false
		}
	}
	if filter.Level != "" && b.Level != filter.Level {
		return false
	}
	if filter.InstructorID != "" && b.InstructorID != filter.InstructorID {
		return false
	}
	if filter.StudentID != "" && !b.HasStudent(filter.StudentID) {
		return false
	}
	if filter.IsActive != nil && b.IsActive != *filter.IsActive {
		return false
	}
	return true
}

func (repo *batchRepository) UpdateBatch(ctx context.Context, b batch.Batch, isActive *bool) (batch.Batch, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.batches[b.ID]
	if !ok {
		return batch.Batch{}, batch.ErrNotFound
	}
	orig.Name = b.Name
	orig.Description = b.Description
	orig.Level = b.Level
	orig.Schedule = b.Schedule
	orig.InstructorID = b.InstructorID
	orig.MaxStudents = b.MaxStudents
	orig.MonthlyFee = b.MonthlyFee
	orig.UpdatedAt = b.UpdatedAt
	if isActive != nil {
		orig.IsActive = *isActive
	}
	return *orig, nil
}

func (repo *batchRepository) DeleteBatchesByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.batches, id)
	}
	return nil
}

func (repo *batchRepository) AddStudent(ctx context.Context, b batch.Batch, usr user.User) (batch.Batch, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.batches[b.ID]
	if !ok {
		return batch.Batch{}, batch.ErrNotFound
	}
	if orig.HasStudent(usr.ID) {
		return batch.Batch{}, batch.ErrAlreadyEnrolled
	}
	if orig.IsFull() {
		return batch.Batch{}, batch.ErrBatchFull
	}
	orig.StudentIDs = append(orig.StudentIDs, usr.ID)
	orig.UpdatedAt = time.Now().UTC()

	if origUsr, ok := repo.db.users[usr.ID]; ok {
		origUsr.DanceInfo.CurrentBatch = orig.Name
		origUsr.UpdatedAt = orig.UpdatedAt
	}
	return *orig, nil
}

func (repo *batchRepository) RemoveStudent(ctx context.Context, b batch.Batch, studentID string) (batch.Batch, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.batches[b.ID]
	if !ok {
		return batch.Batch{}, batch.ErrNotFound
	}

	ids := make([]string, 0, len(orig.StudentIDs))
	for _, id := range orig.StudentIDs {
		if id != studentID {
			ids = append(ids, id)
		}
	}
	orig.StudentIDs = ids
	orig.UpdatedAt = time.Now().UTC()

	if origUsr, ok := repo.db.users[studentID]; ok && origUsr.DanceInfo.CurrentBatch == orig.Name {
		origUsr.DanceInfo.CurrentBatch = ""
		origUsr.UpdatedAt = orig.UpdatedAt
	}
	return *orig, nil
}
