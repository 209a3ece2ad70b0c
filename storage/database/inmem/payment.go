package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ngoma/core/payment"
)

type paymentRepository struct {
	db *DB
}

var _ payment.Repository = (*paymentRepository)(nil)

func NewPaymentRepository(db *DB) payment.Repository {
	return &paymentRepository{db: db}
}

func (repo *paymentRepository) UpsertRecord(ctx context.Context, rec payment.Record) (payment.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, orig := range repo.db.payments {
		if orig.StudentID == rec.StudentID && orig.BatchID == rec.BatchID && orig.Month.Equal(rec.Month) {
			orig.Amount = rec.Amount
			orig.Status = rec.Status
			orig.Method = rec.Method
			orig.Notes = rec.Notes
			orig.PaidOn = rec.PaidOn
			orig.UpdatedAt = rec.UpdatedAt
			return *orig, nil
		}
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	repo.db.payments[rec.ID] = &rec
	return rec, nil
}

func (repo *paymentRepository) GetRecordByID(ctx context.Context, id string) (payment.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rec, ok := repo.db.payments[id]; ok {
		return *rec, nil
	}
	return payment.Record{}, payment.ErrNotFound
}

func (repo *paymentRepository) GetRecord(ctx context.Context, studentID, batchID string, month time.Time) (payment.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, rec := range repo.db.payments {
		if rec.StudentID == studentID && rec.BatchID == batchID && rec.Month.Equal(month) {
			return *rec, nil
		}
	}
	return payment.Record{}, payment.ErrNotFound
}

func (repo *paymentRepository) FilterRecords(ctx context.Context, filter payment.QueryFilter) ([]payment.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	recs := make([]payment.Record, 0)
	for _, rec := range repo.db.payments {
		if matchesPaymentFilter(*rec, filter) {
			recs = append(recs, *rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Month.Equal(recs[j].Month) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].Month.After(recs[j].Month)
	})
	return recs, nil
}

func matchesPaymentFilter(rec payment.Record, filter payment.QueryFilter) bool {
	if filter.StudentID != "" && rec.StudentID != filter.StudentID {
		return false
	}
	if filter.BatchID != "" && rec.BatchID != filter.BatchID {
		return false
	}
	if filter.Month != "" && rec.Month.Format("2006-01") != filter.Month {
		return false
	}
	if filter.Status != "" && rec.Status != filter.Status {
		return false
	}
	return true
}

func (repo *paymentRepository) DeleteRecordsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.payments, id)
	}
	return nil
}
