package payment

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core"
	"github.com/trezcool/ngoma/core/batch"
	"github.com/trezcool/ngoma/core/notification"
	"github.com/trezcool/ngoma/core/user"
)

var (
	// errors
	ErrNotFound   = errors.New("payment record not found")
	ErrNotInBatch = errors.New("student is not part of this batch")
)

type (
	Repository interface {
		// UpsertRecord reconciles the (student, batch, month) record in a
		// single atomic operation; the store enforces uniqueness on the triple.
		UpsertRecord(ctx context.Context, rec Record) (Record, error)
		GetRecordByID(ctx context.Context, id string) (Record, error)
		GetRecord(ctx context.Context, studentID, batchID string, month time.Time) (Record, error)
		FilterRecords(ctx context.Context, filter QueryFilter) ([]Record, error)
		DeleteRecordsByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Upsert(ctx context.Context, up UpsertPayment) (Record, error)
		GetByID(ctx context.Context, id string) (Record, error)
		Filter(ctx context.Context, filter QueryFilter) ([]Record, error)
		Delete(ctx context.Context, ids ...string) error
		BatchMonth(ctx context.Context, batchID, month string) ([]BatchMonthRow, error)
		Summarize(ctx context.Context, filter QueryFilter) (Summary, error)
		SendReminders(ctx context.Context, batchID, month string) (int, error)
	}

	service struct {
		repo    Repository
		batches batch.Repository
		users   user.Repository
		notifs  notification.Service
		mailSvc core.EmailService
		logger  core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, batches batch.Repository, users user.Repository, notifs notification.Service, mailSvc core.EmailService, logger core.Logger) Service {
	return &service{
		repo:    repo,
		batches: batches,
		users:   users,
		notifs:  notifs,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

// Upsert reconciles the (student, batch, month) payment record: the amount
// defaults to the batch's monthly fee, PaidOn defaults to now when the status
// resolves to paid, and a pending status notifies the student.
func (svc *service) Upsert(ctx context.Context, up UpsertPayment) (Record, error) {
	month, err := ParseMonth(up.Month)
	if err != nil {
		return Record{}, core.NewValidationError(errors.New("invalid month"),
			core.FieldError{Field: "month", Error: "must be a month in YYYY-MM format"})
	}

	b, err := svc.batches.GetBatchByID(ctx, up.BatchID)
	if err != nil {
		return Record{}, err
	}
	if !b.HasStudent(up.StudentID) {
		return Record{}, core.NewValidationError(ErrNotInBatch)
	}

	now := time.Now().UTC()
	rec := Record{
		StudentID: up.StudentID,
		BatchID:   up.BatchID,
		Month:     month,
		Status:    up.Status,
		Method:    up.Method,
		Notes:     up.Notes,
		PaidOn:    up.PaidOn,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if rec.Status == "" {
		rec.Status = StatusPending
	}
	if up.Amount != nil {
		rec.Amount = *up.Amount
	} else {
		rec.Amount = b.MonthlyFee
	}
	if rec.Status == StatusPaid && rec.PaidOn == nil {
		rec.PaidOn = &now
	}

	rec, err = svc.repo.UpsertRecord(ctx, rec)
	if err != nil {
		return Record{}, err
	}

	if rec.Status == StatusPending {
		svc.notifyPending(ctx, rec, b.Name)
	}
	return rec, nil
}

func (svc *service) notifyPending(ctx context.Context, rec Record, batchName string) {
	_, err := svc.notifs.Create(ctx, notification.NewNotification{
		UserID:  rec.StudentID,
		Type:    notification.TypePayment,
		Title:   "Payment pending",
		Message: fmt.Sprintf("Your %s fee of %.2f for %s is pending.", batchName, rec.Amount, rec.Month.Format("January 2006")),
		Meta:    notification.Meta{"payment_id": rec.ID, "batch_id": rec.BatchID},
	})
	if err != nil {
		svc.logger.Error("payment upsert: notifying student", err)
	}
}

func (svc *service) GetByID(ctx context.Context, id string) (Record, error) {
	return svc.repo.GetRecordByID(ctx, id)
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter) ([]Record, error) {
	return svc.repo.FilterRecords(ctx, filter)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteRecordsByID(ctx, ids...)
}

// BatchMonth produces one row per currently enrolled student, merging identity
// with any existing record for the month. The defaulting policy for missing
// records lives here and nowhere else.
func (svc *service) BatchMonth(ctx context.Context, batchID, month string) ([]BatchMonthRow, error) {
	m, err := ParseMonth(month)
	if err != nil {
		return nil, core.NewValidationError(errors.New("invalid month"),
			core.FieldError{Field: "month", Error: "must be a month in YYYY-MM format"})
	}

	b, err := svc.batches.GetBatchByID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	recs, err := svc.repo.FilterRecords(ctx, QueryFilter{BatchID: batchID, Month: month})
	if err != nil {
		return nil, errors.Wrap(err, "filtering records")
	}
	byStudent := make(map[string]Record, len(recs))
	for _, rec := range recs {
		byStudent[rec.StudentID] = rec
	}

	rows := make([]BatchMonthRow, 0, len(b.StudentIDs))
	for _, sid := range b.StudentIDs {
		usr, err := svc.users.GetUserByID(ctx, sid)
		if err != nil {
			return nil, errors.Wrap(err, "loading student")
		}
		row := BatchMonthRow{
			StudentID:   usr.ID,
			StudentName: usr.Name,
			Email:       usr.Email,
		}
		if rec, ok := byStudent[sid]; ok {
			row.Recorded = true
			row.Record = rec
		} else {
			row.Record = Record{
				StudentID: sid,
				BatchID:   batchID,
				Month:     m,
				Amount:    b.MonthlyFee,
				Status:    StatusPending,
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Summarize groups matching records by status; both buckets are always present.
func (svc *service) Summarize(ctx context.Context, filter QueryFilter) (Summary, error) {
	recs, err := svc.repo.FilterRecords(ctx, filter)
	if err != nil {
		return Summary{}, errors.Wrap(err, "filtering records")
	}

	var sum Summary
	for _, rec := range recs {
		switch rec.Status {
		case StatusPaid:
			sum.Paid.Count++
			sum.Paid.Total += rec.Amount
		case StatusPending:
			sum.Pending.Count++
			sum.Pending.Total += rec.Amount
		}
	}
	return sum, nil
}

// SendReminders notifies (in-app + email) every student of the batch whose
// month is still pending; returns the number of students reminded.
func (svc *service) SendReminders(ctx context.Context, batchID, month string) (int, error) {
	rows, err := svc.BatchMonth(ctx, batchID, month)
	if err != nil {
		return 0, err
	}

	b, err := svc.batches.GetBatchByID(ctx, batchID)
	if err != nil {
		return 0, err
	}

	var count int
	for _, row := range rows {
		if row.Record.Status != StatusPending {
			continue
		}
		svc.notifyPending(ctx, row.Record, b.Name)
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:      []mail.Address{{Name: row.StudentName, Address: row.Email}},
			Subject: "Payment Reminder",
			BodyStr: fmt.Sprintf(
				"Hi %s,\nYour %s fee of %.2f for %s is still pending. Please settle it at your earliest convenience.",
				row.StudentName, b.Name, row.Record.Amount, row.Record.Month.Format("January 2006"),
			),
		})
		count++
	}
	return count, nil
}
