package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core/payment"
)

const paymentCols = `id, student_id, batch_id, month, amount, status, method, notes, paid_on,
created_at, updated_at`

type paymentRow struct {
	ID        string       `db:"id"`
	StudentID string       `db:"student_id"`
	BatchID   string       `db:"batch_id"`
	Month     string       `db:"month"`
	Amount    float64      `db:"amount"`
	Status    string       `db:"status"`
	Method    string       `db:"method"`
	Notes     string       `db:"notes"`
	PaidOn    sql.NullTime `db:"paid_on"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

func (row paymentRow) toRecord() (payment.Record, error) {
	month, err := payment.ParseMonth(row.Month)
	if err != nil {
		return payment.Record{}, errors.Wrapf(err, "parsing stored month %q", row.Month)
	}
	rec := payment.Record{
		ID:        row.ID,
		StudentID: row.StudentID,
		BatchID:   row.BatchID,
		Month:     month,
		Amount:    row.Amount,
		Status:    row.Status,
		Method:    row.Method,
		Notes:     row.Notes,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.PaidOn.Valid {
		paidOn := row.PaidOn.Time
		rec.PaidOn = &paidOn
	}
	return rec, nil
}

type paymentRepository struct {
	db *sqlx.DB
}

var _ payment.Repository = (*paymentRepository)(nil)

func NewPaymentRepository(db *sqlx.DB) payment.Repository {
	return &paymentRepository{db: db}
}

func (repo *paymentRepository) UpsertRecord(ctx context.Context, rec payment.Record) (payment.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	q := `INSERT INTO payment_record (` + paymentCols + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (student_id, batch_id, month) DO UPDATE
SET amount = EXCLUDED.amount, status = EXCLUDED.status, method = EXCLUDED.method,
    notes = EXCLUDED.notes, paid_on = EXCLUDED.paid_on, updated_at = EXCLUDED.updated_at`
	month := rec.Month.Format("2006-01")
	_, err := repo.db.ExecContext(ctx, q,
		rec.ID, rec.StudentID, rec.BatchID, month, rec.Amount, rec.Status, rec.Method,
		rec.Notes, rec.PaidOn, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return payment.Record{}, errors.Wrap(err, "upserting payment record")
	}

	var row paymentRow
	q = `SELECT ` + paymentCols + ` FROM payment_record WHERE student_id = $1 AND batch_id = $2 AND month = $3`
	if err = repo.db.GetContext(ctx, &row, q, rec.StudentID, rec.BatchID, month); err != nil {
		return payment.Record{}, errors.Wrap(err, "getting payment record")
	}
	return row.toRecord()
}

func (repo *paymentRepository) GetRecordByID(ctx context.Context, id string) (payment.Record, error) {
	var row paymentRow
	q := `SELECT ` + paymentCols + ` FROM payment_record WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return payment.Record{}, notFound(err, payment.ErrNotFound, "getting payment record")
	}
	return row.toRecord()
}

func (repo *paymentRepository) GetRecord(ctx context.Context, studentID, batchID string, month time.Time) (payment.Record, error) {
	var row paymentRow
	q := `SELECT ` + paymentCols + ` FROM payment_record WHERE student_id = $1 AND batch_id = $2 AND month = $3`
	if err := repo.db.GetContext(ctx, &row, q, studentID, batchID, month.Format("2006-01")); err != nil {
		return payment.Record{}, notFound(err, payment.ErrNotFound, "getting payment record")
	}
	return row.toRecord()
}

func (repo *paymentRepository) FilterRecords(ctx context.Context, filter payment.QueryFilter) ([]payment.Record, error) {
	where := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("student_id = %s", arg(filter.StudentID)))
	}
	if filter.BatchID != "" {
		where = append(where, fmt.Sprintf("batch_id = %s", arg(filter.BatchID)))
	}
	if filter.Month != "" {
		where = append(where, fmt.Sprintf("month = %s", arg(filter.Month)))
	}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = %s", arg(filter.Status)))
	}

	q := `SELECT ` + paymentCols + ` FROM payment_record`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY month DESC, created_at DESC"

	var rows []paymentRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering payment records")
	}
	recs := make([]payment.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (repo *paymentRepository) DeleteRecordsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM payment_record WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting payment records")
}
