package sqlxrepos

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core/attendance"
)

const attendanceCols = `id, batch_id, date, topic, duration, marked_by, entries, created_at, updated_at`

// entriesJSON stores a record's entries as a JSONB document.
type entriesJSON []attendance.Entry

func (e entriesJSON) Value() (driver.Value, error) {
	if e == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(e)
}

func (e *entriesJSON) Scan(src interface{}) error {
	b, ok := src.([]byte)
	if !ok {
		return errors.Errorf("entriesJSON: cannot scan %T", src)
	}
	return json.Unmarshal(b, e)
}

type attendanceRow struct {
	ID        string      `db:"id"`
	BatchID   string      `db:"batch_id"`
	Date      time.Time   `db:"date"`
	Topic     string      `db:"topic"`
	Duration  int         `db:"duration"`
	MarkedBy  string      `db:"marked_by"`
	Entries   entriesJSON `db:"entries"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (row attendanceRow) toRecord() attendance.Record {
	return attendance.Record{
		ID:        row.ID,
		BatchID:   row.BatchID,
		Date:      row.Date.UTC(),
		Topic:     row.Topic,
		Duration:  row.Duration,
		MarkedBy:  row.MarkedBy,
		Entries:   row.Entries,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	q := `INSERT INTO attendance_record (` + attendanceCols + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (batch_id, date) DO UPDATE
SET topic = EXCLUDED.topic, duration = EXCLUDED.duration, marked_by = EXCLUDED.marked_by,
    entries = EXCLUDED.entries, updated_at = EXCLUDED.updated_at`
	_, err := repo.db.ExecContext(ctx, q,
		rec.ID, rec.BatchID, rec.Date, rec.Topic, rec.Duration, rec.MarkedBy,
		entriesJSON(rec.Entries), rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "upserting attendance record")
	}
	return repo.GetRecord(ctx, rec.BatchID, rec.Date)
}

func (repo *attendanceRepository) GetRecordByID(ctx context.Context, id string) (attendance.Record, error) {
	var row attendanceRow
	q := `SELECT ` + attendanceCols + ` FROM attendance_record WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return attendance.Record{}, notFound(err, attendance.ErrNotFound, "getting attendance record")
	}
	return row.toRecord(), nil
}

func (repo *attendanceRepository) GetRecord(ctx context.Context, batchID string, date time.Time) (attendance.Record, error) {
	var row attendanceRow
	q := `SELECT ` + attendanceCols + ` FROM attendance_record WHERE batch_id = $1 AND date = $2`
	if err := repo.db.GetContext(ctx, &row, q, batchID, date); err != nil {
		return attendance.Record{}, notFound(err, attendance.ErrNotFound, "getting attendance record")
	}
	return row.toRecord(), nil
}

func (repo *attendanceRepository) FilterRecords(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Record, error) {
	where := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.BatchID != "" {
		where = append(where, fmt.Sprintf("batch_id = %s", arg(filter.BatchID)))
	}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf(`entries @> jsonb_build_array(jsonb_build_object('student_id', %s::text))`, arg(filter.StudentID)))
	}
	if !filter.StartDate.IsZero() {
		where = append(where, fmt.Sprintf("date >= %s", arg(filter.StartDate)))
	}
	if !filter.EndDate.IsZero() {
		where = append(where, fmt.Sprintf("date <= %s", arg(filter.EndDate)))
	}

	q := `SELECT ` + attendanceCols + ` FROM attendance_record`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY date DESC"

	var rows []attendanceRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering attendance records")
	}
	recs := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.toRecord())
	}
	return recs, nil
}

func (repo *attendanceRepository) DeleteRecordsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM attendance_record WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting attendance records")
}
