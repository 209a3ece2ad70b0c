package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core"
	"github.com/trezcool/ngoma/core/batch"
	"github.com/trezcool/ngoma/core/user"
)

const batchCols = `id, name, description, level, days, start_time, end_time, instructor_id,
student_ids, max_students, monthly_fee, is_active, created_at, updated_at`

type batchRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Description  string         `db:"description"`
	Level        string         `db:"level"`
	Days         pq.StringArray `db:"days"`
	StartTime    string         `db:"start_time"`
	EndTime      string         `db:"end_time"`
	InstructorID string         `db:"instructor_id"`
	StudentIDs   pq.StringArray `db:"student_ids"`
	MaxStudents  int            `db:"max_students"`
	MonthlyFee   float64        `db:"monthly_fee"`
	IsActive     bool           `db:"is_active"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (row batchRow) toBatch() batch.Batch {
	return batch.Batch{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Level:       row.Level,
		Schedule: batch.Schedule{
			Days:      row.Days,
			StartTime: row.StartTime,
			EndTime:   row.EndTime,
		},
		InstructorID: row.InstructorID,
		StudentIDs:   row.StudentIDs,
		MaxStudents:  row.MaxStudents,
		MonthlyFee:   row.MonthlyFee,
		IsActive:     row.IsActive,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

type batchRepository struct {
	db *sqlx.DB
}

var _ batch.Repository = (*batchRepository)(nil)

func NewBatchRepository(db *sqlx.DB) batch.Repository {
	return &batchRepository{db: db}
}

func (repo *batchRepository) CreateBatch(ctx context.Context, b batch.Batch) (batch.Batch, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.StudentIDs == nil {
		b.StudentIDs = []string{}
	}

	q := `INSERT INTO batch (` + batchCols + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := repo.db.ExecContext(ctx, q,
		b.ID, b.Name, b.Description, b.Level,
		pq.StringArray(b.Schedule.Days), b.Schedule.StartTime, b.Schedule.EndTime,
		b.InstructorID, pq.StringArray(b.StudentIDs), b.MaxStudents, b.MonthlyFee, b.IsActive,
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return batch.Batch{}, errors.Wrap(err, "creating batch")
	}
	return b, nil
}

func (repo *batchRepository) GetBatchByID(ctx context.Context, id string) (batch.Batch, error) {
	var row batchRow
	q := `SELECT ` + batchCols + ` FROM batch WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return batch.Batch{}, notFound(err, batch.ErrNotFound, "getting batch")
	}
	return row.toBatch(), nil
}

func (repo *batchRepository) FilterBatches(ctx context.Context, filter batch.QueryFilter, ordering ...core.DBOrdering) ([]batch.Batch, error) {
	where := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where = append(where, fmt.Sprintf("(name ILIKE %[1]s OR description ILIKE %[1]s)", p))
	}
	if filter.Level != "" {
		where = append(where, fmt.Sprintf("level = %s", arg(filter.Level)))
	}
	if filter.InstructorID != "" {
		where = append(where, fmt.Sprintf("instructor_id = %s", arg(filter.InstructorID)))
	}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("%s = ANY(student_ids)", arg(filter.StudentID)))
	}
	if filter.IsActive != nil {
		where = append(where, fmt.Sprintf("is_active = %s", arg(*filter.IsActive)))
	}

	q := `SELECT ` + batchCols + ` FROM batch`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += orderByClause(ordering, "created_at DESC")

	var rows []batchRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering batches")
	}
	batches := make([]batch.Batch, 0, len(rows))
	for _, row := range rows {
		batches = append(batches, row.toBatch())
	}
	return batches, nil
}

func (repo *batchRepository) UpdateBatch(ctx context.Context, b batch.Batch, isActive *bool) (batch.Batch, error) {
	q := `UPDATE batch SET name = $2, description = $3, level = $4, days = $5, start_time = $6,
end_time = $7, instructor_id = $8, max_students = $9, monthly_fee = $10, updated_at = $11,
is_active = COALESCE($12, is_active)
WHERE id = $1`

	var active interface{}
	if isActive != nil {
		active = *isActive
	}
	res, err := repo.db.ExecContext(ctx, q,
		b.ID, b.Name, b.Description, b.Level,
		pq.StringArray(b.Schedule.Days), b.Schedule.StartTime, b.Schedule.EndTime,
		b.InstructorID, b.MaxStudents, b.MonthlyFee, b.UpdatedAt, active,
	)
	if err != nil {
		return batch.Batch{}, errors.Wrap(err, "updating batch")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return batch.Batch{}, batch.ErrNotFound
	}
	return repo.GetBatchByID(ctx, b.ID)
}

func (repo *batchRepository) DeleteBatchesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM batch WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting batches")
}

func (repo *batchRepository) AddStudent(ctx context.Context, b batch.Batch, usr user.User) (batch.Batch, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `UPDATE batch SET student_ids = array_append(student_ids, $2), updated_at = $3
WHERE id = $1 AND NOT ($2 = ANY(student_ids)) AND cardinality(student_ids) < max_students`
		res, err := tx.ExecContext(ctx, q, b.ID, usr.ID, time.Now().UTC())
		if err != nil {
			return errors.Wrap(err, "appending student to roster")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// the guard failed: re-read the row to tell a full roster apart
			// from a concurrent duplicate enrollment or a vanished batch
			var row batchRow
			if err = tx.GetContext(ctx, &row, `SELECT `+batchCols+` FROM batch WHERE id = $1`, b.ID); err != nil {
				return notFound(err, batch.ErrNotFound, "getting batch")
			}
			if row.toBatch().HasStudent(usr.ID) {
				return batch.ErrAlreadyEnrolled
			}
			return batch.ErrBatchFull
		}

		q = `UPDATE "user" SET current_batch = $2, updated_at = $3 WHERE id = $1`
		if _, err = tx.ExecContext(ctx, q, usr.ID, b.Name, time.Now().UTC()); err != nil {
			return errors.Wrap(err, "updating student's current batch")
		}
		return nil
	})
	if err != nil {
		return batch.Batch{}, err
	}
	return repo.GetBatchByID(ctx, b.ID)
}

func (repo *batchRepository) RemoveStudent(ctx context.Context, b batch.Batch, studentID string) (batch.Batch, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `UPDATE batch SET student_ids = array_remove(student_ids, $2), updated_at = $3 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, q, b.ID, studentID, time.Now().UTC()); err != nil {
			return errors.Wrap(err, "removing student from roster")
		}

		q = `UPDATE "user" SET current_batch = '', updated_at = $3 WHERE id = $1 AND current_batch = $2`
		if _, err := tx.ExecContext(ctx, q, studentID, b.Name, time.Now().UTC()); err != nil {
			return errors.Wrap(err, "clearing student's current batch")
		}
		return nil
	})
	if err != nil {
		return batch.Batch{}, err
	}
	return repo.GetBatchByID(ctx, b.ID)
}
