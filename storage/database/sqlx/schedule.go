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

	"github.com/trezcool/ngoma/core/schedule"
)

const scheduleCols = `id, batch_id, date, start_time, end_time, location, notes, is_published,
created_by, created_at, updated_at`

type scheduleRow struct {
	ID          string    `db:"id"`
	BatchID     string    `db:"batch_id"`
	Date        time.Time `db:"date"`
	StartTime   string    `db:"start_time"`
	EndTime     string    `db:"end_time"`
	Location    string    `db:"location"`
	Notes       string    `db:"notes"`
	IsPublished bool      `db:"is_published"`
	CreatedBy   string    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row scheduleRow) toSchedule() schedule.ClassSchedule {
	return schedule.ClassSchedule{
		ID:          row.ID,
		BatchID:     row.BatchID,
		Date:        row.Date.UTC(),
		StartTime:   row.StartTime,
		EndTime:     row.EndTime,
		Location:    row.Location,
		Notes:       row.Notes,
		IsPublished: row.IsPublished,
		CreatedBy:   row.CreatedBy,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

type scheduleRepository struct {
	db *sqlx.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil)

func NewScheduleRepository(db *sqlx.DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) CreateSchedule(ctx context.Context, cs schedule.ClassSchedule) (schedule.ClassSchedule, error) {
	if cs.ID == "" {
		cs.ID = uuid.New().String()
	}

	q := `INSERT INTO class_schedule (` + scheduleCols + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := repo.db.ExecContext(ctx, q,
		cs.ID, cs.BatchID, cs.Date, cs.StartTime, cs.EndTime, cs.Location, cs.Notes,
		cs.IsPublished, cs.CreatedBy, cs.CreatedAt, cs.UpdatedAt,
	)
	if err != nil {
		return schedule.ClassSchedule{}, errors.Wrap(err, "creating class schedule")
	}
	return cs, nil
}

func (repo *scheduleRepository) GetScheduleByID(ctx context.Context, id string) (schedule.ClassSchedule, error) {
	var row scheduleRow
	q := `SELECT ` + scheduleCols + ` FROM class_schedule WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return schedule.ClassSchedule{}, notFound(err, schedule.ErrNotFound, "getting class schedule")
	}
	return row.toSchedule(), nil
}

func (repo *scheduleRepository) FilterSchedules(ctx context.Context, filter schedule.QueryFilter) ([]schedule.ClassSchedule, error) {
	where := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.BatchID != "" {
		where = append(where, fmt.Sprintf("batch_id = %s", arg(filter.BatchID)))
	}
	if !filter.StartDate.IsZero() {
		where = append(where, fmt.Sprintf("date >= %s", arg(filter.StartDate)))
	}
	if !filter.EndDate.IsZero() {
		where = append(where, fmt.Sprintf("date <= %s", arg(filter.EndDate)))
	}
	if filter.IsPublished != nil {
		where = append(where, fmt.Sprintf("is_published = %s", arg(*filter.IsPublished)))
	}

	q := `SELECT ` + scheduleCols + ` FROM class_schedule`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY date, start_time"

	var rows []scheduleRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering class schedules")
	}
	scheds := make([]schedule.ClassSchedule, 0, len(rows))
	for _, row := range rows {
		scheds = append(scheds, row.toSchedule())
	}
	return scheds, nil
}

func (repo *scheduleRepository) UpdateSchedule(ctx context.Context, cs schedule.ClassSchedule, isPublished *bool) (schedule.ClassSchedule, error) {
	q := `UPDATE class_schedule SET date = $2, start_time = $3, end_time = $4, location = $5,
notes = $6, updated_at = $7, is_published = COALESCE($8, is_published)
WHERE id = $1`

	var published interface{}
	if isPublished != nil {
		published = *isPublished
	}
	res, err := repo.db.ExecContext(ctx, q,
		cs.ID, cs.Date, cs.StartTime, cs.EndTime, cs.Location, cs.Notes, cs.UpdatedAt, published,
	)
	if err != nil {
		return schedule.ClassSchedule{}, errors.Wrap(err, "updating class schedule")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ClassSchedule{}, schedule.ErrNotFound
	}
	return repo.GetScheduleByID(ctx, cs.ID)
}

func (repo *scheduleRepository) DeleteSchedulesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM class_schedule WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting class schedules")
}
