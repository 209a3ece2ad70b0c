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

	"github.com/trezcool/ngoma/core/task"
)

const taskCols = `id, title, description, assigned_to, status, priority, due_date, created_by,
created_at, updated_at`

type taskRow struct {
	ID          string       `db:"id"`
	Title       string       `db:"title"`
	Description string       `db:"description"`
	AssignedTo  string       `db:"assigned_to"`
	Status      string       `db:"status"`
	Priority    string       `db:"priority"`
	DueDate     sql.NullTime `db:"due_date"`
	CreatedBy   string       `db:"created_by"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

func (row taskRow) toTask() task.Task {
	t := task.Task{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		AssignedTo:  row.AssignedTo,
		Status:      row.Status,
		Priority:    row.Priority,
		CreatedBy:   row.CreatedBy,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.DueDate.Valid {
		due := row.DueDate.Time
		t.DueDate = &due
	}
	return t
}

type taskRepository struct {
	db *sqlx.DB
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db *sqlx.DB) task.Repository {
	return &taskRepository{db: db}
}

func (repo *taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}

	q := `INSERT INTO task (` + taskCols + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := repo.db.ExecContext(ctx, q,
		t.ID, t.Title, t.Description, t.AssignedTo, t.Status, t.Priority, t.DueDate,
		t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "creating task")
	}
	return t, nil
}

func (repo *taskRepository) GetTaskByID(ctx context.Context, id string) (task.Task, error) {
	var row taskRow
	q := `SELECT ` + taskCols + ` FROM task WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return task.Task{}, notFound(err, task.ErrNotFound, "getting task")
	}
	return row.toTask(), nil
}

func (repo *taskRepository) FilterTasks(ctx context.Context, filter task.QueryFilter) ([]task.Task, error) {
	where := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.AssignedTo != "" {
		where = append(where, fmt.Sprintf("assigned_to = %s", arg(filter.AssignedTo)))
	}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = %s", arg(filter.Status)))
	}
	if filter.Priority != "" {
		where = append(where, fmt.Sprintf("priority = %s", arg(filter.Priority)))
	}
	if filter.DueFrom != nil {
		where = append(where, fmt.Sprintf("due_date >= %s", arg(*filter.DueFrom)))
	}
	if filter.DueTo != nil {
		where = append(where, fmt.Sprintf("due_date <= %s", arg(*filter.DueTo)))
	}

	q := `SELECT ` + taskCols + ` FROM task`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC"

	var rows []taskRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering tasks")
	}
	tasks := make([]task.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toTask())
	}
	return tasks, nil
}

func (repo *taskRepository) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	q := `UPDATE task SET title = $2, description = $3, assigned_to = $4, status = $5,
priority = $6, due_date = $7, updated_at = $8
WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q,
		t.ID, t.Title, t.Description, t.AssignedTo, t.Status, t.Priority, t.DueDate, t.UpdatedAt,
	)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return task.Task{}, task.ErrNotFound
	}
	return repo.GetTaskByID(ctx, t.ID)
}

func (repo *taskRepository) DeleteTasksByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM task WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting tasks")
}
