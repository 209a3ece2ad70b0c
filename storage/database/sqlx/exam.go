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

	"github.com/trezcool/ngoma/core/exam"
)

const examCols = `id, student_id, batch_id, title, exam_date, marks_obtained, total_marks,
percentage, grade, is_published, created_by, created_at, updated_at`

type examRow struct {
	ID            string    `db:"id"`
	StudentID     string    `db:"student_id"`
	BatchID       string    `db:"batch_id"`
	Title         string    `db:"title"`
	ExamDate      time.Time `db:"exam_date"`
	MarksObtained float64   `db:"marks_obtained"`
	TotalMarks    float64   `db:"total_marks"`
	Percentage    float64   `db:"percentage"`
	Grade         string    `db:"grade"`
	IsPublished   bool      `db:"is_published"`
	CreatedBy     string    `db:"created_by"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (row examRow) toExam() exam.Exam {
	return exam.Exam(row)
}

type examRepository struct {
	db *sqlx.DB
}

var _ exam.Repository = (*examRepository)(nil)

func NewExamRepository(db *sqlx.DB) exam.Repository {
	return &examRepository{db: db}
}

func (repo *examRepository) CreateExam(ctx context.Context, e exam.Exam) (exam.Exam, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	q := `INSERT INTO exam (` + examCols + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := repo.db.ExecContext(ctx, q,
		e.ID, e.StudentID, e.BatchID, e.Title, e.ExamDate, e.MarksObtained, e.TotalMarks,
		e.Percentage, e.Grade, e.IsPublished, e.CreatedBy, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return exam.Exam{}, errors.Wrap(err, "creating exam")
	}
	return e, nil
}

func (repo *examRepository) GetExamByID(ctx context.Context, id string) (exam.Exam, error) {
	var row examRow
	q := `SELECT ` + examCols + ` FROM exam WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return exam.Exam{}, notFound(err, exam.ErrNotFound, "getting exam")
	}
	return row.toExam(), nil
}

func (repo *examRepository) FilterExams(ctx context.Context, filter exam.QueryFilter) ([]exam.Exam, error) {
	where := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)
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
	if !filter.StartDate.IsZero() {
		where = append(where, fmt.Sprintf("exam_date >= %s", arg(filter.StartDate)))
	}
	if !filter.EndDate.IsZero() {
		where = append(where, fmt.Sprintf("exam_date <= %s", arg(filter.EndDate)))
	}
	if filter.IsPublished != nil {
		where = append(where, fmt.Sprintf("is_published = %s", arg(*filter.IsPublished)))
	}

	q := `SELECT ` + examCols + ` FROM exam`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY exam_date DESC"

	var rows []examRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering exams")
	}
	exams := make([]exam.Exam, 0, len(rows))
	for _, row := range rows {
		exams = append(exams, row.toExam())
	}
	return exams, nil
}

func (repo *examRepository) UpdateExam(ctx context.Context, e exam.Exam, isPublished *bool) (exam.Exam, error) {
	q := `UPDATE exam SET title = $2, exam_date = $3, marks_obtained = $4, total_marks = $5,
percentage = $6, grade = $7, updated_at = $8, is_published = COALESCE($9, is_published)
WHERE id = $1`

	var published interface{}
	if isPublished != nil {
		published = *isPublished
	}
	res, err := repo.db.ExecContext(ctx, q,
		e.ID, e.Title, e.ExamDate, e.MarksObtained, e.TotalMarks, e.Percentage, e.Grade,
		e.UpdatedAt, published,
	)
	if err != nil {
		return exam.Exam{}, errors.Wrap(err, "updating exam")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return exam.Exam{}, exam.ErrNotFound
	}
	return repo.GetExamByID(ctx, e.ID)
}

func (repo *examRepository) DeleteExamsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM exam WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting exams")
}
