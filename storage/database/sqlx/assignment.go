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

	"github.com/trezcool/ngoma/core/assignment"
)

const (
	assignmentCols = `id, batch_id, title, description, due_date, max_points, total_submissions,
graded_submissions, average_score, created_by, created_at, updated_at`

	submissionCols = `id, assignment_id, student_id, text, url, status, grade, feedback,
submitted_at, graded_at, graded_by`
)

type assignmentRow struct {
	ID                string    `db:"id"`
	BatchID           string    `db:"batch_id"`
	Title             string    `db:"title"`
	Description       string    `db:"description"`
	DueDate           time.Time `db:"due_date"`
	MaxPoints         float64   `db:"max_points"`
	TotalSubmissions  int       `db:"total_submissions"`
	GradedSubmissions int       `db:"graded_submissions"`
	AverageScore      float64   `db:"average_score"`
	CreatedBy         string    `db:"created_by"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (row assignmentRow) toAssignment() assignment.Assignment {
	return assignment.Assignment(row)
}

type submissionRow struct {
	ID           string          `db:"id"`
	AssignmentID string          `db:"assignment_id"`
	StudentID    string          `db:"student_id"`
	Text         string          `db:"text"`
	URL          string          `db:"url"`
	Status       string          `db:"status"`
	Grade        sql.NullFloat64 `db:"grade"`
	Feedback     string          `db:"feedback"`
	SubmittedAt  time.Time       `db:"submitted_at"`
	GradedAt     sql.NullTime    `db:"graded_at"`
	GradedBy     string          `db:"graded_by"`
}

func (row submissionRow) toSubmission() assignment.Submission {
	sub := assignment.Submission{
		ID:           row.ID,
		AssignmentID: row.AssignmentID,
		StudentID:    row.StudentID,
		Text:         row.Text,
		URL:          row.URL,
		Status:       row.Status,
		Feedback:     row.Feedback,
		SubmittedAt:  row.SubmittedAt,
		GradedBy:     row.GradedBy,
	}
	if row.Grade.Valid {
		grade := row.Grade.Float64
		sub.Grade = &grade
	}
	if row.GradedAt.Valid {
		gradedAt := row.GradedAt.Time
		sub.GradedAt = &gradedAt
	}
	return sub
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *sqlx.DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	q := `INSERT INTO assignment (` + assignmentCols + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := repo.db.ExecContext(ctx, q,
		a.ID, a.BatchID, a.Title, a.Description, a.DueDate, a.MaxPoints,
		a.TotalSubmissions, a.GradedSubmissions, a.AverageScore,
		a.CreatedBy, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "creating assignment")
	}
	return a, nil
}

func (repo *assignmentRepository) GetAssignmentByID(ctx context.Context, id string) (assignment.Assignment, error) {
	var row assignmentRow
	q := `SELECT ` + assignmentCols + ` FROM assignment WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return assignment.Assignment{}, notFound(err, assignment.ErrNotFound, "getting assignment")
	}
	return row.toAssignment(), nil
}

func (repo *assignmentRepository) FilterAssignments(ctx context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
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
		where = append(where, fmt.Sprintf("id IN (SELECT assignment_id FROM submission WHERE student_id = %s)", arg(filter.StudentID)))
	}
	if !filter.DueFrom.IsZero() {
		where = append(where, fmt.Sprintf("due_date >= %s", arg(filter.DueFrom)))
	}
	if !filter.DueTo.IsZero() {
		where = append(where, fmt.Sprintf("due_date <= %s", arg(filter.DueTo)))
	}

	q := `SELECT ` + assignmentCols + ` FROM assignment`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY due_date DESC"

	var rows []assignmentRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering assignments")
	}
	assignments := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.toAssignment())
	}
	return assignments, nil
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	q := `UPDATE assignment SET title = $2, description = $3, due_date = $4, max_points = $5, updated_at = $6
WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, a.ID, a.Title, a.Description, a.DueDate, a.MaxPoints, a.UpdatedAt)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return repo.GetAssignmentByID(ctx, a.ID)
}

func (repo *assignmentRepository) DeleteAssignmentsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM assignment WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting assignments")
}

func (repo *assignmentRepository) UpsertSubmission(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}

	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `INSERT INTO submission (` + submissionCols + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (assignment_id, student_id) DO UPDATE
SET text = EXCLUDED.text, url = EXCLUDED.url, status = EXCLUDED.status, grade = EXCLUDED.grade,
    feedback = EXCLUDED.feedback, submitted_at = EXCLUDED.submitted_at,
    graded_at = EXCLUDED.graded_at, graded_by = EXCLUDED.graded_by`
		_, err := tx.ExecContext(ctx, q,
			sub.ID, sub.AssignmentID, sub.StudentID, sub.Text, sub.URL, sub.Status,
			sub.Grade, sub.Feedback, sub.SubmittedAt, sub.GradedAt, sub.GradedBy,
		)
		if err != nil {
			return errors.Wrap(err, "upserting submission")
		}
		return reaggregate(ctx, tx, sub.AssignmentID)
	})
	if err != nil {
		return assignment.Submission{}, err
	}
	return repo.GetSubmission(ctx, sub.AssignmentID, sub.StudentID)
}

func (repo *assignmentRepository) GetSubmissionByID(ctx context.Context, id string) (assignment.Submission, error) {
	var row submissionRow
	q := `SELECT ` + submissionCols + ` FROM submission WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return assignment.Submission{}, notFound(err, assignment.ErrSubmissionNotFound, "getting submission")
	}
	return row.toSubmission(), nil
}

func (repo *assignmentRepository) GetSubmission(ctx context.Context, assignmentID, studentID string) (assignment.Submission, error) {
	var row submissionRow
	q := `SELECT ` + submissionCols + ` FROM submission WHERE assignment_id = $1 AND student_id = $2`
	if err := repo.db.GetContext(ctx, &row, q, assignmentID, studentID); err != nil {
		return assignment.Submission{}, notFound(err, assignment.ErrSubmissionNotFound, "getting submission")
	}
	return row.toSubmission(), nil
}

func (repo *assignmentRepository) QuerySubmissions(ctx context.Context, assignmentID string) ([]assignment.Submission, error) {
	var rows []submissionRow
	q := `SELECT ` + submissionCols + ` FROM submission WHERE assignment_id = $1 ORDER BY submitted_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, assignmentID); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	subs := make([]assignment.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.toSubmission())
	}
	return subs, nil
}

func (repo *assignmentRepository) GradeSubmission(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `UPDATE submission SET status = $2, grade = $3, feedback = $4, graded_at = $5, graded_by = $6
WHERE id = $1`
		res, err := tx.ExecContext(ctx, q, sub.ID, sub.Status, sub.Grade, sub.Feedback, sub.GradedAt, sub.GradedBy)
		if err != nil {
			return errors.Wrap(err, "grading submission")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return assignment.ErrSubmissionNotFound
		}
		return reaggregate(ctx, tx, sub.AssignmentID)
	})
	if err != nil {
		return assignment.Submission{}, err
	}
	return repo.GetSubmissionByID(ctx, sub.ID)
}

func (repo *assignmentRepository) ResyncAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		return reaggregate(ctx, tx, id)
	})
	if err != nil {
		return assignment.Assignment{}, err
	}
	return repo.GetAssignmentByID(ctx, id)
}

// reaggregate re-derives an assignment's denormalized submission aggregates.
func reaggregate(ctx context.Context, tx *sqlx.Tx, assignmentID string) error {
	q := `UPDATE assignment a
SET total_submissions = s.total, graded_submissions = s.graded, average_score = s.avg, updated_at = $2
FROM (SELECT COUNT(*) AS total, COUNT(grade) AS graded, COALESCE(AVG(grade), 0) AS avg
      FROM submission WHERE assignment_id = $1) s
WHERE a.id = $1`
	res, err := tx.ExecContext(ctx, q, assignmentID, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "re-aggregating assignment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return assignment.ErrNotFound
	}
	return nil
}
