package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core"
	"github.com/trezcool/ngoma/core/attendance"
	"github.com/trezcool/ngoma/core/user"
)

// statsComputer recomputes a student's denormalized stats from the attendance,
// submission and exam tables.
type statsComputer struct {
	db *sqlx.DB
}

var _ user.StatsComputer = (*statsComputer)(nil)

func NewStatsComputer(db *sqlx.DB) user.StatsComputer {
	return &statsComputer{db: db}
}

func (sc *statsComputer) ComputeUserStats(ctx context.Context, studentID string) (user.Stats, error) {
	var stats user.Stats

	// attendance percentage over all of the student's entries
	var statuses []string
	q := `SELECT e ->> 'status'
FROM attendance_record r, jsonb_array_elements(r.entries) e
WHERE e ->> 'student_id' = $1`
	if err := sc.db.SelectContext(ctx, &statuses, q, studentID); err != nil {
		return user.Stats{}, errors.Wrap(err, "querying attendance entries")
	}
	var counted int
	for _, s := range statuses {
		if attendance.Status(s).Counted() {
			counted++
		}
	}
	stats.AttendancePct = core.Pct(counted, len(statuses))

	q = `SELECT COUNT(*) FROM submission WHERE student_id = $1`
	if err := sc.db.GetContext(ctx, &stats.AssignmentsCompleted, q, studentID); err != nil {
		return user.Stats{}, errors.Wrap(err, "counting submissions")
	}

	// average published exam percentage
	var avg float64
	q = `SELECT COALESCE(AVG(percentage), 0) FROM exam WHERE student_id = $1 AND is_published`
	if err := sc.db.GetContext(ctx, &avg, q, studentID); err != nil {
		return user.Stats{}, errors.Wrap(err, "averaging exam percentages")
	}
	stats.AverageScore = core.Round2(avg)

	return stats, nil
}
