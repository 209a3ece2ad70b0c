package inmemdb

import (
	"context"

	"github.com/trezcool/ngoma/core"
	"github.com/trezcool/ngoma/core/user"
)

type statsComputer struct {
	db *DB
}

var _ user.StatsComputer = (*statsComputer)(nil)

func NewStatsComputer(db *DB) user.StatsComputer {
	return &statsComputer{db: db}
}

func (sc *statsComputer) ComputeUserStats(ctx context.Context, studentID string) (user.Stats, error) {
	sc.db.mutex.RLock()
	defer sc.db.mutex.RUnlock()

	var stats user.Stats

	var total, counted int
	for _, rec := range sc.db.attendance {
		for _, e := range rec.Entries {
			if e.StudentID != studentID {
				continue
			}
			total++
			if e.Status.Counted() {
				counted++
			}
		}
	}
	stats.AttendancePct = core.Pct(counted, total)

	for _, sub := range sc.db.submissions {
		if sub.StudentID == studentID {
			stats.AssignmentsCompleted++
		}
	}

	var examCount int
	var pctSum float64
	for _, e := range sc.db.exams {
		if e.StudentID == studentID && e.IsPublished {
			examCount++
			pctSum += e.Percentage
		}
	}
	if examCount > 0 {
		stats.AverageScore = core.Round2(pctSum / float64(examCount))
	}

	return stats, nil
}
