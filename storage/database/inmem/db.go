// Package inmemdb provides map-backed repositories for tests and local runs.
package inmemdb

import (
	"sync"

	"github.com/trezcool/ngoma/core/assignment"
	"github.com/trezcool/ngoma/core/attendance"
	"github.com/trezcool/ngoma/core/batch"
	"github.com/trezcool/ngoma/core/exam"
	"github.com/trezcool/ngoma/core/material"
	"github.com/trezcool/ngoma/core/notification"
	"github.com/trezcool/ngoma/core/payment"
	"github.com/trezcool/ngoma/core/schedule"
	"github.com/trezcool/ngoma/core/task"
	"github.com/trezcool/ngoma/core/user"
)

// DB holds all tables behind a single lock; cross-table writes
// (roster changes, grading) stay consistent without transactions.
type DB struct {
	mutex sync.RWMutex

	users         map[string]*user.User
	batches       map[string]*batch.Batch
	attendance    map[string]*attendance.Record
	schedules     map[string]*schedule.ClassSchedule
	assignments   map[string]*assignment.Assignment
	submissions   map[string]*assignment.Submission
	exams         map[string]*exam.Exam
	materials     map[string]*material.Material
	payments      map[string]*payment.Record
	notifications map[string]*notification.Notification
	tasks         map[string]*task.Task
}

func Open() *DB {
	return &DB{
		users:         make(map[string]*user.User),
		batches:       make(map[string]*batch.Batch),
		attendance:    make(map[string]*attendance.Record),
		schedules:     make(map[string]*schedule.ClassSchedule),
		assignments:   make(map[string]*assignment.Assignment),
		submissions:   make(map[string]*assignment.Submission),
		exams:         make(map[string]*exam.Exam),
		materials:     make(map[string]*material.Material),
		payments:      make(map[string]*payment.Record),
		notifications: make(map[string]*notification.Notification),
		tasks:         make(map[string]*task.Task),
	}
}
