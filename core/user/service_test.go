package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/ngoma/core/assignment"
	"github.com/trezcool/ngoma/core/attendance"
	"github.com/trezcool/ngoma/core/batch"
	"github.com/trezcool/ngoma/core/exam"
	"github.com/trezcool/ngoma/core/user"
	emailsvc "github.com/trezcool/ngoma/services/email"
	inmemdb "github.com/trezcool/ngoma/storage/database/inmem"
)

func Test_userService_ResyncStats(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	batchRepo := inmemdb.NewBatchRepository(db)
	attSvc := attendance.NewService(inmemdb.NewAttendanceRepository(db), batchRepo, usrRepo)
	asgSvc := assignment.NewService(inmemdb.NewAssignmentRepository(db), batchRepo)
	examSvc := exam.NewService(inmemdb.NewExamRepository(db), batchRepo)
	usrSvc := user.NewServiceMock(usrRepo, inmemdb.NewStatsComputer(db), emailsvc.NewConsoleServiceMock())

	student, err := usrRepo.CreateUser(ctx, user.User{Name: "S", Roles: user.StudentRoles, IsActive: true})
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	b, err := batchRepo.CreateBatch(ctx, batch.Batch{Name: "Salsa", MaxStudents: 10, IsActive: true})
	if err != nil {
		t.Fatalf("CreateBatch(): %v", err)
	}
	if b, err = batchRepo.AddStudent(ctx, b, student); err != nil {
		t.Fatalf("AddStudent(): %v", err)
	}

	// no activity yet: resync zeroes the snapshot
	usr, err := usrSvc.ResyncStats(ctx, student.ID)
	if err != nil {
		t.Fatalf("ResyncStats(): %v", err)
	}
	if usr.Stats != (user.Stats{}) {
		t.Errorf("Stats = %+v, want zero", usr.Stats)
	}

	// 3 classes present, 1 absent => 75%
	day := time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC)
	for i, status := range []string{"present", "present", "late", "absent"} {
		if _, err = attSvc.Mark(ctx, "teacher-1", attendance.Mark{
			BatchID: b.ID,
			Date:    day.AddDate(0, 0, i),
			Entries: []attendance.MarkEntry{{StudentID: student.ID, Status: status}},
		}); err != nil {
			t.Fatalf("Mark(): %v", err)
		}
	}

	// 2 submissions
	for _, title := range []string{"Warmup", "Routine"} {
		a, err := asgSvc.Create(ctx, "teacher-1", assignment.NewAssignment{
			BatchID:   b.ID,
			Title:     title,
			DueDate:   time.Now().AddDate(0, 0, 7),
			MaxPoints: 100,
		})
		if err != nil {
			t.Fatalf("Create(): %v", err)
		}
		if _, err = asgSvc.Submit(ctx, a.ID, student.ID, assignment.SubmitInput{Text: "done"}); err != nil {
			t.Fatalf("Submit(): %v", err)
		}
	}

	// published exams at 90% and 80%; an unpublished one must not count
	for marks, published := range map[float64]bool{90: true, 80: true, 10: false} {
		if _, err = examSvc.Create(ctx, "teacher-1", exam.NewExam{
			StudentID:     student.ID,
			BatchID:       b.ID,
			Title:         "Exam",
			ExamDate:      time.Now(),
			MarksObtained: marks,
			TotalMarks:    100,
			IsPublished:   published,
		}); err != nil {
			t.Fatalf("Create(): %v", err)
		}
	}

	usr, err = usrSvc.ResyncStats(ctx, student.ID)
	if err != nil {
		t.Fatalf("ResyncStats(): %v", err)
	}
	if usr.Stats.AttendancePct != 75 {
		t.Errorf("AttendancePct = %d, want 75", usr.Stats.AttendancePct)
	}
	if usr.Stats.AssignmentsCompleted != 2 {
		t.Errorf("AssignmentsCompleted = %d, want 2", usr.Stats.AssignmentsCompleted)
	}
	if usr.Stats.AverageScore != 85 {
		t.Errorf("AverageScore = %v, want 85", usr.Stats.AverageScore)
	}

	// the snapshot is persisted, not just returned
	usr, err = usrSvc.GetByID(ctx, student.ID)
	if err != nil {
		t.Fatalf("GetByID(): %v", err)
	}
	if usr.Stats.AttendancePct != 75 {
		t.Errorf("persisted AttendancePct = %d, want 75", usr.Stats.AttendancePct)
	}
}
