package attendance_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/trezcool/ngoma/core"
	"github.com/trezcool/ngoma/core/attendance"
	"github.com/trezcool/ngoma/core/batch"
	"github.com/trezcool/ngoma/core/user"
	inmemdb "github.com/trezcool/ngoma/storage/database/inmem"
)

type attendanceFixture struct {
	svc      attendance.Service
	batch    batch.Batch
	students []user.User
}

func setupAttendanceSvc(t *testing.T, studentCount int) attendanceFixture {
	t.Helper()
	ctx := context.Background()
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	batchRepo := inmemdb.NewBatchRepository(db)

	b, err := batchRepo.CreateBatch(ctx, batch.Batch{Name: "Afrobeat", MaxStudents: 20, IsActive: true})
	if err != nil {
		t.Fatalf("CreateBatch(): %v", err)
	}

	students := make([]user.User, 0, studentCount)
	for i := 0; i < studentCount; i++ {
		usr, err := usrRepo.CreateUser(ctx, user.User{Name: fmt.Sprintf("Student %d", i+1), Roles: user.StudentRoles, IsActive: true})
		if err != nil {
			t.Fatalf("CreateUser(): %v", err)
		}
		if b, err = batchRepo.AddStudent(ctx, b, usr); err != nil {
			t.Fatalf("AddStudent(): %v", err)
		}
		students = append(students, usr)
	}

	return attendanceFixture{
		svc:      attendance.NewService(inmemdb.NewAttendanceRepository(db), batchRepo, usrRepo),
		batch:    b,
		students: students,
	}
}

func Test_attendanceService_Mark_upserts(t *testing.T) {
	fix := setupAttendanceSvc(t, 2)
	ctx := context.Background()
	day := time.Date(2025, time.April, 7, 19, 45, 0, 0, time.UTC)

	rec, err := fix.svc.Mark(ctx, "teacher-1", attendance.Mark{
		BatchID: fix.batch.ID,
		Date:    day,
		Topic:   "Footwork",
		Entries: []attendance.MarkEntry{
			{StudentID: fix.students[0].ID, Status: "present"},
			{StudentID: fix.students[1].ID, Status: "absent"},
		},
	})
	if err != nil {
		t.Fatalf("Mark(): %v", err)
	}
	if want := time.Date(2025, time.April, 7, 0, 0, 0, 0, time.UTC); !rec.Date.Equal(want) {
		t.Errorf("Date = %v, want day start %v", rec.Date, want)
	}

	// re-marking the same day overwrites instead of piling on a second record
	rec2, err := fix.svc.Mark(ctx, "teacher-2", attendance.Mark{
		BatchID: fix.batch.ID,
		Date:    day.Add(2 * time.Hour),
		Topic:   "Footwork, corrected",
		Entries: []attendance.MarkEntry{
			{StudentID: fix.students[0].ID, Status: "late"},
			{StudentID: fix.students[1].ID, Status: "present"},
		},
	})
	if err != nil {
		t.Fatalf("Mark() again: %v", err)
	}
	if rec2.ID != rec.ID {
		t.Errorf("re-mark created a new record: %s != %s", rec2.ID, rec.ID)
	}
	if rec2.MarkedBy != "teacher-2" {
		t.Errorf("MarkedBy = %q, want teacher-2", rec2.MarkedBy)
	}

	recs, err := fix.svc.Filter(ctx, attendance.QueryFilter{BatchID: fix.batch.ID})
	if err != nil {
		t.Fatalf("Filter(): %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	if recs[0].Topic != "Footwork, corrected" {
		t.Errorf("Topic = %q", recs[0].Topic)
	}

	// a different day gets its own record
	if _, err = fix.svc.Mark(ctx, "teacher-1", attendance.Mark{
		BatchID: fix.batch.ID,
		Date:    day.AddDate(0, 0, 1),
		Entries: []attendance.MarkEntry{{StudentID: fix.students[0].ID, Status: "present"}},
	}); err != nil {
		t.Fatalf("Mark() next day: %v", err)
	}
	if recs, _ = fix.svc.Filter(ctx, attendance.QueryFilter{BatchID: fix.batch.ID}); len(recs) != 2 {
		t.Errorf("records = %d, want 2", len(recs))
	}
}

// Entries come back with display names resolved from the user store, both on
// the returned record and on subsequent reads.
func Test_attendanceService_Mark_resolvesStudentNames(t *testing.T) {
	fix := setupAttendanceSvc(t, 2)
	ctx := context.Background()

	rec, err := fix.svc.Mark(ctx, "teacher-1", attendance.Mark{
		BatchID: fix.batch.ID,
		Date:    time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC),
		Entries: []attendance.MarkEntry{
			{StudentID: fix.students[0].ID, Status: "present"},
			{StudentID: fix.students[1].ID, Status: "late"},
		},
	})
	if err != nil {
		t.Fatalf("Mark(): %v", err)
	}
	for i, e := range rec.Entries {
		if e.StudentName != fix.students[i].Name {
			t.Errorf("Entries[%d].StudentName = %q, want %q", i, e.StudentName, fix.students[i].Name)
		}
	}

	// names are stored with the record, not recomputed on read
	got, err := fix.svc.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID(): %v", err)
	}
	for i, e := range got.Entries {
		if e.StudentName != fix.students[i].Name {
			t.Errorf("read back Entries[%d].StudentName = %q, want %q", i, e.StudentName, fix.students[i].Name)
		}
	}
}

func Test_attendanceService_Mark_rejectsUnenrolled(t *testing.T) {
	fix := setupAttendanceSvc(t, 1)

	_, err := fix.svc.Mark(context.Background(), "teacher-1", attendance.Mark{
		BatchID: fix.batch.ID,
		Date:    time.Now(),
		Entries: []attendance.MarkEntry{{StudentID: "e69b55a8-4c57-4a45-8e6c-5c0709754c5d", Status: "present"}},
	})
	if _, ok := err.(*core.ValidationError); !ok {
		t.Fatalf("Mark() error = %v, want validation error", err)
	}
}

func Test_attendanceService_StudentSummary(t *testing.T) {
	fix := setupAttendanceSvc(t, 2)
	ctx := context.Background()
	studentID := fix.students[0].ID
	day := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

	// empty range: percent must not divide by zero
	sum, err := fix.svc.StudentSummary(ctx, studentID, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("StudentSummary(): %v", err)
	}
	if sum.TotalClasses != 0 || sum.Percent != 0 {
		t.Errorf("empty summary = %+v", sum)
	}

	for i, status := range []string{"present", "late", "absent", "excused"} {
		if _, err = fix.svc.Mark(ctx, "teacher-1", attendance.Mark{
			BatchID: fix.batch.ID,
			Date:    day.AddDate(0, 0, i),
			Entries: []attendance.MarkEntry{
				{StudentID: studentID, Status: status},
				{StudentID: fix.students[1].ID, Status: "present"},
			},
		}); err != nil {
			t.Fatalf("Mark(): %v", err)
		}
	}

	sum, err = fix.svc.StudentSummary(ctx, studentID, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("StudentSummary(): %v", err)
	}
	if sum.TotalClasses != 4 {
		t.Errorf("TotalClasses = %d, want 4", sum.TotalClasses)
	}
	if sum.Present != 1 || sum.Late != 1 || sum.Absent != 1 || sum.Excused != 1 {
		t.Errorf("buckets = %+v", sum)
	}
	if sum.Percent != 50 { // (present + late) / total
		t.Errorf("Percent = %d, want 50", sum.Percent)
	}

	// date range excludes the out-of-range records
	sum, err = fix.svc.StudentSummary(ctx, studentID, day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("StudentSummary(): %v", err)
	}
	if sum.TotalClasses != 2 || sum.Percent != 100 {
		t.Errorf("ranged summary = %+v", sum)
	}
}

func Test_attendanceService_BatchSummary(t *testing.T) {
	fix := setupAttendanceSvc(t, 2)
	ctx := context.Background()
	day := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

	// day 1: 100%, day 2: 50%
	entries := [][]attendance.MarkEntry{
		{
			{StudentID: fix.students[0].ID, Status: "present"},
			{StudentID: fix.students[1].ID, Status: "late"},
		},
		{
			{StudentID: fix.students[0].ID, Status: "present"},
			{StudentID: fix.students[1].ID, Status: "absent"},
		},
	}
	for i, es := range entries {
		if _, err := fix.svc.Mark(ctx, "teacher-1", attendance.Mark{
			BatchID: fix.batch.ID,
			Date:    day.AddDate(0, 0, i),
			Entries: es,
		}); err != nil {
			t.Fatalf("Mark(): %v", err)
		}
	}

	sum, err := fix.svc.BatchSummary(ctx, fix.batch.ID, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("BatchSummary(): %v", err)
	}
	if sum.TotalRecords != 2 {
		t.Fatalf("TotalRecords = %d, want 2", sum.TotalRecords)
	}
	if sum.AveragePercent != 75 {
		t.Errorf("AveragePercent = %d, want 75", sum.AveragePercent)
	}

	if _, err = fix.svc.BatchSummary(ctx, "3e3f6a30-1f70-44cb-92a5-7db17e7b0b1c", time.Time{}, time.Time{}); err != batch.ErrNotFound {
		t.Errorf("BatchSummary() error = %v, want %v", err, batch.ErrNotFound)
	}
}
