package schedule_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/trezcool/ngoma/core/batch"
	"github.com/trezcool/ngoma/core/notification"
	"github.com/trezcool/ngoma/core/schedule"
	"github.com/trezcool/ngoma/core/user"
	logsvc "github.com/trezcool/ngoma/services/logger"
	inmemdb "github.com/trezcool/ngoma/storage/database/inmem"
)

type scheduleFixture struct {
	svc      schedule.Service
	notifSvc notification.Service
	batch    batch.Batch
	students []user.User
}

func setupScheduleSvc(t *testing.T, studentCount int) scheduleFixture {
	t.Helper()
	ctx := context.Background()
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	batchRepo := inmemdb.NewBatchRepository(db)
	notifSvc := notification.NewService(inmemdb.NewNotificationRepository(db))

	b, err := batchRepo.CreateBatch(ctx, batch.Batch{Name: "Zouk", MaxStudents: 20, IsActive: true})
	if err != nil {
		t.Fatalf("CreateBatch(): %v", err)
	}

	students := make([]user.User, 0, studentCount)
	for i := 0; i < studentCount; i++ {
		usr, err := usrRepo.CreateUser(ctx, user.User{Name: "S", Roles: user.StudentRoles, IsActive: true})
		if err != nil {
			t.Fatalf("CreateUser(): %v", err)
		}
		if b, err = batchRepo.AddStudent(ctx, b, usr); err != nil {
			t.Fatalf("AddStudent(): %v", err)
		}
		students = append(students, usr)
	}

	logger := logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))
	svc := schedule.NewService(inmemdb.NewScheduleRepository(db), batchRepo, notifSvc, logger)
	return scheduleFixture{svc: svc, notifSvc: notifSvc, batch: b, students: students}
}

func (fix scheduleFixture) unread(t *testing.T, userID string) int {
	t.Helper()
	n, err := fix.notifSvc.UnreadCount(context.Background(), userID)
	if err != nil {
		t.Fatalf("UnreadCount(): %v", err)
	}
	return n
}

func Test_scheduleService_Publish(t *testing.T) {
	fix := setupScheduleSvc(t, 2)
	ctx := context.Background()

	cs, err := fix.svc.Create(ctx, "admin-1", schedule.NewSchedule{
		BatchID:   fix.batch.ID,
		Date:      time.Date(2025, time.September, 5, 12, 0, 0, 0, time.UTC),
		StartTime: "18:00",
		EndTime:   "19:30",
		Location:  "Studio B",
	})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	if cs.IsPublished {
		t.Fatalf("new schedule is published")
	}
	if want := time.Date(2025, time.September, 5, 0, 0, 0, 0, time.UTC); !cs.Date.Equal(want) {
		t.Errorf("Date = %v, want day start %v", cs.Date, want)
	}

	// drafts never notify
	for _, usr := range fix.students {
		if n := fix.unread(t, usr.ID); n != 0 {
			t.Errorf("student notified before publish: unread = %d", n)
		}
	}

	cs, err = fix.svc.Publish(ctx, cs.ID, true)
	if err != nil {
		t.Fatalf("Publish(): %v", err)
	}
	if !cs.IsPublished {
		t.Errorf("IsPublished = false after publish")
	}
	for _, usr := range fix.students {
		if n := fix.unread(t, usr.ID); n != 1 {
			t.Errorf("unread = %d after publish, want 1", n)
		}
	}

	// re-publishing an already published schedule must not notify again
	if _, err = fix.svc.Publish(ctx, cs.ID, true); err != nil {
		t.Fatalf("Publish() again: %v", err)
	}
	for _, usr := range fix.students {
		if n := fix.unread(t, usr.ID); n != 1 {
			t.Errorf("unread = %d after re-publish, want still 1", n)
		}
	}

	// unpublishing is silent; the next publish transition notifies anew
	if cs, err = fix.svc.Publish(ctx, cs.ID, false); err != nil {
		t.Fatalf("Publish(false): %v", err)
	}
	if cs.IsPublished {
		t.Errorf("IsPublished = true after unpublish")
	}
	for _, usr := range fix.students {
		if n := fix.unread(t, usr.ID); n != 1 {
			t.Errorf("unread = %d after unpublish, want 1", n)
		}
	}

	if _, err = fix.svc.Publish(ctx, cs.ID, true); err != nil {
		t.Fatalf("Publish() after unpublish: %v", err)
	}
	for _, usr := range fix.students {
		if n := fix.unread(t, usr.ID); n != 2 {
			t.Errorf("unread = %d after second publish, want 2", n)
		}
	}
}

func Test_scheduleService_Publish_emptyRoster(t *testing.T) {
	fix := setupScheduleSvc(t, 0)
	ctx := context.Background()

	cs, err := fix.svc.Create(ctx, "admin-1", schedule.NewSchedule{
		BatchID:   fix.batch.ID,
		Date:      time.Now(),
		StartTime: "10:00",
		EndTime:   "11:00",
	})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	if _, err = fix.svc.Publish(ctx, cs.ID, true); err != nil {
		t.Fatalf("Publish() with empty roster: %v", err)
	}

	if _, err = fix.svc.Publish(ctx, "0e2ad5f7-889c-4a75-b6bb-4b1b817bbf4c", true); err != schedule.ErrNotFound {
		t.Errorf("Publish() error = %v, want %v", err, schedule.ErrNotFound)
	}
}
