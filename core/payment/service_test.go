package payment_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/trezcool/ngoma/core"
	"github.com/trezcool/ngoma/core/batch"
	"github.com/trezcool/ngoma/core/notification"
	"github.com/trezcool/ngoma/core/payment"
	"github.com/trezcool/ngoma/core/user"
	emailsvc "github.com/trezcool/ngoma/services/email"
	logsvc "github.com/trezcool/ngoma/services/logger"
	inmemdb "github.com/trezcool/ngoma/storage/database/inmem"
)

type paymentFixture struct {
	svc      payment.Service
	notifSvc notification.Service
	batch    batch.Batch
	students []user.User
}

func setupPaymentSvc(t *testing.T, studentCount int) paymentFixture {
	t.Helper()
	ctx := context.Background()
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	batchRepo := inmemdb.NewBatchRepository(db)
	notifSvc := notification.NewService(inmemdb.NewNotificationRepository(db))

	b, err := batchRepo.CreateBatch(ctx, batch.Batch{Name: "Coupé-Décalé", MaxStudents: 20, MonthlyFee: 60, IsActive: true})
	if err != nil {
		t.Fatalf("CreateBatch(): %v", err)
	}

	students := make([]user.User, 0, studentCount)
	for i := 0; i < studentCount; i++ {
		usr, err := usrRepo.CreateUser(ctx, user.User{Name: "S", Email: "s@test.cd", Roles: user.StudentRoles, IsActive: true})
		if err != nil {
			t.Fatalf("CreateUser(): %v", err)
		}
		if b, err = batchRepo.AddStudent(ctx, b, usr); err != nil {
			t.Fatalf("AddStudent(): %v", err)
		}
		students = append(students, usr)
	}

	logger := logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))
	svc := payment.NewService(
		inmemdb.NewPaymentRepository(db), batchRepo, usrRepo, notifSvc, emailsvc.NewConsoleServiceMock(), logger)
	return paymentFixture{svc: svc, notifSvc: notifSvc, batch: b, students: students}
}

func Test_paymentService_Upsert(t *testing.T) {
	fix := setupPaymentSvc(t, 1)
	ctx := context.Background()
	studentID := fix.students[0].ID

	// membership is required
	_, err := fix.svc.Upsert(ctx, payment.UpsertPayment{
		StudentID: "16caa76e-5ad8-42b9-9b38-9defd21a4296",
		BatchID:   fix.batch.ID,
		Month:     "2025-07",
	})
	if _, ok := err.(*core.ValidationError); !ok {
		t.Fatalf("Upsert() error = %v, want validation error", err)
	}

	// defaults: batch fee, pending status, pending notification
	rec, err := fix.svc.Upsert(ctx, payment.UpsertPayment{
		StudentID: studentID,
		BatchID:   fix.batch.ID,
		Month:     "2025-07",
	})
	if err != nil {
		t.Fatalf("Upsert(): %v", err)
	}
	if rec.Amount != 60 {
		t.Errorf("Amount = %v, want the batch fee 60", rec.Amount)
	}
	if rec.Status != payment.StatusPending {
		t.Errorf("Status = %q, want pending", rec.Status)
	}
	if rec.PaidOn != nil {
		t.Errorf("PaidOn = %v, want nil", rec.PaidOn)
	}
	if n, _ := fix.notifSvc.UnreadCount(ctx, studentID); n != 1 {
		t.Errorf("unread notifications = %d, want 1", n)
	}

	// settling the same month overwrites the record, never duplicates it
	amount := 65.0
	rec2, err := fix.svc.Upsert(ctx, payment.UpsertPayment{
		StudentID: studentID,
		BatchID:   fix.batch.ID,
		Month:     "2025-07",
		Amount:    &amount,
		Status:    payment.StatusPaid,
		Method:    "cash",
	})
	if err != nil {
		t.Fatalf("Upsert() again: %v", err)
	}
	if rec2.ID != rec.ID {
		t.Errorf("upsert created a second record: %s != %s", rec2.ID, rec.ID)
	}
	if rec2.Amount != 65 || rec2.Status != payment.StatusPaid {
		t.Errorf("record = %+v", rec2)
	}
	if rec2.PaidOn == nil {
		t.Errorf("PaidOn not defaulted on paid status")
	}

	recs, err := fix.svc.Filter(ctx, payment.QueryFilter{StudentID: studentID})
	if err != nil {
		t.Fatalf("Filter(): %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("records = %d, want 1", len(recs))
	}

	// a different month is a distinct record
	if _, err = fix.svc.Upsert(ctx, payment.UpsertPayment{
		StudentID: studentID,
		BatchID:   fix.batch.ID,
		Month:     "2025-08",
	}); err != nil {
		t.Fatalf("Upsert() next month: %v", err)
	}
	if recs, _ = fix.svc.Filter(ctx, payment.QueryFilter{StudentID: studentID}); len(recs) != 2 {
		t.Errorf("records = %d, want 2", len(recs))
	}

	// bad month format
	if _, err = fix.svc.Upsert(ctx, payment.UpsertPayment{
		StudentID: studentID,
		BatchID:   fix.batch.ID,
		Month:     "07-2025",
	}); err == nil {
		t.Errorf("Upsert() accepted a malformed month")
	}
}

func Test_paymentService_BatchMonth(t *testing.T) {
	fix := setupPaymentSvc(t, 2)
	ctx := context.Background()

	// one student paid, the other has no record yet
	if _, err := fix.svc.Upsert(ctx, payment.UpsertPayment{
		StudentID: fix.students[0].ID,
		BatchID:   fix.batch.ID,
		Month:     "2025-07",
		Status:    payment.StatusPaid,
	}); err != nil {
		t.Fatalf("Upsert(): %v", err)
	}

	rows, err := fix.svc.BatchMonth(ctx, fix.batch.ID, "2025-07")
	if err != nil {
		t.Fatalf("BatchMonth(): %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want one per enrolled student", len(rows))
	}

	byStudent := make(map[string]payment.BatchMonthRow, len(rows))
	for _, row := range rows {
		byStudent[row.StudentID] = row
	}
	paid := byStudent[fix.students[0].ID]
	if !paid.Recorded || paid.Record.Status != payment.StatusPaid {
		t.Errorf("paid row = %+v", paid)
	}
	missing := byStudent[fix.students[1].ID]
	if missing.Recorded {
		t.Errorf("missing row marked recorded: %+v", missing)
	}
	if missing.Record.Status != payment.StatusPending || missing.Record.Amount != 60 {
		t.Errorf("missing row defaults = %+v", missing.Record)
	}
	if want := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC); !missing.Record.Month.Equal(want) {
		t.Errorf("missing row month = %v, want %v", missing.Record.Month, want)
	}
}

func Test_paymentService_Summarize(t *testing.T) {
	fix := setupPaymentSvc(t, 2)
	ctx := context.Background()

	payments := []payment.UpsertPayment{
		{StudentID: fix.students[0].ID, BatchID: fix.batch.ID, Month: "2025-06", Status: payment.StatusPaid},
		{StudentID: fix.students[0].ID, BatchID: fix.batch.ID, Month: "2025-07", Status: payment.StatusPaid},
		{StudentID: fix.students[1].ID, BatchID: fix.batch.ID, Month: "2025-07"},
	}
	for _, up := range payments {
		if _, err := fix.svc.Upsert(ctx, up); err != nil {
			t.Fatalf("Upsert(): %v", err)
		}
	}

	sum, err := fix.svc.Summarize(ctx, payment.QueryFilter{BatchID: fix.batch.ID})
	if err != nil {
		t.Fatalf("Summarize(): %v", err)
	}
	if sum.Paid.Count != 2 || sum.Paid.Total != 120 {
		t.Errorf("Paid = %+v, want 2 x 60", sum.Paid)
	}
	if sum.Pending.Count != 1 || sum.Pending.Total != 60 {
		t.Errorf("Pending = %+v", sum.Pending)
	}
}

func Test_paymentService_SendReminders(t *testing.T) {
	fix := setupPaymentSvc(t, 2)
	ctx := context.Background()

	if _, err := fix.svc.Upsert(ctx, payment.UpsertPayment{
		StudentID: fix.students[0].ID,
		BatchID:   fix.batch.ID,
		Month:     "2025-07",
		Status:    payment.StatusPaid,
	}); err != nil {
		t.Fatalf("Upsert(): %v", err)
	}

	sent := len(emailsvc.SentMessages)
	count, err := fix.svc.SendReminders(ctx, fix.batch.ID, "2025-07")
	if err != nil {
		t.Fatalf("SendReminders(): %v", err)
	}
	if count != 1 {
		t.Errorf("reminded = %d, want 1 (only the pending student)", count)
	}
	if got := len(emailsvc.SentMessages) - sent; got != 1 {
		t.Errorf("emails sent = %d, want 1", got)
	}
	if n, _ := fix.notifSvc.UnreadCount(ctx, fix.students[1].ID); n != 1 {
		t.Errorf("unread notifications = %d, want 1", n)
	}
	if n, _ := fix.notifSvc.UnreadCount(ctx, fix.students[0].ID); n != 0 {
		t.Errorf("paid student notified: unread = %d", n)
	}
}
