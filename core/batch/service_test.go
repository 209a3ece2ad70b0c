package batch_test

import (
	"context"
	"testing"

	"github.com/trezcool/ngoma/core"
	"github.com/trezcool/ngoma/core/batch"
	"github.com/trezcool/ngoma/core/user"
	inmemdb "github.com/trezcool/ngoma/storage/database/inmem"
)

type batchFixture struct {
	svc     batch.Service
	usrRepo user.Repository
}

func setupBatchSvc(t *testing.T) batchFixture {
	t.Helper()
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	return batchFixture{
		svc:     batch.NewService(inmemdb.NewBatchRepository(db), usrRepo),
		usrRepo: usrRepo,
	}
}

func (fix batchFixture) createUser(t *testing.T, roles []string) user.User {
	t.Helper()
	usr, err := fix.usrRepo.CreateUser(context.Background(), user.User{Name: "U", Roles: roles, IsActive: true})
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

func assertValidationError(t *testing.T, err, want error) {
	t.Helper()
	vErr, ok := err.(*core.ValidationError)
	if !ok {
		t.Fatalf("error = %v, want validation error %v", err, want)
	}
	if vErr.Err != want {
		t.Errorf("validation error = %v, want %v", vErr.Err, want)
	}
}

func Test_batchService_AddStudent(t *testing.T) {
	fix := setupBatchSvc(t)
	ctx := context.Background()

	b, err := fix.svc.Create(ctx, batch.NewBatch{
		Name:        "Rumba Duo",
		Level:       batch.LevelIntermediate,
		Days:        []string{"friday"},
		StartTime:   "17:00",
		EndTime:     "18:30",
		MaxStudents: 2,
		MonthlyFee:  75,
	})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	if !b.IsActive {
		t.Errorf("new batch is not active")
	}

	studentA := fix.createUser(t, user.StudentRoles)
	studentB := fix.createUser(t, user.StudentRoles)
	studentC := fix.createUser(t, user.StudentRoles)
	teacher := fix.createUser(t, user.TeacherRoles)

	_, err = fix.svc.AddStudent(ctx, b.ID, teacher.ID)
	assertValidationError(t, err, batch.ErrNotStudent)

	if _, err = fix.svc.AddStudent(ctx, b.ID, studentA.ID); err != nil {
		t.Fatalf("AddStudent(A): %v", err)
	}
	_, err = fix.svc.AddStudent(ctx, b.ID, studentA.ID)
	assertValidationError(t, err, batch.ErrAlreadyEnrolled)

	b, err = fix.svc.AddStudent(ctx, b.ID, studentB.ID)
	if err != nil {
		t.Fatalf("AddStudent(B): %v", err)
	}
	if !b.IsFull() {
		t.Errorf("batch not full with %d/%d students", len(b.StudentIDs), b.MaxStudents)
	}

	_, err = fix.svc.AddStudent(ctx, b.ID, studentC.ID)
	assertValidationError(t, err, batch.ErrBatchFull)

	// enrollment keeps the student's denormalized batch label in sync
	usrA, err := fix.usrRepo.GetUserByID(ctx, studentA.ID)
	if err != nil {
		t.Fatalf("GetUserByID(): %v", err)
	}
	if usrA.DanceInfo.CurrentBatch != "Rumba Duo" {
		t.Errorf("CurrentBatch = %q, want %q", usrA.DanceInfo.CurrentBatch, "Rumba Duo")
	}

	if _, err = fix.svc.AddStudent(ctx, "e58d845c-79ca-4ae7-9bd1-95a8eee25afc", studentC.ID); err != batch.ErrNotFound {
		t.Errorf("AddStudent() error = %v, want %v", err, batch.ErrNotFound)
	}
}

// The repository labels a failed enrollment by its actual cause, even when the
// caller holds a stale copy of the batch: a duplicate is ErrAlreadyEnrolled, a
// full roster is ErrBatchFull and a vanished batch is ErrNotFound.
func Test_batchRepository_AddStudent_distinguishesFailures(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	batchRepo := inmemdb.NewBatchRepository(db)

	b, err := batchRepo.CreateBatch(ctx, batch.Batch{Name: "Kizomba", MaxStudents: 1, IsActive: true})
	if err != nil {
		t.Fatalf("CreateBatch(): %v", err)
	}
	studentA, err := usrRepo.CreateUser(ctx, user.User{Name: "A", Roles: user.StudentRoles, IsActive: true})
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	studentB, err := usrRepo.CreateUser(ctx, user.User{Name: "B", Roles: user.StudentRoles, IsActive: true})
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}

	// stale is the pre-enrollment snapshot another caller might still hold
	stale := b
	if _, err = batchRepo.AddStudent(ctx, b, studentA); err != nil {
		t.Fatalf("AddStudent(): %v", err)
	}

	if _, err = batchRepo.AddStudent(ctx, stale, studentA); err != batch.ErrAlreadyEnrolled {
		t.Errorf("duplicate enrollment error = %v, want %v", err, batch.ErrAlreadyEnrolled)
	}
	if _, err = batchRepo.AddStudent(ctx, stale, studentB); err != batch.ErrBatchFull {
		t.Errorf("full roster error = %v, want %v", err, batch.ErrBatchFull)
	}
	if _, err = batchRepo.AddStudent(ctx, batch.Batch{ID: "7d9c0f0a-64fb-4f4e-9c4f-0a8b1f2a7e31"}, studentB); err != batch.ErrNotFound {
		t.Errorf("vanished batch error = %v, want %v", err, batch.ErrNotFound)
	}
}

func Test_batchService_RemoveStudent(t *testing.T) {
	fix := setupBatchSvc(t)
	ctx := context.Background()

	b, err := fix.svc.Create(ctx, batch.NewBatch{
		Name:        "Ndombolo",
		Level:       batch.LevelBasic,
		Days:        []string{"saturday"},
		StartTime:   "10:00",
		EndTime:     "11:00",
		MaxStudents: 5,
	})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}

	student := fix.createUser(t, user.StudentRoles)
	if _, err = fix.svc.AddStudent(ctx, b.ID, student.ID); err != nil {
		t.Fatalf("AddStudent(): %v", err)
	}

	b, err = fix.svc.RemoveStudent(ctx, b.ID, student.ID)
	if err != nil {
		t.Fatalf("RemoveStudent(): %v", err)
	}
	if len(b.StudentIDs) != 0 {
		t.Errorf("roster = %v, want empty", b.StudentIDs)
	}

	usr, err := fix.usrRepo.GetUserByID(ctx, student.ID)
	if err != nil {
		t.Fatalf("GetUserByID(): %v", err)
	}
	if usr.DanceInfo.CurrentBatch != "" {
		t.Errorf("CurrentBatch = %q after removal, want empty", usr.DanceInfo.CurrentBatch)
	}

	// removing a non-member is a no-op
	if _, err = fix.svc.RemoveStudent(ctx, b.ID, student.ID); err != nil {
		t.Errorf("RemoveStudent() again: %v", err)
	}

	// freed seat can be re-used
	if _, err = fix.svc.AddStudent(ctx, b.ID, student.ID); err != nil {
		t.Errorf("AddStudent() after removal: %v", err)
	}
}
