package material_test

import (
	"context"
	"testing"

	"github.com/trezcool/ngoma/core/batch"
	"github.com/trezcool/ngoma/core/material"
	"github.com/trezcool/ngoma/core/user"
	inmemdb "github.com/trezcool/ngoma/storage/database/inmem"
)

type materialFixture struct {
	svc      material.Service
	batchA   batch.Batch
	batchB   batch.Batch
	studentA user.User // in batch A
	studentB user.User // in batch B
	outsider user.User // in no batch
	teacher  user.User
}

func setupMaterialSvc(t *testing.T) materialFixture {
	t.Helper()
	ctx := context.Background()
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	batchRepo := inmemdb.NewBatchRepository(db)

	newBatch := func(name string) batch.Batch {
		b, err := batchRepo.CreateBatch(ctx, batch.Batch{Name: name, MaxStudents: 10, IsActive: true})
		if err != nil {
			t.Fatalf("CreateBatch(): %v", err)
		}
		return b
	}
	newUser := func(roles []string) user.User {
		usr, err := usrRepo.CreateUser(ctx, user.User{Name: "U", Roles: roles, IsActive: true})
		if err != nil {
			t.Fatalf("CreateUser(): %v", err)
		}
		return usr
	}

	fix := materialFixture{
		batchA:   newBatch("A"),
		batchB:   newBatch("B"),
		studentA: newUser(user.StudentRoles),
		studentB: newUser(user.StudentRoles),
		outsider: newUser(user.StudentRoles),
		teacher:  newUser(user.TeacherRoles),
	}
	if _, err := batchRepo.AddStudent(ctx, fix.batchA, fix.studentA); err != nil {
		t.Fatalf("AddStudent(): %v", err)
	}
	if _, err := batchRepo.AddStudent(ctx, fix.batchB, fix.studentB); err != nil {
		t.Fatalf("AddStudent(): %v", err)
	}

	fix.svc = material.NewService(inmemdb.NewMaterialRepository(db), batchRepo)
	return fix
}

func Test_materialService_FilterFor(t *testing.T) {
	fix := setupMaterialSvc(t)
	ctx := context.Background()

	mats := []material.NewMaterial{
		{Title: "Public warmup", Category: "video", FileURL: "/m/warmup.mp4", IsPublic: true},
		{Title: "Batch A drill", Category: "document", FileURL: "/m/drill.pdf", BatchIDs: []string{fix.batchA.ID}},
		{Title: "Batch B playlist", Category: "audio", FileURL: "/m/playlist.mp3", BatchIDs: []string{fix.batchB.ID}},
	}
	for _, nm := range mats {
		if _, err := fix.svc.Create(ctx, fix.teacher.ID, nm); err != nil {
			t.Fatalf("Create(): %v", err)
		}
	}

	titles := func(usr user.User) map[string]bool {
		got, err := fix.svc.FilterFor(ctx, usr, material.QueryFilter{})
		if err != nil {
			t.Fatalf("FilterFor(): %v", err)
		}
		set := make(map[string]bool, len(got))
		for _, m := range got {
			set[m.Title] = true
		}
		return set
	}

	if got := titles(fix.teacher); len(got) != 3 {
		t.Errorf("teacher sees %v, want all 3", got)
	}
	if got := titles(fix.studentA); len(got) != 2 || !got["Public warmup"] || !got["Batch A drill"] {
		t.Errorf("student A sees %v", got)
	}
	if got := titles(fix.studentB); len(got) != 2 || !got["Batch B playlist"] {
		t.Errorf("student B sees %v", got)
	}
	if got := titles(fix.outsider); len(got) != 1 || !got["Public warmup"] {
		t.Errorf("unenrolled student sees %v, want public only", got)
	}
}

func Test_materialService_Download(t *testing.T) {
	fix := setupMaterialSvc(t)
	ctx := context.Background()

	m, err := fix.svc.Create(ctx, fix.teacher.ID, material.NewMaterial{
		Title:    "Batch A drill",
		Category: "document",
		FileURL:  "/m/drill.pdf",
		BatchIDs: []string{fix.batchA.ID},
	})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}

	// counter bumps on every allowed download
	for want := 1; want <= 2; want++ {
		m2, err := fix.svc.Download(ctx, fix.studentA, m.ID)
		if err != nil {
			t.Fatalf("Download(): %v", err)
		}
		if m2.Downloads != want {
			t.Errorf("Downloads = %d, want %d", m2.Downloads, want)
		}
	}

	// staff bypass the batch ACL
	if _, err = fix.svc.Download(ctx, fix.teacher, m.ID); err != nil {
		t.Errorf("teacher Download(): %v", err)
	}

	// students outside the ACL'd batches are denied and the counter stays put
	if _, err = fix.svc.Download(ctx, fix.studentB, m.ID); err != material.ErrAccessDenied {
		t.Errorf("Download() error = %v, want %v", err, material.ErrAccessDenied)
	}
	if _, err = fix.svc.Download(ctx, fix.outsider, m.ID); err != material.ErrAccessDenied {
		t.Errorf("Download() error = %v, want %v", err, material.ErrAccessDenied)
	}
	m, _ = fix.svc.GetByID(ctx, m.ID)
	if m.Downloads != 3 {
		t.Errorf("Downloads = %d, want 3", m.Downloads)
	}

	if _, err = fix.svc.Download(ctx, fix.studentA, "6d1b7e4e-0047-4b38-9a00-6a9d22b13bb1"); err != material.ErrNotFound {
		t.Errorf("Download() error = %v, want %v", err, material.ErrNotFound)
	}
}
