package exam_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ngoma/core/batch"
	"github.com/trezcool/ngoma/core/exam"
	inmemdb "github.com/trezcool/ngoma/storage/database/inmem"
)

func setupExamSvc(t *testing.T) (exam.Service, batch.Batch) {
	t.Helper()
	db := inmemdb.Open()
	batchRepo := inmemdb.NewBatchRepository(db)

	b, err := batchRepo.CreateBatch(context.Background(), batch.Batch{Name: "Kizomba 101", MaxStudents: 10, IsActive: true})
	if err != nil {
		t.Fatalf("CreateBatch(): %v", err)
	}
	return exam.NewService(inmemdb.NewExamRepository(db), batchRepo), b
}

func Test_examService_Create(t *testing.T) {
	svc, b := setupExamSvc(t)
	ctx := context.Background()

	examDate := time.Date(2025, time.May, 10, 15, 30, 0, 0, time.UTC)
	e, err := svc.Create(ctx, "teacher-1", exam.NewExam{
		StudentID:     "d7ac2afe-9209-4c96-a1d1-a6a0ab499b07",
		BatchID:       b.ID,
		Title:         "Term 1 practical",
		ExamDate:      examDate,
		MarksObtained: 42,
		TotalMarks:    50,
		IsPublished:   true,
	})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}

	if e.Percentage != 84 {
		t.Errorf("Percentage = %v, want 84", e.Percentage)
	}
	if e.Grade != "A" {
		t.Errorf("Grade = %q, want A", e.Grade)
	}
	if e.CreatedBy != "teacher-1" {
		t.Errorf("CreatedBy = %q", e.CreatedBy)
	}
	if want := time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC); !e.ExamDate.Equal(want) {
		t.Errorf("ExamDate = %v, want day start %v", e.ExamDate, want)
	}

	// unknown batch is rejected
	if _, err = svc.Create(ctx, "teacher-1", exam.NewExam{
		StudentID:  "d7ac2afe-9209-4c96-a1d1-a6a0ab499b07",
		BatchID:    "408ad756-68da-48a3-a7b0-7a465ced8262",
		Title:      "Ghost batch",
		ExamDate:   examDate,
		TotalMarks: 50,
	}); err != batch.ErrNotFound {
		t.Errorf("Create() error = %v, want %v", err, batch.ErrNotFound)
	}
}

func Test_examService_Update_rederivesGrade(t *testing.T) {
	svc, b := setupExamSvc(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, "teacher-1", exam.NewExam{
		StudentID:     "d7ac2afe-9209-4c96-a1d1-a6a0ab499b07",
		BatchID:       b.ID,
		Title:         "Term 1 practical",
		ExamDate:      time.Now(),
		MarksObtained: 20,
		TotalMarks:    50,
	})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	if e.Grade != "C" { // 40%
		t.Fatalf("Grade = %q, want C", e.Grade)
	}

	marks := 45.0
	e, err = svc.Update(ctx, e.ID, exam.UpdateExam{MarksObtained: &marks})
	if err != nil {
		t.Fatalf("Update(): %v", err)
	}
	if e.Percentage != 90 || e.Grade != "A+" {
		t.Errorf("after update: pct = %v grade = %q, want 90 A+", e.Percentage, e.Grade)
	}

	tooHigh := 51.0
	if _, err = svc.Update(ctx, e.ID, exam.UpdateExam{MarksObtained: &tooHigh}); err == nil {
		t.Errorf("Update() accepted marks above total")
	}
}

func Test_examService_StudentStats(t *testing.T) {
	svc, b := setupExamSvc(t)
	ctx := context.Background()
	studentID := "d7ac2afe-9209-4c96-a1d1-a6a0ab499b07"

	stats, err := svc.StudentStats(ctx, studentID)
	if err != nil {
		t.Fatalf("StudentStats(): %v", err)
	}
	if stats.Count != 0 || stats.AveragePct != 0 {
		t.Errorf("empty stats = %+v", stats)
	}

	for i, marks := range []float64{90, 80, 70} {
		if _, err = svc.Create(ctx, "teacher-1", exam.NewExam{
			StudentID:     studentID,
			BatchID:       b.ID,
			Title:         "Exam",
			ExamDate:      time.Now().AddDate(0, 0, -i),
			MarksObtained: marks,
			TotalMarks:    100,
			IsPublished:   true,
		}); err != nil {
			t.Fatalf("Create(): %v", err)
		}
	}
	// unpublished results never count
	if _, err = svc.Create(ctx, "teacher-1", exam.NewExam{
		StudentID:     studentID,
		BatchID:       b.ID,
		Title:         "Draft",
		ExamDate:      time.Now(),
		MarksObtained: 10,
		TotalMarks:    100,
	}); err != nil {
		t.Fatalf("Create(): %v", err)
	}

	stats, err = svc.StudentStats(ctx, studentID)
	if err != nil {
		t.Fatalf("StudentStats(): %v", err)
	}
	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, 80.0, stats.AveragePct)
	assert.Equal(t, 90.0, stats.BestPct)
	assert.Equal(t, 70.0, stats.WorstPct)
	assert.Equal(t, map[string]int{"A+": 1, "A": 1, "B+": 1}, stats.GradeCounts)
}
