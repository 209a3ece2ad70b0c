package task_test

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/ngoma/core/task"
	inmemdb "github.com/trezcool/ngoma/storage/database/inmem"
)

func setupTaskSvc(t *testing.T) task.Service {
	t.Helper()
	return task.NewService(inmemdb.NewTaskRepository(inmemdb.Open()))
}

func Test_taskService_lifecycle(t *testing.T) {
	svc := setupTaskSvc(t)
	ctx := context.Background()

	tsk, err := svc.Create(ctx, "admin-1", task.NewTask{
		Title:      "Order costumes",
		AssignedTo: "9a0fca18-2c6a-4dd1-bcee-4f0b99ef1b29",
	})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	if tsk.Status != task.StatusTodo {
		t.Errorf("Status = %q, want todo", tsk.Status)
	}
	if tsk.Priority != task.PriorityMedium {
		t.Errorf("Priority = %q, want defaulted to medium", tsk.Priority)
	}

	tsk, err = svc.Update(ctx, tsk.ID, task.UpdateTask{Status: task.StatusDone})
	if err != nil {
		t.Fatalf("Update(): %v", err)
	}
	if tsk.Status != task.StatusDone {
		t.Errorf("Status = %q, want done", tsk.Status)
	}

	got, err := svc.Filter(ctx, task.QueryFilter{Status: "DONE "}) // cleaned + lowered
	if err != nil {
		t.Fatalf("Filter(): %v", err)
	}
	if len(got) != 1 {
		t.Errorf("filtered = %d, want 1", len(got))
	}

	if err = svc.Delete(ctx, tsk.ID); err != nil {
		t.Fatalf("Delete(): %v", err)
	}
	if _, err = svc.GetByID(ctx, tsk.ID); err != task.ErrNotFound {
		t.Errorf("GetByID() error = %v, want %v", err, task.ErrNotFound)
	}
}

func TestTask_IsOverdue(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	tests := []struct {
		name string
		tsk  task.Task
		want bool
	}{
		{name: "no due date", tsk: task.Task{Status: task.StatusTodo}},
		{name: "future due date", tsk: task.Task{Status: task.StatusTodo, DueDate: &future}},
		{name: "past due date", tsk: task.Task{Status: task.StatusInProgress, DueDate: &past}, want: true},
		{name: "done is never overdue", tsk: task.Task{Status: task.StatusDone, DueDate: &past}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tsk.IsOverdue(); got != tt.want {
				t.Errorf("IsOverdue() = %v, want %v", got, tt.want)
			}
		})
	}
}
