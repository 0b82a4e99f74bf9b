package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/minhdn/taskquest/internal/model"
)

func createTestUser(t *testing.T, db *sql.DB, email string) int64 {
	t.Helper()
	user, err := NewUserStore(db).Create(email, "hash")
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user.ID
}

func TestTaskCRUD(t *testing.T) {
	db := setupTestDB(t)
	ts := NewTaskStore(db)
	userID := createTestUser(t, db, "alice@example.com")

	deadline := time.Date(2030, 6, 2, 0, 0, 0, 0, time.UTC)
	task, err := ts.Create(userID, "Write report", "quarterly numbers", []string{"work", "writing"}, true, false, &deadline)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Name != "Write report" {
		t.Errorf("name = %q, want %q", task.Name, "Write report")
	}
	if task.Status != model.StatusPending {
		t.Errorf("status = %q, want PENDING", task.Status)
	}
	if len(task.Category) != 2 || task.Category[0] != "work" {
		t.Errorf("category = %v, want [work writing]", task.Category)
	}
	if task.Deadline == nil || !task.Deadline.Equal(deadline) {
		t.Errorf("deadline = %v, want %v", task.Deadline, deadline)
	}

	// Update
	updated, err := ts.Update(userID, task.ID, "Write report v2", "", []string{"work"}, false, true, nil)
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if updated.Name != "Write report v2" {
		t.Errorf("updated name = %q", updated.Name)
	}
	if updated.Deadline != nil {
		t.Errorf("deadline = %v, want nil", updated.Deadline)
	}
	if !updated.IsUrgent || updated.IsImportant {
		t.Errorf("flags = important:%v urgent:%v, want false/true", updated.IsImportant, updated.IsUrgent)
	}

	// Priority only
	prioritized, err := ts.UpdatePriority(userID, task.ID, true, true)
	if err != nil {
		t.Fatalf("update priority: %v", err)
	}
	if !prioritized.IsImportant || !prioritized.IsUrgent {
		t.Error("expected both priority flags set")
	}
	if prioritized.Name != "Write report v2" {
		t.Error("priority update must not touch other fields")
	}

	// Delete
	if err := ts.Delete(userID, task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	got, err := ts.GetByID(userID, task.ID)
	if err != nil {
		t.Fatalf("get deleted task: %v", err)
	}
	if got != nil {
		t.Error("expected nil for deleted task")
	}
}

func TestTaskScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	ts := NewTaskStore(db)
	alice := createTestUser(t, db, "alice@example.com")
	mallory := createTestUser(t, db, "mallory@example.com")

	task, err := ts.Create(alice, "Private", "", []string{"home"}, false, false, nil)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	got, err := ts.GetByID(mallory, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got != nil {
		t.Error("task must not be visible to another user")
	}

	if err := ts.Delete(mallory, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	still, err := ts.GetByID(alice, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if still == nil {
		t.Error("another user's delete must not remove the task")
	}
}

func TestSubtasks(t *testing.T) {
	db := setupTestDB(t)
	ts := NewTaskStore(db)
	userID := createTestUser(t, db, "alice@example.com")

	task, err := ts.Create(userID, "Plan trip", "", []string{"travel"}, false, false, nil)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	st, err := ts.CreateSubtask(userID, task.ID, "Book flights")
	if err != nil {
		t.Fatalf("create subtask: %v", err)
	}
	if st == nil || st.Name != "Book flights" || st.Done {
		t.Fatalf("subtask = %+v", st)
	}

	// Unowned task yields nil
	other := createTestUser(t, db, "bob@example.com")
	none, err := ts.CreateSubtask(other, task.ID, "Sneak in")
	if err != nil {
		t.Fatalf("create subtask: %v", err)
	}
	if none != nil {
		t.Error("expected nil subtask for foreign task")
	}

	done, err := ts.UpdateSubtask(userID, st.ID, "Book flights", true)
	if err != nil {
		t.Fatalf("update subtask: %v", err)
	}
	if !done.Done {
		t.Error("expected subtask marked done")
	}

	loaded, err := ts.GetByID(userID, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if len(loaded.Subtasks) != 1 {
		t.Fatalf("subtasks = %d, want 1", len(loaded.Subtasks))
	}

	if err := ts.DeleteSubtask(userID, st.ID); err != nil {
		t.Fatalf("delete subtask: %v", err)
	}
	gone, err := ts.GetSubtask(userID, st.ID)
	if err != nil {
		t.Fatalf("get subtask: %v", err)
	}
	if gone != nil {
		t.Error("expected nil for deleted subtask")
	}
}

func TestReminders(t *testing.T) {
	db := setupTestDB(t)
	ts := NewTaskStore(db)
	userID := createTestUser(t, db, "alice@example.com")

	task, err := ts.Create(userID, "Water plants", "", []string{"home"}, false, false, nil)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	at := time.Date(2030, 1, 2, 9, 0, 0, 0, time.UTC)
	rem, err := ts.SetReminder(userID, task.ID, at)
	if err != nil {
		t.Fatalf("set reminder: %v", err)
	}
	if rem == nil || !rem.RemindAt.Equal(at) || rem.Sent {
		t.Fatalf("reminder = %+v", rem)
	}

	// Not due yet
	due, err := ts.DueReminders(at.Add(-time.Hour))
	if err != nil {
		t.Fatalf("due reminders: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("due = %d, want 0", len(due))
	}

	// Due now
	due, err = ts.DueReminders(at)
	if err != nil {
		t.Fatalf("due reminders: %v", err)
	}
	if len(due) != 1 || due[0].UserID != userID {
		t.Fatalf("due = %+v, want one for user %d", due, userID)
	}

	if err := ts.MarkReminderSent(due[0].ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	due, err = ts.DueReminders(at)
	if err != nil {
		t.Fatalf("due reminders: %v", err)
	}
	if len(due) != 0 {
		t.Error("sent reminders must not come due again")
	}

	// Replacing the reminder resets the sent flag
	rem, err = ts.SetReminder(userID, task.ID, at.Add(time.Hour))
	if err != nil {
		t.Fatalf("replace reminder: %v", err)
	}
	if rem.Sent {
		t.Error("replaced reminder must have sent reset")
	}

	if err := ts.ClearReminder(userID, task.ID); err != nil {
		t.Fatalf("clear reminder: %v", err)
	}
	loaded, err := ts.GetByID(userID, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if loaded.Reminder != nil {
		t.Error("expected reminder cleared")
	}
}
