package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minhdn/taskquest/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var category string
	var deadline sql.NullTime

	err := scanner.Scan(
		&t.ID, &t.UserID, &t.Name, &t.Note, &category,
		&t.IsImportant, &t.IsUrgent, &deadline, &t.Status,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Category = unmarshalCategory(category)
	if deadline.Valid {
		t.Deadline = &deadline.Time
	}
	return &t, nil
}

const taskCols = `id, user_id, name, note, category, is_important, is_urgent, deadline, status, created_at, updated_at`

func marshalCategory(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	data, _ := json.Marshal(tags)
	return string(data)
}

func unmarshalCategory(raw string) []string {
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}

func (s *TaskStore) Create(userID int64, name, note string, category []string, isImportant, isUrgent bool, deadline *time.Time) (*model.Task, error) {
	var dl sql.NullTime
	if deadline != nil {
		dl = sql.NullTime{Time: deadline.UTC(), Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO tasks (user_id, name, note, category, is_important, is_urgent, deadline) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, name, note, marshalCategory(category), isImportant, isUrgent, dl,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(userID, id)
}

// GetByID returns the task only if it belongs to userID.
func (s *TaskStore) GetByID(userID, id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if err := s.attachChildren(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskStore) ListByUser(userID int64) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tasks {
		if err := s.attachChildren(&tasks[i]); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

func (s *TaskStore) Update(userID, id int64, name, note string, category []string, isImportant, isUrgent bool, deadline *time.Time) (*model.Task, error) {
	var dl sql.NullTime
	if deadline != nil {
		dl = sql.NullTime{Time: deadline.UTC(), Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE tasks SET name = ?, note = ?, category = ?, is_important = ?, is_urgent = ?, deadline = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		name, note, marshalCategory(category), isImportant, isUrgent, dl, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(userID, id)
}

func (s *TaskStore) UpdatePriority(userID, id int64, isImportant, isUrgent bool) (*model.Task, error) {
	_, err := s.db.Exec(
		`UPDATE tasks SET is_important = ?, is_urgent = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		isImportant, isUrgent, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task priority: %w", err)
	}
	return s.GetByID(userID, id)
}

func (s *TaskStore) Delete(userID, id int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (s *TaskStore) attachChildren(t *model.Task) error {
	subtasks, err := s.listSubtasks(t.ID)
	if err != nil {
		return err
	}
	t.Subtasks = subtasks

	reminder, err := s.getReminderByTask(t.ID)
	if err != nil {
		return err
	}
	t.Reminder = reminder
	return nil
}

// --- Subtask methods ---

func scanSubtask(scanner interface{ Scan(...any) error }) (*model.Subtask, error) {
	var st model.Subtask
	err := scanner.Scan(&st.ID, &st.TaskID, &st.Name, &st.Done)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

const subtaskCols = `id, task_id, name, done`

func (s *TaskStore) listSubtasks(taskID int64) ([]model.Subtask, error) {
	rows, err := s.db.Query(`SELECT `+subtaskCols+` FROM subtasks WHERE task_id = ? ORDER BY id ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	defer rows.Close()

	subtasks := []model.Subtask{}
	for rows.Next() {
		st, err := scanSubtask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subtask: %w", err)
		}
		subtasks = append(subtasks, *st)
	}
	return subtasks, rows.Err()
}

func (s *TaskStore) CreateSubtask(userID, taskID int64, name string) (*model.Subtask, error) {
	owner, err := s.ownsTask(userID, taskID)
	if err != nil {
		return nil, err
	}
	if !owner {
		return nil, nil
	}

	result, err := s.db.Exec(`INSERT INTO subtasks (task_id, name) VALUES (?, ?)`, taskID, name)
	if err != nil {
		return nil, fmt.Errorf("insert subtask: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+subtaskCols+` FROM subtasks WHERE id = ?`, id)
	return scanSubtask(row)
}

// GetSubtask returns the subtask only if its parent task belongs to userID.
func (s *TaskStore) GetSubtask(userID, id int64) (*model.Subtask, error) {
	row := s.db.QueryRow(
		`SELECT st.id, st.task_id, st.name, st.done FROM subtasks st JOIN tasks t ON t.id = st.task_id WHERE st.id = ? AND t.user_id = ?`,
		id, userID,
	)
	st, err := scanSubtask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subtask: %w", err)
	}
	return st, nil
}

func (s *TaskStore) UpdateSubtask(userID, id int64, name string, done bool) (*model.Subtask, error) {
	_, err := s.db.Exec(
		`UPDATE subtasks SET name = ?, done = ? WHERE id = ? AND task_id IN (SELECT id FROM tasks WHERE user_id = ?)`,
		name, done, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update subtask: %w", err)
	}
	return s.GetSubtask(userID, id)
}

func (s *TaskStore) DeleteSubtask(userID, id int64) error {
	_, err := s.db.Exec(
		`DELETE FROM subtasks WHERE id = ? AND task_id IN (SELECT id FROM tasks WHERE user_id = ?)`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete subtask: %w", err)
	}
	return nil
}

// --- Reminder methods ---

func scanReminder(scanner interface{ Scan(...any) error }) (*model.Reminder, error) {
	var r model.Reminder
	err := scanner.Scan(&r.ID, &r.TaskID, &r.RemindAt, &r.Sent)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const reminderCols = `id, task_id, remind_at, sent`

func (s *TaskStore) getReminderByTask(taskID int64) (*model.Reminder, error) {
	row := s.db.QueryRow(`SELECT `+reminderCols+` FROM reminders WHERE task_id = ?`, taskID)
	r, err := scanReminder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	return r, nil
}

// SetReminder creates or replaces the reminder for a task. Replacing resets
// the sent flag so the new time fires again.
func (s *TaskStore) SetReminder(userID, taskID int64, remindAt time.Time) (*model.Reminder, error) {
	owner, err := s.ownsTask(userID, taskID)
	if err != nil {
		return nil, err
	}
	if !owner {
		return nil, nil
	}

	_, err = s.db.Exec(
		`INSERT INTO reminders (task_id, remind_at, sent) VALUES (?, ?, 0)
		 ON CONFLICT(task_id) DO UPDATE SET remind_at = excluded.remind_at, sent = 0`,
		taskID, remindAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("set reminder: %w", err)
	}
	return s.getReminderByTask(taskID)
}

func (s *TaskStore) ClearReminder(userID, taskID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM reminders WHERE task_id = ? AND task_id IN (SELECT id FROM tasks WHERE user_id = ?)`,
		taskID, userID,
	)
	if err != nil {
		return fmt.Errorf("clear reminder: %w", err)
	}
	return nil
}

// DueReminder pairs a reminder with the owning user for delivery.
type DueReminder struct {
	model.Reminder
	UserID int64
}

func (s *TaskStore) DueReminders(now time.Time) ([]DueReminder, error) {
	rows, err := s.db.Query(
		`SELECT r.id, r.task_id, r.remind_at, r.sent, t.user_id
		 FROM reminders r JOIN tasks t ON t.id = r.task_id
		 WHERE r.sent = 0 AND r.remind_at <= ? ORDER BY r.remind_at ASC`,
		now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	defer rows.Close()

	var due []DueReminder
	for rows.Next() {
		var d DueReminder
		if err := rows.Scan(&d.ID, &d.TaskID, &d.RemindAt, &d.Sent, &d.UserID); err != nil {
			return nil, fmt.Errorf("scan due reminder: %w", err)
		}
		due = append(due, d)
	}
	return due, rows.Err()
}

func (s *TaskStore) MarkReminderSent(id int64) error {
	_, err := s.db.Exec(`UPDATE reminders SET sent = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}

func (s *TaskStore) ownsTask(userID, taskID int64) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check task owner: %w", err)
	}
	return true, nil
}
