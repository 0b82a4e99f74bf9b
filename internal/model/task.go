package model

import "time"

type TaskStatus string

const (
	StatusPending   TaskStatus = "PENDING"
	StatusCompleted TaskStatus = "COMPLETED"
)

type Task struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Name        string     `json:"name"`
	Note        string     `json:"note"`
	Category    []string   `json:"category"`
	IsImportant bool       `json:"is_important"`
	IsUrgent    bool       `json:"is_urgent"`
	Deadline    *time.Time `json:"deadline"`
	Status      TaskStatus `json:"status"`
	Subtasks    []Subtask  `json:"subtasks"`
	Reminder    *Reminder  `json:"reminder,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Subtask struct {
	ID     int64  `json:"id"`
	TaskID int64  `json:"task_id"`
	Name   string `json:"name"`
	Done   bool   `json:"done"`
}

type Reminder struct {
	ID       int64     `json:"id"`
	TaskID   int64     `json:"task_id"`
	RemindAt time.Time `json:"remind_at"`
	Sent     bool      `json:"sent"`
}
