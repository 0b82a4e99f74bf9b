package model

import "time"

// DailyTaskRecord aggregates the tasks a user completed on one calendar day.
// Exactly one record exists per (user, day); Date is truncated to midnight UTC.
type DailyTaskRecord struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Date           time.Time `json:"date"`
	CompletedTasks []Task    `json:"completed_tasks"`
	CreatedAt      time.Time `json:"created_at"`
}
