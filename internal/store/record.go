package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/minhdn/taskquest/internal/model"
)

// DateLayout is how daily record dates are stored: one calendar day, no time
// component. String ordering matches chronological ordering.
const DateLayout = "2006-01-02"

type RecordStore struct {
	db *sql.DB
}

func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db}
}

func scanRecord(scanner interface{ Scan(...any) error }) (*model.DailyTaskRecord, error) {
	var r model.DailyTaskRecord
	var date string

	err := scanner.Scan(&r.ID, &r.UserID, &date, &r.CreatedAt)
	if err != nil {
		return nil, err
	}

	r.Date, err = time.ParseInLocation(DateLayout, date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parse record date %q: %w", date, err)
	}
	return &r, nil
}

const recordCols = `id, user_id, date, created_at`

// GetByID returns the record with its completed tasks, scoped to userID.
func (s *RecordStore) GetByID(userID, id int64) (*model.DailyTaskRecord, error) {
	row := s.db.QueryRow(`SELECT `+recordCols+` FROM daily_task_records WHERE id = ? AND user_id = ?`, id, userID)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	if r.CompletedTasks, err = s.completedTasks(r.ID); err != nil {
		return nil, err
	}
	return r, nil
}

// ListByDateRange returns the user's records with date in [from, to] inclusive,
// ordered ascending by date, completed tasks included.
func (s *RecordStore) ListByDateRange(userID int64, from, to time.Time) ([]model.DailyTaskRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+recordCols+` FROM daily_task_records WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date ASC`,
		userID, from.UTC().Format(DateLayout), to.UTC().Format(DateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []model.DailyTaskRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range records {
		if records[i].CompletedTasks, err = s.completedTasks(records[i].ID); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (s *RecordStore) completedTasks(recordID int64) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT t.id, t.user_id, t.name, t.note, t.category, t.is_important, t.is_urgent, t.deadline, t.status, t.created_at, t.updated_at
		 FROM tasks t JOIN daily_record_tasks drt ON drt.task_id = t.id
		 WHERE drt.record_id = ? ORDER BY t.id ASC`,
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completed tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completed task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}
