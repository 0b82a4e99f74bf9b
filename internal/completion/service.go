// Package completion coordinates a task completion event: the task's status,
// the day's record, and the user's XP move together in one transaction.
package completion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/minhdn/taskquest/internal/model"
	"github.com/minhdn/taskquest/internal/progression"
	"github.com/minhdn/taskquest/internal/store"
)

var (
	// ErrTaskNotFound is returned when the task does not exist or is not
	// owned by the calling user.
	ErrTaskNotFound = errors.New("task not found")
	// ErrNoRecordForTask is returned by UnmarkCompleted when no daily record
	// holds the task in its completed set.
	ErrNoRecordForTask = errors.New("no record found for this task")
)

// Result is what a completion event returns: the touched daily record and the
// user with XP and level updated.
type Result struct {
	Record *model.DailyTaskRecord `json:"record"`
	User   *model.User            `json:"user"`
}

// Service is the task completion orchestrator.
type Service struct {
	db      *sql.DB
	engine  *progression.Engine
	users   *store.UserStore
	records *store.RecordStore
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(db *sql.DB, engine *progression.Engine, users *store.UserStore, records *store.RecordStore, logger *slog.Logger) *Service {
	return &Service{
		db:      db,
		engine:  engine,
		users:   users,
		records: records,
		logger:  logger,
		now:     time.Now,
	}
}

// MarkCompleted records a completion event for the task: today's daily record
// is created if missing, the task joins its completed set and flips to
// COMPLETED, and the user earns XP. All of it commits atomically.
func (s *Service) MarkCompleted(ctx context.Context, userID, taskID int64) (*Result, error) {
	today := startOfDay(s.now().UTC())

	var recordID int64
	err := s.runTx(ctx, func(tx *sql.Tx) error {
		owner, err := taskOwned(tx, userID, taskID)
		if err != nil {
			return err
		}
		if !owner {
			return ErrTaskNotFound
		}

		recordID, err = s.getOrCreateRecord(tx, userID, today)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(
			`UPDATE tasks SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
			model.StatusCompleted, taskID, userID,
		); err != nil {
			return fmt.Errorf("set task completed: %w", err)
		}

		// A task lives in at most one record's completed set; re-marking on a
		// later day moves it to that day's record.
		if _, err := tx.Exec(
			`INSERT INTO daily_record_tasks (record_id, task_id) VALUES (?, ?)
			 ON CONFLICT(task_id) DO UPDATE SET record_id = excluded.record_id`,
			recordID, taskID,
		); err != nil {
			return fmt.Errorf("add task to record: %w", err)
		}

		return s.engine.AddCompletionXP(tx, userID)
	})
	if err != nil {
		return nil, err
	}

	return s.result(userID, recordID)
}

// UnmarkCompleted reverts a completion event: the task leaves whichever daily
// record currently holds it (not necessarily today's), flips back to PENDING,
// and the user loses the XP it earned.
func (s *Service) UnmarkCompleted(ctx context.Context, userID, taskID int64) (*Result, error) {
	var recordID int64
	err := s.runTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRow(
			`SELECT drt.record_id FROM daily_record_tasks drt
			 JOIN daily_task_records r ON r.id = drt.record_id
			 WHERE drt.task_id = ? AND r.user_id = ?`,
			taskID, userID,
		).Scan(&recordID)
		if err == sql.ErrNoRows {
			return ErrNoRecordForTask
		}
		if err != nil {
			return fmt.Errorf("find record for task: %w", err)
		}

		if _, err := tx.Exec(`DELETE FROM daily_record_tasks WHERE task_id = ?`, taskID); err != nil {
			return fmt.Errorf("remove task from record: %w", err)
		}

		if _, err := tx.Exec(
			`UPDATE tasks SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
			model.StatusPending, taskID, userID,
		); err != nil {
			return fmt.Errorf("reset task status: %w", err)
		}

		return s.engine.RemoveCompletionXP(tx, userID)
	})
	if err != nil {
		return nil, err
	}

	return s.result(userID, recordID)
}

// ListRecords returns the user's daily records with date in [from, to]
// inclusive, ordered ascending by date.
func (s *Service) ListRecords(ctx context.Context, userID int64, from, to time.Time) ([]model.DailyTaskRecord, error) {
	return s.records.ListByDateRange(userID, from, to)
}

// getOrCreateRecord is the daily record manager: a conditional insert followed
// by a select, so concurrent events for the same (user, day) never create two
// records.
func (s *Service) getOrCreateRecord(tx *sql.Tx, userID int64, date time.Time) (int64, error) {
	day := date.Format(store.DateLayout)

	if _, err := tx.Exec(
		`INSERT INTO daily_task_records (user_id, date) VALUES (?, ?) ON CONFLICT(user_id, date) DO NOTHING`,
		userID, day,
	); err != nil {
		return 0, fmt.Errorf("upsert record: %w", err)
	}

	var id int64
	if err := tx.QueryRow(
		`SELECT id FROM daily_task_records WHERE user_id = ? AND date = ?`,
		userID, day,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("get record: %w", err)
	}
	return id, nil
}

func (s *Service) result(userID, recordID int64) (*Result, error) {
	record, err := s.records.GetByID(userID, recordID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, progression.ErrUserNotFound
	}
	return &Result{Record: record, User: user}, nil
}

// runTx runs fn in a transaction, retrying on SQLITE_BUSY with backoff.
func (s *Service) runTx(ctx context.Context, fn func(*sql.Tx) error) error {
	backoff := retry.WithMaxRetries(5, retry.NewExponential(10*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		if err := fn(tx); err != nil {
			tx.Rollback()
			if isBusy(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		if err := tx.Commit(); err != nil {
			if isBusy(err) {
				return retry.RetryableError(err)
			}
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func taskOwned(tx *sql.Tx, userID, taskID int64) (bool, error) {
	var one int
	err := tx.QueryRow(`SELECT 1 FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check task owner: %w", err)
	}
	return true, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
