// Package progression owns the XP counter and level resolution for users.
//
// Both operations run inside a caller-supplied transaction so a completion
// event's task, record, and XP writes commit or roll back together. The XP
// update is a single atomic SQL increment, never a read-modify-write.
package progression

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrUserNotFound is returned when the user row does not exist.
var ErrUserNotFound = errors.New("user not found")

// Engine applies XP deltas for task completion events and keeps the user's
// level reference consistent with their XP.
type Engine struct {
	xpPerTask int
}

// NewEngine creates an Engine awarding xpPerTask per completion event.
func NewEngine(xpPerTask int) *Engine {
	return &Engine{xpPerTask: xpPerTask}
}

// AddCompletionXP increments the user's XP and promotes them at most one level:
// if the next tier above the current one (by threshold) is now within reach,
// the user moves to it. Skipping tiers on the way up takes multiple events.
func (e *Engine) AddCompletionXP(tx *sql.Tx, userID int64) error {
	result, err := tx.Exec(
		`UPDATE users SET xp = xp + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		e.xpPerTask, userID,
	)
	if err != nil {
		return fmt.Errorf("add xp: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("add xp rows: %w", err)
	} else if n == 0 {
		return ErrUserNotFound
	}

	var xp int
	var levelID sql.NullInt64
	if err := tx.QueryRow(`SELECT xp, level_id FROM users WHERE id = ?`, userID).Scan(&xp, &levelID); err != nil {
		return fmt.Errorf("read xp: %w", err)
	}

	currentThreshold, ok, err := e.currentThreshold(tx, levelID)
	if err != nil {
		return err
	}
	if !ok {
		// No levels seeded; XP still accrues, the level reference stays unset.
		return nil
	}

	var nextID int64
	var nextRequired int
	err = tx.QueryRow(
		`SELECT id, xp_required FROM levels WHERE xp_required > ? ORDER BY xp_required ASC LIMIT 1`,
		currentThreshold,
	).Scan(&nextID, &nextRequired)
	if err == sql.ErrNoRows {
		return nil // already at the top tier
	}
	if err != nil {
		return fmt.Errorf("next level: %w", err)
	}

	if xp >= nextRequired {
		if _, err := tx.Exec(`UPDATE users SET level_id = ? WHERE id = ?`, nextID, userID); err != nil {
			return fmt.Errorf("promote: %w", err)
		}
	}
	return nil
}

// RemoveCompletionXP decrements the user's XP, clamped at zero, and fully
// re-resolves the level downward: the user lands on the highest tier whose
// threshold their remaining XP still meets, even if that skips several tiers.
func (e *Engine) RemoveCompletionXP(tx *sql.Tx, userID int64) error {
	result, err := tx.Exec(
		`UPDATE users SET xp = MAX(xp - ?, 0), updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		e.xpPerTask, userID,
	)
	if err != nil {
		return fmt.Errorf("remove xp: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("remove xp rows: %w", err)
	} else if n == 0 {
		return ErrUserNotFound
	}

	var xp int
	if err := tx.QueryRow(`SELECT xp FROM users WHERE id = ?`, userID).Scan(&xp); err != nil {
		return fmt.Errorf("read xp: %w", err)
	}

	var newID int64
	err = tx.QueryRow(
		`SELECT id FROM levels WHERE xp_required <= ? ORDER BY xp_required DESC LIMIT 1`,
		xp,
	).Scan(&newID)
	if err == sql.ErrNoRows {
		return nil // no tier reachable, keep the current reference
	}
	if err != nil {
		return fmt.Errorf("resolve level: %w", err)
	}

	if _, err := tx.Exec(`UPDATE users SET level_id = ? WHERE id = ?`, newID, userID); err != nil {
		return fmt.Errorf("demote: %w", err)
	}
	return nil
}

// currentThreshold resolves the threshold promotion is measured from: the
// user's level if set, otherwise the lowest-threshold tier. The bool is false
// when no levels exist at all.
func (e *Engine) currentThreshold(tx *sql.Tx, levelID sql.NullInt64) (int, bool, error) {
	if levelID.Valid {
		var threshold int
		err := tx.QueryRow(`SELECT xp_required FROM levels WHERE id = ?`, levelID.Int64).Scan(&threshold)
		if err != nil {
			return 0, false, fmt.Errorf("current level: %w", err)
		}
		return threshold, true, nil
	}

	var threshold int
	err := tx.QueryRow(`SELECT xp_required FROM levels ORDER BY xp_required ASC LIMIT 1`).Scan(&threshold)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lowest level: %w", err)
	}
	return threshold, true, nil
}
