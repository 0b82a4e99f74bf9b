package progression

import (
	"database/sql"
	"testing"

	"github.com/minhdn/taskquest/internal/database"
)

// setupLadder opens a fresh database and replaces the seeded levels with the
// given name→threshold ladder. An empty map leaves no levels at all.
func setupLadder(t *testing.T, ladder map[string]int) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(`DELETE FROM levels`); err != nil {
		t.Fatalf("clear levels: %v", err)
	}
	for name, required := range ladder {
		if _, err := db.Exec(`INSERT INTO levels (name, xp_required) VALUES (?, ?)`, name, required); err != nil {
			t.Fatalf("insert level %q: %v", name, err)
		}
	}
	return db
}

func insertUser(t *testing.T, db *sql.DB, xp int) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO users (email, password_hash, xp) VALUES ('u@example.com', 'hash', ?)`, xp)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("user id: %v", err)
	}
	return id
}

func inTx(t *testing.T, db *sql.DB, fn func(tx *sql.Tx) error) error {
	t.Helper()
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit tx: %v", err)
	}
	return nil
}

func userState(t *testing.T, db *sql.DB, id int64) (xp int, levelName string) {
	t.Helper()
	var name sql.NullString
	err := db.QueryRow(
		`SELECT u.xp, l.name FROM users u LEFT JOIN levels l ON l.id = u.level_id WHERE u.id = ?`, id,
	).Scan(&xp, &name)
	if err != nil {
		t.Fatalf("read user state: %v", err)
	}
	return xp, name.String
}

func TestAddXPPromotesOneLevel(t *testing.T) {
	db := setupLadder(t, map[string]int{"Bronze": 0, "Silver": 10})
	userID := insertUser(t, db, 0)
	e := NewEngine(10)

	if err := inTx(t, db, func(tx *sql.Tx) error { return e.AddCompletionXP(tx, userID) }); err != nil {
		t.Fatalf("add xp: %v", err)
	}

	xp, level := userState(t, db, userID)
	if xp != 10 {
		t.Errorf("xp = %d, want 10", xp)
	}
	if level != "Silver" {
		t.Errorf("level = %q, want Silver", level)
	}
}

func TestAddXPNoSkipOnTheWayUp(t *testing.T) {
	// One big award lands past two tiers; promotion still moves one step.
	db := setupLadder(t, map[string]int{"Bronze": 0, "Silver": 10, "Gold": 20})
	userID := insertUser(t, db, 0)
	e := NewEngine(25)

	if err := inTx(t, db, func(tx *sql.Tx) error { return e.AddCompletionXP(tx, userID) }); err != nil {
		t.Fatalf("add xp: %v", err)
	}
	xp, level := userState(t, db, userID)
	if xp != 25 || level != "Silver" {
		t.Errorf("state = %d/%q, want 25/Silver", xp, level)
	}

	// The next event climbs the remaining step.
	if err := inTx(t, db, func(tx *sql.Tx) error { return e.AddCompletionXP(tx, userID) }); err != nil {
		t.Fatalf("add xp: %v", err)
	}
	xp, level = userState(t, db, userID)
	if xp != 50 || level != "Gold" {
		t.Errorf("state = %d/%q, want 50/Gold", xp, level)
	}
}

func TestAddXPAtTopTier(t *testing.T) {
	db := setupLadder(t, map[string]int{"Bronze": 0, "Silver": 10})
	userID := insertUser(t, db, 0)
	e := NewEngine(10)

	for i := 0; i < 3; i++ {
		if err := inTx(t, db, func(tx *sql.Tx) error { return e.AddCompletionXP(tx, userID) }); err != nil {
			t.Fatalf("add xp: %v", err)
		}
	}
	xp, level := userState(t, db, userID)
	if xp != 30 || level != "Silver" {
		t.Errorf("state = %d/%q, want 30/Silver", xp, level)
	}
}

func TestAddXPNoLevelsSeeded(t *testing.T) {
	db := setupLadder(t, nil)
	userID := insertUser(t, db, 0)
	e := NewEngine(10)

	if err := inTx(t, db, func(tx *sql.Tx) error { return e.AddCompletionXP(tx, userID) }); err != nil {
		t.Fatalf("add xp: %v", err)
	}
	xp, level := userState(t, db, userID)
	if xp != 10 {
		t.Errorf("xp = %d, want 10 (XP accrues without levels)", xp)
	}
	if level != "" {
		t.Errorf("level = %q, want unset", level)
	}
}

func TestRemoveXPDemotesFully(t *testing.T) {
	db := setupLadder(t, map[string]int{"Bronze": 0, "Silver": 10, "Gold": 20})
	userID := insertUser(t, db, 0)
	e := NewEngine(10)

	for i := 0; i < 2; i++ {
		if err := inTx(t, db, func(tx *sql.Tx) error { return e.AddCompletionXP(tx, userID) }); err != nil {
			t.Fatalf("add xp: %v", err)
		}
	}
	if _, level := userState(t, db, userID); level != "Gold" {
		t.Fatalf("level = %q, want Gold before removal", level)
	}

	// A single big removal drops past Silver straight to Bronze.
	big := NewEngine(20)
	if err := inTx(t, db, func(tx *sql.Tx) error { return big.RemoveCompletionXP(tx, userID) }); err != nil {
		t.Fatalf("remove xp: %v", err)
	}
	xp, level := userState(t, db, userID)
	if xp != 0 || level != "Bronze" {
		t.Errorf("state = %d/%q, want 0/Bronze", xp, level)
	}
}

func TestRemoveXPClampsAtZero(t *testing.T) {
	db := setupLadder(t, map[string]int{"Bronze": 0})
	userID := insertUser(t, db, 3)
	e := NewEngine(10)

	if err := inTx(t, db, func(tx *sql.Tx) error { return e.RemoveCompletionXP(tx, userID) }); err != nil {
		t.Fatalf("remove xp: %v", err)
	}
	if xp, _ := userState(t, db, userID); xp != 0 {
		t.Errorf("xp = %d, want 0 (never negative)", xp)
	}
}

func TestMarkThenUnmarkRoundTrip(t *testing.T) {
	// XP 0 with levels at {1: 0 XP, 2: 10 XP}: one award reaches level 2,
	// the matching removal re-resolves back to level 1.
	db := setupLadder(t, map[string]int{"Level One": 0, "Level Two": 10})
	userID := insertUser(t, db, 0)
	e := NewEngine(10)

	if err := inTx(t, db, func(tx *sql.Tx) error { return e.AddCompletionXP(tx, userID) }); err != nil {
		t.Fatalf("add xp: %v", err)
	}
	if xp, level := userState(t, db, userID); xp != 10 || level != "Level Two" {
		t.Fatalf("state = %d/%q, want 10/Level Two", xp, level)
	}

	if err := inTx(t, db, func(tx *sql.Tx) error { return e.RemoveCompletionXP(tx, userID) }); err != nil {
		t.Fatalf("remove xp: %v", err)
	}
	if xp, level := userState(t, db, userID); xp != 0 || level != "Level One" {
		t.Fatalf("state = %d/%q, want 0/Level One", xp, level)
	}
}

func TestXPUserNotFound(t *testing.T) {
	db := setupLadder(t, map[string]int{"Bronze": 0})
	e := NewEngine(10)

	err := inTx(t, db, func(tx *sql.Tx) error { return e.AddCompletionXP(tx, 9999) })
	if err != ErrUserNotFound {
		t.Errorf("add err = %v, want ErrUserNotFound", err)
	}
	err = inTx(t, db, func(tx *sql.Tx) error { return e.RemoveCompletionXP(tx, 9999) })
	if err != ErrUserNotFound {
		t.Errorf("remove err = %v, want ErrUserNotFound", err)
	}
}
