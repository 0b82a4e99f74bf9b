package store

import (
	"database/sql"
	"fmt"

	"github.com/minhdn/taskquest/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var levelID sql.NullInt64
	var levelName sql.NullString
	var levelXP sql.NullInt64

	err := scanner.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.XP, &levelID,
		&u.CreatedAt, &u.UpdatedAt, &levelName, &levelXP,
	)
	if err != nil {
		return nil, err
	}

	if levelID.Valid {
		u.LevelID = &levelID.Int64
		u.Level = &model.Level{
			ID:         levelID.Int64,
			Name:       levelName.String,
			XPRequired: int(levelXP.Int64),
		}
	}
	return &u, nil
}

const userCols = `u.id, u.email, u.password_hash, u.xp, u.level_id, u.created_at, u.updated_at, l.name, l.xp_required`

const userFrom = ` FROM users u LEFT JOIN levels l ON l.id = u.level_id`

func (s *UserStore) Create(email, passwordHash string) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (email, password_hash) VALUES (?, ?)`,
		email, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+userFrom+` WHERE u.id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+userFrom+` WHERE u.email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}
