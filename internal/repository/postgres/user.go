package postgres

import (
	"database/sql"
)

// UserRepo implements repository.UserRepository
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// EnsureUserExists creates user if not exists
func (r *UserRepo) EnsureUserExists(userID int64) error {
	query := `
		INSERT INTO users (user_id, signed_in)
		VALUES ($1, FALSE)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.db.Exec(query, userID)
	return err
}

// RecordPhone stores the phone number used for the user's sign-in attempt
func (r *UserRepo) RecordPhone(userID int64, phone string) error {
	query := `
		INSERT INTO users (user_id, phone, signed_in)
		VALUES ($1, $2, FALSE)
		ON CONFLICT (user_id)
		DO UPDATE SET phone = $2
	`
	_, err := r.db.Exec(query, userID, phone)
	return err
}

// SetSignedIn marks whether the user has a signed-in automation session
func (r *UserRepo) SetSignedIn(userID int64, signedIn bool) error {
	query := `
		INSERT INTO users (user_id, signed_in)
		VALUES ($1, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET signed_in = $2
	`
	_, err := r.db.Exec(query, userID, signedIn)
	return err
}

// IsSignedIn checks whether the user has a signed-in automation session
func (r *UserRepo) IsSignedIn(userID int64) (bool, error) {
	var signedIn bool
	query := `SELECT signed_in FROM users WHERE user_id = $1`
	err := r.db.QueryRow(query, userID).Scan(&signedIn)

	if err == sql.ErrNoRows {
		// User doesn't exist yet
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return signedIn, nil
}
