package postgres

import (
	"database/sql"
)

// RewriteLogRepo implements repository.RewriteLogRepository
type RewriteLogRepo struct {
	db *sql.DB
}

// NewRewriteLogRepo creates a new rewrite log repository
func NewRewriteLogRepo(db *sql.DB) *RewriteLogRepo {
	return &RewriteLogRepo{db: db}
}

// RecordRewrite stores one performed rewrite with its link count
func (r *RewriteLogRepo) RecordRewrite(userID int64, linkCount int) error {
	query := `
		INSERT INTO rewrites (user_id, link_count)
		VALUES ($1, $2)
	`
	_, err := r.db.Exec(query, userID, linkCount)
	return err
}

// CountRewrites returns how many rewrites were performed for the user
func (r *RewriteLogRepo) CountRewrites(userID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM rewrites WHERE user_id = $1`
	err := r.db.QueryRow(query, userID).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CleanOldEntries removes rewrite records older than the given number of days
func (r *RewriteLogRepo) CleanOldEntries(days int) error {
	query := `
		DELETE FROM rewrites
		WHERE created_at < NOW() - INTERVAL '1 day' * $1
	`
	_, err := r.db.Exec(query, days)
	return err
}
