package repository

// UserRepository defines bookkeeping for control-bot users. The platform
// session artifact itself is owned by the client library; these rows only
// track registration status.
type UserRepository interface {
	EnsureUserExists(userID int64) error
	RecordPhone(userID int64, phone string) error
	SetSignedIn(userID int64, signedIn bool) error
	IsSignedIn(userID int64) (bool, error)
}

// RewriteLogRepository defines the audit log of performed rewrites.
type RewriteLogRepository interface {
	RecordRewrite(userID int64, linkCount int) error
	CountRewrites(userID int64) (int, error)
	CleanOldEntries(days int) error
}
