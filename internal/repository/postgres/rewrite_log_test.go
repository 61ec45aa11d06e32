package postgres

import (
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestRewriteLogRepo_RecordRewrite(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewRewriteLogRepo(db)

	mock.ExpectExec("INSERT INTO rewrites").
		WithArgs(int64(123), 2).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.RecordRewrite(123, 2)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRewriteLogRepo_CountRewrites(t *testing.T) {
	tests := []struct {
		name          string
		userID        int64
		mockRows      *sqlmock.Rows
		mockError     error
		expectedCount int
		expectedError bool
	}{
		{
			name:          "user with rewrites",
			userID:        123,
			mockRows:      sqlmock.NewRows([]string{"count"}).AddRow(7),
			expectedCount: 7,
		},
		{
			name:          "user without rewrites",
			userID:        456,
			mockRows:      sqlmock.NewRows([]string{"count"}).AddRow(0),
			expectedCount: 0,
		},
		{
			name:          "database error",
			userID:        789,
			mockError:     fmt.Errorf("db error"),
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			assert.NoError(t, err)
			defer db.Close()

			repo := NewRewriteLogRepo(db)

			query := "SELECT COUNT\\(\\*\\) FROM rewrites WHERE user_id = \\$1"

			if tt.mockError != nil {
				mock.ExpectQuery(query).WithArgs(tt.userID).WillReturnError(tt.mockError)
			} else {
				mock.ExpectQuery(query).WithArgs(tt.userID).WillReturnRows(tt.mockRows)
			}

			count, err := repo.CountRewrites(tt.userID)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedCount, count)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRewriteLogRepo_CleanOldEntries(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewRewriteLogRepo(db)

	mock.ExpectExec("DELETE FROM rewrites").
		WithArgs(60).
		WillReturnResult(sqlmock.NewResult(0, 5))

	err = repo.CleanOldEntries(60)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
