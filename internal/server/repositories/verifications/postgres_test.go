package verifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/giftauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsert(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	q := `(?s)^\s*INSERT\s+INTO\s+email_verifications\b.*ON\s+CONFLICT\s*\(user_id\)\s*DO\s+UPDATE`
	exp := time.Date(2026, 1, 1, 0, 10, 0, 0, time.UTC)

	mock.ExpectExec(q).WithArgs("u1", "hash", exp).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Upsert(context.Background(), &models.EmailVerification{UserID: "u1", CodeHash: "hash", ExpiresAt: exp}))

	mock.ExpectExec(q).WithArgs("u1", "hash", exp).WillReturnError(errors.New("db down"))
	err = repo.Upsert(context.Background(), &models.EmailVerification{UserID: "u1", CodeHash: "hash", ExpiresAt: exp})
	assert.ErrorContains(t, err, "db error: db down")
	require.NoError(t, mock.ExpectationsWereMet())
}
