package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/giftauth/internal/common"
	"github.com/dmitrijs2005/giftauth/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+refresh_tokens\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*$`
	exp := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	ua := "curl/8.0"

	mock.ExpectExec(q).
		WithArgs("u1", "tok123", exp, &ua).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.RefreshToken{UserID: "u1", Token: "tok123", ExpiresAt: exp, DeviceInfo: &ua})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^\s*INSERT\s+INTO\s+refresh_tokens`).
		WillReturnError(errors.New("boom"))

	err := repo.Create(context.Background(), &models.RefreshToken{UserID: "u1", Token: "tok"})
	if err == nil || !regexp.MustCompile(`db error: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFind_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*SELECT\s+id,\s*user_id,\s*token,\s*expires_at,\s*created_at,\s*revoked_at,\s*device_info\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`
	exp := time.Now().Add(time.Hour).UTC()
	created := exp.Add(-7 * 24 * time.Hour)

	rows := sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at", "revoked_at", "device_info"}).
		AddRow("rt-1", "u1", "tok123", exp, created, nil, "Mozilla")
	mock.ExpectQuery(q).WithArgs("tok123").WillReturnRows(rows)

	got, err := repo.Find(context.Background(), "tok123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "rt-1" || got.UserID != "u1" || !got.ExpiresAt.Equal(exp) || got.RevokedAt != nil {
		t.Fatalf("unexpected token: %+v", got)
	}
	if got.DeviceInfo == nil || *got.DeviceInfo != "Mozilla" {
		t.Fatalf("device info not scanned: %+v", got.DeviceInfo)
	}
}

func TestFind_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^\s*SELECT.*FROM\s+refresh_tokens`).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "nope")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestDeleteByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs("rt-1").WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.DeleteByID(context.Background(), "rt-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// second rotation of the same row finds nothing
	mock.ExpectExec(q).WithArgs("rt-1").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.DeleteByID(context.Background(), "rt-1"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs("tok").WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.Delete(context.Background(), "tok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec(q).WithArgs("gone").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.Delete(context.Background(), "gone"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}

	mock.ExpectExec(q).WithArgs("tok").WillReturnError(errors.New("db down"))
	err := repo.Delete(context.Background(), "tok")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestDeleteAllForUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+user_id\s*=\s*\$1$`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteAllForUser(context.Background(), "u1")
	if err != nil || n != 3 {
		t.Fatalf("got n=%d err=%v, want 3 nil", n, err)
	}
}
