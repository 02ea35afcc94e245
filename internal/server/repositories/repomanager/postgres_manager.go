package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/giftauth/internal/dbx"
	"github.com/dmitrijs2005/giftauth/internal/server/migrations"
	"github.com/dmitrijs2005/giftauth/internal/server/repositories/gifts"
	"github.com/dmitrijs2005/giftauth/internal/server/repositories/passwordresets"
	"github.com/dmitrijs2005/giftauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/giftauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/giftauth/internal/server/repositories/verifications"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

var gooseUpContext = goose.UpContext

type PostgresRepositoryManager struct {
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) PasswordResets(db dbx.DBTX) passwordresets.Repository {
	return passwordresets.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Verifications(db dbx.DBTX) verifications.Repository {
	return verifications.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Gifts(db dbx.DBTX) gifts.Repository {
	return gifts.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}

	return nil
}

func NewPostgresRepositoryManager(db *sql.DB) (RepositoryManager, error) {

	m := &PostgresRepositoryManager{}

	return m, nil
}
