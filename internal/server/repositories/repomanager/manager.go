package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/giftauth/internal/dbx"
	"github.com/dmitrijs2005/giftauth/internal/server/repositories/gifts"
	"github.com/dmitrijs2005/giftauth/internal/server/repositories/passwordresets"
	"github.com/dmitrijs2005/giftauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/giftauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/giftauth/internal/server/repositories/verifications"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// path runs against *sql.DB or inside a dbx.WithTx transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	PasswordResets(db dbx.DBTX) passwordresets.Repository
	Verifications(db dbx.DBTX) verifications.Repository
	Gifts(db dbx.DBTX) gifts.Repository
}
