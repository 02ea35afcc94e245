// Package admin implements the operator commands shipped as cmd/admin:
// applying migrations, purging stale password-reset tokens on demand and
// producing bcrypt hashes for seeding accounts by hand.
package admin

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/giftauth/internal/common"
	"github.com/dmitrijs2005/giftauth/internal/logging"
	"github.com/dmitrijs2005/giftauth/internal/server/auth"
	"github.com/dmitrijs2005/giftauth/internal/server/config"
	"github.com/dmitrijs2005/giftauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/giftauth/internal/server/services"
	"github.com/dmitrijs2005/giftauth/internal/validation"
)

const usage = `Usage: admin [flags] <command>

Commands:
  migrate          apply database migrations
  cleanup-resets   delete expired, used and stale password reset tokens
  hash-password    read a password and print its bcrypt hash
`

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrWeakPassword     = errors.New("password too weak")
)

type App struct {
	config *config.Config
	logger logging.Logger
	out    io.Writer

	openDB     func(driverName, dsn string) (*sql.DB, error)
	newManager func(db *sql.DB) (repomanager.RepositoryManager, error)
	hasher     *auth.PasswordHasher
}

func NewApp(c *config.Config, logger logging.Logger, out io.Writer) *App {
	return &App{
		config:     c,
		logger:     logger.With("module", "admin"),
		out:        out,
		openDB:     sql.Open,
		newManager: repomanager.NewPostgresRepositoryManager,
		hasher:     auth.NewPasswordHasher(),
	}
}

// Run executes the first positional argument as a command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return nil
	}

	switch args[0] {
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	case "migrate":
		return a.withDB(ctx, a.migrate)
	case "cleanup-resets":
		return a.withDB(ctx, a.cleanupResets)
	case "hash-password":
		return a.hashPassword()
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
}

func (a *App) withDB(ctx context.Context, fn func(context.Context, *sql.DB, repomanager.RepositoryManager) error) error {
	db, err := a.openDB("pgx", a.config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db open error: %w", err)
	}
	defer db.Close()

	rm, err := a.newManager(db)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}

	return fn(ctx, db, rm)
}

func (a *App) migrate(ctx context.Context, db *sql.DB, rm repomanager.RepositoryManager) error {
	if err := rm.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}
	fmt.Fprintln(a.out, "migrations applied")
	return nil
}

func (a *App) cleanupResets(ctx context.Context, db *sql.DB, rm repomanager.RepositoryManager) error {
	n, err := services.NewMaintenanceService(db, rm, a.logger).CleanupPasswordResets(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted %d password reset record(s)\n", n)
	return nil
}

func (a *App) hashPassword() error {
	pw, err := GetPassword(a.out, "Password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	confirm, err := GetPassword(a.out, "Repeat password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(pw, confirm) {
		return ErrPasswordMismatch
	}
	if !validation.ValidatePassword(string(pw)) {
		return fmt.Errorf("%w: %s", ErrWeakPassword, validation.PasswordRequirements)
	}

	hash, err := a.hasher.Hash(string(pw))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, hash)
	return nil
}

// CommandArgs drops flags (and their values) from args so that only the
// command and its own arguments remain. Flags are parsed separately by the
// config package.
func CommandArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "-h" || a == "--help" || !strings.HasPrefix(a, "-") || a == "-" {
			out = append(out, a)
			continue
		}
		if !strings.Contains(a, "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
		}
	}
	return out
}
