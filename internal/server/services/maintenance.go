package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/giftauth/internal/logging"
	"github.com/dmitrijs2005/giftauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/giftauth/internal/timex"
)

// ResetRetention bounds how long any reset record is kept, used or not.
const ResetRetention = 24 * time.Hour

type MaintenanceService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	clock       timex.Clock
}

func NewMaintenanceService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *MaintenanceService {
	return &MaintenanceService{db: db, repomanager: m, logger: logger.With("module", "maintenance")}
}

func (s *MaintenanceService) WithClock(c timex.Clock) *MaintenanceService {
	s.clock = c
	return s
}

// CleanupPasswordResets deletes expired, used and stale reset records.
func (s *MaintenanceService) CleanupPasswordResets(ctx context.Context) (int64, error) {
	n, err := s.repomanager.PasswordResets(s.db).DeleteStale(ctx, s.clock.Now(), ResetRetention)
	if err != nil {
		s.logger.Error(ctx, "[CLEANUP_PASSWORD_RESETS_ERROR]", "error", err.Error())
		return 0, err
	}
	s.logger.Info(ctx, "password resets cleaned up", "deleted", n)
	return n, nil
}

// RunPeriodic runs the cleanup every interval until ctx is done.
func (s *MaintenanceService) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.CleanupPasswordResets(ctx)
		}
	}
}
