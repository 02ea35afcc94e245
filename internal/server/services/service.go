// Package services contains the server-side business logic: the auth core,
// the public user lookup, gift reads and writes, and maintenance jobs.
// Services return *common.AppError for every caller-visible failure.
package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/giftauth/internal/common"
	"github.com/dmitrijs2005/giftauth/internal/logging"
)

// Background runs fire-and-forget work. Failures of that work are logged by
// the implementation and never reach the request.
type Background interface {
	Go(name string, fn func(ctx context.Context) error) bool
}

// internal logs err under tag and returns the generic 500 error.
func internal(ctx context.Context, logger logging.Logger, tag string, err error) error {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	logger.Error(ctx, "["+tag+"]", "error", err.Error())
	return common.NewInternalError(err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
