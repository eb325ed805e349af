package database

import (
	"context"

	"bookstore-fulfillment/pkg/apperror"
	"bookstore-fulfillment/pkg/logger"
)

// RetryOnConflict runs fn and, if it fails with a conflict, runs it exactly
// once more. The second error (if any) is returned as-is.
func RetryOnConflict(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if !apperror.IsKind(err, apperror.KindConflict) {
		return err
	}
	if ctx.Err() != nil {
		return err
	}

	logger.Warn("conflict detected, retrying once", map[string]interface{}{
		"op":    op,
		"error": err.Error(),
	})
	return fn(ctx)
}
