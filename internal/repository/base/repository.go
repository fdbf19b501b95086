// Package base holds shared repository plumbing: the querier seam that lets
// every repository run against either the pool or an open transaction, and
// the SQLSTATE classification used when a transaction resolves.
package base

import (
	"context"
	"errors"

	"github.com/atelierhub/enrollment_service/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// IsNotFound reports whether err is pgx's no-rows result.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// Classify maps store-level failures onto the storage sentinel errors so
// services never inspect SQLSTATEs themselves. Serialization failures (40001)
// and deadlocks (40P01) are retryable; unique violations (23505) mean a
// concurrent writer won the race.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return storage.ErrSerialization
		case "23505":
			return storage.ErrUniqueViolation
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return storage.ErrSerialization
	}

	return err
}
