package repositories

import (
	"context"
	"errors"
	"fmt"

	"helpkart/internal/common"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is a Querier that can open transactions.
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

type scanner interface {
	Scan(dest ...any) error
}

const uniqueViolation = "23505"

// storeError translates driver errors into the service error kinds. Server-side
// errors pass through unchanged; anything else is a connectivity failure.
func storeError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return common.NotFoundError(resource)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", resource, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrUnavailable, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// withTx runs fn inside a database transaction. fn's error is returned as is
// after rolling back.
func withTx(ctx context.Context, db DB, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return storeError(err, "transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return storeError(err, "transaction")
	}
	return nil
}

// releaseReservations gives back the quantity held by the pending
// transactions selected by where. Must run before those transactions are rejected.
func releaseReservations(ctx context.Context, q Querier, where string, args ...any) error {
	query := `
		UPDATE inventory_items i
		SET reserved_quantity = GREATEST(i.reserved_quantity - t.qty, 0), version = i.version + 1, updated_at = NOW()
		FROM (
			SELECT inventory_item_id, SUM(quantity) AS qty
			FROM transactions
			WHERE status = 'pending' AND inventory_item_id IS NOT NULL AND ` + where + `
			GROUP BY inventory_item_id
		) t
		WHERE i.id = t.inventory_item_id
	`
	_, err := q.Exec(ctx, query, args...)
	return storeError(err, "inventory item")
}

// rejectPending tombstones the pending transactions selected by where.
// The first argument must be the rejecting center.
func rejectPending(ctx context.Context, q Querier, where string, args ...any) error {
	query := `
		UPDATE transactions
		SET status = 'rejected', rejected_by = $1, transaction_date = NOW()
		WHERE status = 'pending' AND ` + where
	_, err := q.Exec(ctx, query, args...)
	return storeError(err, "transaction")
}

// rejectOpenOffers releases and rejects, on behalf of the owner, the pending
// transactions still drawn against a request.
func rejectOpenOffers(ctx context.Context, q Querier, ownerID, requestID uuid.UUID) error {
	if err := releaseReservations(ctx, q, `request_id = $1`, requestID); err != nil {
		return err
	}
	return rejectPending(ctx, q, `request_id = $2`, ownerID, requestID)
}
