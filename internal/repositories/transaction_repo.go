package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"helpkart/internal/common"
	"helpkart/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TransactionRepository interface {
	// Create inserts a pending transaction. When it draws from an inventory
	// item the quantity is reserved in the same database transaction; if the
	// item no longer has enough available the result is ErrConflict.
	Create(ctx context.Context, txn *models.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	// Complete moves a pending transaction to completed and applies its side
	// effects on the linked item and request atomically. Once the request is
	// fulfilled its other pending offers are rejected.
	Complete(ctx context.Context, txn *models.Transaction, at time.Time) error
	// Reject tombstones a pending transaction and releases its reservation.
	Reject(ctx context.Context, id, rejectedBy uuid.UUID, at time.Time) error
	ListForCenter(ctx context.Context, centerID uuid.UUID) ([]*models.Transaction, error)
	List(ctx context.Context) ([]*models.Transaction, error)
}

type transactionRepo struct {
	db DB
}

func NewTransactionRepo(db DB) TransactionRepository {
	return &transactionRepo{db: db}
}

const transactionColumns = `id, from_center_id, to_center_id, initiated_by, kind, inventory_item_id, request_id, item_name, quantity, unit, message, status, rejected_by, created_at, transaction_date, completed_at`

func scanTransaction(row scanner) (*models.Transaction, error) {
	txn := &models.Transaction{}
	err := row.Scan(&txn.ID, &txn.FromCenterID, &txn.ToCenterID, &txn.InitiatedBy, &txn.Kind, &txn.InventoryItemID,
		&txn.RequestID, &txn.ItemName, &txn.Quantity, &txn.Unit, &txn.Message, &txn.Status, &txn.RejectedBy,
		&txn.CreatedAt, &txn.TransactionDate, &txn.CompletedAt)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func collectTransactions(rows pgx.Rows) ([]*models.Transaction, error) {
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, storeError(err, "transaction")
		}
		txns = append(txns, txn)
	}
	return txns, storeError(rows.Err(), "transaction")
}

func (r *transactionRepo) Create(ctx context.Context, txn *models.Transaction) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		if txn.InventoryItemID != nil {
			reserve := `
				UPDATE inventory_items
				SET reserved_quantity = reserved_quantity + $1, version = version + 1, updated_at = $2
				WHERE id = $3 AND center_id = $4 AND quantity - reserved_quantity >= $1
			`
			tag, err := tx.Exec(ctx, reserve, txn.Quantity, txn.CreatedAt, *txn.InventoryItemID, txn.FromCenterID)
			if err != nil {
				return storeError(err, "inventory item")
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("inventory item %s no longer has %d available: %w", *txn.InventoryItemID, txn.Quantity, common.ErrConflict)
			}
		}

		insert := `
			INSERT INTO transactions (id, from_center_id, to_center_id, initiated_by, kind, inventory_item_id, request_id,
				item_name, quantity, unit, message, status, created_at, transaction_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 'pending', $12, $12)
		`
		_, err := tx.Exec(ctx, insert, txn.ID, txn.FromCenterID, txn.ToCenterID, txn.InitiatedBy, txn.Kind,
			txn.InventoryItemID, txn.RequestID, txn.ItemName, txn.Quantity, txn.Unit, txn.Message, txn.CreatedAt)
		if err != nil {
			return storeError(err, "transaction")
		}
		txn.Status = models.TransactionStatusPending
		txn.TransactionDate = txn.CreatedAt
		return nil
	})
}

func (r *transactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	txn, err := scanTransaction(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, storeError(err, "transaction")
	}
	return txn, nil
}

func (r *transactionRepo) Complete(ctx context.Context, txn *models.Transaction, at time.Time) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE transactions
			SET status = 'completed', completed_at = $1, transaction_date = $1
			WHERE id = $2 AND status = 'pending'
		`, at, txn.ID)
		if err != nil {
			return storeError(err, "transaction")
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("transaction %s is no longer pending: %w", txn.ID, common.ErrInvalidState)
		}

		if txn.InventoryItemID != nil {
			tag, err = tx.Exec(ctx, `
				UPDATE inventory_items
				SET quantity = quantity - $1, reserved_quantity = reserved_quantity - $1, version = version + 1, updated_at = $2
				WHERE id = $3 AND reserved_quantity >= $1
			`, txn.Quantity, at, *txn.InventoryItemID)
			if err != nil {
				return storeError(err, "inventory item")
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("inventory item %s reservation missing: %w", *txn.InventoryItemID, common.ErrConflict)
			}
		}

		if txn.RequestID != nil {
			var ownerID uuid.UUID
			var fulfilled bool
			err = tx.QueryRow(ctx, `
				UPDATE requests
				SET quantity_fulfilled = quantity_fulfilled + $1,
					fulfilled = (quantity_fulfilled + $1 >= quantity_needed),
					status = CASE WHEN quantity_fulfilled + $1 >= quantity_needed THEN 'fulfilled' ELSE 'open' END,
					fulfilled_by = CASE WHEN quantity_fulfilled + $1 >= quantity_needed THEN $2::uuid END,
					fulfilled_at = CASE WHEN quantity_fulfilled + $1 >= quantity_needed THEN $3::timestamptz END,
					updated_at = $3
				WHERE id = $4 AND fulfilled = FALSE
				RETURNING center_id, fulfilled
			`, txn.Quantity, txn.FromCenterID, at, *txn.RequestID).Scan(&ownerID, &fulfilled)
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("request %s already fulfilled or removed: %w", *txn.RequestID, common.ErrInvalidState)
			}
			if err != nil {
				return storeError(err, "request")
			}
			// txn is no longer pending, so only the other offers are affected
			if fulfilled {
				if err := rejectOpenOffers(ctx, tx, ownerID, *txn.RequestID); err != nil {
					return err
				}
			}
		}

		txn.Status = models.TransactionStatusCompleted
		txn.CompletedAt = &at
		txn.TransactionDate = at
		return nil
	})
}

func (r *transactionRepo) Reject(ctx context.Context, id, rejectedBy uuid.UUID, at time.Time) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := releaseReservations(ctx, tx, `id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			UPDATE transactions
			SET status = 'rejected', rejected_by = $1, transaction_date = $2
			WHERE id = $3 AND status = 'pending'
		`, rejectedBy, at, id)
		if err != nil {
			return storeError(err, "transaction")
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("transaction %s is no longer pending: %w", id, common.ErrInvalidState)
		}
		return nil
	})
}

func (r *transactionRepo) ListForCenter(ctx context.Context, centerID uuid.UUID) ([]*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE from_center_id = $1 OR to_center_id = $1
		ORDER BY transaction_date DESC, id`
	rows, err := r.db.Query(ctx, query, centerID)
	if err != nil {
		return nil, storeError(err, "transaction")
	}
	return collectTransactions(rows)
}

func (r *transactionRepo) List(ctx context.Context) ([]*models.Transaction, error) {
	rows, err := r.db.Query(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY transaction_date DESC`)
	if err != nil {
		return nil, storeError(err, "transaction")
	}
	return collectTransactions(rows)
}
