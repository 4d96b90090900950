package repositories

import (
	"context"
	"fmt"
	"strings"

	"helpkart/internal/common"
	"helpkart/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type InventoryItemRepository interface {
	Create(ctx context.Context, item *models.InventoryItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	// Update writes item if its version still equals expectedVersion and the
	// new quantity still covers the reserved amount; otherwise ErrConflict.
	Update(ctx context.Context, item *models.InventoryItem, expectedVersion int) error
	// Delete removes the item and rejects pending transactions drawing from it.
	// Deleting a missing item is not an error.
	Delete(ctx context.Context, centerID, id uuid.UUID) error
	ListByCenter(ctx context.Context, centerID uuid.UUID, filter *models.ItemSearchFilter) ([]*models.InventoryItem, error)
	ListSurplusExcluding(ctx context.Context, centerID uuid.UUID, filter *models.SurplusFilter) ([]*models.InventoryItem, error)
	List(ctx context.Context) ([]*models.InventoryItem, error)
}

type inventoryItemRepo struct {
	db DB
}

func NewInventoryItemRepo(db DB) InventoryItemRepository {
	return &inventoryItemRepo{db: db}
}

const itemColumns = `id, center_id, name, category, quantity, reserved_quantity, unit, classification, notes, expiry_date, version, created_at, updated_at`

func scanItem(row scanner) (*models.InventoryItem, error) {
	item := &models.InventoryItem{}
	err := row.Scan(&item.ID, &item.CenterID, &item.Name, &item.Category, &item.Quantity, &item.ReservedQuantity,
		&item.Unit, &item.Classification, &item.Notes, &item.ExpiryDate, &item.Version, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func collectItems(rows pgx.Rows) ([]*models.InventoryItem, error) {
	defer rows.Close()

	var items []*models.InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, storeError(err, "inventory item")
		}
		items = append(items, item)
	}
	return items, storeError(rows.Err(), "inventory item")
}

func (r *inventoryItemRepo) Create(ctx context.Context, item *models.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (id, center_id, name, category, quantity, reserved_quantity, unit, classification, notes, expiry_date, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7, $8, $9, 1, $10, $11)
	`
	_, err := r.db.Exec(ctx, query, item.ID, item.CenterID, item.Name, item.Category, item.Quantity, item.Unit,
		item.Classification, item.Notes, item.ExpiryDate, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return storeError(err, "inventory item")
	}
	item.ReservedQuantity = 0
	item.Version = 1
	return nil
}

func (r *inventoryItemRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1`
	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, storeError(err, "inventory item")
	}
	return item, nil
}

func (r *inventoryItemRepo) Update(ctx context.Context, item *models.InventoryItem, expectedVersion int) error {
	query := `
		UPDATE inventory_items
		SET name = $1, category = $2, quantity = $3, unit = $4, classification = $5, notes = $6, expiry_date = $7,
			version = version + 1, updated_at = $8
		WHERE id = $9 AND center_id = $10 AND version = $11 AND reserved_quantity <= $3
	`
	tag, err := r.db.Exec(ctx, query, item.Name, item.Category, item.Quantity, item.Unit, item.Classification,
		item.Notes, item.ExpiryDate, item.UpdatedAt, item.ID, item.CenterID, expectedVersion)
	if err != nil {
		return storeError(err, "inventory item")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("inventory item %s: %w", item.ID, common.ErrConflict)
	}
	item.Version = expectedVersion + 1
	return nil
}

func (r *inventoryItemRepo) Delete(ctx context.Context, centerID, id uuid.UUID) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := rejectPending(ctx, tx, `inventory_item_id = $2`, centerID, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1 AND center_id = $2`, id, centerID); err != nil {
			return storeError(err, "inventory item")
		}
		return nil
	})
}

func (r *inventoryItemRepo) ListByCenter(ctx context.Context, centerID uuid.UUID, filter *models.ItemSearchFilter) ([]*models.InventoryItem, error) {
	if filter == nil {
		filter = &models.ItemSearchFilter{}
	}

	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE center_id = $1`
	args := []any{centerID}
	conditionCount := 1

	if q := common.SanitizeSearchQuery(filter.Query); q != "" {
		conditionCount++
		query += fmt.Sprintf(` AND name ILIKE $%d`, conditionCount)
		args = append(args, common.LikePattern(q))
	}
	if filter.Category != nil {
		conditionCount++
		query += fmt.Sprintf(` AND category = $%d`, conditionCount)
		args = append(args, *filter.Category)
	}
	if filter.Classification != nil {
		conditionCount++
		query += fmt.Sprintf(` AND classification = $%d`, conditionCount)
		args = append(args, *filter.Classification)
	}
	if filter.MinQuantity != nil {
		conditionCount++
		query += fmt.Sprintf(` AND quantity >= $%d`, conditionCount)
		args = append(args, *filter.MinQuantity)
	}

	query += ` ORDER BY ` + itemOrderBy(filter.SortBy, filter.SortOrder)

	if filter.Limit > 0 {
		conditionCount++
		query += fmt.Sprintf(` LIMIT $%d`, conditionCount)
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		conditionCount++
		query += fmt.Sprintf(` OFFSET $%d`, conditionCount)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storeError(err, "inventory item")
	}
	return collectItems(rows)
}

func (r *inventoryItemRepo) ListSurplusExcluding(ctx context.Context, centerID uuid.UUID, filter *models.SurplusFilter) ([]*models.InventoryItem, error) {
	if filter == nil {
		filter = &models.SurplusFilter{}
	}

	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE center_id <> $1 AND classification = 'surplus'`
	args := []any{centerID}
	conditionCount := 1

	if q := common.SanitizeSearchQuery(filter.Query); q != "" {
		conditionCount++
		query += fmt.Sprintf(` AND name ILIKE $%d`, conditionCount)
		args = append(args, common.LikePattern(q))
	}
	if filter.Category != nil {
		conditionCount++
		query += fmt.Sprintf(` AND category = $%d`, conditionCount)
		args = append(args, *filter.Category)
	}

	query += ` ORDER BY ` + itemOrderBy(filter.SortBy, "")

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storeError(err, "inventory item")
	}
	return collectItems(rows)
}

func (r *inventoryItemRepo) List(ctx context.Context) ([]*models.InventoryItem, error) {
	rows, err := r.db.Query(ctx, `SELECT `+itemColumns+` FROM inventory_items ORDER BY created_at DESC`)
	if err != nil {
		return nil, storeError(err, "inventory item")
	}
	return collectItems(rows)
}

// itemOrderBy maps a sort key to an ORDER BY clause. Each key has a natural
// direction which sortOrder may override.
func itemOrderBy(sortBy, sortOrder string) string {
	field, order := "created_at", "DESC"
	switch strings.ToLower(sortBy) {
	case "name":
		field, order = "LOWER(name)", "ASC"
	case "quantity":
		field = "quantity"
	}
	if sortOrder != "" {
		order = common.ValidateSortOrder(sortOrder)
	}
	return field + " " + order + ", id"
}
