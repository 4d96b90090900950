package repositories

import (
	"context"

	"helpkart/internal/common"
	"helpkart/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CenterRepository interface {
	Create(ctx context.Context, center *models.Center) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Center, error)
	GetByEmail(ctx context.Context, email string) (*models.Center, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Center, error)
	Update(ctx context.Context, center *models.Center) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	// Delete removes the center, its inventory and its requests, and rejects
	// its pending transactions. Transaction history is kept.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*models.Center, error)
}

type centerRepo struct {
	db DB
}

func NewCenterRepo(db DB) CenterRepository {
	return &centerRepo{db: db}
}

const centerColumns = `id, name, email, password_hash, phone, address, latitude, longitude, status, created_at, updated_at`

func scanCenter(row scanner) (*models.Center, error) {
	center := &models.Center{}
	err := row.Scan(&center.ID, &center.Name, &center.Email, &center.PasswordHash, &center.Phone, &center.Address,
		&center.Latitude, &center.Longitude, &center.Status, &center.CreatedAt, &center.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return center, nil
}

func (r *centerRepo) Create(ctx context.Context, center *models.Center) error {
	query := `
		INSERT INTO centers (id, name, email, password_hash, phone, address, latitude, longitude, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query, center.ID, center.Name, center.Email, center.PasswordHash, center.Phone, center.Address,
		center.Latitude, center.Longitude, center.Status, center.CreatedAt, center.UpdatedAt)
	if isUniqueViolation(err) {
		return common.ErrDuplicateEmail
	}
	return storeError(err, "center")
}

func (r *centerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Center, error) {
	query := `SELECT ` + centerColumns + ` FROM centers WHERE id = $1`
	center, err := scanCenter(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, storeError(err, "center")
	}
	return center, nil
}

func (r *centerRepo) GetByEmail(ctx context.Context, email string) (*models.Center, error) {
	query := `SELECT ` + centerColumns + ` FROM centers WHERE lower(email) = lower($1)`
	center, err := scanCenter(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, storeError(err, "center")
	}
	return center, nil
}

func (r *centerRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Center, error) {
	centers := make(map[uuid.UUID]*models.Center, len(ids))
	if len(ids) == 0 {
		return centers, nil
	}
	query := `SELECT ` + centerColumns + ` FROM centers WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, storeError(err, "center")
	}
	defer rows.Close()

	for rows.Next() {
		center, err := scanCenter(rows)
		if err != nil {
			return nil, storeError(err, "center")
		}
		centers[center.ID] = center
	}
	return centers, storeError(rows.Err(), "center")
}

func (r *centerRepo) Update(ctx context.Context, center *models.Center) error {
	query := `
		UPDATE centers
		SET name = $1, phone = $2, address = $3, latitude = $4, longitude = $5, status = $6, updated_at = $7
		WHERE id = $8
	`
	tag, err := r.db.Exec(ctx, query, center.Name, center.Phone, center.Address, center.Latitude, center.Longitude,
		center.Status, center.UpdatedAt, center.ID)
	if err != nil {
		return storeError(err, "center")
	}
	if tag.RowsAffected() == 0 {
		return common.NotFoundError("center")
	}
	return nil
}

func (r *centerRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE centers SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	tag, err := r.db.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return storeError(err, "center")
	}
	if tag.RowsAffected() == 0 {
		return common.NotFoundError("center")
	}
	return nil
}

func (r *centerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		involving := `(from_center_id = $1 OR to_center_id = $1)`
		if err := releaseReservations(ctx, tx, involving, id); err != nil {
			return err
		}
		if err := rejectPending(ctx, tx, involving, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM inventory_items WHERE center_id = $1`, id); err != nil {
			return storeError(err, "inventory item")
		}
		if _, err := tx.Exec(ctx, `DELETE FROM requests WHERE center_id = $1`, id); err != nil {
			return storeError(err, "request")
		}
		if _, err := tx.Exec(ctx, `DELETE FROM centers WHERE id = $1`, id); err != nil {
			return storeError(err, "center")
		}
		return nil
	})
}

func (r *centerRepo) List(ctx context.Context) ([]*models.Center, error) {
	query := `SELECT ` + centerColumns + ` FROM centers ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, storeError(err, "center")
	}
	defer rows.Close()

	var centers []*models.Center
	for rows.Next() {
		center, err := scanCenter(rows)
		if err != nil {
			return nil, storeError(err, "center")
		}
		centers = append(centers, center)
	}
	return centers, storeError(rows.Err(), "center")
}
