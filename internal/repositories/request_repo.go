package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"helpkart/internal/common"
	"helpkart/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type RequestRepository interface {
	Create(ctx context.Context, request *models.Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error)
	ListByCenter(ctx context.Context, centerID uuid.UUID) ([]*models.Request, error)
	ListOpenExcluding(ctx context.Context, centerID uuid.UUID, filter *models.RequestFilter) ([]*models.Request, error)
	// MarkFulfilled fails with ErrInvalidState if the request is already
	// fulfilled. Pending offers still open against it are rejected.
	MarkFulfilled(ctx context.Context, id, fulfilledBy uuid.UUID, at time.Time) error
	// Delete removes the request and rejects pending offers against it.
	// Deleting a missing request is not an error.
	Delete(ctx context.Context, centerID, id uuid.UUID) error
	List(ctx context.Context) ([]*models.Request, error)
}

type requestRepo struct {
	db DB
}

func NewRequestRepo(db DB) RequestRepository {
	return &requestRepo{db: db}
}

const requestColumns = `id, center_id, item_name, quantity_needed, quantity_fulfilled, unit, urgency, description, status, fulfilled, fulfilled_by, fulfilled_at, requested_on, updated_at`

func scanRequest(row scanner) (*models.Request, error) {
	request := &models.Request{}
	err := row.Scan(&request.ID, &request.CenterID, &request.ItemName, &request.QuantityNeeded, &request.QuantityFulfilled,
		&request.Unit, &request.Urgency, &request.Description, &request.Status, &request.Fulfilled, &request.FulfilledBy,
		&request.FulfilledAt, &request.RequestedOn, &request.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return request, nil
}

func collectRequests(rows pgx.Rows) ([]*models.Request, error) {
	defer rows.Close()

	var requests []*models.Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, storeError(err, "request")
		}
		requests = append(requests, request)
	}
	return requests, storeError(rows.Err(), "request")
}

func (r *requestRepo) Create(ctx context.Context, request *models.Request) error {
	query := `
		INSERT INTO requests (id, center_id, item_name, quantity_needed, quantity_fulfilled, unit, urgency, description, status, fulfilled, requested_on, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, $6, $7, 'open', FALSE, $8, $9)
	`
	_, err := r.db.Exec(ctx, query, request.ID, request.CenterID, request.ItemName, request.QuantityNeeded, request.Unit,
		request.Urgency, request.Description, request.RequestedOn, request.UpdatedAt)
	return storeError(err, "request")
}

func (r *requestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`
	request, err := scanRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, storeError(err, "request")
	}
	return request, nil
}

func (r *requestRepo) ListByCenter(ctx context.Context, centerID uuid.UUID) ([]*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE center_id = $1 ORDER BY requested_on DESC, id`
	rows, err := r.db.Query(ctx, query, centerID)
	if err != nil {
		return nil, storeError(err, "request")
	}
	return collectRequests(rows)
}

func (r *requestRepo) ListOpenExcluding(ctx context.Context, centerID uuid.UUID, filter *models.RequestFilter) ([]*models.Request, error) {
	if filter == nil {
		filter = &models.RequestFilter{}
	}

	query := `SELECT ` + requestColumns + ` FROM requests WHERE center_id <> $1 AND fulfilled = FALSE`
	args := []any{centerID}
	conditionCount := 1

	if q := common.SanitizeSearchQuery(filter.Query); q != "" {
		conditionCount++
		query += fmt.Sprintf(` AND item_name ILIKE $%d`, conditionCount)
		args = append(args, common.LikePattern(q))
	}
	if filter.Urgency != nil {
		conditionCount++
		query += fmt.Sprintf(` AND urgency = $%d`, conditionCount)
		args = append(args, *filter.Urgency)
	}

	if strings.ToLower(filter.SortBy) == "urgency" {
		query += ` ORDER BY CASE urgency WHEN 'critical' THEN 0 WHEN 'normal' THEN 1 ELSE 2 END, requested_on DESC, id`
	} else {
		query += ` ORDER BY requested_on DESC, id`
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storeError(err, "request")
	}
	return collectRequests(rows)
}

func (r *requestRepo) MarkFulfilled(ctx context.Context, id, fulfilledBy uuid.UUID, at time.Time) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			UPDATE requests
			SET fulfilled = TRUE, status = 'fulfilled', fulfilled_by = $1, fulfilled_at = $2,
				quantity_fulfilled = GREATEST(quantity_fulfilled, quantity_needed), updated_at = $2
			WHERE id = $3 AND fulfilled = FALSE
			RETURNING center_id
		`
		var ownerID uuid.UUID
		if err := tx.QueryRow(ctx, query, fulfilledBy, at, id).Scan(&ownerID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("request %s already fulfilled or removed: %w", id, common.ErrInvalidState)
			}
			return storeError(err, "request")
		}
		return rejectOpenOffers(ctx, tx, ownerID, id)
	})
}

func (r *requestRepo) Delete(ctx context.Context, centerID, id uuid.UUID) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := rejectOpenOffers(ctx, tx, centerID, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM requests WHERE id = $1 AND center_id = $2`, id, centerID); err != nil {
			return storeError(err, "request")
		}
		return nil
	})
}

func (r *requestRepo) List(ctx context.Context) ([]*models.Request, error) {
	rows, err := r.db.Query(ctx, `SELECT `+requestColumns+` FROM requests ORDER BY requested_on DESC`)
	if err != nil {
		return nil, storeError(err, "request")
	}
	return collectRequests(rows)
}
