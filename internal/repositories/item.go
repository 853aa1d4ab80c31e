package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sbilibin2017/gw-home-inventory/internal/logger"
	"github.com/sbilibin2017/gw-home-inventory/internal/models"
)

const itemColumns = `item_id, owner_id, name, category, quantity, unit, unit_price, description, attributes, created_at, updated_at`

// ItemWriteRepository handles item write operations
type ItemWriteRepository struct {
	db       *sqlx.DB
	txGetter func(ctx context.Context) *sqlx.Tx
}

func NewItemWriteRepository(db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) *ItemWriteRepository {
	return &ItemWriteRepository{db: db, txGetter: txGetter}
}

func (r *ItemWriteRepository) executor(ctx context.Context) sqlx.ExtContext {
	if r.txGetter != nil {
		if tx := r.txGetter(ctx); tx != nil {
			return tx
		}
	}
	return r.db
}

// Save inserts a new item and fills in the timestamps assigned by the database.
func (r *ItemWriteRepository) Save(ctx context.Context, item *models.ItemDB) error {
	query := `
		INSERT INTO items (item_id, owner_id, name, category, quantity, unit, unit_price, description, attributes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	args := []any{
		item.ItemID, item.OwnerID, item.Name, item.Category, item.Quantity,
		item.Unit, item.UnitPrice, item.Description, item.Attributes,
	}

	err := r.executor(ctx).QueryRowxContext(ctx, query, args...).Scan(&item.CreatedAt, &item.UpdatedAt)

	logger.Log.Infow(
		"insert item",
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{item.ItemID, item.OwnerID, item.Name, item.Category},
		"error", err,
	)

	return err
}

// Update applies a partial update to an owner's item and returns the new row.
func (r *ItemWriteRepository) Update(ctx context.Context, ownerID, itemID uuid.UUID, upd models.ItemUpdate) (*models.ItemDB, error) {
	query := `
		UPDATE items SET
			name        = COALESCE($3, name),
			category    = COALESCE($4, category),
			quantity    = COALESCE($5, quantity),
			unit        = COALESCE($6, unit),
			unit_price  = COALESCE($7, unit_price),
			description = COALESCE($8, description),
			attributes  = COALESCE($9, attributes),
			updated_at  = NOW()
		WHERE item_id = $1 AND owner_id = $2
		RETURNING ` + itemColumns

	var attrs any
	if upd.Attributes != nil {
		attrs = *upd.Attributes
	}
	args := []any{itemID, ownerID, upd.Name, upd.Category, upd.Quantity, upd.Unit, upd.UnitPrice, upd.Description, attrs}

	var item models.ItemDB
	err := sqlx.GetContext(ctx, r.executor(ctx), &item, query, args...)

	logger.Log.Infow(
		"update item",
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{itemID, ownerID},
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes an owner's item.
func (r *ItemWriteRepository) Delete(ctx context.Context, ownerID, itemID uuid.UUID) error {
	query := `DELETE FROM items WHERE item_id = $1 AND owner_id = $2`

	res, err := r.executor(ctx).ExecContext(ctx, query, itemID, ownerID)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logger.Log.Infow(
		"delete item",
		"query", query,
		"args", []any{itemID, ownerID},
		"result", rowsAffected,
		"error", err,
	)

	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByOwner removes every item of an owner and returns how many were removed.
func (r *ItemWriteRepository) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	query := `DELETE FROM items WHERE owner_id = $1`

	res, err := r.executor(ctx).ExecContext(ctx, query, ownerID)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logger.Log.Infow(
		"delete owner items",
		"query", query,
		"args", []any{ownerID},
		"result", rowsAffected,
		"error", err,
	)

	return rowsAffected, err
}

// ItemReadRepository handles item read operations
type ItemReadRepository struct {
	db *sqlx.DB
}

func NewItemReadRepository(db *sqlx.DB) *ItemReadRepository {
	return &ItemReadRepository{db: db}
}

// GetByID returns an owner's item.
func (r *ItemReadRepository) GetByID(ctx context.Context, ownerID, itemID uuid.UUID) (*models.ItemDB, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE item_id = $1 AND owner_id = $2`

	var item models.ItemDB
	err := r.db.GetContext(ctx, &item, query, itemID, ownerID)

	logger.Log.Infow(
		"get item",
		"query", query,
		"args", []any{itemID, ownerID},
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns an owner's items ordered by name, optionally restricted to one category.
func (r *ItemReadRepository) List(ctx context.Context, ownerID uuid.UUID, category *string) ([]models.ItemDB, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE owner_id = $1
		  AND ($2::VARCHAR IS NULL OR category = $2)
		ORDER BY name, item_id
	`

	items := []models.ItemDB{}
	err := r.db.SelectContext(ctx, &items, query, ownerID, category)

	logger.Log.Infow(
		"list items",
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{ownerID, category},
		"result", len(items),
		"error", err,
	)

	if err != nil {
		return nil, err
	}
	return items, nil
}

// Report aggregates an owner's items by category.
func (r *ItemReadRepository) Report(ctx context.Context, ownerID uuid.UUID) ([]models.CategoryReport, error) {
	const query = `
		SELECT category,
		       COUNT(*) AS items,
		       COALESCE(SUM(quantity), 0) AS quantity,
		       COALESCE(SUM(quantity * unit_price), 0) AS total_value
		FROM items
		WHERE owner_id = $1
		GROUP BY category
		ORDER BY category
	`

	report := []models.CategoryReport{}
	err := r.db.SelectContext(ctx, &report, query, ownerID)

	logger.Log.Infow(
		"item report",
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{ownerID},
		"result", len(report),
		"error", err,
	)

	if err != nil {
		return nil, err
	}
	return report, nil
}
