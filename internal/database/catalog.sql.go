package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listActiveCategories = `-- name: ListActiveCategories :many
SELECT id, name, description, is_active, sort_order, created_at FROM categories
WHERE is_active = true
ORDER BY sort_order, name
`

func (q *Queries) ListActiveCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listActiveCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Category{}
	for rows.Next() {
		var i Category
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Description,
			&i.IsActive,
			&i.SortOrder,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listCategories = `-- name: ListCategories :many
SELECT id, name, description, is_active, sort_order, created_at FROM categories
ORDER BY sort_order, name
`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Category{}
	for rows.Next() {
		var i Category
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Description,
			&i.IsActive,
			&i.SortOrder,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createCategory = `-- name: CreateCategory :one
INSERT INTO categories (name, description, sort_order)
VALUES ($1, $2, $3)
RETURNING id, name, description, is_active, sort_order, created_at
`

type CreateCategoryParams struct {
	Name        string      `json:"name"`
	Description pgtype.Text `json:"description"`
	SortOrder   int32       `json:"sort_order"`
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	row := q.db.QueryRow(ctx, createCategory, arg.Name, arg.Description, arg.SortOrder)
	var i Category
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.IsActive,
		&i.SortOrder,
		&i.CreatedAt,
	)
	return i, err
}

const updateCategory = `-- name: UpdateCategory :one
UPDATE categories
SET name = $2, description = $3, sort_order = $4
WHERE id = $1 AND is_active = true
RETURNING id, name, description, is_active, sort_order, created_at
`

type UpdateCategoryParams struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description pgtype.Text `json:"description"`
	SortOrder   int32       `json:"sort_order"`
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	row := q.db.QueryRow(ctx, updateCategory,
		arg.ID,
		arg.Name,
		arg.Description,
		arg.SortOrder,
	)
	var i Category
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.IsActive,
		&i.SortOrder,
		&i.CreatedAt,
	)
	return i, err
}

const softDeleteCategory = `-- name: SoftDeleteCategory :one
UPDATE categories SET is_active = false
WHERE id = $1 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteCategory(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeleteCategory, id)
	err := row.Scan(&id)
	return id, err
}

const restoreCategory = `-- name: RestoreCategory :one
UPDATE categories SET is_active = true
WHERE id = $1
RETURNING id, name, description, is_active, sort_order, created_at
`

func (q *Queries) RestoreCategory(ctx context.Context, id uuid.UUID) (Category, error) {
	row := q.db.QueryRow(ctx, restoreCategory, id)
	var i Category
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.IsActive,
		&i.SortOrder,
		&i.CreatedAt,
	)
	return i, err
}

const listAvailableMenuItems = `-- name: ListAvailableMenuItems :many
SELECT mi.id, mi.category_id, mi.name, mi.description, mi.price, mi.promotional_price,
       mi.image_url, mi.is_available, mi.sort_order, mi.created_at, mi.updated_at
FROM menu_items mi
LEFT JOIN categories c ON c.id = mi.category_id
WHERE mi.is_available = true
  AND (c.id IS NULL OR c.is_active = true)
  AND ($1::uuid IS NULL OR mi.category_id = $1::uuid)
  AND ($2::text IS NULL OR mi.name ILIKE '%' || $2::text || '%')
ORDER BY mi.sort_order, mi.name
`

type ListAvailableMenuItemsParams struct {
	CategoryID pgtype.UUID `json:"category_id"`
	Search     pgtype.Text `json:"search"`
}

func (q *Queries) ListAvailableMenuItems(ctx context.Context, arg ListAvailableMenuItemsParams) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listAvailableMenuItems, arg.CategoryID, arg.Search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMenuItems(rows)
}

const listMenuItems = `-- name: ListMenuItems :many
SELECT id, category_id, name, description, price, promotional_price,
       image_url, is_available, sort_order, created_at, updated_at
FROM menu_items
WHERE ($1::uuid IS NULL OR category_id = $1::uuid)
ORDER BY sort_order, name
`

func (q *Queries) ListMenuItems(ctx context.Context, categoryID pgtype.UUID) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMenuItems(rows)
}

const getMenuItem = `-- name: GetMenuItem :one
SELECT id, category_id, name, description, price, promotional_price,
       image_url, is_available, sort_order, created_at, updated_at
FROM menu_items
WHERE id = $1
`

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row := q.db.QueryRow(ctx, getMenuItem, id)
	return scanMenuItem(row)
}

const getAvailableMenuItem = `-- name: GetAvailableMenuItem :one
SELECT id, category_id, name, description, price, promotional_price,
       image_url, is_available, sort_order, created_at, updated_at
FROM menu_items
WHERE id = $1 AND is_available = true
`

func (q *Queries) GetAvailableMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row := q.db.QueryRow(ctx, getAvailableMenuItem, id)
	return scanMenuItem(row)
}

const createMenuItem = `-- name: CreateMenuItem :one
INSERT INTO menu_items (category_id, name, description, price, promotional_price, image_url, sort_order)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, category_id, name, description, price, promotional_price,
          image_url, is_available, sort_order, created_at, updated_at
`

type CreateMenuItemParams struct {
	CategoryID       pgtype.UUID    `json:"category_id"`
	Name             string         `json:"name"`
	Description      pgtype.Text    `json:"description"`
	Price            pgtype.Numeric `json:"price"`
	PromotionalPrice pgtype.Numeric `json:"promotional_price"`
	ImageUrl         pgtype.Text    `json:"image_url"`
	SortOrder        int32          `json:"sort_order"`
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, createMenuItem,
		arg.CategoryID,
		arg.Name,
		arg.Description,
		arg.Price,
		arg.PromotionalPrice,
		arg.ImageUrl,
		arg.SortOrder,
	)
	return scanMenuItem(row)
}

const updateMenuItem = `-- name: UpdateMenuItem :one
UPDATE menu_items
SET category_id = $2, name = $3, description = $4, price = $5,
    promotional_price = $6, image_url = $7, sort_order = $8, updated_at = now()
WHERE id = $1
RETURNING id, category_id, name, description, price, promotional_price,
          image_url, is_available, sort_order, created_at, updated_at
`

type UpdateMenuItemParams struct {
	ID               uuid.UUID      `json:"id"`
	CategoryID       pgtype.UUID    `json:"category_id"`
	Name             string         `json:"name"`
	Description      pgtype.Text    `json:"description"`
	Price            pgtype.Numeric `json:"price"`
	PromotionalPrice pgtype.Numeric `json:"promotional_price"`
	ImageUrl         pgtype.Text    `json:"image_url"`
	SortOrder        int32          `json:"sort_order"`
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, updateMenuItem,
		arg.ID,
		arg.CategoryID,
		arg.Name,
		arg.Description,
		arg.Price,
		arg.PromotionalPrice,
		arg.ImageUrl,
		arg.SortOrder,
	)
	return scanMenuItem(row)
}

const setMenuItemAvailability = `-- name: SetMenuItemAvailability :one
UPDATE menu_items SET is_available = $2, updated_at = now()
WHERE id = $1
RETURNING id, category_id, name, description, price, promotional_price,
          image_url, is_available, sort_order, created_at, updated_at
`

type SetMenuItemAvailabilityParams struct {
	ID          uuid.UUID `json:"id"`
	IsAvailable bool      `json:"is_available"`
}

func (q *Queries) SetMenuItemAvailability(ctx context.Context, arg SetMenuItemAvailabilityParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, setMenuItemAvailability, arg.ID, arg.IsAvailable)
	return scanMenuItem(row)
}

const deleteMenuItem = `-- name: DeleteMenuItem :one
DELETE FROM menu_items WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteMenuItem, id)
	err := row.Scan(&id)
	return id, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMenuItem(row rowScanner) (MenuItem, error) {
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.CategoryID,
		&i.Name,
		&i.Description,
		&i.Price,
		&i.PromotionalPrice,
		&i.ImageUrl,
		&i.IsAvailable,
		&i.SortOrder,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanMenuItems(rows interface {
	rowScanner
	Next() bool
	Err() error
}) ([]MenuItem, error) {
	items := []MenuItem{}
	for rows.Next() {
		i, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
