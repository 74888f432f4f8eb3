package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_number, source, delivery_type, status, payment_method,
       subtotal, delivery_fee, service_fee, discount, total,
       customer_name, customer_phone, delivery_address, table_id, notes,
       created_at, completed_at`

func scanOrder(row rowScanner) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.Source,
		&i.DeliveryType,
		&i.Status,
		&i.PaymentMethod,
		&i.Subtotal,
		&i.DeliveryFee,
		&i.ServiceFee,
		&i.Discount,
		&i.Total,
		&i.CustomerName,
		&i.CustomerPhone,
		&i.DeliveryAddress,
		&i.TableID,
		&i.Notes,
		&i.CreatedAt,
		&i.CompletedAt,
	)
	return i, err
}

func scanOrders(rows interface {
	rowScanner
	Next() bool
	Err() error
}) ([]Order, error) {
	items := []Order{}
	for rows.Next() {
		i, err := scanOrder(rows)
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

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (
    order_number, source, delivery_type, payment_method,
    subtotal, delivery_fee, service_fee, discount, total,
    customer_name, customer_phone, delivery_address, table_id, notes
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	OrderNumber     string         `json:"order_number"`
	Source          string         `json:"source"`
	DeliveryType    string         `json:"delivery_type"`
	PaymentMethod   string         `json:"payment_method"`
	Subtotal        pgtype.Numeric `json:"subtotal"`
	DeliveryFee     pgtype.Numeric `json:"delivery_fee"`
	ServiceFee      pgtype.Numeric `json:"service_fee"`
	Discount        pgtype.Numeric `json:"discount"`
	Total           pgtype.Numeric `json:"total"`
	CustomerName    pgtype.Text    `json:"customer_name"`
	CustomerPhone   pgtype.Text    `json:"customer_phone"`
	DeliveryAddress []byte         `json:"delivery_address"`
	TableID         pgtype.UUID    `json:"table_id"`
	Notes           pgtype.Text    `json:"notes"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.OrderNumber,
		arg.Source,
		arg.DeliveryType,
		arg.PaymentMethod,
		arg.Subtotal,
		arg.DeliveryFee,
		arg.ServiceFee,
		arg.Discount,
		arg.Total,
		arg.CustomerName,
		arg.CustomerPhone,
		arg.DeliveryAddress,
		arg.TableID,
		arg.Notes,
	)
	return scanOrder(row)
}

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO order_items (order_id, menu_item_id, name, quantity, unit_price, total_price)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, order_id, menu_item_id, name, quantity, unit_price, total_price
`

type CreateOrderItemParams struct {
	OrderID    uuid.UUID      `json:"order_id"`
	MenuItemID pgtype.UUID    `json:"menu_item_id"`
	Name       string         `json:"name"`
	Quantity   int32          `json:"quantity"`
	UnitPrice  pgtype.Numeric `json:"unit_price"`
	TotalPrice pgtype.Numeric `json:"total_price"`
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.MenuItemID,
		arg.Name,
		arg.Quantity,
		arg.UnitPrice,
		arg.TotalPrice,
	)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.MenuItemID,
		&i.Name,
		&i.Quantity,
		&i.UnitPrice,
		&i.TotalPrice,
	)
	return i, err
}

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + `
FROM orders WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, id)
	return scanOrder(row)
}

const getOrderForUpdate = `-- name: GetOrderForUpdate :one
SELECT ` + orderColumns + `
FROM orders WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderForUpdate, id)
	return scanOrder(row)
}

const listOrdersByStatus = `-- name: ListOrdersByStatus :many
SELECT ` + orderColumns + `
FROM orders
WHERE status = ANY($1::text[])
  AND ($2::text IS NULL OR delivery_type = $2::text)
ORDER BY created_at DESC
`

type ListOrdersByStatusParams struct {
	Statuses     []string    `json:"statuses"`
	DeliveryType pgtype.Text `json:"delivery_type"`
}

func (q *Queries) ListOrdersByStatus(ctx context.Context, arg ListOrdersByStatusParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByStatus, arg.Statuses, arg.DeliveryType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

const listOrdersCreatedSince = `-- name: ListOrdersCreatedSince :many
SELECT ` + orderColumns + `
FROM orders
WHERE created_at >= $1
ORDER BY created_at
`

func (q *Queries) ListOrdersCreatedSince(ctx context.Context, since pgtype.Timestamptz) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersCreatedSince, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

const listOrderItemsByOrders = `-- name: ListOrderItemsByOrders :many
SELECT id, order_id, menu_item_id, name, quantity, unit_price, total_price
FROM order_items
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, id
`

func (q *Queries) ListOrderItemsByOrders(ctx context.Context, orderIds []uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrders, orderIds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItem{}
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.MenuItemID,
			&i.Name,
			&i.Quantity,
			&i.UnitPrice,
			&i.TotalPrice,
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

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders SET status = $2
WHERE id = $1 AND status = $3
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID         uuid.UUID `json:"id"`
	Status     string    `json:"status"`
	FromStatus string    `json:"from_status"`
}

// UpdateOrderStatus is a compare-and-set: pgx.ErrNoRows means the order moved
// since it was read.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status, arg.FromStatus)
	return scanOrder(row)
}

const completeOrder = `-- name: CompleteOrder :one
UPDATE orders SET status = 'completed', completed_at = now()
WHERE id = $1
RETURNING ` + orderColumns

func (q *Queries) CompleteOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, completeOrder, id)
	return scanOrder(row)
}
