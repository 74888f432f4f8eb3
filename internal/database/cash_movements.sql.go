package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createCashMovement = `-- name: CreateCashMovement :one
INSERT INTO cash_movements (type, amount, category, description, payment_method, order_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, type, amount, category, description, payment_method, order_id, created_at
`

type CreateCashMovementParams struct {
	Type          string         `json:"type"`
	Amount        pgtype.Numeric `json:"amount"`
	Category      string         `json:"category"`
	Description   string         `json:"description"`
	PaymentMethod string         `json:"payment_method"`
	OrderID       pgtype.UUID    `json:"order_id"`
}

func (q *Queries) CreateCashMovement(ctx context.Context, arg CreateCashMovementParams) (CashMovement, error) {
	row := q.db.QueryRow(ctx, createCashMovement,
		arg.Type,
		arg.Amount,
		arg.Category,
		arg.Description,
		arg.PaymentMethod,
		arg.OrderID,
	)
	var i CashMovement
	err := row.Scan(
		&i.ID,
		&i.Type,
		&i.Amount,
		&i.Category,
		&i.Description,
		&i.PaymentMethod,
		&i.OrderID,
		&i.CreatedAt,
	)
	return i, err
}

const listCashMovements = `-- name: ListCashMovements :many
SELECT id, type, amount, category, description, payment_method, order_id, created_at
FROM cash_movements
WHERE ($1::timestamptz IS NULL OR created_at >= $1::timestamptz)
  AND ($2::timestamptz IS NULL OR created_at < $2::timestamptz)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4
`

type ListCashMovementsParams struct {
	StartDate pgtype.Timestamptz `json:"start_date"`
	EndDate   pgtype.Timestamptz `json:"end_date"`
	Limit     int32              `json:"limit"`
	Offset    int32              `json:"offset"`
}

func (q *Queries) ListCashMovements(ctx context.Context, arg ListCashMovementsParams) ([]CashMovement, error) {
	rows, err := q.db.Query(ctx, listCashMovements,
		arg.StartDate,
		arg.EndDate,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []CashMovement{}
	for rows.Next() {
		var i CashMovement
		if err := rows.Scan(
			&i.ID,
			&i.Type,
			&i.Amount,
			&i.Category,
			&i.Description,
			&i.PaymentMethod,
			&i.OrderID,
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

const getCashBalance = `-- name: GetCashBalance :many
SELECT payment_method,
       COALESCE(SUM(amount) FILTER (WHERE type = 'entry'), 0)::numeric(12,2) AS entries,
       COALESCE(SUM(amount) FILTER (WHERE type = 'exit'), 0)::numeric(12,2) AS exits
FROM cash_movements
GROUP BY payment_method
ORDER BY payment_method
`

type GetCashBalanceRow struct {
	PaymentMethod string         `json:"payment_method"`
	Entries       pgtype.Numeric `json:"entries"`
	Exits         pgtype.Numeric `json:"exits"`
}

func (q *Queries) GetCashBalance(ctx context.Context) ([]GetCashBalanceRow, error) {
	rows, err := q.db.Query(ctx, getCashBalance)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []GetCashBalanceRow{}
	for rows.Next() {
		var i GetCashBalanceRow
		if err := rows.Scan(&i.PaymentMethod, &i.Entries, &i.Exits); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
