package database

import (
	"context"

	"github.com/google/uuid"
)

const listTables = `-- name: ListTables :many
SELECT id, number, status, created_at FROM tables
ORDER BY number
`

func (q *Queries) ListTables(ctx context.Context) ([]Table, error) {
	rows, err := q.db.Query(ctx, listTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Table{}
	for rows.Next() {
		var i Table
		if err := rows.Scan(
			&i.ID,
			&i.Number,
			&i.Status,
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

const getTableByNumberForUpdate = `-- name: GetTableByNumberForUpdate :one
SELECT id, number, status, created_at FROM tables
WHERE number = $1
FOR UPDATE
`

func (q *Queries) GetTableByNumberForUpdate(ctx context.Context, number int32) (Table, error) {
	row := q.db.QueryRow(ctx, getTableByNumberForUpdate, number)
	var i Table
	err := row.Scan(
		&i.ID,
		&i.Number,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}

const createTable = `-- name: CreateTable :one
INSERT INTO tables (number) VALUES ($1)
RETURNING id, number, status, created_at
`

func (q *Queries) CreateTable(ctx context.Context, number int32) (Table, error) {
	row := q.db.QueryRow(ctx, createTable, number)
	var i Table
	err := row.Scan(
		&i.ID,
		&i.Number,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}

const setTableStatus = `-- name: SetTableStatus :exec
UPDATE tables SET status = $2 WHERE id = $1
`

type SetTableStatusParams struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

func (q *Queries) SetTableStatus(ctx context.Context, arg SetTableStatusParams) error {
	_, err := q.db.Exec(ctx, setTableStatus, arg.ID, arg.Status)
	return err
}

const getTable = `-- name: GetTable :one
SELECT id, number, status, created_at FROM tables
WHERE id = $1
`

func (q *Queries) GetTable(ctx context.Context, id uuid.UUID) (Table, error) {
	row := q.db.QueryRow(ctx, getTable, id)
	var i Table
	err := row.Scan(
		&i.ID,
		&i.Number,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}
