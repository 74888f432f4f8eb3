package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getSettings = `-- name: GetSettings :one
SELECT id, name, whatsapp_phone, whatsapp_greeting, delivery_fee, updated_at
FROM restaurant_settings WHERE id = 1
`

func (q *Queries) GetSettings(ctx context.Context) (RestaurantSetting, error) {
	row := q.db.QueryRow(ctx, getSettings)
	var i RestaurantSetting
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.WhatsappPhone,
		&i.WhatsappGreeting,
		&i.DeliveryFee,
		&i.UpdatedAt,
	)
	return i, err
}

const updateSettings = `-- name: UpdateSettings :one
UPDATE restaurant_settings
SET name = $1, whatsapp_phone = $2, whatsapp_greeting = $3, delivery_fee = $4, updated_at = now()
WHERE id = 1
RETURNING id, name, whatsapp_phone, whatsapp_greeting, delivery_fee, updated_at
`

type UpdateSettingsParams struct {
	Name             string         `json:"name"`
	WhatsappPhone    string         `json:"whatsapp_phone"`
	WhatsappGreeting string         `json:"whatsapp_greeting"`
	DeliveryFee      pgtype.Numeric `json:"delivery_fee"`
}

func (q *Queries) UpdateSettings(ctx context.Context, arg UpdateSettingsParams) (RestaurantSetting, error) {
	row := q.db.QueryRow(ctx, updateSettings,
		arg.Name,
		arg.WhatsappPhone,
		arg.WhatsappGreeting,
		arg.DeliveryFee,
	)
	var i RestaurantSetting
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.WhatsappPhone,
		&i.WhatsappGreeting,
		&i.DeliveryFee,
		&i.UpdatedAt,
	)
	return i, err
}
