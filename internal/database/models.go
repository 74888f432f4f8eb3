package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type RestaurantSetting struct {
	ID               int16          `json:"id"`
	Name             string         `json:"name"`
	WhatsappPhone    string         `json:"whatsapp_phone"`
	WhatsappGreeting string         `json:"whatsapp_greeting"`
	DeliveryFee      pgtype.Numeric `json:"delivery_fee"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type StaffUser struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"hashed_password"`
	FullName       string    `json:"full_name"`
	Role           string    `json:"role"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

type Category struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description pgtype.Text `json:"description"`
	IsActive    bool        `json:"is_active"`
	SortOrder   int32       `json:"sort_order"`
	CreatedAt   time.Time   `json:"created_at"`
}

type MenuItem struct {
	ID               uuid.UUID      `json:"id"`
	CategoryID       pgtype.UUID    `json:"category_id"`
	Name             string         `json:"name"`
	Description      pgtype.Text    `json:"description"`
	Price            pgtype.Numeric `json:"price"`
	PromotionalPrice pgtype.Numeric `json:"promotional_price"`
	ImageUrl         pgtype.Text    `json:"image_url"`
	IsAvailable      bool           `json:"is_available"`
	SortOrder        int32          `json:"sort_order"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type Table struct {
	ID        uuid.UUID `json:"id"`
	Number    int32     `json:"number"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type Order struct {
	ID              uuid.UUID          `json:"id"`
	OrderNumber     string             `json:"order_number"`
	Source          string             `json:"source"`
	DeliveryType    string             `json:"delivery_type"`
	Status          string             `json:"status"`
	PaymentMethod   string             `json:"payment_method"`
	Subtotal        pgtype.Numeric     `json:"subtotal"`
	DeliveryFee     pgtype.Numeric     `json:"delivery_fee"`
	ServiceFee      pgtype.Numeric     `json:"service_fee"`
	Discount        pgtype.Numeric     `json:"discount"`
	Total           pgtype.Numeric     `json:"total"`
	CustomerName    pgtype.Text        `json:"customer_name"`
	CustomerPhone   pgtype.Text        `json:"customer_phone"`
	DeliveryAddress []byte             `json:"delivery_address"`
	TableID         pgtype.UUID        `json:"table_id"`
	Notes           pgtype.Text        `json:"notes"`
	CreatedAt       time.Time          `json:"created_at"`
	CompletedAt     pgtype.Timestamptz `json:"completed_at"`
}

type OrderItem struct {
	ID         uuid.UUID      `json:"id"`
	OrderID    uuid.UUID      `json:"order_id"`
	MenuItemID pgtype.UUID    `json:"menu_item_id"`
	Name       string         `json:"name"`
	Quantity   int32          `json:"quantity"`
	UnitPrice  pgtype.Numeric `json:"unit_price"`
	TotalPrice pgtype.Numeric `json:"total_price"`
}

type CashMovement struct {
	ID            uuid.UUID      `json:"id"`
	Type          string         `json:"type"`
	Amount        pgtype.Numeric `json:"amount"`
	Category      string         `json:"category"`
	Description   string         `json:"description"`
	PaymentMethod string         `json:"payment_method"`
	OrderID       pgtype.UUID    `json:"order_id"`
	CreatedAt     time.Time      `json:"created_at"`
}
