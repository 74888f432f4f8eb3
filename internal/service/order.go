package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cardapio-pos/api/internal/cart"
	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const maxOrderNumberRetries = 3

// Errors returned by the order service. All of them are detected before
// anything is written.
var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidSource        = errors.New("invalid source")
	ErrInvalidDeliveryType  = errors.New("invalid delivery_type")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrTableRequired        = errors.New("table_number is required for dine_in orders")
	ErrAddressRequired      = errors.New("street, number and neighborhood are required for delivery orders")
	ErrContactRequired      = errors.New("customer name and phone are required")
	ErrInvalidAmount        = errors.New("fees and discount must be non-negative amounts")
	ErrInvalidQuantity      = fmt.Errorf("quantity must be between 1 and %d", cart.MaxQuantity)
	ErrInvalidMenuItemID    = errors.New("invalid menu_item_id")
	ErrMenuItemUnavailable  = errors.New("menu item not found or unavailable")
	ErrTableNotFound        = errors.New("table not found")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Notifier is told when orders changed so the boards can reload.
type Notifier interface {
	Trigger()
}

// OrderStore defines the DB methods needed to submit orders.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetSettings(ctx context.Context) (database.RestaurantSetting, error)
	GetAvailableMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	GetTableByNumberForUpdate(ctx context.Context, number int32) (database.Table, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	SetTableStatus(ctx context.Context, arg database.SetTableStatusParams) error
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// Address is the structured delivery address stored on the order.
type Address struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	Complement   string `json:"complement,omitempty"`
	Reference    string `json:"reference,omitempty"`
}

func (a *Address) complete() bool {
	return a != nil &&
		strings.TrimSpace(a.Street) != "" &&
		strings.TrimSpace(a.Number) != "" &&
		strings.TrimSpace(a.Neighborhood) != ""
}

// SubmitOrderRequest is the checkout form plus the cart contents. Either Lines
// (a cart snapshot) or Items (resolved against the catalog) must be set.
type SubmitOrderRequest struct {
	Source        string
	DeliveryType  string
	PaymentMethod string
	TableNumber   int32
	CustomerName  string
	CustomerPhone string
	Address       *Address
	Notes         string
	ServiceFee    string
	Discount      string
	Lines         []cart.Line
	Items         []SubmitItemRequest
}

// SubmitItemRequest asks for Quantity units of a catalog item.
type SubmitItemRequest struct {
	MenuItemID string
	Quantity   int32
}

// SubmitOrderResult is the created order with its lines.
type SubmitOrderResult struct {
	Order database.Order
	Items []database.OrderItem
	// TableNumber is set for dine_in orders.
	TableNumber int32
}

// OrderService handles order submission.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
	notifier Notifier
	now      func() time.Time
}

// NewOrderService creates a new OrderService. notifier may be nil.
func NewOrderService(pool TxBeginner, newStore NewOrderStore, notifier Notifier) *OrderService {
	return &OrderService{pool: pool, newStore: newStore, notifier: notifier, now: time.Now}
}

// validatedOrder is a request that passed every check.
type validatedOrder struct {
	req          SubmitOrderRequest
	deliveryType string
	payment      string
	serviceFee   decimal.Decimal
	discount     decimal.Decimal
}

// Submit validates the request and writes the order header, its lines and
// the table occupancy in one transaction. Retries up to
// maxOrderNumberRetries times when the generated order number collides.
func (s *OrderService) Submit(ctx context.Context, req SubmitOrderRequest) (*SubmitOrderResult, error) {
	v, err := validateSubmit(req)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.submitTx(ctx, v, attempt)
		if err == nil {
			if s.notifier != nil {
				s.notifier.Trigger()
			}
			return result, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func validateSubmit(req SubmitOrderRequest) (*validatedOrder, error) {
	// --- Cart non-empty ---
	if len(req.Lines) == 0 && len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}

	if req.Source != enum.OrderSourcePDV && req.Source != enum.OrderSourceMenu {
		return nil, ErrInvalidSource
	}

	// --- Delivery type ---
	deliveryType, err := normalizeDeliveryType(req.DeliveryType, req.Address)
	if err != nil {
		return nil, err
	}

	// --- Payment method ---
	payment := req.PaymentMethod
	if payment == "" {
		payment = enum.PaymentMethodCash
	}
	if !isValidPaymentMethod(payment) {
		return nil, ErrInvalidPaymentMethod
	}

	// --- Per delivery type requirements ---
	switch deliveryType {
	case enum.DeliveryTypeDineIn:
		if req.TableNumber <= 0 {
			return nil, ErrTableRequired
		}
	case enum.DeliveryTypeDelivery:
		if !req.Address.complete() {
			return nil, ErrAddressRequired
		}
	}

	// --- Contact ---
	name := strings.TrimSpace(req.CustomerName)
	phone := strings.TrimSpace(req.CustomerPhone)
	if req.Source == enum.OrderSourceMenu && (name == "" || phone == "") {
		return nil, ErrContactRequired
	}
	if deliveryType == enum.DeliveryTypeDelivery && phone == "" {
		return nil, ErrContactRequired
	}

	// --- Amounts ---
	serviceFee, err := parseAmount(req.ServiceFee)
	if err != nil {
		return nil, err
	}
	discount, err := parseAmount(req.Discount)
	if err != nil {
		return nil, err
	}

	for i, l := range req.Lines {
		if l.Quantity <= 0 || l.Quantity > cart.MaxQuantity {
			return nil, fmt.Errorf("lines[%d]: %w", i, ErrInvalidQuantity)
		}
	}
	for i, it := range req.Items {
		if it.Quantity <= 0 || it.Quantity > cart.MaxQuantity {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		if _, err := uuid.Parse(it.MenuItemID); err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidMenuItemID)
		}
	}

	req.CustomerName = name
	req.CustomerPhone = phone
	return &validatedOrder{
		req:          req,
		deliveryType: deliveryType,
		payment:      payment,
		serviceFee:   serviceFee,
		discount:     discount,
	}, nil
}

// isOrderNumberConflict checks if the error is a unique constraint violation
// on the order number (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_order_number_key"
	}
	return false
}

// submitTx executes the full submission in a single transaction.
func (s *OrderService) submitTx(ctx context.Context, v *validatedOrder, attempt int) (*SubmitOrderResult, error) {
	// --- Begin transaction ---
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Resolve lines ---
	lines := v.req.Lines
	if len(v.req.Items) > 0 {
		lines, err = resolveItems(ctx, store, v.req.Items)
		if err != nil {
			return nil, err
		}
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Total())
	}

	// --- Resolve table ---
	var table database.Table
	tableID := pgtype.UUID{}
	if v.deliveryType == enum.DeliveryTypeDineIn {
		table, err = store.GetTableByNumberForUpdate(ctx, v.req.TableNumber)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrTableNotFound
			}
			return nil, fmt.Errorf("get table: %w", err)
		}
		tableID = pgtype.UUID{Bytes: table.ID, Valid: true}
	}

	// --- Fees and total ---
	deliveryFee := decimal.Zero
	if v.deliveryType == enum.DeliveryTypeDelivery {
		settings, err := store.GetSettings(ctx)
		if err != nil {
			return nil, fmt.Errorf("get settings: %w", err)
		}
		deliveryFee = numericToDecimal(settings.DeliveryFee)
	}
	gross := subtotal.Add(deliveryFee).Add(v.serviceFee)
	if v.discount.GreaterThan(gross) {
		return nil, fmt.Errorf("discount %s exceeds order amount %s: %w", v.discount.StringFixed(2), gross.StringFixed(2), ErrInvalidAmount)
	}
	total := gross.Sub(v.discount)

	var address []byte
	if v.deliveryType == enum.DeliveryTypeDelivery {
		address, err = json.Marshal(v.req.Address)
		if err != nil {
			return nil, fmt.Errorf("encode address: %w", err)
		}
	}

	// --- Insert order ---
	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderNumber:     generateOrderNumber(v.req.Source, s.now(), attempt),
		Source:          v.req.Source,
		DeliveryType:    v.deliveryType,
		PaymentMethod:   v.payment,
		Subtotal:        decimalToNumeric(subtotal),
		DeliveryFee:     decimalToNumeric(deliveryFee),
		ServiceFee:      decimalToNumeric(v.serviceFee),
		Discount:        decimalToNumeric(v.discount),
		Total:           decimalToNumeric(total),
		CustomerName:    optionalText(v.req.CustomerName),
		CustomerPhone:   optionalText(v.req.CustomerPhone),
		DeliveryAddress: address,
		TableID:         tableID,
		Notes:           optionalText(v.req.Notes),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// --- Insert lines, snapshotting name and price ---
	items := make([]database.OrderItem, 0, len(lines))
	for _, l := range lines {
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:    order.ID,
			MenuItemID: pgtype.UUID{Bytes: l.MenuItemID, Valid: true},
			Name:       l.Name,
			Quantity:   l.Quantity,
			UnitPrice:  decimalToNumeric(l.UnitPrice),
			TotalPrice: decimalToNumeric(l.Total()),
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	// --- Occupy table, only once the header exists ---
	if tableID.Valid {
		if err := store.SetTableStatus(ctx, database.SetTableStatusParams{
			ID:     table.ID,
			Status: enum.TableStatusOccupied,
		}); err != nil {
			return nil, fmt.Errorf("occupy table: %w", err)
		}
	}

	// --- Commit ---
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &SubmitOrderResult{
		Order:       order,
		Items:       items,
		TableNumber: table.Number,
	}, nil
}

// resolveItems builds a transient cart from catalog items so direct
// submissions price lines exactly like a cart checkout.
func resolveItems(ctx context.Context, store OrderStore, reqs []SubmitItemRequest) ([]cart.Line, error) {
	c := cart.New()
	merged := make(map[uuid.UUID]int64, len(reqs))
	for i, it := range reqs {
		id, _ := uuid.Parse(it.MenuItemID)
		merged[id] += int64(it.Quantity)
		if merged[id] > cart.MaxQuantity {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		mi, err := store.GetAvailableMenuItem(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrMenuItemUnavailable)
			}
			return nil, fmt.Errorf("items[%d]: get menu item: %w", i, err)
		}
		c.Add(MenuItemToCartItem(mi))
		c.ChangeQuantity(id, it.Quantity-1)
	}
	return c.Lines(), nil
}

// MenuItemToCartItem converts a catalog row into the cart's item shape.
func MenuItemToCartItem(mi database.MenuItem) cart.Item {
	item := cart.Item{
		ID:    mi.ID,
		Name:  mi.Name,
		Price: numericToDecimal(mi.Price),
	}
	if mi.PromotionalPrice.Valid {
		p := numericToDecimal(mi.PromotionalPrice)
		item.PromotionalPrice = &p
	}
	return item
}

// --- Helpers ---

// generateOrderNumber is the source prefix plus the low six digits of the
// Unix millisecond clock. attempt shifts the suffix on retries.
func generateOrderNumber(source string, now time.Time, attempt int) string {
	prefix := "PDV"
	if source == enum.OrderSourceMenu {
		prefix = "PED"
	}
	suffix := (now.UnixMilli() + int64(attempt)) % 1_000_000
	return fmt.Sprintf("%s%06d", prefix, suffix)
}

func normalizeDeliveryType(s string, addr *Address) (string, error) {
	switch s {
	case enum.DeliveryTypeDelivery, enum.DeliveryTypePickup, enum.DeliveryTypeDineIn:
		return s, nil
	case enum.DeliveryTypeOnline:
		if addr != nil && strings.TrimSpace(addr.Street) != "" {
			return enum.DeliveryTypeDelivery, nil
		}
		return enum.DeliveryTypePickup, nil
	}
	return "", ErrInvalidDeliveryType
}

func isValidPaymentMethod(s string) bool {
	for _, m := range enum.PaymentMethods {
		if s == m {
			return true
		}
	}
	return false
}

func parseAmount(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

func optionalText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
