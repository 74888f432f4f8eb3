package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/enum"
	"github.com/cardapio-pos/api/internal/receipt"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Errors returned by the board service.
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderAlreadyClosed   = errors.New("order is already completed")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrIllegalTransition    = errors.New("illegal status transition")
	ErrStatusChanged        = errors.New("order status changed, please retry")
	ErrInvalidDeliveryQuery = errors.New("invalid delivery_type filter")
)

// BoardStore defines the DB methods needed to read and advance the board.
// Satisfied by *database.Queries; narrow interface for testability.
type BoardStore interface {
	ListOrdersByStatus(ctx context.Context, arg database.ListOrdersByStatusParams) ([]database.Order, error)
	ListOrderItemsByOrders(ctx context.Context, orderIds []uuid.UUID) ([]database.OrderItem, error)
	ListTables(ctx context.Context) ([]database.Table, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	GetSettings(ctx context.Context) (database.RestaurantSetting, error)
}

// CloseStore defines the DB methods used inside the close transaction.
type CloseStore interface {
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	CompleteOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrderItemsByOrders(ctx context.Context, orderIds []uuid.UUID) ([]database.OrderItem, error)
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	SetTableStatus(ctx context.Context, arg database.SetTableStatusParams) error
	CreateCashMovement(ctx context.Context, arg database.CreateCashMovementParams) (database.CashMovement, error)
}

// NewCloseStore creates a CloseStore from a DBTX (pool or tx).
type NewCloseStore func(db database.DBTX) CloseStore

// BoardOrder is a pending order with its lines.
type BoardOrder struct {
	Order database.Order
	Items []database.OrderItem
	// TableNumber is set for orders at a table.
	TableNumber *int32
}

// Snapshot is everything an order board renders.
type Snapshot struct {
	Orders     []BoardOrder
	Tables     []database.Table
	OpenCount  int
	OpenTotal  decimal.Decimal
	FreeTables int
}

// CloseResult is the completed order and the ledger entry written for it.
type CloseResult struct {
	Order        database.Order
	CashMovement database.CashMovement
}

// BoardService implements the order lifecycle board.
type BoardService struct {
	store         BoardStore
	pool          TxBeginner
	newCloseStore NewCloseStore
	printer       receipt.Printer
	notifier      Notifier
}

// NewBoardService creates a new BoardService. printer and notifier may be nil.
func NewBoardService(store BoardStore, pool TxBeginner, newCloseStore NewCloseStore, printer receipt.Printer, notifier Notifier) *BoardService {
	return &BoardService{
		store:         store,
		pool:          pool,
		newCloseStore: newCloseStore,
		printer:       printer,
		notifier:      notifier,
	}
}

// allowedTransitions defines the forward moves a board may make. completed
// is only reachable through Close.
var allowedTransitions = map[string]string{
	enum.OrderStatusNew:       enum.OrderStatusConfirmed,
	enum.OrderStatusConfirmed: enum.OrderStatusPreparing,
	enum.OrderStatusPreparing: enum.OrderStatusReady,
}

// validateStatusTransition checks if the transition from current to next is allowed.
func validateStatusTransition(current, next string) error {
	allowed, ok := allowedTransitions[current]
	if !ok {
		return fmt.Errorf("%w: cannot transition from %s", ErrIllegalTransition, current)
	}
	if allowed != next {
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrIllegalTransition, current, next)
	}
	return nil
}

// ListPending returns orders in a pending status, newest first, each with its
// lines. deliveryType filters when non-empty.
func (s *BoardService) ListPending(ctx context.Context, deliveryType string) ([]BoardOrder, error) {
	filter, err := deliveryFilter(deliveryType)
	if err != nil {
		return nil, err
	}
	return s.listPending(ctx, filter, nil)
}

// listPending loads pending orders and their lines. tables resolves table
// numbers; when nil they are loaded only if some order sits at a table.
func (s *BoardService) listPending(ctx context.Context, filter pgtype.Text, tables []database.Table) ([]BoardOrder, error) {
	orders, err := s.store.ListOrdersByStatus(ctx, database.ListOrdersByStatusParams{
		Statuses:     enum.PendingOrderStatuses,
		DeliveryType: filter,
	})
	if err != nil {
		return nil, fmt.Errorf("list pending orders: %w", err)
	}
	if len(orders) == 0 {
		return []BoardOrder{}, nil
	}

	ids := make([]uuid.UUID, len(orders))
	atTable := false
	for i, o := range orders {
		ids[i] = o.ID
		atTable = atTable || o.TableID.Valid
	}
	items, err := s.store.ListOrderItemsByOrders(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	if tables == nil && atTable {
		tables, err = s.store.ListTables(ctx)
		if err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
	}
	numbers := make(map[uuid.UUID]int32, len(tables))
	for _, t := range tables {
		numbers[t.ID] = t.Number
	}

	byOrder := make(map[uuid.UUID][]database.OrderItem, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}

	result := make([]BoardOrder, len(orders))
	for i, o := range orders {
		lines := byOrder[o.ID]
		if lines == nil {
			lines = []database.OrderItem{}
		}
		result[i] = BoardOrder{Order: o, Items: lines}
		if o.TableID.Valid {
			if n, ok := numbers[uuid.UUID(o.TableID.Bytes)]; ok {
				result[i].TableNumber = &n
			}
		}
	}
	return result, nil
}

// Snapshot reloads pending orders and tables from the database.
func (s *BoardService) Snapshot(ctx context.Context, deliveryType string) (*Snapshot, error) {
	filter, err := deliveryFilter(deliveryType)
	if err != nil {
		return nil, err
	}

	tables, err := s.store.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	orders, err := s.listPending(ctx, filter, tables)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Orders:    orders,
		Tables:    tables,
		OpenCount: len(orders),
		OpenTotal: decimal.Zero,
	}
	for _, o := range orders {
		snap.OpenTotal = snap.OpenTotal.Add(numericToDecimal(o.Order.Total))
	}
	for _, t := range tables {
		if t.Status == enum.TableStatusFree {
			snap.FreeTables++
		}
	}
	return snap, nil
}

// Advance moves an order one step forward on the board.
func (s *BoardService) Advance(ctx context.Context, id uuid.UUID, next string) (database.Order, error) {
	if !isValidOrderStatus(next) {
		return database.Order{}, ErrInvalidStatus
	}

	current, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}

	if err := validateStatusTransition(current.Status, next); err != nil {
		return database.Order{}, err
	}

	updated, err := s.store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:         id,
		Status:     next,
		FromStatus: current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrStatusChanged
		}
		return database.Order{}, fmt.Errorf("update order status: %w", err)
	}

	s.changed()
	return updated, nil
}

// Close completes a pending order, frees its table and records the sale in
// the cash ledger, all in one transaction. The receipt is printed after
// commit; a printer failure is logged and does not undo the close.
func (s *BoardService) Close(ctx context.Context, id uuid.UUID) (*CloseResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newCloseStore(tx)

	// --- Lock order ---
	order, err := store.GetOrderForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order for update: %w", err)
	}
	if order.Status == enum.OrderStatusCompleted {
		return nil, ErrOrderAlreadyClosed
	}

	// --- Complete ---
	completed, err := store.CompleteOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("complete order: %w", err)
	}

	// --- Free table ---
	var tableNumber *int32
	if order.TableID.Valid {
		tableID := uuid.UUID(order.TableID.Bytes)
		table, err := store.GetTable(ctx, tableID)
		if err != nil {
			return nil, fmt.Errorf("get table: %w", err)
		}
		if err := store.SetTableStatus(ctx, database.SetTableStatusParams{
			ID:     tableID,
			Status: enum.TableStatusFree,
		}); err != nil {
			return nil, fmt.Errorf("free table: %w", err)
		}
		n := table.Number
		tableNumber = &n
	}

	// --- Cash ledger entry ---
	movement, err := store.CreateCashMovement(ctx, database.CreateCashMovementParams{
		Type:          enum.CashMovementEntry,
		Amount:        order.Total,
		Category:      enum.CashCategorySale,
		Description:   "Pedido " + order.OrderNumber,
		PaymentMethod: order.PaymentMethod,
		OrderID:       pgtype.UUID{Bytes: order.ID, Valid: true},
	})
	if err != nil {
		return nil, fmt.Errorf("create cash movement: %w", err)
	}

	items, err := store.ListOrderItemsByOrders(ctx, []uuid.UUID{order.ID})
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	// --- Commit ---
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.print(ctx, completed, items, tableNumber)
	s.changed()

	return &CloseResult{Order: completed, CashMovement: movement}, nil
}

func (s *BoardService) print(ctx context.Context, order database.Order, items []database.OrderItem, tableNumber *int32) {
	if s.printer == nil {
		return
	}

	name := ""
	if settings, err := s.store.GetSettings(ctx); err != nil {
		log.Printf("WARN: get settings for receipt: %v", err)
	} else {
		name = settings.Name
	}

	r := receipt.Receipt{
		RestaurantName: name,
		OrderNumber:    order.OrderNumber,
		CreatedAt:      order.CreatedAt,
		DeliveryType:   order.DeliveryType,
		PaymentMethod:  order.PaymentMethod,
		TableNumber:    tableNumber,
		Audience:       receipt.AudienceCustomer,
		Subtotal:       numericToDecimal(order.Subtotal),
		DeliveryFee:    numericToDecimal(order.DeliveryFee),
		ServiceFee:     numericToDecimal(order.ServiceFee),
		Discount:       numericToDecimal(order.Discount),
		Total:          numericToDecimal(order.Total),
	}
	if order.CustomerName.Valid {
		r.CustomerName = order.CustomerName.String
	}
	for _, it := range items {
		r.Lines = append(r.Lines, receipt.Line{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: numericToDecimal(it.UnitPrice),
			Total:     numericToDecimal(it.TotalPrice),
		})
	}

	if err := s.printer.Print(ctx, r); err != nil {
		log.Printf("ERROR: print receipt for %s: %v", order.OrderNumber, err)
	}
}

func (s *BoardService) changed() {
	if s.notifier != nil {
		s.notifier.Trigger()
	}
}

func deliveryFilter(deliveryType string) (pgtype.Text, error) {
	switch deliveryType {
	case "":
		return pgtype.Text{}, nil
	case enum.DeliveryTypeDelivery, enum.DeliveryTypePickup, enum.DeliveryTypeDineIn:
		return pgtype.Text{String: deliveryType, Valid: true}, nil
	}
	return pgtype.Text{}, ErrInvalidDeliveryQuery
}

func isValidOrderStatus(s string) bool {
	switch s {
	case enum.OrderStatusNew,
		enum.OrderStatusConfirmed,
		enum.OrderStatusPreparing,
		enum.OrderStatusReady,
		enum.OrderStatusCompleted:
		return true
	}
	return false
}
