package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/enum"
	"github.com/cardapio-pos/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// OrderSubmitter defines the service method that writes new orders.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderSubmitter interface {
	Submit(ctx context.Context, req service.SubmitOrderRequest) (*service.SubmitOrderResult, error)
}

// OrderBoard defines the lifecycle board methods.
// Satisfied by *service.BoardService; narrow interface for testability.
type OrderBoard interface {
	ListPending(ctx context.Context, deliveryType string) ([]service.BoardOrder, error)
	Snapshot(ctx context.Context, deliveryType string) (*service.Snapshot, error)
	Advance(ctx context.Context, id uuid.UUID, next string) (database.Order, error)
	Close(ctx context.Context, id uuid.UUID) (*service.CloseResult, error)
}

// OrderStore defines the database methods needed to read a single order.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrderItemsByOrders(ctx context.Context, orderIds []uuid.UUID) ([]database.OrderItem, error)
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
}

// OrderHandler handles PDV submission and the order board.
type OrderHandler struct {
	svc   OrderSubmitter
	board OrderBoard
	store OrderStore
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderSubmitter, board OrderBoard, store OrderStore) *OrderHandler {
	return &OrderHandler{svc: svc, board: board, store: store}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /orders behind staff authentication.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/pending", h.ListPending)
	r.Get("/board", h.Board)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Post("/{id}/close", h.Close)
}

// --- Request / Response types ---

type createOrderRequest struct {
	DeliveryType  string                   `json:"delivery_type"`
	PaymentMethod string                   `json:"payment_method"`
	TableNumber   int32                    `json:"table_number"`
	CustomerName  string                   `json:"customer_name"`
	CustomerPhone string                   `json:"customer_phone"`
	Address       *service.Address         `json:"address"`
	Notes         string                   `json:"notes"`
	ServiceFee    string                   `json:"service_fee"`
	Discount      string                   `json:"discount"`
	Items         []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int32  `json:"quantity"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	Source          string              `json:"source"`
	DeliveryType    string              `json:"delivery_type"`
	Status          string              `json:"status"`
	PaymentMethod   string              `json:"payment_method"`
	Subtotal        string              `json:"subtotal"`
	DeliveryFee     string              `json:"delivery_fee"`
	ServiceFee      string              `json:"service_fee"`
	Discount        string              `json:"discount"`
	Total           string              `json:"total"`
	CustomerName    *string             `json:"customer_name"`
	CustomerPhone   *string             `json:"customer_phone"`
	DeliveryAddress json.RawMessage     `json:"delivery_address"`
	TableID         *uuid.UUID          `json:"table_id"`
	TableNumber     *int32              `json:"table_number"`
	Notes           *string             `json:"notes"`
	CreatedAt       time.Time           `json:"created_at"`
	CompletedAt     *time.Time          `json:"completed_at"`
	Items           []orderItemResponse `json:"items"`
}

type orderItemResponse struct {
	ID         uuid.UUID  `json:"id"`
	MenuItemID *uuid.UUID `json:"menu_item_id"`
	Name       string     `json:"name"`
	Quantity   int32      `json:"quantity"`
	UnitPrice  string     `json:"unit_price"`
	TotalPrice string     `json:"total_price"`
}

type boardResponse struct {
	Orders     []orderResponse `json:"orders"`
	Tables     []tableResponse `json:"tables"`
	OpenCount  int             `json:"open_count"`
	OpenTotal  string          `json:"open_total"`
	FreeTables int             `json:"free_tables"`
}

type closeOrderResponse struct {
	Order        orderResponse        `json:"order"`
	CashMovement cashMovementResponse `json:"cash_movement"`
}

// --- Handlers ---

// Create handles POST /orders, the PDV submission. Items are resolved
// against the catalog at their current effective price.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	for i, item := range req.Items {
		if item.MenuItemID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatItemError(i, "menu_item_id is required"),
			})
			return
		}
	}

	items := make([]service.SubmitItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.SubmitItemRequest{MenuItemID: item.MenuItemID, Quantity: item.Quantity}
	}

	result, err := h.svc.Submit(r.Context(), service.SubmitOrderRequest{
		Source:        enum.OrderSourcePDV,
		DeliveryType:  req.DeliveryType,
		PaymentMethod: req.PaymentMethod,
		TableNumber:   req.TableNumber,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Address:       req.Address,
		Notes:         req.Notes,
		ServiceFee:    req.ServiceFee,
		Discount:      req.Discount,
		Items:         items,
	})
	if err != nil {
		if isValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: submit order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toSubmitResponse(result))
}

// ListPending handles GET /orders/pending?delivery_type=.
func (h *OrderHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	orders, err := h.board.ListPending(r.Context(), r.URL.Query().Get("delivery_type"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidDeliveryQuery) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: list pending orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toBoardOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Board handles GET /orders/board?delivery_type=, the full comandas view.
func (h *OrderHandler) Board(w http.ResponseWriter, r *http.Request) {
	snap, err := h.board.Snapshot(r.Context(), r.URL.Query().Get("delivery_type"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidDeliveryQuery) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: load board: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, RenderBoard(snap))
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrders(r.Context(), []uuid.UUID{orderID})
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	var tableNumber *int32
	if order.TableID.Valid {
		table, err := h.store.GetTable(r.Context(), uuid.UUID(order.TableID.Bytes))
		if err != nil {
			log.Printf("ERROR: get table for order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		tableNumber = &table.Number
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, items, tableNumber))
}

// UpdateStatus handles PATCH /orders/{id}/status. Only one forward step at a
// time; completion goes through Close.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	updated, err := h.board.Advance(r.Context(), orderID, req.Status)
	if err != nil {
		writeBoardError(w, "advance order", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(updated, nil, nil))
}

// Close handles POST /orders/{id}/close: completes the order, frees its
// table and records the sale in the cash ledger.
func (h *OrderHandler) Close(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	result, err := h.board.Close(r.Context(), orderID)
	if err != nil {
		writeBoardError(w, "close order", err)
		return
	}

	writeJSON(w, http.StatusOK, closeOrderResponse{
		Order:        toOrderResponse(result.Order, nil, nil),
		CashMovement: toCashMovementResponse(result.CashMovement),
	})
}

// --- Helpers ---

func formatItemError(idx int, msg string) string {
	return "items[" + strconv.Itoa(idx) + "]: " + msg
}

// isValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyCart) ||
		errors.Is(err, service.ErrInvalidSource) ||
		errors.Is(err, service.ErrInvalidDeliveryType) ||
		errors.Is(err, service.ErrInvalidPaymentMethod) ||
		errors.Is(err, service.ErrTableRequired) ||
		errors.Is(err, service.ErrAddressRequired) ||
		errors.Is(err, service.ErrContactRequired) ||
		errors.Is(err, service.ErrInvalidAmount) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidMenuItemID) ||
		errors.Is(err, service.ErrMenuItemUnavailable) ||
		errors.Is(err, service.ErrTableNotFound)
}

// writeBoardError maps board service errors to HTTP responses.
func writeBoardError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrIllegalTransition),
		errors.Is(err, service.ErrStatusChanged),
		errors.Is(err, service.ErrOrderAlreadyClosed):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// RenderBoard shapes a board snapshot for JSON clients. The WebSocket push
// uses it too, so both paths carry the same document.
func RenderBoard(snap *service.Snapshot) any {
	resp := boardResponse{
		Orders:     make([]orderResponse, len(snap.Orders)),
		Tables:     make([]tableResponse, len(snap.Tables)),
		OpenCount:  snap.OpenCount,
		OpenTotal:  snap.OpenTotal.StringFixed(2),
		FreeTables: snap.FreeTables,
	}
	for i, o := range snap.Orders {
		resp.Orders[i] = toBoardOrderResponse(o)
	}
	for i, t := range snap.Tables {
		resp.Tables[i] = toTableResponse(t)
	}
	return resp
}

func toSubmitResponse(result *service.SubmitOrderResult) orderResponse {
	var tableNumber *int32
	if result.Order.TableID.Valid {
		n := result.TableNumber
		tableNumber = &n
	}
	return toOrderResponse(result.Order, result.Items, tableNumber)
}

func toBoardOrderResponse(o service.BoardOrder) orderResponse {
	return toOrderResponse(o.Order, o.Items, o.TableNumber)
}

func toOrderResponse(o database.Order, items []database.OrderItem, tableNumber *int32) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		Source:        o.Source,
		DeliveryType:  o.DeliveryType,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		Subtotal:      numericToString(o.Subtotal),
		DeliveryFee:   numericToString(o.DeliveryFee),
		ServiceFee:    numericToString(o.ServiceFee),
		Discount:      numericToString(o.Discount),
		Total:         numericToString(o.Total),
		TableNumber:   tableNumber,
		CreatedAt:     o.CreatedAt,
		Items:         make([]orderItemResponse, len(items)),
	}

	if o.CustomerName.Valid {
		resp.CustomerName = &o.CustomerName.String
	}
	if o.CustomerPhone.Valid {
		resp.CustomerPhone = &o.CustomerPhone.String
	}
	if len(o.DeliveryAddress) > 0 {
		resp.DeliveryAddress = json.RawMessage(o.DeliveryAddress)
	}
	if o.TableID.Valid {
		id := uuid.UUID(o.TableID.Bytes)
		resp.TableID = &id
	}
	if o.Notes.Valid {
		resp.Notes = &o.Notes.String
	}
	if o.CompletedAt.Valid {
		resp.CompletedAt = &o.CompletedAt.Time
	}

	for i, item := range items {
		resp.Items[i] = toOrderItemResponse(item)
	}
	return resp
}

func toOrderItemResponse(item database.OrderItem) orderItemResponse {
	resp := orderItemResponse{
		ID:         item.ID,
		Name:       item.Name,
		Quantity:   item.Quantity,
		UnitPrice:  numericToString(item.UnitPrice),
		TotalPrice: numericToString(item.TotalPrice),
	}
	if item.MenuItemID.Valid {
		id := uuid.UUID(item.MenuItemID.Bytes)
		resp.MenuItemID = &id
	}
	return resp
}

func numericToString(n pgtype.Numeric) string {
	return numericToDecimal(n).StringFixed(2)
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
