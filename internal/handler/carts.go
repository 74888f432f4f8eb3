package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/cardapio-pos/api/internal/cart"
	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/enum"
	"github.com/cardapio-pos/api/internal/messaging"
	"github.com/cardapio-pos/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CartStore defines the database methods needed by cart handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type CartStore interface {
	GetAvailableMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	GetSettings(ctx context.Context) (database.RestaurantSetting, error)
}

// CartHandler handles cart sessions and the customer checkout.
type CartHandler struct {
	carts *cart.Store
	store CartStore
	svc   OrderSubmitter
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(carts *cart.Store, store CartStore, svc OrderSubmitter) *CartHandler {
	return &CartHandler{carts: carts, store: store, svc: svc}
}

// RegisterRoutes registers cart endpoints.
// Expected to be mounted at /carts.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/items", h.AddItem)
	r.Patch("/{id}/items/{itemID}", h.ChangeQuantity)
	r.Delete("/{id}/items/{itemID}", h.RemoveItem)
	r.Post("/{id}/checkout", h.Checkout)
}

// --- Request / Response types ---

type addCartItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
}

type changeQuantityRequest struct {
	Delta int32 `json:"delta"`
}

type checkoutRequest struct {
	DeliveryType  string           `json:"delivery_type"`
	PaymentMethod string           `json:"payment_method"`
	TableNumber   int32            `json:"table_number"`
	CustomerName  string           `json:"customer_name"`
	CustomerPhone string           `json:"customer_phone"`
	Address       *service.Address `json:"address"`
	Notes         string           `json:"notes"`
}

type cartLineResponse struct {
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Name       string    `json:"name"`
	UnitPrice  string    `json:"unit_price"`
	Quantity   int32     `json:"quantity"`
	Total      string    `json:"total"`
}

type cartResponse struct {
	ID    uuid.UUID          `json:"id"`
	Items []cartLineResponse `json:"items"`
	Total string             `json:"total"`
}

type checkoutResponse struct {
	Order       orderResponse `json:"order"`
	WhatsappURL *string       `json:"whatsapp_url"`
}

// --- Handlers ---

// Create opens an empty cart session.
func (h *CartHandler) Create(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.Create()
	if err != nil {
		writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCartResponse(view))
}

// Get returns a session's cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := cartID(w, r)
	if !ok {
		return
	}
	view, err := h.carts.Get(id)
	if err != nil {
		writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(view))
}

// Delete discards a session.
func (h *CartHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := cartID(w, r)
	if !ok {
		return
	}
	if !h.carts.Delete(id) {
		writeCartError(w, cart.ErrSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddItem adds one unit of an available catalog item.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := cartID(w, r)
	if !ok {
		return
	}

	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	menuItemID, err := uuid.Parse(req.MenuItemID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu_item_id"})
		return
	}

	item, err := h.store.GetAvailableMenuItem(r.Context(), menuItemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": service.ErrMenuItemUnavailable.Error()})
			return
		}
		log.Printf("ERROR: get menu item for cart: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	view, err := h.carts.Dispatch(id, cart.AddItem{Item: service.MenuItemToCartItem(item)})
	if err != nil {
		writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(view))
}

// ChangeQuantity adds delta to a line; a line reaching zero is removed.
func (h *CartHandler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := cartID(w, r)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req changeQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Delta == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delta must not be zero"})
		return
	}
	if req.Delta > cart.MaxQuantity || req.Delta < -cart.MaxQuantity {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("delta must be between -%d and %d", cart.MaxQuantity, cart.MaxQuantity)})
		return
	}

	view, err := h.carts.Dispatch(id, cart.ChangeQuantity{MenuItemID: itemID, Delta: req.Delta})
	if err != nil {
		writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(view))
}

// RemoveItem deletes a line.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := cartID(w, r)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	view, err := h.carts.Dispatch(id, cart.RemoveItem{MenuItemID: itemID})
	if err != nil {
		writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(view))
}

// Checkout submits the cart as a customer menu order. The cart is cleared
// only when the order was written.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	id, ok := cartID(w, r)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var result *service.SubmitOrderResult
	err := h.carts.Checkout(id, func(lines []cart.Line) error {
		res, err := h.svc.Submit(r.Context(), service.SubmitOrderRequest{
			Source:        enum.OrderSourceMenu,
			DeliveryType:  req.DeliveryType,
			PaymentMethod: req.PaymentMethod,
			TableNumber:   req.TableNumber,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			Address:       req.Address,
			Notes:         req.Notes,
			Lines:         lines,
		})
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		if isValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeCartError(w, err)
		return
	}

	resp := checkoutResponse{Order: toSubmitResponse(result)}
	if link := h.orderLink(r.Context(), result, req.Address); link != "" {
		resp.WhatsappURL = &link
	}
	writeJSON(w, http.StatusCreated, resp)
}

// --- Helpers ---

// orderLink builds the WhatsApp link carrying the order summary. The order is
// already committed, so failures only drop the link.
func (h *CartHandler) orderLink(ctx context.Context, result *service.SubmitOrderResult, addr *service.Address) string {
	settings, err := h.store.GetSettings(ctx)
	if err != nil {
		log.Printf("WARN: order %s: get settings for whatsapp link: %v", result.Order.OrderNumber, err)
		return ""
	}
	if settings.WhatsappPhone == "" {
		return ""
	}

	o := result.Order
	summary := messaging.OrderSummary{
		OrderNumber:   o.OrderNumber,
		CustomerName:  o.CustomerName.String,
		DeliveryType:  o.DeliveryType,
		PaymentMethod: o.PaymentMethod,
		Lines:         make([]messaging.OrderLine, len(result.Items)),
		Subtotal:      numericToDecimal(o.Subtotal),
		DeliveryFee:   numericToDecimal(o.DeliveryFee),
		Total:         numericToDecimal(o.Total),
		Notes:         o.Notes.String,
	}
	if o.DeliveryType == enum.DeliveryTypeDelivery {
		summary.Address = formatAddress(addr)
	}
	for i, item := range result.Items {
		summary.Lines[i] = messaging.OrderLine{
			Name:     item.Name,
			Quantity: item.Quantity,
			Total:    numericToDecimal(item.TotalPrice),
		}
	}
	return messaging.Link(settings.WhatsappPhone, messaging.OrderMessage(summary))
}

func formatAddress(a *service.Address) string {
	if a == nil {
		return ""
	}
	s := strings.TrimSpace(a.Street) + ", " + strings.TrimSpace(a.Number)
	if c := strings.TrimSpace(a.Complement); c != "" {
		s += " " + c
	}
	s += " - " + strings.TrimSpace(a.Neighborhood)
	if ref := strings.TrimSpace(a.Reference); ref != "" {
		s += " (" + ref + ")"
	}
	return s
}

func cartID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cart ID"})
		return uuid.Nil, false
	}
	return id, true
}

func writeCartError(w http.ResponseWriter, err error) {
	if errors.Is(err, cart.ErrSessionNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "cart not found"})
		return
	}
	if errors.Is(err, cart.ErrTooManySessions) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	log.Printf("ERROR: cart: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func toCartResponse(v cart.View) cartResponse {
	resp := cartResponse{
		ID:    v.ID,
		Items: make([]cartLineResponse, len(v.Lines)),
		Total: v.Total.StringFixed(2),
	}
	for i, l := range v.Lines {
		resp.Items[i] = cartLineResponse{
			MenuItemID: l.MenuItemID,
			Name:       l.Name,
			UnitPrice:  l.UnitPrice.StringFixed(2),
			Quantity:   l.Quantity,
			Total:      l.Total().StringFixed(2),
		}
	}
	return resp
}
