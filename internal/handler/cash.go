package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/enum"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// CashStore defines the database methods needed by cash ledger handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type CashStore interface {
	ListCashMovements(ctx context.Context, arg database.ListCashMovementsParams) ([]database.CashMovement, error)
	CreateCashMovement(ctx context.Context, arg database.CreateCashMovementParams) (database.CashMovement, error)
	GetCashBalance(ctx context.Context) ([]database.GetCashBalanceRow, error)
}

// CashHandler handles the cash ledger.
type CashHandler struct {
	store CashStore
	loc   *time.Location
}

// NewCashHandler creates a new CashHandler. Date filters are read in loc.
func NewCashHandler(store CashStore, loc *time.Location) *CashHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &CashHandler{store: store, loc: loc}
}

// RegisterRoutes registers cash ledger endpoints.
// Expected to be mounted at /cash-movements behind an OWNER/MANAGER role check.
func (h *CashHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/balance", h.Balance)
}

// --- Request / Response types ---

type createCashMovementRequest struct {
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	PaymentMethod string `json:"payment_method"`
}

type cashMovementResponse struct {
	ID            uuid.UUID  `json:"id"`
	Type          string     `json:"type"`
	Amount        string     `json:"amount"`
	Category      string     `json:"category"`
	Description   string     `json:"description"`
	PaymentMethod string     `json:"payment_method"`
	OrderID       *uuid.UUID `json:"order_id"`
	CreatedAt     time.Time  `json:"created_at"`
}

type cashBalanceResponse struct {
	PaymentMethod string `json:"payment_method"`
	Entries       string `json:"entries"`
	Exits         string `json:"exits"`
	Balance       string `json:"balance"`
}

// --- Handlers ---

// List returns movements newest first, optionally within a date range.
func (h *CashHandler) List(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r, h.loc)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 200 {
		limit = 200
	}

	var offset int32
	if s := r.URL.Query().Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil || v < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "offset must be a non-negative 32-bit integer"})
			return
		}
		offset = int32(v)
	}

	rows, err := h.store.ListCashMovements(r.Context(), database.ListCashMovementsParams{
		StartDate: start,
		EndDate:   end,
		Limit:     int32(limit),
		Offset:    offset,
	})
	if err != nil {
		log.Printf("ERROR: list cash movements: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]cashMovementResponse, len(rows))
	for i, m := range rows {
		resp[i] = toCashMovementResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create records a manual entry or exit.
func (h *CashHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCashMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Type != enum.CashMovementEntry && req.Type != enum.CashMovementExit {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type must be entry or exit"})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must be a positive decimal"})
		return
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category is required"})
		return
	}

	if req.PaymentMethod == "" {
		req.PaymentMethod = enum.PaymentMethodCash
	}
	if !slices.Contains(enum.PaymentMethods, req.PaymentMethod) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment_method"})
		return
	}

	var numeric pgtype.Numeric
	if err := numeric.Scan(amount.StringFixed(2)); err != nil {
		log.Printf("ERROR: convert cash amount: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	m, err := h.store.CreateCashMovement(r.Context(), database.CreateCashMovementParams{
		Type:          req.Type,
		Amount:        numeric,
		Category:      category,
		Description:   strings.TrimSpace(req.Description),
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		log.Printf("ERROR: create cash movement: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toCashMovementResponse(m))
}

// Balance returns entries minus exits per payment method.
func (h *CashHandler) Balance(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.GetCashBalance(r.Context())
	if err != nil {
		log.Printf("ERROR: get cash balance: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]cashBalanceResponse, len(rows))
	for i, row := range rows {
		entries := numericToDecimal(row.Entries)
		exits := numericToDecimal(row.Exits)
		resp[i] = cashBalanceResponse{
			PaymentMethod: row.PaymentMethod,
			Entries:       entries.StringFixed(2),
			Exits:         exits.StringFixed(2),
			Balance:       entries.Sub(exits).StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func toCashMovementResponse(m database.CashMovement) cashMovementResponse {
	resp := cashMovementResponse{
		ID:            m.ID,
		Type:          m.Type,
		Amount:        numericToString(m.Amount),
		Category:      m.Category,
		Description:   m.Description,
		PaymentMethod: m.PaymentMethod,
		CreatedAt:     m.CreatedAt,
	}
	if m.OrderID.Valid {
		id := uuid.UUID(m.OrderID.Bytes)
		resp.OrderID = &id
	}
	return resp
}

// parseDateRange reads optional start_date and end_date (YYYY-MM-DD) in loc.
// A missing bound is left unset. end_date is inclusive, so the returned end
// is the following midnight.
func parseDateRange(r *http.Request, loc *time.Location) (pgtype.Timestamptz, pgtype.Timestamptz, error) {
	const layout = "2006-01-02"
	var start, end pgtype.Timestamptz

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			return start, end, fmt.Errorf("invalid start_date format, use YYYY-MM-DD")
		}
		start = pgtype.Timestamptz{Time: t, Valid: true}
	}

	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			return start, end, fmt.Errorf("invalid end_date format, use YYYY-MM-DD")
		}
		end = pgtype.Timestamptz{Time: t.AddDate(0, 0, 1), Valid: true}
	}

	if start.Valid && end.Valid && !start.Time.Before(end.Time) {
		return start, end, fmt.Errorf("start_date must not be after end_date")
	}

	return start, end, nil
}
