package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/report"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ReportsStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportsStore interface {
	ListOrdersCreatedSince(ctx context.Context, since pgtype.Timestamptz) ([]database.Order, error)
}

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	store ReportsStore
	loc   *time.Location
	now   func() time.Time
}

// NewReportsHandler creates a new ReportsHandler. Daily buckets use loc.
func NewReportsHandler(store ReportsStore, loc *time.Location) *ReportsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportsHandler{store: store, loc: loc, now: time.Now}
}

// RegisterRoutes registers report endpoints.
// Expected to be mounted at /reports behind an OWNER/MANAGER role check.
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/summary", h.Summary)
}

// --- Response types ---

type dayTotalResponse struct {
	Date       string `json:"date"`
	OrderCount int    `json:"order_count"`
	Revenue    string `json:"revenue"`
}

type summaryResponse struct {
	Days            int                `json:"days"`
	Since           time.Time          `json:"since"`
	TotalRevenue    string             `json:"total_revenue"`
	OrderCount      int                `json:"order_count"`
	AverageTicket   string             `json:"average_ticket"`
	OrdersPerDay    string             `json:"orders_per_day"`
	ByDeliveryType  map[string]int     `json:"by_delivery_type"`
	RevenueByMethod map[string]string  `json:"revenue_by_payment_method"`
	Daily           []dayTotalResponse `json:"daily"`
}

// --- Handlers ---

// Summary handles GET /reports/summary?days=N.
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	days := report.DefaultWindow
	if s := r.URL.Query().Get("days"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || !report.ValidWindow(v) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": report.ErrInvalidWindow.Error()})
			return
		}
		days = v
	}

	since := report.Since(h.now(), days)
	orders, err := h.store.ListOrdersCreatedSince(r.Context(), pgtype.Timestamptz{Time: since, Valid: true})
	if err != nil {
		log.Printf("ERROR: list orders for report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	rows := make([]report.Order, len(orders))
	for i, o := range orders {
		rows[i] = report.Order{
			CreatedAt:     o.CreatedAt,
			Total:         numericToDecimal(o.Total),
			DeliveryType:  o.DeliveryType,
			PaymentMethod: o.PaymentMethod,
		}
	}

	writeJSON(w, http.StatusOK, toSummaryResponse(report.Summarize(rows, days, since, h.loc)))
}

// --- Helpers ---

func toSummaryResponse(s report.Summary) summaryResponse {
	resp := summaryResponse{
		Days:            s.Days,
		Since:           s.Since,
		TotalRevenue:    s.Revenue.StringFixed(2),
		OrderCount:      s.Count,
		AverageTicket:   s.AverageTicket.StringFixed(2),
		OrdersPerDay:    s.OrdersPerDay.StringFixed(2),
		ByDeliveryType:  s.ByDeliveryType,
		RevenueByMethod: make(map[string]string, len(s.RevenueByMethod)),
		Daily:           make([]dayTotalResponse, len(s.Daily)),
	}
	for method, total := range s.RevenueByMethod {
		resp.RevenueByMethod[method] = total.StringFixed(2)
	}
	for i, d := range s.Daily {
		resp.Daily[i] = dayTotalResponse{
			Date:       d.Date,
			OrderCount: d.Count,
			Revenue:    d.Revenue.StringFixed(2),
		}
	}
	return resp
}
