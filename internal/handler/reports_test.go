package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/enum"
	"github.com/cardapio-pos/api/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type mockReportsStore struct {
	orders []database.Order
	since  pgtype.Timestamptz
	calls  int
	err    error
}

func (m *mockReportsStore) ListOrdersCreatedSince(_ context.Context, since pgtype.Timestamptz) ([]database.Order, error) {
	m.calls++
	m.since = since
	if m.err != nil {
		return nil, m.err
	}
	return m.orders, nil
}

func setupReportsRouter(store *mockReportsStore) *chi.Mux {
	h := handler.NewReportsHandler(store, time.UTC)
	r := chi.NewRouter()
	r.Route("/reports", h.RegisterRoutes)
	return r
}

func TestReportSummary_Figures(t *testing.T) {
	now := time.Now().UTC()
	delivery := makeOrder(t, "PED000001", enum.DeliveryTypeDelivery, enum.OrderStatusCompleted, "50.00")
	delivery.PaymentMethod = enum.PaymentMethodPix
	delivery.CreatedAt = now.Add(-time.Hour)
	dineIn := makeOrder(t, "PDV000001", enum.DeliveryTypeDineIn, enum.OrderStatusNew, "20.00")
	dineIn.CreatedAt = now.Add(-50 * time.Hour)
	store := &mockReportsStore{orders: []database.Order{dineIn, delivery}}

	rr := doRequest(t, setupReportsRouter(store), "GET", "/reports/summary?days=7", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["total_revenue"] != "70.00" {
		t.Errorf("total_revenue: got %v, want 70.00", resp["total_revenue"])
	}
	if resp["order_count"] != float64(2) {
		t.Errorf("order_count: got %v, want 2", resp["order_count"])
	}
	if resp["average_ticket"] != "35.00" {
		t.Errorf("average_ticket: got %v, want 35.00", resp["average_ticket"])
	}
	if resp["orders_per_day"] != "0.29" {
		t.Errorf("orders_per_day: got %v, want 0.29", resp["orders_per_day"])
	}

	byType := resp["by_delivery_type"].(map[string]interface{})
	if byType["delivery"] != float64(1) || byType["dine_in"] != float64(1) || byType["pickup"] != float64(0) {
		t.Errorf("by_delivery_type: got %v", byType)
	}
	byMethod := resp["revenue_by_payment_method"].(map[string]interface{})
	if byMethod["pix"] != "50.00" || byMethod["cash"] != "20.00" {
		t.Errorf("revenue_by_payment_method: got %v", byMethod)
	}
	if daily, _ := resp["daily"].([]interface{}); len(daily) == 0 {
		t.Error("daily series should not be empty")
	}

	age := now.Sub(store.since.Time)
	if age < 7*24*time.Hour-time.Minute || age > 7*24*time.Hour+time.Minute {
		t.Errorf("since should be 7 days ago, got %v ago", age)
	}
}

func TestReportSummary_EmptyWindow(t *testing.T) {
	store := &mockReportsStore{orders: []database.Order{}}

	rr := doRequest(t, setupReportsRouter(store), "GET", "/reports/summary", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeResponse(t, rr)
	if resp["days"] != float64(7) {
		t.Errorf("days: got %v, want default 7", resp["days"])
	}
	if resp["average_ticket"] != "0.00" || resp["total_revenue"] != "0.00" {
		t.Errorf("empty window should be zeros, got %v / %v", resp["average_ticket"], resp["total_revenue"])
	}
}

func TestReportSummary_InvalidDays(t *testing.T) {
	for _, q := range []string{"days=10", "days=0", "days=abc", "days=-7"} {
		store := &mockReportsStore{}
		rr := doRequest(t, setupReportsRouter(store), "GET", "/reports/summary?"+q, nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want %d", q, rr.Code, http.StatusBadRequest)
		}
		if store.calls != 0 {
			t.Errorf("%s: store should not be queried", q)
		}
	}
}

func TestReportSummary_AcceptsPresets(t *testing.T) {
	for _, days := range []string{"7", "15", "30", "60"} {
		rr := doRequest(t, setupReportsRouter(&mockReportsStore{}), "GET", "/reports/summary?days="+days, nil)
		if rr.Code != http.StatusOK {
			t.Errorf("days=%s: got %d, want %d", days, rr.Code, http.StatusOK)
		}
	}
}

func TestReportSummary_StoreError(t *testing.T) {
	store := &mockReportsStore{err: errors.New("timeout")}
	rr := doRequest(t, setupReportsRouter(store), "GET", "/reports/summary", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}
