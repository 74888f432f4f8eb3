// Package report aggregates orders fetched for a trailing window into the
// sales dashboard figures.
package report

import (
	"errors"
	"sort"
	"time"

	"github.com/cardapio-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// ErrInvalidWindow is returned for a window outside the accepted presets.
var ErrInvalidWindow = errors.New("days must be one of 7, 15, 30, 60")

// DefaultWindow is used when no window is requested.
const DefaultWindow = 7

// ValidWindow reports whether days is an accepted preset.
func ValidWindow(days int) bool {
	for _, p := range enum.ReportPresets {
		if days == p {
			return true
		}
	}
	return false
}

// Order is the slice of an order the aggregator reads.
type Order struct {
	CreatedAt     time.Time
	Total         decimal.Decimal
	DeliveryType  string
	PaymentMethod string
}

// DayTotal is one point of the daily series.
type DayTotal struct {
	Date    string
	Count   int
	Revenue decimal.Decimal
}

// Summary is the computed dashboard.
type Summary struct {
	Days            int
	Since           time.Time
	Revenue         decimal.Decimal
	Count           int
	AverageTicket   decimal.Decimal
	OrdersPerDay    decimal.Decimal
	ByDeliveryType  map[string]int
	RevenueByMethod map[string]decimal.Decimal
	Daily           []DayTotal
}

// Since returns the start of a window of days ending at now.
func Since(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

// Summarize computes every figure in a single pass over orders. Days in the
// daily series are bucketed in loc. A zero count yields a zero average.
func Summarize(orders []Order, days int, since time.Time, loc *time.Location) Summary {
	if loc == nil {
		loc = time.UTC
	}

	s := Summary{
		Days:    days,
		Since:   since,
		Revenue: decimal.Zero,
		ByDeliveryType: map[string]int{
			enum.DeliveryTypeDelivery: 0,
			enum.DeliveryTypePickup:   0,
			enum.DeliveryTypeDineIn:   0,
		},
		RevenueByMethod: map[string]decimal.Decimal{},
	}
	daily := map[string]*DayTotal{}

	for _, o := range orders {
		s.Count++
		s.Revenue = s.Revenue.Add(o.Total)
		s.ByDeliveryType[o.DeliveryType]++

		prev, ok := s.RevenueByMethod[o.PaymentMethod]
		if !ok {
			prev = decimal.Zero
		}
		s.RevenueByMethod[o.PaymentMethod] = prev.Add(o.Total)

		key := o.CreatedAt.In(loc).Format("2006-01-02")
		d, ok := daily[key]
		if !ok {
			d = &DayTotal{Date: key, Revenue: decimal.Zero}
			daily[key] = d
		}
		d.Count++
		d.Revenue = d.Revenue.Add(o.Total)
	}

	s.AverageTicket = decimal.Zero
	if s.Count > 0 {
		s.AverageTicket = s.Revenue.Div(decimal.NewFromInt(int64(s.Count)))
	}
	s.OrdersPerDay = decimal.Zero
	if days > 0 {
		s.OrdersPerDay = decimal.NewFromInt(int64(s.Count)).Div(decimal.NewFromInt(int64(days)))
	}

	s.Daily = make([]DayTotal, 0, len(daily))
	for _, d := range daily {
		s.Daily = append(s.Daily, *d)
	}
	sort.Slice(s.Daily, func(i, j int) bool { return s.Daily[i].Date < s.Daily[j].Date })

	return s
}
