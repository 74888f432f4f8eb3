// Package receipt defines the printer collaborator called when an order is
// closed. Real printer drivers live outside this service; LogPrinter writes
// the rendered ticket to the log.
package receipt

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cardapio-pos/api/internal/messaging"
	"github.com/shopspring/decimal"
)

// Audience selects which copy of a receipt is printed.
type Audience string

const (
	AudienceCustomer Audience = "customer"
	AudienceKitchen  Audience = "kitchen"
)

// Line is one printed order line.
type Line struct {
	Name      string
	Quantity  int32
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// Receipt is the order-shaped record handed to a Printer.
type Receipt struct {
	RestaurantName string
	OrderNumber    string
	CreatedAt      time.Time
	DeliveryType   string
	PaymentMethod  string
	CustomerName   string
	TableNumber    *int32
	Audience       Audience
	Lines          []Line
	Subtotal       decimal.Decimal
	DeliveryFee    decimal.Decimal
	ServiceFee     decimal.Decimal
	Discount       decimal.Decimal
	Total          decimal.Decimal
}

// Printer prints a receipt.
type Printer interface {
	Print(ctx context.Context, r Receipt) error
}

// LogPrinter renders receipts as plain text into a logger.
type LogPrinter struct {
	logger *log.Logger
}

// NewLogPrinter creates a LogPrinter. A nil logger uses the standard logger.
func NewLogPrinter(logger *log.Logger) *LogPrinter {
	if logger == nil {
		logger = log.Default()
	}
	return &LogPrinter{logger: logger}
}

// Print logs the rendered receipt.
func (p *LogPrinter) Print(ctx context.Context, r Receipt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.logger.Printf("receipt %s (%s):\n%s", r.OrderNumber, r.Audience, Render(r))
	return nil
}

const width = 32

// Render lays the receipt out for a narrow thermal printer. Kitchen copies
// omit prices.
func Render(r Receipt) string {
	var b strings.Builder
	rule := strings.Repeat("-", width) + "\n"

	if r.RestaurantName != "" {
		b.WriteString(center(r.RestaurantName) + "\n")
	}
	fmt.Fprintf(&b, "Pedido %s\n", r.OrderNumber)
	if !r.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "%s\n", r.CreatedAt.Format("02/01/2006 15:04"))
	}
	if r.TableNumber != nil {
		fmt.Fprintf(&b, "Mesa %d\n", *r.TableNumber)
	}
	if r.CustomerName != "" {
		fmt.Fprintf(&b, "Cliente: %s\n", r.CustomerName)
	}
	b.WriteString(rule)

	for _, l := range r.Lines {
		fmt.Fprintf(&b, "%dx %s\n", l.Quantity, l.Name)
		if r.Audience != AudienceKitchen {
			b.WriteString(right(messaging.FormatBRL(l.Total)) + "\n")
		}
	}

	if r.Audience == AudienceKitchen {
		return b.String()
	}

	b.WriteString(rule)
	b.WriteString(pair("Subtotal", r.Subtotal))
	if !r.DeliveryFee.IsZero() {
		b.WriteString(pair("Entrega", r.DeliveryFee))
	}
	if !r.ServiceFee.IsZero() {
		b.WriteString(pair("Servico", r.ServiceFee))
	}
	if !r.Discount.IsZero() {
		b.WriteString(pair("Desconto", r.Discount.Neg()))
	}
	b.WriteString(pair("TOTAL", r.Total))
	if r.PaymentMethod != "" {
		fmt.Fprintf(&b, "Pagamento: %s\n", r.PaymentMethod)
	}
	return b.String()
}

func pair(label string, amount decimal.Decimal) string {
	value := messaging.FormatBRL(amount)
	pad := width - len(label) - len(value)
	if pad < 1 {
		pad = 1
	}
	return label + strings.Repeat(" ", pad) + value + "\n"
}

func right(s string) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func center(s string) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", (width-len(s))/2) + s
}
