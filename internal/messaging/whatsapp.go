// Package messaging builds WhatsApp deep links and the text templates sent
// through them.
package messaging

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/cardapio-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

const waBaseURL = "https://wa.me/"

// DefaultGreeting is used when the restaurant has not configured one.
const DefaultGreeting = "Olá! Gostaria de fazer um pedido."

// Link returns a wa.me deep link that opens a chat with phone and text
// pre-filled. Non-digit characters are stripped from phone.
func Link(phone, text string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	if text == "" {
		return waBaseURL + digits
	}
	// wa.me does not decode '+' as a space.
	return waBaseURL + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// OrderLine is one line of an order summary.
type OrderLine struct {
	Name     string
	Quantity int32
	Total    decimal.Decimal
}

// OrderSummary is the data rendered into the customer's order message.
type OrderSummary struct {
	OrderNumber   string
	CustomerName  string
	DeliveryType  string
	PaymentMethod string
	Address       string
	Lines         []OrderLine
	Subtotal      decimal.Decimal
	DeliveryFee   decimal.Decimal
	Total         decimal.Decimal
	Notes         string
}

var deliveryTypeLabels = map[string]string{
	enum.DeliveryTypeDelivery: "Entrega",
	enum.DeliveryTypePickup:   "Retirada",
	enum.DeliveryTypeDineIn:   "Consumo no local",
}

var paymentLabels = map[string]string{
	enum.PaymentMethodCash:       "Dinheiro",
	enum.PaymentMethodCreditCard: "Cartão de crédito",
	enum.PaymentMethodDebitCard:  "Cartão de débito",
	enum.PaymentMethodPix:        "PIX",
}

// OrderMessage renders the order summary a customer sends to the restaurant.
func OrderMessage(s OrderSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Pedido %s*\n", s.OrderNumber)
	if s.CustomerName != "" {
		fmt.Fprintf(&b, "Cliente: %s\n", s.CustomerName)
	}
	b.WriteString("\n")
	for _, l := range s.Lines {
		fmt.Fprintf(&b, "%dx %s - %s\n", l.Quantity, l.Name, FormatBRL(l.Total))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", FormatBRL(s.Subtotal))
	if s.DeliveryFee.IsPositive() {
		fmt.Fprintf(&b, "Taxa de entrega: %s\n", FormatBRL(s.DeliveryFee))
	}
	fmt.Fprintf(&b, "*Total: %s*\n", FormatBRL(s.Total))
	if label, ok := deliveryTypeLabels[s.DeliveryType]; ok {
		fmt.Fprintf(&b, "\n%s", label)
		if s.Address != "" {
			fmt.Fprintf(&b, ": %s", s.Address)
		}
		b.WriteString("\n")
	}
	if label, ok := paymentLabels[s.PaymentMethod]; ok {
		fmt.Fprintf(&b, "Pagamento: %s\n", label)
	}
	if s.Notes != "" {
		fmt.Fprintf(&b, "Obs: %s\n", s.Notes)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatBRL renders d as Brazilian currency, e.g. "R$ 1.234,50".
func FormatBRL(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}
	return "R$ " + sign + grouped.String() + "," + frac
}
