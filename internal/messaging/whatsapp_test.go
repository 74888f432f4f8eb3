package messaging

import (
	"strings"
	"testing"

	"github.com/cardapio-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "R$ 0,00"},
		{"5", "R$ 5,00"},
		{"25.5", "R$ 25,50"},
		{"999.99", "R$ 999,99"},
		{"1234.5", "R$ 1.234,50"},
		{"1234567.891", "R$ 1.234.567,89"},
		{"-12.3", "R$ -12,30"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := FormatBRL(decimal.RequireFromString(tt.in))
			if got != tt.want {
				t.Errorf("FormatBRL(%s): got %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLink(t *testing.T) {
	got := Link("+55 (11) 98765-4321", DefaultGreeting)
	if !strings.HasPrefix(got, "https://wa.me/5511987654321?text=") {
		t.Fatalf("link prefix: got %q", got)
	}
	if strings.Contains(got, " ") {
		t.Errorf("link not escaped: %q", got)
	}
	if !strings.Contains(got, "Ol%C3%A1%21") {
		t.Errorf("greeting not encoded: %q", got)
	}
}

func TestLink_NoText(t *testing.T) {
	if got := Link("5511999990000", ""); got != "https://wa.me/5511999990000" {
		t.Errorf("got %q", got)
	}
}

func TestOrderMessage(t *testing.T) {
	msg := OrderMessage(OrderSummary{
		OrderNumber:   "PED123456",
		CustomerName:  "Ana",
		DeliveryType:  "delivery",
		PaymentMethod: "pix",
		Address:       "Rua A, 10 - Centro",
		Lines: []OrderLine{
			{Name: "Pizza", Quantity: 2, Total: decimal.RequireFromString("80")},
		},
		Subtotal:    decimal.RequireFromString("80"),
		DeliveryFee: decimal.RequireFromString("5"),
		Total:       decimal.RequireFromString("85"),
	})

	for _, want := range []string{
		"*Pedido PED123456*",
		"Cliente: Ana",
		"2x Pizza - R$ 80,00",
		"Taxa de entrega: R$ 5,00",
		"*Total: R$ 85,00*",
		"Entrega: Rua A, 10 - Centro",
		"Pagamento: PIX",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "Obs:") {
		t.Errorf("empty notes rendered:\n%s", msg)
	}
}

func TestOrderMessage_LabelsEveryCheckoutValue(t *testing.T) {
	for _, dt := range []string{enum.DeliveryTypeDelivery, enum.DeliveryTypePickup, enum.DeliveryTypeDineIn} {
		if _, ok := deliveryTypeLabels[dt]; !ok {
			t.Errorf("no label for delivery type %q", dt)
		}
	}
	for _, pm := range enum.PaymentMethods {
		label, ok := paymentLabels[pm]
		if !ok {
			t.Errorf("no label for payment method %q", pm)
			continue
		}
		msg := OrderMessage(OrderSummary{OrderNumber: "PDV1", DeliveryType: enum.DeliveryTypePickup, PaymentMethod: pm})
		if !strings.Contains(msg, "Pagamento: "+label) {
			t.Errorf("%s: message missing payment label:\n%s", pm, msg)
		}
	}
}

func TestLink_SpacesEncodedAsPercent20(t *testing.T) {
	got := Link("551100000000", "a b+c")
	if want := "https://wa.me/551100000000?text=a%20b%2Bc"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
