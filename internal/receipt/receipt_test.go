package receipt

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func sampleReceipt(aud Audience) Receipt {
	table := int32(4)
	return Receipt{
		RestaurantName: "Cantina",
		OrderNumber:    "PDV000123",
		TableNumber:    &table,
		Audience:       aud,
		PaymentMethod:  "pix",
		Lines: []Line{
			{Name: "Pizza", Quantity: 2, UnitPrice: decimal.RequireFromString("40"), Total: decimal.RequireFromString("80")},
		},
		Subtotal: decimal.RequireFromString("80"),
		Discount: decimal.RequireFromString("10"),
		Total:    decimal.RequireFromString("70"),
	}
}

func TestRender_Customer(t *testing.T) {
	out := Render(sampleReceipt(AudienceCustomer))
	for _, want := range []string{"Pedido PDV000123", "Mesa 4", "2x Pizza", "R$ 80,00", "R$ -10,00", "TOTAL", "R$ 70,00"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRender_KitchenOmitsPrices(t *testing.T) {
	out := Render(sampleReceipt(AudienceKitchen))
	if !strings.Contains(out, "2x Pizza") {
		t.Errorf("missing line in:\n%s", out)
	}
	if strings.Contains(out, "R$") {
		t.Errorf("kitchen copy has prices:\n%s", out)
	}
}

func TestLogPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPrinter(log.New(&buf, "", 0))

	if err := p.Print(context.Background(), sampleReceipt(AudienceCustomer)); err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(buf.String(), "receipt PDV000123 (customer)") {
		t.Errorf("log output: %q", buf.String())
	}
}

func TestLogPrinter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewLogPrinter(nil).Print(ctx, Receipt{}); err == nil {
		t.Error("expected error for cancelled context")
	}
}
