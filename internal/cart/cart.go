// Package cart implements the per-session shopping cart shared by the
// customer menu and the PDV screen.
package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is the catalog data a cart needs to add a menu item.
type Item struct {
	ID               uuid.UUID
	Name             string
	Price            decimal.Decimal
	PromotionalPrice *decimal.Decimal
}

// EffectivePrice returns the promotional price when one is set, else the price.
func EffectivePrice(item Item) decimal.Decimal {
	if item.PromotionalPrice != nil {
		return *item.PromotionalPrice
	}
	return item.Price
}

// Line is one cart entry. Name and UnitPrice are captured when the item is
// first added and do not follow later catalog edits.
type Line struct {
	MenuItemID uuid.UUID
	Name       string
	UnitPrice  decimal.Decimal
	Quantity   int32
}

// Total returns UnitPrice × Quantity.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity))
}

// MaxQuantity is the largest quantity a single line may hold.
const MaxQuantity = 9999

// Cart is an ordered list of lines. Lines keep insertion order; every line
// has a quantity in [1, MaxQuantity].
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add increments the line for item, or appends a new line with quantity 1.
// A line already at MaxQuantity is left unchanged.
func (c *Cart) Add(item Item) {
	if i := c.index(item.ID); i >= 0 {
		if c.lines[i].Quantity < MaxQuantity {
			c.lines[i].Quantity++
		}
		return
	}
	c.lines = append(c.lines, Line{
		MenuItemID: item.ID,
		Name:       item.Name,
		UnitPrice:  EffectivePrice(item),
		Quantity:   1,
	})
}

// ChangeQuantity adds delta to the line for id. A resulting quantity <= 0
// removes the line; one above MaxQuantity saturates at MaxQuantity. Unknown
// ids are ignored.
func (c *Cart) ChangeQuantity(id uuid.UUID, delta int32) {
	i := c.index(id)
	if i < 0 {
		return
	}
	q := int64(c.lines[i].Quantity) + int64(delta)
	switch {
	case q <= 0:
		c.removeAt(i)
		return
	case q > MaxQuantity:
		q = MaxQuantity
	}
	c.lines[i].Quantity = int32(q)
}

// Remove deletes the line for id, if any.
func (c *Cart) Remove(id uuid.UUID) {
	if i := c.index(id); i >= 0 {
		c.removeAt(i)
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Total is recomputed from the lines on every call.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Total())
	}
	return total
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) index(id uuid.UUID) int {
	for i, l := range c.lines {
		if l.MenuItemID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}
