package cart

import "github.com/google/uuid"

// Action is a cart mutation. Screens express every change to their cart as an
// Action and hand it to Apply, so there is one update path per session.
type Action interface {
	apply(c *Cart)
}

// AddItem adds one unit of Item.
type AddItem struct {
	Item Item
}

// ChangeQuantity adds Delta to the line for MenuItemID.
type ChangeQuantity struct {
	MenuItemID uuid.UUID
	Delta      int32
}

// RemoveItem deletes the line for MenuItemID.
type RemoveItem struct {
	MenuItemID uuid.UUID
}

// Clear empties the cart.
type Clear struct{}

func (a AddItem) apply(c *Cart)        { c.Add(a.Item) }
func (a ChangeQuantity) apply(c *Cart) { c.ChangeQuantity(a.MenuItemID, a.Delta) }
func (a RemoveItem) apply(c *Cart)     { c.Remove(a.MenuItemID) }
func (Clear) apply(c *Cart)            { c.Clear() }

// Apply runs each action against the cart in order.
func (c *Cart) Apply(actions ...Action) {
	for _, a := range actions {
		a.apply(c)
	}
}
