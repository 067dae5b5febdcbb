package checkout

import (
	"convpos/terminal/internal/domain"
)

// Cart holds the open order's line items. One line per product identity;
// adding an already present product bumps its quantity. Cart itself is not
// safe for concurrent use; Session serializes access to it.
type Cart struct {
	lines []domain.LineItem
	index map[string]int
}

func NewCart() *Cart {
	return &Cart{index: make(map[string]int)}
}

// AddOrIncrement folds a product into the cart. New products append a line
// with quantity 1 at the parsed unit price; known products increment the
// existing line and keep its original price.
func (c *Cart) AddOrIncrement(p domain.Product, unitPrice float64) domain.LineItem {
	key := p.Identity()
	if i, ok := c.index[key]; ok {
		c.lines[i].Quantity++
		return c.lines[i]
	}
	line := domain.LineItem{Product: p, Quantity: 1, UnitPrice: unitPrice}
	c.lines = append(c.lines, line)
	c.index[key] = len(c.lines) - 1
	return line
}

// SetQuantity overwrites a line's quantity. Quantities below one are the
// caller's concern; Session routes them through Remove instead.
func (c *Cart) SetQuantity(identity string, qty int) bool {
	i, ok := c.index[identity]
	if !ok {
		return false
	}
	c.lines[i].Quantity = qty
	return true
}

// Remove drops a line entirely.
func (c *Cart) Remove(identity string) bool {
	i, ok := c.index[identity]
	if !ok {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, identity)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].Product.Identity()] = j
	}
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
	c.index = make(map[string]int)
}

// Items returns a copy of the current lines in insertion order.
func (c *Cart) Items() []domain.LineItem {
	out := make([]domain.LineItem, len(c.lines))
	copy(out, c.lines)
	return out
}

// Subtotal is the sum of all line totals.
func (c *Cart) Subtotal() float64 {
	var total float64
	for _, li := range c.lines {
		total += li.LineTotal()
	}
	return total
}

// TotalUnits is the sum of all line quantities.
func (c *Cart) TotalUnits() int {
	var n int
	for _, li := range c.lines {
		n += li.Quantity
	}
	return n
}

func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}
