// Package cart holds the pre-checkout line aggregator. A cart keeps at
// most one line per product; each line freezes the product's name and
// price at the moment it was added.
package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"dailypos/backend/internal/domain"
	"dailypos/backend/internal/unit"
)

type Line struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
}

type Cart struct {
	Lines []Line `json:"lines"`
}

func New() *Cart {
	return &Cart{}
}

// Add merges qty into an existing line for the product or appends a new
// line snapshotting the product's current name and price. A zero qty
// means one.
func (c *Cart) Add(product domain.Product, qty decimal.Decimal) error {
	if qty.IsZero() {
		qty = decimal.New(1, 0)
	}
	if qty.IsNegative() {
		return fmt.Errorf("quantity must be positive")
	}
	if !unit.AllowsFraction(product.Unit) && !qty.Equal(qty.Truncate(0)) {
		return fmt.Errorf("product %q sells in whole quantities", product.Name)
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == product.ID {
			c.Lines[i].Quantity = c.Lines[i].Quantity.Add(qty)
			return nil
		}
	}
	c.Lines = append(c.Lines, Line{
		ProductID:   product.ID,
		ProductName: product.Name,
		Price:       product.Price,
		Quantity:    qty,
	})
	return nil
}

// AddCombo expands a combo bundle into its component product lines. Each
// component is priced from the snapshot passed in products, not from the
// combo price; missing components are an error.
func (c *Cart) AddCombo(combo domain.Combo, products map[string]domain.Product) error {
	for _, item := range combo.Items {
		p, ok := products[item.ProductID]
		if !ok {
			return fmt.Errorf("combo %q references unknown product %s", combo.Name, item.ProductID)
		}
		if err := c.Add(p, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// SetQuantity replaces the quantity on the product's line. A qty of zero
// or less removes the line; an absent product id is a no-op. The line's
// price snapshot is never re-read.
func (c *Cart) SetQuantity(productID string, qty decimal.Decimal) {
	if qty.Sign() <= 0 {
		c.Remove(productID)
		return
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity = qty
			return
		}
	}
}

func (c *Cart) Remove(productID string) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

func (c *Cart) Clear() {
	c.Lines = nil
}

func (c *Cart) Empty() bool {
	return len(c.Lines) == 0
}

// Total is the exact sum of price times quantity over all lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Price.Mul(l.Quantity))
	}
	return total
}

// OrderLines converts the cart into order submission lines.
func (c *Cart) OrderLines() []domain.OrderLine {
	lines := make([]domain.OrderLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, domain.OrderLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return lines
}
