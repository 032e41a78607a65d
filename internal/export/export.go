// Package export renders a day's orders into downloadable report formats.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"dailypos/backend/internal/domain"
)

// CSV renders one row per order item. The order total appears only on the
// first row of each order.
func CSV(storeName string, orders []domain.Order) (string, error) {
	if len(orders) == 0 {
		return fmt.Sprintf("No orders to export for %s\n", storeName), nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"Order ID", "Date", "Time", "Customer", "Product", "Quantity", "Unit Price", "Line Total", "Order Total", "Edited"}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, order := range orders {
		edited := "No"
		if order.IsEdited {
			edited = "Yes"
		}
		for i, item := range order.Items {
			orderTotal := ""
			if i == 0 {
				orderTotal = order.Total.StringFixed(2)
			}
			row := []string{
				order.ID,
				order.CreatedAt.Format("Jan 2, 2006"),
				order.CreatedAt.Format("15:04"),
				order.CustomerName,
				item.ProductName,
				item.Quantity.String(),
				item.Price.StringFixed(2),
				item.Price.Mul(item.Quantity).StringFixed(2),
				orderTotal,
				edited,
			}
			if err := w.Write(row); err != nil {
				return "", err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// TextSummary renders a plain-text day report: per-product quantities and
// revenue sorted by revenue, then the day's totals.
func TextSummary(storeName string, date string, orders []domain.Order, currencySymbol string) string {
	if currencySymbol == "" {
		currencySymbol = "$"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Store: %s\n", storeName)
	fmt.Fprintf(&b, "Date: %s\n", date)
	if len(orders) == 0 {
		b.WriteString("\nNo orders for this date.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Orders: %d\n\n", len(orders))
	b.WriteString("Items Sold:\n")

	type productAgg struct {
		name    string
		qty     decimal.Decimal
		revenue decimal.Decimal
	}
	byName := make(map[string]*productAgg)
	ordered := make([]*productAgg, 0)
	totalRevenue := decimal.Zero
	anyEdited := false
	for _, order := range orders {
		totalRevenue = totalRevenue.Add(order.Total)
		if order.IsEdited {
			anyEdited = true
		}
		for _, item := range order.Items {
			a, seen := byName[item.ProductName]
			if !seen {
				a = &productAgg{name: item.ProductName, qty: decimal.Zero, revenue: decimal.Zero}
				byName[item.ProductName] = a
				ordered = append(ordered, a)
			}
			a.qty = a.qty.Add(item.Quantity)
			a.revenue = a.revenue.Add(item.Price.Mul(item.Quantity))
		}
	}
	slices.SortStableFunc(ordered, func(a, b *productAgg) int {
		return b.revenue.Cmp(a.revenue)
	})
	for _, a := range ordered {
		fmt.Fprintf(&b, "- %s: %s units - %s%s\n", a.name, a.qty.String(), currencySymbol, a.revenue.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal Revenue: %s%s\n", currencySymbol, totalRevenue.StringFixed(2))
	if anyEdited {
		b.WriteString("\nNote: some orders were edited after creation\n")
	}
	return b.String()
}
