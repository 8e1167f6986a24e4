package admin

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/sing3demons/go-order-admin/order"
)

const notAvailable = "N/A"

var Columns = []string{
	"ID", "User Name", "Email", "Phone", "Product IDs", "Street", "City",
	"State", "Zipcode", "Created At", "Total", "Paid", "Delivered",
}

// Render draws the current state: a status line while loading or failed,
// otherwise the orders table.
func (v *View) Render() string {
	switch v.State() {
	case StateLoading:
		return "Loading..."
	case StateFailed:
		return fmt.Sprintf("Error loading orders: %v", v.Err())
	}
	return RenderTable(v.Orders(), -1)
}

// RenderTable lays orders out in aligned columns. The row at index selected is
// prefixed with a marker.
func RenderTable(orders []order.Order, selected int) string {
	if len(orders) == 0 {
		return "No orders found."
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  \t"+strings.Join(Columns, "\t"))
	for i, o := range orders {
		marker := " "
		if i == selected {
			marker = ">"
		}
		fmt.Fprintln(w, marker+" \t"+strings.Join(Row(o), "\t"))
	}
	_ = w.Flush()
	return b.String()
}

// Row is the cell text of o, in Columns order.
func Row(o order.Order) []string {
	phone := notAvailable
	if o.Phone != 0 {
		phone = o.Phone.String()
	}
	createdAt := notAvailable
	if !o.CreatedAt.IsZero() {
		createdAt = o.CreatedAt.Format("2006-01-02")
	}

	return []string{
		orNA(o.ID.Hex()),
		orNA(o.Name),
		orNA(o.Email),
		phone,
		orNA(strings.Join(o.ProductIDs, ", ")),
		orNA(o.Address.Street),
		orNA(o.Address.City),
		orNA(o.Address.State),
		orNA(o.Address.Zipcode),
		createdAt,
		"$" + strconv.FormatFloat(o.TotalPrice, 'f', -1, 64),
		yesNo(o.IsPaid),
		yesNo(o.IsDelivered),
	}
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func yesNo(b *bool) string {
	switch {
	case b == nil:
		return notAvailable
	case *b:
		return "Yes"
	default:
		return "No"
	}
}
