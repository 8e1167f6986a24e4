// Package storefront turns products into what the shop front shows and keeps
// the visitor's cart.
package storefront

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/sing3demons/go-order-admin/product"
)

const descriptionLimit = 80

// Card is the product tile of a listing.
type Card struct {
	ProductID   string
	Link        string
	ImageURL    string
	Title       string
	Description string
	NewPrice    string
	OldPrice    string
}

// NewCard builds the tile of p. Cover images are resolved under assetBase.
func NewCard(p product.Product, assetBase string) Card {
	id := p.ID.Hex()
	return Card{
		ProductID:   id,
		Link:        "/products/" + id,
		ImageURL:    ImageURL(assetBase, p.CoverImage),
		Title:       p.Title,
		Description: Truncate(p.Description, descriptionLimit),
		NewPrice:    price(p.NewPrice),
		OldPrice:    price(p.OldPrice),
	}
}

func ImageURL(assetBase, name string) string {
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return name
	}
	base := strings.TrimRight(assetBase, "/")
	return base + "/" + path.Join("books", name)
}

// Truncate cuts s to limit characters and marks the cut with "...".
func Truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

func price(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', -1, 64)
}

func (c Card) String() string {
	return fmt.Sprintf("%s\n%s\n%s  (was %s)\n%s", c.Title, c.Description, c.NewPrice, c.OldPrice, c.Link)
}
