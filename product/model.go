package product

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Category    string             `json:"category" bson:"category"`
	Trending    bool               `json:"trending" bson:"trending"`
	CoverImage  string             `json:"coverImage" bson:"coverImage"`
	OldPrice    float64            `json:"oldPrice" bson:"oldPrice"`
	NewPrice    float64            `json:"newPrice" bson:"newPrice"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type CreateProductRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Trending    bool     `json:"trending"`
	CoverImage  string   `json:"coverImage" validate:"required"`
	OldPrice    *float64 `json:"oldPrice" validate:"required"`
	NewPrice    *float64 `json:"newPrice" validate:"required"`
}

func (r *CreateProductRequest) NewProduct(now time.Time) Product {
	return Product{
		ID:          primitive.NewObjectID(),
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Trending:    r.Trending,
		CoverImage:  r.CoverImage,
		OldPrice:    *r.OldPrice,
		NewPrice:    *r.NewPrice,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ProcessMongoReq describes a store call in the detail log.
type ProcessMongoReq struct {
	Collection string `json:"collection"`
	Method     string `json:"method"`
	Query      any    `json:"query,omitempty"`
	Document   any    `json:"document,omitempty"`
	Options    any    `json:"options,omitempty"`
}
