package order

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sing3demons/go-order-admin/pkg/common-log/masking"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusAlmostDone Status = "almost_done"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusAlmostDone, StatusCompleted:
		return true
	}
	return false
}

type Address struct {
	Street  string `json:"street" bson:"street"`
	City    string `json:"city" bson:"city"`
	Country string `json:"country,omitempty" bson:"country,omitempty"`
	State   string `json:"state,omitempty" bson:"state,omitempty"`
	Zipcode string `json:"zipcode,omitempty" bson:"zipcode,omitempty"`
}

// Phone is stored as a number. JSON input may also carry it as a numeric string.
type Phone float64

func (p *Phone) UnmarshalJSON(b []byte) error {
	f, err := parseNumber("phone", b)
	if err != nil {
		return err
	}
	*p = Phone(f)
	return nil
}

// Price is a money amount, cast from a numeric string like Phone.
type Price float64

func (p *Price) UnmarshalJSON(b []byte) error {
	f, err := parseNumber("totalPrice", b)
	if err != nil {
		return err
	}
	*p = Price(f)
	return nil
}

func parseNumber(field string, b []byte) (float64, error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("%s %q is not a number", field, s)
		}
		return f, nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", field, err)
	}
	return f, nil
}

func (p Phone) String() string {
	return strconv.FormatFloat(float64(p), 'f', -1, 64)
}

type Order struct {
	ID                    primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	ProductCreationStatus Status             `json:"productCreationStatus" bson:"productCreationStatus"`
	Name                  string             `json:"name" bson:"name"`
	Email                 string             `json:"email" bson:"email"`
	Address               Address            `json:"address" bson:"address"`
	Phone                 Phone              `json:"phone" bson:"phone"`
	ProductIDs            []string           `json:"productIds" bson:"productIds"`
	TotalPrice            float64            `json:"totalPrice" bson:"totalPrice"`
	IsPaid                *bool              `json:"isPaid,omitempty" bson:"isPaid,omitempty"`
	IsDelivered           *bool              `json:"isDelivered,omitempty" bson:"isDelivered,omitempty"`
	CreatedAt             time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CreateOrderRequest is the body of POST /api/orders. Fields that are not listed
// here, isPaid and isDelivered included, are dropped.
type CreateOrderRequest struct {
	ProductCreationStatus Status        `json:"productCreationStatus" validate:"omitempty,oneof=not_started in_progress almost_done completed"`
	Name                  string        `json:"name" validate:"required"`
	Email                 string        `json:"email" validate:"required"`
	Address               *AddressInput `json:"address" validate:"required"`
	Phone                 *Phone        `json:"phone" validate:"required"`
	ProductIDs            []string      `json:"productIds" validate:"dive,required"`
	TotalPrice            *Price        `json:"totalPrice" validate:"required"`
}

type AddressInput struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	Country string `json:"country"`
	State   string `json:"state"`
	Zipcode string `json:"zipcode"`
}

// NewOrder builds the document to persist from a validated request.
func (r *CreateOrderRequest) NewOrder(now time.Time) Order {
	status := r.ProductCreationStatus
	if status == "" {
		status = StatusNotStarted
	}
	productIDs := append([]string{}, r.ProductIDs...)

	return Order{
		ID:                    primitive.NewObjectID(),
		ProductCreationStatus: status,
		Name:                  r.Name,
		Email:                 r.Email,
		Address: Address{
			Street:  r.Address.Street,
			City:    r.Address.City,
			Country: r.Address.Country,
			State:   r.Address.State,
			Zipcode: r.Address.Zipcode,
		},
		Phone:      *r.Phone,
		ProductIDs: productIDs,
		TotalPrice: float64(*r.TotalPrice),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// UpdateOrderFields lists the fields PATCH may replace. Nil means unchanged.
type UpdateOrderFields struct {
	IsPaid      *bool `json:"isPaid"`
	IsDelivered *bool `json:"isDelivered"`
}

func (f UpdateOrderFields) apply(o *Order) {
	if f.IsPaid != nil {
		v := *f.IsPaid
		o.IsPaid = &v
	}
	if f.IsDelivered != nil {
		v := *f.IsDelivered
		o.IsDelivered = &v
	}
}

// UpdateOrderRequest is the PATCH body. ProductCreationStatus is accepted from
// clients but never written.
type UpdateOrderRequest struct {
	UpdateOrderFields
	ProductCreationStatus *Status `json:"productCreationStatus,omitempty"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// maskOptions hides customer contact data in detail logs.
var maskOptions = []masking.MaskingOptionDto{
	{MaskingField: "email", MaskingType: masking.Email},
	{MaskingField: "phone", MaskingType: masking.Last4},
}

func prefixed(prefix string, options []masking.MaskingOptionDto) []masking.MaskingOptionDto {
	out := make([]masking.MaskingOptionDto, len(options))
	for i, o := range options {
		o.MaskingField = prefix + "." + o.MaskingField
		out[i] = o
	}
	return out
}
