package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const janeBody = `{
	"name": "Jane",
	"email": "jane@x.com",
	"address": {"street": "1 Main St", "city": "Springfield"},
	"phone": 5551234,
	"productIds": ["p1"],
	"totalPrice": 42.50
}`

func decodeCreate(t *testing.T, body string) *CreateOrderRequest {
	t.Helper()
	var req CreateOrderRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return &req
}

func TestPhoneUnmarshal(t *testing.T) {
	var p Phone
	require.NoError(t, json.Unmarshal([]byte(`5551234`), &p))
	assert.Equal(t, Phone(5551234), p)

	require.NoError(t, json.Unmarshal([]byte(`" 5551234 "`), &p))
	assert.Equal(t, "5551234", p.String())

	assert.Error(t, json.Unmarshal([]byte(`"call me"`), &p))
	assert.Error(t, json.Unmarshal([]byte(`true`), &p))
}

func TestPriceUnmarshal(t *testing.T) {
	var p Price
	require.NoError(t, json.Unmarshal([]byte(`42.5`), &p))
	assert.Equal(t, Price(42.5), p)

	require.NoError(t, json.Unmarshal([]byte(`"42.5"`), &p))
	assert.Equal(t, Price(42.5), p)

	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &p))
	assert.Error(t, json.Unmarshal([]byte(`true`), &p))
}

func TestNumericStringsAreCastAlike(t *testing.T) {
	req := decodeCreate(t, `{"name":"a","email":"b","address":{"street":"s","city":"c"},"phone":"5551234","totalPrice":"42.5"}`)
	require.NoError(t, req.Validate())

	o := req.NewOrder(time.Now())
	assert.Equal(t, 5551234.0, float64(o.Phone))
	assert.Equal(t, 42.5, o.TotalPrice)
}

func TestValidateAcceptsJane(t *testing.T) {
	req := decodeCreate(t, janeBody)
	require.NoError(t, req.Validate())

	o := req.NewOrder(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	assert.Equal(t, StatusNotStarted, o.ProductCreationStatus)
	assert.Equal(t, 42.50, o.TotalPrice)
	assert.Equal(t, []string{"p1"}, o.ProductIDs)
	assert.False(t, o.ID.IsZero())
	assert.Equal(t, o.CreatedAt, o.UpdatedAt)
	assert.Nil(t, o.IsPaid)
	assert.Nil(t, o.IsDelivered)
}

func TestValidateRejectsMissingRequiredFields(t *testing.T) {
	for _, field := range []string{"name", "email", "phone", "totalPrice"} {
		t.Run(field, func(t *testing.T) {
			err := decodeCreate(t, janeWithout(t, field)).Validate()

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, field, ve.Field)
			assert.Equal(t, http.StatusBadRequest, StatusCode(err))
		})
	}
}

func TestValidateAddress(t *testing.T) {
	tests := map[string]struct {
		address string
		field   string
	}{
		"missing address": {address: ``, field: "address"},
		"missing street":  {address: `"address": {"city": "Springfield"},`, field: "address.street"},
		"missing city":    {address: `"address": {"street": "1 Main St"},`, field: "address.city"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			body := fmt.Sprintf(`{"name":"Jane","email":"jane@x.com",%s"phone":1,"totalPrice":1}`, tt.address)
			var ve *ValidationError
			require.ErrorAs(t, decodeCreate(t, body).Validate(), &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestValidateStatusAndProductIDs(t *testing.T) {
	req := decodeCreate(t, janeBody)
	req.ProductCreationStatus = "shipped"
	var ve *ValidationError
	require.ErrorAs(t, req.Validate(), &ve)
	assert.Equal(t, "productCreationStatus", ve.Field)

	req = decodeCreate(t, janeBody)
	req.ProductCreationStatus = StatusAlmostDone
	req.ProductIDs = nil
	assert.NoError(t, req.Validate(), "an empty product list is allowed")

	req.ProductIDs = []string{"p1", ""}
	require.ErrorAs(t, req.Validate(), &ve)
	assert.Equal(t, "productIds[1]", ve.Field)

	var nilReq *CreateOrderRequest
	assert.True(t, IsValidation(nilReq.Validate()))
}

func TestZeroTotalPriceIsPresent(t *testing.T) {
	req := decodeCreate(t, `{"name":"a","email":"b","address":{"street":"s","city":"c"},"phone":0,"totalPrice":0}`)
	assert.NoError(t, req.Validate())
}

func TestCreateDropsUnknownFields(t *testing.T) {
	req := decodeCreate(t, `{"name":"a","email":"b","address":{"street":"s","city":"c"},"phone":1,"totalPrice":1,"isPaid":true}`)
	o := req.NewOrder(time.Now())
	assert.Nil(t, o.IsPaid)
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusOK, StatusCode(nil))
	assert.Equal(t, http.StatusBadRequest, StatusCode(fmt.Errorf("wrap: %w", &ValidationError{Field: "id"})))
	assert.Equal(t, http.StatusNotFound, StatusCode(fmt.Errorf("wrap: %w", ErrNotFound)))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(errors.New("connection reset")))
}

func TestParseID(t *testing.T) {
	_, err := parseID("not-an-id")
	assert.True(t, IsValidation(err))

	oid, err := parseID("65a1f0c2e4b0a1b2c3d4e5f6")
	require.NoError(t, err)
	assert.Equal(t, "65a1f0c2e4b0a1b2c3d4e5f6", oid.Hex())
}

func TestUpdateRequestKeepsProductCreationStatusApart(t *testing.T) {
	var req UpdateOrderRequest
	require.NoError(t, json.Unmarshal([]byte(`{"isPaid":true,"productCreationStatus":"completed"}`), &req))

	require.NotNil(t, req.IsPaid)
	assert.True(t, *req.IsPaid)
	assert.Nil(t, req.IsDelivered)
	require.NotNil(t, req.ProductCreationStatus)

	var o Order
	req.UpdateOrderFields.apply(&o)
	assert.Equal(t, Status(""), o.ProductCreationStatus)
	assert.True(t, *o.IsPaid)
}

// janeWithout returns the Jane order body without key.
func janeWithout(t *testing.T, key string) string {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(janeBody), &m))
	delete(m, key)
	b, err := json.Marshal(m)
	require.NoError(t, err)
	return string(b)
}
