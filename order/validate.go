package order

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the required fields of a create request.
func (r *CreateOrderRequest) Validate() error {
	if r == nil {
		return &ValidationError{Reason: "body is required"}
	}

	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Reason: err.Error(), Err: err}
	}

	fe := verrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "CreateOrderRequest.")
	return &ValidationError{Field: field, Reason: reason(fe), Err: err}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return "failed on " + fe.Tag()
	}
}

// parseID turns a hex order id into an ObjectID.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, &ValidationError{Field: "id", Reason: fmt.Sprintf("%q is not a valid order id", id), Err: err}
	}
	return oid, nil
}
