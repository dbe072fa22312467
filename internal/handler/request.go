package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/adlane/eventhub/internal/apperror"
	"github.com/adlane/eventhub/internal/model"
)

// maxBodyBytes caps request bodies. 1 MiB is generous for a JSON API that
// stores image URLs rather than images.
const maxBodyBytes = 1 << 20

// validate is shared across handlers. The validator caches struct metadata
// internally, so one instance is both safe and faster than per-request ones.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// EventImage validates as its primary URL so string rules like `url`
	// apply to it directly. An unset image maps to "" and omitempty skips it.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if img, ok := field.Interface().(model.EventImage); ok {
			return img.URL
		}
		return nil
	}, model.EventImage{})

	return v
}

// decodeJSON reads and validates a request body into dst. dst must be a
// pointer to a struct carrying `validate` tags. All failure modes come back
// as apperror.ErrValidation so writeError turns them into a 400.
func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		switch {
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "request body is required")
		default:
			return apperror.ValidationFailed("body", "invalid JSON: "+err.Error())
		}
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return apperror.ValidationFailed(strings.ToLower(fe.Field()), validationMessage(fe))
		}
		return apperror.ValidationFailed("body", "invalid request body")
	}

	return nil
}

// validationMessage renders one tag failure as a sentence the frontend can
// show directly. Unlisted tags fall back to naming the tag.
func validationMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "url":
		return field + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
