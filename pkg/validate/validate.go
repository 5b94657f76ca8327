// Package validate decodes JSON request bodies and checks them against
// go-playground/validator struct tags, reporting failures as 400 AppErrors.
package validate

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vamsi-1234/portfolio-engine/pkg/errors"
)

// MaxBodyBytes bounds every decoded request body.
const MaxBodyBytes = 64 << 10

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names rather than Go field names.
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return val
}

// Struct validates s and returns a 400 AppError describing every failed
// field, or nil.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Invalid("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.Invalid("%s", strings.Join(msgs, "; "))
}

// DecodeJSON reads r's body into dst and validates it.
func DecodeJSON(r *http.Request, dst any) error {
	if err := Unmarshal(io.LimitReader(r.Body, MaxBodyBytes), dst); err != nil {
		return err
	}
	return Struct(dst)
}

// Unmarshal decodes a single JSON value without validating it.
func Unmarshal(body io.Reader, dst any) error {
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if stderrors.Is(err, io.EOF) {
			return errors.Invalid("request body is required")
		}
		var typeErr *json.UnmarshalTypeError
		if stderrors.As(err, &typeErr) && typeErr.Field != "" {
			return errors.Invalid("%s must be of type %s", typeErr.Field, typeErr.Type)
		}
		return errors.Invalid("malformed JSON body")
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "dive":
		return fmt.Sprintf("%s contains invalid values", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
