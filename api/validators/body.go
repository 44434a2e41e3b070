package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeJSONBody decodes the request body into dst, rejecting unknown fields,
// then runs struct validation. Failures come back as VALIDATION_ERROR with
// per-field messages in the details.
func DecodeJSONBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "request body is required")
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").
			WithDetails(map[string]string{"body": decodeMessage(err)})
	}

	if err := validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "validation misconfigured")
		}

		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			details := make(map[string]string, len(fieldErrs))
			for _, fe := range fieldErrs {
				details[fieldName(fe)] = fieldMessage(fe)
			}
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed").
				WithDetails(details)
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}

	return nil
}

func decodeMessage(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &syntaxErr):
		return fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		return fmt.Sprintf("field %q must be of type %s", typeErr.Field, typeErr.Type)
	case errors.Is(err, io.EOF):
		return "request body is empty"
	case strings.HasPrefix(err.Error(), "json: unknown field"):
		return strings.TrimPrefix(err.Error(), "json: ")
	default:
		return "could not parse request body"
	}
}

func fieldName(fe validator.FieldError) string {
	parts := strings.SplitN(fe.Namespace(), ".", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid":
		return "must be a valid UUID"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
