package request

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/edvin/containerstacks/internal/api/response"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidationError carries one entry per failed field rule.
type ValidationError struct {
	Fields []response.FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return "validation error: " + strings.Join(names, ", ")
}

func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			ve := &ValidationError{}
			for _, fe := range verrs {
				ve.Fields = append(ve.Fields, response.FieldError{Field: fe.Field(), Rule: fe.Tag()})
			}
			return ve
		}
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

// WriteDecodeError writes a 400 for an error returned by Decode.
func WriteDecodeError(w http.ResponseWriter, err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		response.WriteValidationError(w, ve.Error(), ve.Fields)
		return
	}
	response.WriteError(w, http.StatusBadRequest, err.Error())
}

func RequireID(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("missing required ID")
	}
	return s, nil
}

// QueryBool reads a boolean query parameter; anything unparseable is false.
func QueryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}
