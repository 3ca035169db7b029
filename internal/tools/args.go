package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidation indicates tool arguments that do not match the command schema.
var ErrValidation = errors.New("validation error")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// command reads the "command" tag that selects the argument variant.
func command(args json.RawMessage) (string, error) {
	if len(bytes.TrimSpace(args)) == 0 {
		return "", validationf("missing arguments")
	}
	var env struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal(args, &env); err != nil {
		return "", validationf("arguments are not a JSON object: %v", err)
	}
	if env.Command == "" {
		return "", validationf("command is required")
	}
	return env.Command, nil
}

// decode strictly unmarshals args into dst and checks its validate tags.
func decode(args json.RawMessage, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return validationf("%v", err)
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return validationf("%v", err)
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, describeField(fe))
		}
		return validationf("%s", strings.Join(msgs, "; "))
	}
	return nil
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "len":
		return fmt.Sprintf("%s must have %s elements", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
