package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"restaurant-api/internal/domain"
)

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9\s\-\(\)]{8,20}$`)
	registerOnce sync.Once
)

// registerValidators installs the custom rules on gin's validator and makes it report json field names.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("notpast", func(fl validator.FieldLevel) bool {
			t, ok := fl.Field().Interface().(time.Time)
			return ok && !t.Before(time.Now())
		})
		_ = v.RegisterValidation("orderstatus", func(fl validator.FieldLevel) bool {
			return domain.OrderStatus(fl.Field().String()).Valid()
		})
	})
}

// bindError turns a binding failure into a domain.ValidationError whose message names every offending field.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return domain.ValidationError{Message: strings.Join(msgs, "; ")}
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return domain.ValidationError{Message: fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type)}
	}
	var timeErr *time.ParseError
	if errors.As(err, &timeErr) {
		return domain.ValidationError{Message: "pickup_time must be an ISO 8601 date"}
	}
	return domain.ValidationError{Message: "invalid request body"}
}

// fieldPath drops the struct name from the namespace: "createOrderRequest.items[0].quantity" -> "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	f := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", f, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", f, fe.Param())
	case "email":
		return f + " must be a valid email"
	case "phone":
		return f + " must be a valid phone number"
	case "notpast":
		return f + " must not be in the past"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", f, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID, got %q", f, fe.Value())
	case "orderstatus":
		return fmt.Sprintf("%s must be one of %s", f, strings.Join(statusNames(), ", "))
	default:
		return fmt.Sprintf("%s failed %s", f, fe.Tag())
	}
}

func statusNames() []string {
	out := make([]string, len(domain.OrderStatuses))
	for i, s := range domain.OrderStatuses {
		out[i] = string(s)
	}
	return out
}
