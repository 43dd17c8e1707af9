package validation

import (
	"errors"
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-backend/internal/apperror"
)

var validate = newValidator()

func newValidator() *validatorv10.Validate {
	v := validatorv10.New()
	// report json names instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Bind parses the JSON body into out and validates it. Failures come back as
// InvalidInput errors naming the first offending field.
func Bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperror.Wrap(err, apperror.InvalidInput, "invalid request body")
	}
	return Struct(out)
}

func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validatorv10.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperror.New(apperror.InvalidInput, "%s is %s", fe.Field(), describe(fe)).WithField(fe.Field())
	}
	return apperror.Wrap(err, apperror.InvalidInput, "invalid request")
}

func describe(fe validatorv10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "min", "gte":
		return "below the minimum of " + fe.Param()
	case "max", "lte":
		return "above the maximum of " + fe.Param()
	case "oneof":
		return "not one of " + fe.Param()
	default:
		return "invalid"
	}
}
