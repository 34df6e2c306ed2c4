package request

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

var alphanumext = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// RegisterValidations adds the parameter types of the query surface to v
func RegisterValidations(v *validator.Validate) (err error) {
	err = v.RegisterValidation("alphanumext", func(fl validator.FieldLevel) bool {
		return alphanumext.MatchString(fl.Field().String())
	})
	if err != nil {
		return
	}

	return v.RegisterValidation("iso8601", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.RFC3339, fl.Field().String())
		return err == nil
	})
}
