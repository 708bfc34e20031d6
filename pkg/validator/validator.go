// Package validator registers custom rules on gin's binding engine so DTO
// tags can reference them.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Register installs the custom validations. Call once at startup.
func Register() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// uuid_param: a string field that must parse as a UUID
	_ = v.RegisterValidation("uuid_param", func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		_, err := uuid.Parse(s)
		return err == nil
	})

	// dgt0: a decimal field that must be strictly positive
	_ = v.RegisterValidation("dgt0", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		return d.IsPositive()
	})

	// dgte0: a decimal field that must be zero or positive
	_ = v.RegisterValidation("dgte0", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		return !d.IsNegative()
	})
}
