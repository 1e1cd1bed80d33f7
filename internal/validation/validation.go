// Package validation adds the request field rules used in binding tags.
package validation

import (
	"errors"
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	nationalIDPattern = regexp.MustCompile(`^\d{6,12}$`)
	mobilePattern     = regexp.MustCompile(`^3\d{9}$`)

	once    sync.Once
	onceErr error
)

// NationalID reports whether s is a Colombian cedula: 6 to 12 digits.
func NationalID(s string) bool { return nationalIDPattern.MatchString(s) }

// MobileCO reports whether s is a 10 digit Colombian mobile number.
func MobileCO(s string) bool { return mobilePattern.MatchString(s) }

// Register installs the national_id and mobile_co tags on gin's validator.
// It is safe to call more than once.
func Register() error {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			onceErr = errors.New("gin binding validator is not go-playground/validator")
			return
		}
		if err := v.RegisterValidation("national_id", func(fl validator.FieldLevel) bool {
			return NationalID(fl.Field().String())
		}); err != nil {
			onceErr = err
			return
		}
		onceErr = v.RegisterValidation("mobile_co", func(fl validator.FieldLevel) bool {
			return MobileCO(fl.Field().String())
		})
	})
	return onceErr
}
