package middleware

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/campushub/internal/app/models"
)

var registerOnce sync.Once

// RegisterValidators installs the custom rules on gin's validator. Field errors
// report JSON names instead of Go field names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		_ = v.RegisterValidation("role", validateRole)
		_ = v.RegisterValidation("memberrole", validateMemberRole)
	})
}

func validateRole(fl validator.FieldLevel) bool {
	return models.Role(fl.Field().String()).Valid()
}

func validateMemberRole(fl validator.FieldLevel) bool {
	return models.MemberRole(fl.Field().String()).Valid()
}
