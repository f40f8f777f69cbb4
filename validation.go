package wasinn

import (
	stdErrors "errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	nnerrors "github.com/wasinn-dev/wasinn-sdk/domain/errors"
)

// validate is shared; building a validator caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// tensortype accepts the four wire tensor types.
	_ = v.RegisterValidation("tensortype", func(fl validator.FieldLevel) bool {
		return TensorType(fl.Field().Uint()).Valid()
	})
	return v
}

// validateStruct runs the struct tags of s and reports the first failing
// field as a ConfigError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if stdErrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &nnerrors.ConfigError{
			Field: fe.Field(),
			Err:   fmt.Errorf("failed %q check (value %v)", fe.Tag(), fe.Value()),
		}
	}
	return &nnerrors.ConfigError{Err: err}
}
