package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/wasinn-dev/wasinn-sdk/domain/entities"
	nnerrors "github.com/wasinn-dev/wasinn-sdk/domain/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("graphencoding", func(fl validator.FieldLevel) bool {
		_, err := entities.ParseGraphEncoding(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("executiontarget", func(fl validator.FieldLevel) bool {
		_, err := entities.ParseExecutionTarget(fl.Field().String())
		return err == nil
	})
	return v
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &nnerrors.ConfigError{
			Field: fe.Namespace(),
			Err:   fmt.Errorf("failed %q check (value %v)", fe.Tag(), fe.Value()),
		}
	}
	return &nnerrors.ConfigError{Err: err}
}
