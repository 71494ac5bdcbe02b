package services

import (
	"github.com/go-playground/validator/v10"

	"minicrm/internal/apperror"
)

// validate is shared; validator caches struct metadata per instance.
var validate = validator.New()

// wrapUnexpected passes domain errors through and wraps everything else as
// an UnexpectedError.
func wrapUnexpected(err error, message string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	return apperror.Unexpected(err, message)
}

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}
