package handlers

import (
	"errors"

	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the ledger's binding tags (account_kind, movement_direction) to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding validator is not go-playground/validator")
	}
	if err := v.RegisterValidation("account_kind", func(fl validator.FieldLevel) bool {
		return domain.AccountKind(fl.Field().String()).Valid()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("movement_direction", func(fl validator.FieldLevel) bool {
		return domain.Direction(fl.Field().String()).Valid()
	})
}
