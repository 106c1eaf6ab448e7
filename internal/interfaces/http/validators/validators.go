// Package validators registers the request binding rules shared by all handlers.
package validators

import (
	"github.com/go-playground/validator/v10"

	vo "github.com/orris-inc/lnsubs/internal/domain/plan/valueobjects"
	"github.com/orris-inc/lnsubs/internal/shared/id"
	"github.com/orris-inc/lnsubs/internal/shared/utils"
)

// Register installs the JSON tag name function and the custom tags
// billing_interval and plan_id on v.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(utils.JSONTagName)

	if err := v.RegisterValidation("billing_interval", billingInterval); err != nil {
		return err
	}
	return v.RegisterValidation("plan_id", planID)
}

func billingInterval(fl validator.FieldLevel) bool {
	_, err := vo.ParseBillingInterval(fl.Field().String())
	return err == nil
}

func planID(fl validator.FieldLevel) bool {
	return id.ValidatePublicID(fl.Field().String())
}
