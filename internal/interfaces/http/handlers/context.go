package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/lnsubs/internal/shared/constants"
	"github.com/orris-inc/lnsubs/internal/shared/errors"
)

// walletFromContext returns the wallet the API key middleware resolved.
func walletFromContext(c *gin.Context) (string, error) {
	wallet := c.GetString(constants.ContextKeyWallet)
	if wallet == "" {
		return "", errors.NewUnauthorizedError("missing api key")
	}
	return wallet, nil
}

func pathID(c *gin.Context, name, label string) (string, error) {
	value := c.Param(name)
	if value == "" {
		return "", errors.NewValidationError(label + " is required")
	}
	return value, nil
}
