package v1

import (
	"github.com/gin-gonic/gin"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/types"
)

// storeID returns the store resolved by the store middleware
func storeID(c *gin.Context) string {
	return types.GetStoreID(c.Request.Context())
}

// requireParam reads a path parameter and records a validation error when it is empty
func requireParam(c *gin.Context, name string) (string, bool) {
	value := c.Param(name)
	if value == "" {
		_ = c.Error(ierr.NewError("missing path parameter "+name).
			WithHintf("%s is required", name).
			Mark(ierr.ErrValidation))
		return "", false
	}
	return value, true
}

func bindError(err error, hint string) error {
	return ierr.WithError(err).
		WithHint(hint).
		Mark(ierr.ErrValidation)
}
