package middleware

import (
	"figo_wallet/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
)

// AdminOnly lets through only wallets with the admin role. The role is
// read from the identity, which the strategy loaded fresh this request.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet, ok := MustIdentity(c) // Get identity from context
		if !ok {
			return
		}
		// Check if role is admin
		if !wallet.IsAdmin() {
			Fail(c, domain.Forbidden()) // If not admin, abort with forbidden status
			return
		}
		c.Next() // If admin, proceed to the next handler
	}
}
