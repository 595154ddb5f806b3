package middleware

import (
	"figo_wallet/internal/auth"   // Authentication strategies
	"figo_wallet/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
)

const identityKey = "identity" // Context key of the authenticated wallet

// Authenticate resolves the caller with strategy and stores the wallet in context
func Authenticate(strategy auth.Strategy) gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet, err := strategy.Authenticate(c.Request) // Verify credential against the live wallet
		if err != nil {
			Fail(c, err) // Abort with the strategy's error
			return
		}
		c.Set(identityKey, wallet) // Store identity in context
		c.Next()                   // Proceed to the next handler
	}
}

// CurrentIdentity returns the authenticated wallet, if any
func CurrentIdentity(c *gin.Context) (*domain.Wallet, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return nil, false
	}
	wallet, ok := v.(*domain.Wallet)
	return wallet, ok && wallet != nil
}

// MustIdentity returns the authenticated wallet or aborts with 401
func MustIdentity(c *gin.Context) (*domain.Wallet, bool) {
	wallet, ok := CurrentIdentity(c)
	if !ok {
		Fail(c, domain.Unauthorized(domain.ReasonInvalid, domain.MsgNotLoggedIn))
	}
	return wallet, ok
}
