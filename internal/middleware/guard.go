package middleware

import (
	"github.com/gin-gonic/gin" // Gin web framework
)

// OwnerParam names the path parameter and query value pinned to the caller
const OwnerParam = "id"

// AuthorizedOwner pins the request to the caller's own wallet: the "id"
// path parameter and query value are overwritten with the identity's ID,
// whatever the client sent. Handlers then scope every lookup by that ID.
func AuthorizedOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet, ok := MustIdentity(c) // Must run after Authenticate
		if !ok {
			return
		}
		setParam(c, OwnerParam, wallet.ID)

		q := c.Request.URL.Query()
		q.Set(OwnerParam, wallet.ID)
		c.Request.URL.RawQuery = q.Encode()

		c.Next()
	}
}

func setParam(c *gin.Context, key, value string) {
	for i := range c.Params {
		if c.Params[i].Key == key {
			c.Params[i].Value = value
			return
		}
	}
	c.Params = append(c.Params, gin.Param{Key: key, Value: value})
}
