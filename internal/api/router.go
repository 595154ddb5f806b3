package api

import (
	"net/http" // HTTP status codes
	"time"     // Time durations

	"figo_wallet/internal/auth"       // Authentication
	"figo_wallet/internal/middleware" // Middleware
	"figo_wallet/internal/store"      // Credential store
	"figo_wallet/internal/transfer"   // Balance movements

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// Deps are the collaborators the HTTP layer needs
type Deps struct {
	Wallets           *store.WalletStore
	Engine            *transfer.Engine
	Auth              *auth.Service
	Strategy          auth.Strategy
	Redis             redis.Cmdable
	Log               logrus.FieldLogger
	CacheTTL          time.Duration
	MinTransferAmount int64
	TrustedProxies    []string
}

// NewRouter wires every route onto a fresh gin engine
func NewRouter(d Deps) (*gin.Engine, error) {
	RegisterValidators()

	r := gin.New() // Gin router instance
	r.Use(middleware.Recovery(d.Log), middleware.RequestLogger(d.Log), middleware.ErrorHandler(d.Log))
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		return nil, err
	}
	r.NoRoute(middleware.NoRoute())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusAccepted, gin.H{"message": "Welcome to the Figo Wallet API"})
	})

	v1 := r.Group("/api/v1")

	// Wallet routes
	wallets := v1.Group("/wallets")
	wallets.POST("/signup", SignupHandler(d.Wallets, d.Redis, d.Log)) // Registration endpoint
	wallets.POST("/login", LoginHandler(d.Auth, d.Strategy))          // Login endpoint

	// Everything below requires an authenticated caller
	protected := wallets.Group("", middleware.Authenticate(d.Strategy))
	protected.POST("/logout", LogoutHandler(d.Strategy))

	owner := protected.Group("/:company", middleware.AuthorizedOwner())
	owner.GET("", GetWalletHandler(d.Wallets, d.Redis, d.CacheTTL))
	owner.PATCH("", UpdateWalletHandler(d.Wallets, d.Redis, d.Log))
	owner.DELETE("", DeleteWalletHandler(d.Wallets, d.Strategy, d.Redis, d.Log))
	owner.POST("/transfer", TransferHandler(d.Engine, d.MinTransferAmount, d.Redis, d.Log))
	owner.POST("/deposit", DepositHandler(d.Engine, d.Redis, d.Log))
	owner.GET("/transactions", TransactionHistoryHandler(d.Wallets, d.Redis, d.CacheTTL))
	owner.PATCH("/change-email", ChangeEmailHandler(d.Auth, d.Strategy, d.Redis, d.Log))
	owner.PATCH("/change-password", ChangePasswordHandler(d.Auth, d.Strategy, d.Log))

	// Admin routes (protected, admin only)
	admin := v1.Group("/admin", middleware.Authenticate(d.Strategy), middleware.AdminOnly())
	admin.GET("/wallets", ListWalletsHandler(d.Wallets, d.Redis, d.CacheTTL))
	admin.GET("/transactions", ListTransactionsHandler(d.Wallets, d.Redis, d.CacheTTL))

	return r, nil
}
