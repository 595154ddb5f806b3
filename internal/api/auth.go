package api

import (
	"net/http" // HTTP status codes

	"figo_wallet/internal/auth"       // Authentication
	"figo_wallet/internal/domain"     // Importing domain models
	"figo_wallet/internal/middleware" // Identity and error helpers
	"figo_wallet/internal/store"      // Credential store

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// Success messages
const (
	MsgSignedUp        = "User Registered Successfully!"
	MsgLoggedIn        = "Logged In Successfully!"
	MsgLoggedOut       = "LOGGED OUT SUCCESSFULLY!"
	MsgEmailChanged    = "Email Changed Successfully. Please Log In!"
	MsgPasswordChanged = "Password Changed Successfully. Please Log In!"
)

// SignupRequest creates a wallet
type SignupRequest struct {
	Company  string `json:"company" binding:"required,company"`     // Unique owner key
	Email    string `json:"email" binding:"required,email"`         // Login email
	Password string `json:"password" binding:"required,min=6,max=30"` // Plaintext, hashed before storage
}

// LoginRequest carries credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"` // Login email
	Password string `json:"password" binding:"required"`    // Plaintext password
}

// ChangeEmailRequest moves a wallet to a new email
type ChangeEmailRequest struct {
	Email string `json:"email" binding:"required,email"` // New email
}

// ChangePasswordRequest replaces the password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`          // Must match the stored hash
	NewPassword     string `json:"new_password" binding:"required,min=6,max=30"` // Replacement
}

// LoginResponse is returned on successful login
type LoginResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Wallet  domain.WalletView `json:"wallet"`
	Token   string            `json:"token,omitempty"` // Only for the token strategy
}

// SignupHandler registers a new wallet
func SignupHandler(wallets *store.WalletStore, rdb redis.Cmdable, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SignupRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.Fail(c, bindError(err))
			return
		}
		wallet, err := wallets.Create(c.Request.Context(), store.NewWallet{
			Company:  req.Company,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			middleware.Fail(c, err) // Conflict or storage error
			return
		}
		log.WithFields(logrus.Fields{"wallet_id": wallet.ID, "company": wallet.Company}).Info("Wallet created")
		invalidateWallets(c.Request.Context(), rdb, log) // Admin listings are stale
		c.JSON(http.StatusCreated, gin.H{"message": MsgSignedUp, "wallet": wallet.View()})
	}
}

// LoginHandler checks credentials and issues the strategy's credential
func LoginHandler(svc *auth.Service, strategy auth.Strategy) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.Fail(c, bindError(err))
			return
		}
		wallet, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		token, err := strategy.Issue(c.Writer, c.Request, wallet)
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, LoginResponse{Status: MsgSuccess, Message: MsgLoggedIn, Wallet: wallet.View(), Token: token})
	}
}

// LogoutHandler ends the caller's session
func LogoutHandler(strategy auth.Strategy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := strategy.Revoke(c.Writer, c.Request); err != nil {
			middleware.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": MsgLoggedOut})
	}
}

// ChangeEmailHandler changes the caller's email and ends the session
func ChangeEmailHandler(svc *auth.Service, strategy auth.Strategy, rdb redis.Cmdable, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet, ok := scopedIdentity(c)
		if !ok {
			return
		}
		var req ChangeEmailRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.Fail(c, bindError(err))
			return
		}
		if _, err := svc.ChangeEmail(c.Request.Context(), wallet, req.Email); err != nil {
			middleware.Fail(c, err)
			return
		}
		if err := strategy.Revoke(c.Writer, c.Request); err != nil {
			log.WithError(err).Warn("Session revoke failed")
		}
		invalidateWallets(c.Request.Context(), rdb, log, wallet.ID)
		c.JSON(http.StatusOK, gin.H{"message": MsgEmailChanged})
	}
}

// ChangePasswordHandler changes the caller's password and ends the session
func ChangePasswordHandler(svc *auth.Service, strategy auth.Strategy, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet, ok := scopedIdentity(c)
		if !ok {
			return
		}
		var req ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.Fail(c, bindError(err))
			return
		}
		if _, err := svc.ChangePassword(c.Request.Context(), wallet, req.CurrentPassword, req.NewPassword); err != nil {
			middleware.Fail(c, err)
			return
		}
		if err := strategy.Revoke(c.Writer, c.Request); err != nil {
			log.WithError(err).Warn("Session revoke failed")
		}
		c.JSON(http.StatusOK, gin.H{"message": MsgPasswordChanged})
	}
}

// scopedIdentity returns the caller if the :company in the path is theirs
func scopedIdentity(c *gin.Context) (*domain.Wallet, bool) {
	wallet, ok := middleware.MustIdentity(c)
	if !ok {
		return nil, false
	}
	l := ownerLookup(c)
	if wallet.ID != l.ID || !sameCompany(wallet.Company, l.Company) {
		middleware.Fail(c, domain.InvalidAccount(domain.MsgSourceMissing))
		return nil, false
	}
	return wallet, true
}
