package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Time durations

	"figo_wallet/internal/auth"       // Authentication
	"figo_wallet/internal/domain"     // Importing domain models
	"figo_wallet/internal/middleware" // Identity and error helpers
	"figo_wallet/internal/store"      // Credential store
	"figo_wallet/internal/transfer"   // Balance movements
	"figo_wallet/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// UpdateWalletRequest changes profile fields; credentials have their own routes
type UpdateWalletRequest struct {
	Company *string `json:"company" binding:"omitempty,company"` // New owner key
}

// TransferRequest represents a transfer request
type TransferRequest struct {
	RecipientWallet string `json:"recipient_wallet" binding:"required"` // Destination wallet ID
	Amount          int64  `json:"amount" binding:"required"`           // Amount in minor units
}

// DepositRequest represents a deposit request
type DepositRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"` // Deposit amount in minor units
}

// TransactionPage is a page of ledger rows
type TransactionPage struct {
	Transactions []domain.Transaction `json:"transactions"` // List of transactions
	Page         int                  `json:"page"`         // Current page
	PageSize     int                  `json:"page_size"`    // Page size
	Total        int64                `json:"total"`        // Total transactions
	TotalPages   int                  `json:"total_pages"`  // Total pages
	Cached       bool                 `json:"cached"`       // Served from cache
}

// GetWalletHandler returns the caller's wallet
func GetWalletHandler(wallets *store.WalletStore, rdb redis.Cmdable, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		l := ownerLookup(c)
		cacheKey := utils.WalletCacheKey(l.ID) // Cache key for wallet
		var view domain.WalletView
		found, err := utils.GetCache(ctx, rdb, cacheKey, &view) // Try to get from cache
		// If found in cache and it is the wallet named in the path, return it
		if err == nil && found && sameCompany(view.Company, l.Company) {
			c.JSON(http.StatusOK, gin.H{"message": MsgSuccess, "wallet": view, "cached": true})
			return
		}
		// If not in cache, fetch from DB
		wallet, err := wallets.FindOne(ctx, l)
		if err != nil {
			middleware.Fail(c, walletError(err))
			return
		}
		view = wallet.View()
		_ = utils.SetCache(ctx, rdb, cacheKey, view, ttl) // Cache the wallet view
		c.JSON(http.StatusOK, gin.H{"message": MsgSuccess, "wallet": view, "cached": false})
	}
}

// UpdateWalletHandler updates the caller's profile
func UpdateWalletHandler(wallets *store.WalletStore, rdb redis.Cmdable, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateWalletRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.Fail(c, bindError(err))
			return
		}
		wallet, err := wallets.Update(c.Request.Context(), ownerLookup(c), store.Patch{Company: req.Company})
		if err != nil {
			middleware.Fail(c, walletError(err))
			return
		}
		invalidateWallets(c.Request.Context(), rdb, log, wallet.ID)
		c.JSON(http.StatusAccepted, gin.H{"message": MsgSuccess, "wallet": wallet.View()})
	}
}

// DeleteWalletHandler deletes the caller's wallet and ends the session
func DeleteWalletHandler(wallets *store.WalletStore, strategy auth.Strategy, rdb redis.Cmdable, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := ownerLookup(c)
		if err := wallets.Delete(c.Request.Context(), l); err != nil {
			middleware.Fail(c, walletError(err))
			return
		}
		if err := strategy.Revoke(c.Writer, c.Request); err != nil {
			log.WithError(err).Warn("Session revoke failed")
		}
		log.WithField("wallet_id", l.ID).Info("Wallet deleted")
		invalidateWallets(c.Request.Context(), rdb, log, l.ID)
		c.Status(http.StatusNoContent)
	}
}

// TransferHandler moves funds from the caller's wallet to another wallet
func TransferHandler(engine *transfer.Engine, minAmount int64, rdb redis.Cmdable, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TransferRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.Fail(c, bindError(err))
			return
		}
		if req.Amount < minAmount {
			middleware.Fail(c, domain.Validation("Amount must be at least "+strconv.FormatInt(minAmount, 10)+"!"))
			return
		}
		res, err := engine.Transfer(c.Request.Context(), ownerLookup(c), req.RecipientWallet, req.Amount)
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		// Invalidate wallet and transaction history cache for both wallets
		invalidateWallets(c.Request.Context(), rdb, log, res.Source.ID, res.Destination.ID)
		c.JSON(http.StatusAccepted, gin.H{
			"message":     MsgSuccess,
			"wallet":      res.Source.View(),
			"transaction": res.Transaction,
		})
	}
}

// DepositHandler funds the caller's wallet
func DepositHandler(engine *transfer.Engine, rdb redis.Cmdable, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DepositRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.Fail(c, bindError(err))
			return
		}
		res, err := engine.Deposit(c.Request.Context(), ownerLookup(c), req.Amount)
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		invalidateWallets(c.Request.Context(), rdb, log, res.Wallet.ID)
		c.JSON(http.StatusAccepted, gin.H{
			"message":     MsgSuccess,
			"wallet":      res.Wallet.View(),
			"transaction": res.Transaction,
		})
	}
}

// TransactionHistoryHandler returns the caller's ledger, newest first
func TransactionHistoryHandler(wallets *store.WalletStore, rdb redis.Cmdable, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		wallet, err := wallets.FindOne(ctx, ownerLookup(c))
		if err != nil {
			middleware.Fail(c, walletError(err))
			return
		}
		page, pageSize := pageParams(c)
		// Redis cache key
		cacheKey := "txhistory:wallet:" + wallet.ID + ":page:" + strconv.Itoa(page) + ":size:" + strconv.Itoa(pageSize)
		var cached TransactionPage
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			cached.Cached = true
			c.JSON(http.StatusOK, cached)
			return
		}
		txs, total, err := wallets.ListTransactions(ctx, store.TxQuery{WalletID: wallet.ID, Page: page, PageSize: pageSize})
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		resp := TransactionPage{
			Transactions: txs,
			Page:         page,
			PageSize:     pageSize,
			Total:        total,
			TotalPages:   store.TotalPages(total, pageSize),
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, ttl) // Cache the page
		c.JSON(http.StatusOK, resp)
	}
}
