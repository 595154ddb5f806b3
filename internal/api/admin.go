package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String manipulation
	"time"     // Time durations

	"figo_wallet/internal/domain"     // Importing domain models
	"figo_wallet/internal/middleware" // Error helpers
	"figo_wallet/internal/store"      // Credential store
	"figo_wallet/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// WalletPage is a page of wallets for admins
type WalletPage struct {
	Wallets    []domain.WalletView `json:"wallets"`     // List of wallets
	Page       int                 `json:"page"`        // Current page
	PageSize   int                 `json:"page_size"`   // Page size
	Total      int64               `json:"total"`       // Total number of wallets
	TotalPages int                 `json:"total_pages"` // Total pages
	Cached     bool                `json:"cached"`      // Served from cache
}

// adminCacheKey builds a cache key from the listed query params
func adminCacheKey(c *gin.Context, prefix string, params ...string) string {
	keyParts := make([]string, 0, len(params)) // Parts of the cache key
	for _, k := range params {
		keyParts = append(keyParts, k+"="+c.Query(k)) // Append key-value pair
	}
	return prefix + strings.Join(keyParts, ":")
}

// ListWalletsHandler returns wallets filtered by company, email and balance range
func ListWalletsHandler(wallets *store.WalletStore, rdb redis.Cmdable, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize := pageParams(c)
		cacheKey := adminCacheKey(c, "admin:wallets:", "company", "email", "min_balance", "max_balance", "sort") +
			":page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
		var cached WalletPage
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			cached.Cached = true
			c.JSON(http.StatusOK, cached)
			return
		}

		q := store.ListQuery{
			Company:  c.Query("company"),
			Email:    c.Query("email"),
			Sort:     c.Query("sort"),
			Page:     page,
			PageSize: pageSize,
		}
		var err error
		if q.MinBalance, err = int64Query(c, "min_balance"); err != nil {
			middleware.Fail(c, err)
			return
		}
		if q.MaxBalance, err = int64Query(c, "max_balance"); err != nil {
			middleware.Fail(c, err)
			return
		}
		list, total, err := wallets.List(ctx, q)
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		resp := WalletPage{
			Wallets:    make([]domain.WalletView, len(list)),
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: store.TotalPages(total, pageSize),
		}
		// Map wallets to their public view
		for i := range list {
			resp.Wallets[i] = list[i].View()
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, ttl) // Cache the response for future requests
		c.JSON(http.StatusOK, resp)
	}
}

// ListTransactionsHandler returns all transactions, with optional filtering by wallet, type, or date
func ListTransactionsHandler(wallets *store.WalletStore, rdb redis.Cmdable, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize := pageParams(c)
		cacheKey := adminCacheKey(c, "admin:txs:", "wallet_id", "type", "from", "to") +
			":page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
		var cached TransactionPage
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			cached.Cached = true
			c.JSON(http.StatusOK, cached)
			return
		}

		q := store.TxQuery{
			WalletID: c.Query("wallet_id"),
			Type:     c.Query("type"),
			Page:     page,
			PageSize: pageSize,
		}
		var err error
		if q.From, err = timeQuery(c, "from"); err != nil {
			middleware.Fail(c, err)
			return
		}
		if q.To, err = timeQuery(c, "to"); err != nil {
			middleware.Fail(c, err)
			return
		}
		txs, total, err := wallets.ListTransactions(ctx, q)
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
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, ttl) // Cache the response for future requests
		c.JSON(http.StatusOK, resp)
	}
}

func int64Query(c *gin.Context, key string) (*int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, domain.Validation(key + " must be an integer!")
	}
	return &v, nil
}

// timeQuery accepts RFC 3339 timestamps or plain dates
func timeQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, domain.Validation(key + " must be a date (YYYY-MM-DD) or RFC 3339 timestamp!")
}
