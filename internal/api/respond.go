package api

import (
	"context" // Context for Redis operations
	"errors"  // Error inspection
	"strconv" // String conversion
	"strings" // String manipulation

	"figo_wallet/internal/domain"     // Importing domain models
	"figo_wallet/internal/middleware" // Error rendering
	"figo_wallet/internal/store"      // Wallet lookups
	"figo_wallet/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// MsgSuccess is the message of plain success envelopes
const MsgSuccess = "Success"

// ownerLookup scopes a lookup to the caller's wallet and the :company in the path
func ownerLookup(c *gin.Context) store.Lookup {
	return store.Lookup{ID: c.Param(middleware.OwnerParam), Company: c.Param("company")}
}

// walletError maps a missing wallet to InvalidAccount and passes the rest through
func walletError(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.InvalidAccount(domain.MsgSourceMissing)
	}
	return err
}

// pageParams reads page and page_size, falling back to defaults
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	return store.NormalizePage(page, size)
}

// invalidateWallets drops cached views, histories and admin listings of the given wallets
func invalidateWallets(ctx context.Context, rdb redis.Cmdable, log logrus.FieldLogger, walletIDs ...string) {
	keys := make([]string, 0, len(walletIDs))
	for _, id := range walletIDs {
		keys = append(keys, utils.WalletCacheKey(id))
	}
	if err := utils.DeleteCache(ctx, rdb, keys...); err != nil {
		log.WithError(err).Warn("Cache invalidation failed")
	}
	for _, id := range walletIDs {
		if err := utils.DeleteCachePattern(ctx, rdb, utils.TxHistoryCachePattern(id)); err != nil {
			log.WithError(err).Warn("Cache invalidation failed")
		}
	}
	if err := utils.DeleteCachePattern(ctx, rdb, utils.AdminCachePattern); err != nil {
		log.WithError(err).Warn("Cache invalidation failed")
	}
}

// sameCompany compares company keys the way the store normalizes them
func sameCompany(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
