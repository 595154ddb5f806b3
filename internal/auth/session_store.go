package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"figo_wallet/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrSessionNotFound is returned when no live session has the given ID
var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side record behind a session cookie
type Session struct {
	ID        string    `json:"id"`
	WalletID  string    `json:"wallet_id"`
	Email     string    `json:"email"`
	Stamp     string    `json:"stamp"` // Credential stamp at login
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"` // Absolute expiry, checked on every access
}

// Expired reports whether the session is past its absolute expiry
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionStore persists sessions
type SessionStore interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Touch(ctx context.Context, id string, ttl time.Duration) error
	Destroy(ctx context.Context, id string) error
	// Sweep removes sessions past their absolute expiry and returns how many
	Sweep(ctx context.Context, now time.Time) (int, error)
}

const sessionKeyPrefix = "session:"

// RedisSessionStore keeps sessions as JSON values with a sliding TTL
type RedisSessionStore struct {
	rdb redis.Cmdable
}

// NewRedisSessionStore builds a session store over rdb
func NewRedisSessionStore(rdb redis.Cmdable) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Get implements SessionStore
func (s *RedisSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	var sess Session
	found, err := utils.GetCache(ctx, s.rdb, sessionKey(id), &sess)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !found {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

// Save implements SessionStore
func (s *RedisSessionStore) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	if err := utils.SetCache(ctx, s.rdb, sessionKey(sess.ID), sess, ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Touch implements SessionStore
func (s *RedisSessionStore) Touch(ctx context.Context, id string, ttl time.Duration) error {
	ok, err := s.rdb.Expire(ctx, sessionKey(id), ttl).Result()
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

// Destroy implements SessionStore
func (s *RedisSessionStore) Destroy(ctx context.Context, id string) error {
	if err := utils.DeleteCache(ctx, s.rdb, sessionKey(id)); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

// Sweep implements SessionStore
func (s *RedisSessionStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	iter := s.rdb.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		var sess Session
		found, err := utils.GetCache(ctx, s.rdb, key, &sess)
		if err != nil || !found {
			continue // Gone already or unreadable
		}
		if !sess.Expired(now) {
			continue
		}
		if err := utils.DeleteCache(ctx, s.rdb, key); err != nil {
			return removed, fmt.Errorf("sweep session: %w", err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scan sessions: %w", err)
	}
	return removed, nil
}

// RunSweeper purges expired sessions every interval until ctx is done
func RunSweeper(ctx context.Context, store SessionStore, interval time.Duration, log logrus.FieldLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.Sweep(ctx, now)
			if err != nil {
				log.WithError(err).Warn("Session sweep failed")
				continue
			}
			if n > 0 {
				log.WithField("removed", n).Debug("Expired sessions swept")
			}
		}
	}
}
