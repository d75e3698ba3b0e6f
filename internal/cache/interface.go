package cache

import (
	"context"
	"errors"
	"time"

	"github.com/pairchat/pairchat/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// ContactListResult is the cached payload for a user's contact list.
type ContactListResult struct {
	Users []domain.UserResponse `json:"users"`
}

// ContactCache caches the sidebar contact list per user.
type ContactCache interface {
	BuildKey(userID string) string
	Get(ctx context.Context, key string) (*ContactListResult, error)
	Set(ctx context.Context, key string, result *ContactListResult, ttl time.Duration) error
	// Invalidate drops all contact-list entries; called when the user set
	// changes (signup, profile update).
	Invalidate(ctx context.Context) error
	Close() error
}
