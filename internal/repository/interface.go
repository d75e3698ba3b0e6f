package repository

import (
	"context"
	"errors"

	"github.com/pairchat/pairchat/internal/domain"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

// UserRepository defines the interface for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// ListOthers returns every user except the given one, for the contact list.
	ListOthers(ctx context.Context, excludeID string) ([]*domain.User, error)
	// UpdateProfilePic sets the profile picture URL for a user.
	UpdateProfilePic(ctx context.Context, userID, url string) error
}

// MessageRepository is the durable append-only message log. Messages are
// written once and never mutated.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	// GetConversation returns all messages between two users, in both
	// directions, ordered by creation time ascending.
	GetConversation(ctx context.Context, userID, peerID string) ([]*domain.Message, error)
}
