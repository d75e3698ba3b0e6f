package service

import (
	"context"
	"errors"

	"github.com/pairchat/pairchat/internal/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrEmptyMessage       = errors.New("message must contain text or an image")
)

// AuthService covers account and session operations.
type AuthService interface {
	// Signup creates an account and returns the user plus a session token.
	Signup(ctx context.Context, req *domain.SignupRequest) (*domain.UserResponse, string, error)
	// Login verifies credentials and returns the user plus a session token.
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.UserResponse, string, error)
	// Logout records the logout; session invalidation is the cookie's removal.
	Logout(ctx context.Context, userID string)
	// GetUser returns the user for an authenticated session check.
	GetUser(ctx context.Context, userID string) (*domain.UserResponse, error)
	// UpdateProfile stores a new profile picture and returns the updated user.
	UpdateProfile(ctx context.Context, userID string, req *domain.UpdateProfileRequest) (*domain.UserResponse, error)
}

// MessageService covers the contact list, history reads, and sending.
type MessageService interface {
	// ListContacts returns every user except the caller.
	ListContacts(ctx context.Context, userID string) ([]domain.UserResponse, error)
	// GetConversation returns the ordered history between caller and peer.
	GetConversation(ctx context.Context, userID, peerID string) ([]*domain.Message, error)
	// Send validates, persists, and then dispatches the message to the
	// realtime gateway. Dispatch never precedes the durable write.
	Send(ctx context.Context, senderID, receiverID string, req *domain.SendMessageRequest) (*domain.Message, error)
}

// Deliverer is the gateway side of delivery dispatch. Implemented by
// internal/hub; delivery is best-effort and at-most-once per online
// recipient.
type Deliverer interface {
	Deliver(senderID, receiverID string, msg *domain.Message) bool
}
