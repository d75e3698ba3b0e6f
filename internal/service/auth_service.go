package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/pairchat/pairchat/internal/audit"
	"github.com/pairchat/pairchat/internal/cache"
	"github.com/pairchat/pairchat/internal/domain"
	"github.com/pairchat/pairchat/internal/repository"
	"github.com/pairchat/pairchat/internal/storage"
	"github.com/pairchat/pairchat/internal/token"
	"github.com/pairchat/pairchat/pkg/log"
)

const avatarPrefix = "avatars"

type authServiceImpl struct {
	repo     repository.UserRepository
	tokens   *token.Manager
	store    storage.Storage
	contacts cache.ContactCache
}

// NewAuthService creates the auth service. The contact cache may be nil; it
// is only touched to invalidate sidebar entries after user-set changes.
func NewAuthService(repo repository.UserRepository, tokens *token.Manager, store storage.Storage, contacts cache.ContactCache) AuthService {
	return &authServiceImpl{
		repo:     repo,
		tokens:   tokens,
		store:    store,
		contacts: contacts,
	}
}

func (s *authServiceImpl) Signup(ctx context.Context, req *domain.SignupRequest) (*domain.UserResponse, string, error) {
	l := log.Ctx(ctx)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		l.Error().Err(err).Msg("failed to hash password")
		return nil, "", err
	}

	user := &domain.User{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, "", ErrEmailExists
		}
		l.Error().Err(err).Msg("failed to create user")
		return nil, "", err
	}

	sessionToken, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to generate token after signup")
		return nil, "", err
	}

	s.invalidateContacts(ctx)
	audit.Log(ctx, audit.ActionSignup, user.ID, "user signed up")

	resp := user.ToResponse()
	return &resp, sessionToken, nil
}

func (s *authServiceImpl) Login(ctx context.Context, req *domain.LoginRequest) (*domain.UserResponse, string, error) {
	l := log.Ctx(ctx)

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			audit.LogWithDetail(ctx, audit.ActionLoginFailed, "", req.Email, "login failed: user not found")
			return nil, "", ErrInvalidCredentials
		}
		l.Error().Err(err).Msg("failed to get user by email")
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		audit.LogWithDetail(ctx, audit.ActionLoginFailed, user.ID, req.Email, "login failed: wrong password")
		return nil, "", ErrInvalidCredentials
	}

	sessionToken, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to generate token after login")
		return nil, "", err
	}

	audit.Log(ctx, audit.ActionLogin, user.ID, "user logged in")

	resp := user.ToResponse()
	return &resp, sessionToken, nil
}

func (s *authServiceImpl) Logout(ctx context.Context, userID string) {
	audit.Log(ctx, audit.ActionLogout, userID, "user logged out")
}

func (s *authServiceImpl) GetUser(ctx context.Context, userID string) (*domain.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		log.Ctx(ctx).Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to get user")
		return nil, err
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *authServiceImpl) UpdateProfile(ctx context.Context, userID string, req *domain.UpdateProfileRequest) (*domain.UserResponse, error) {
	l := log.Ctx(ctx)

	url, err := storage.UploadDataURL(ctx, s.store, avatarPrefix, req.ProfilePic)
	if err != nil {
		l.Warn().Err(err).Str(log.FieldUserID, userID).Msg("profile picture upload failed")
		return nil, err
	}

	if err := s.repo.UpdateProfilePic(ctx, userID, url); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to update profile picture")
		return nil, err
	}

	s.invalidateContacts(ctx)
	audit.Log(ctx, audit.ActionUpdateProfile, userID, "profile picture updated")

	return s.GetUser(ctx, userID)
}

func (s *authServiceImpl) invalidateContacts(ctx context.Context) {
	if s.contacts == nil {
		return
	}
	if err := s.contacts.Invalidate(ctx); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("contact cache invalidation failed")
	}
}
