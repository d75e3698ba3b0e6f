package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pairchat/pairchat/internal/audit"
	"github.com/pairchat/pairchat/internal/cache"
	"github.com/pairchat/pairchat/internal/domain"
	"github.com/pairchat/pairchat/internal/repository"
	"github.com/pairchat/pairchat/internal/storage"
	"github.com/pairchat/pairchat/pkg/log"
)

const messageImagePrefix = "messages"

type messageServiceImpl struct {
	messages  repository.MessageRepository
	users     repository.UserRepository
	store     storage.Storage
	deliverer Deliverer
	contacts  cache.ContactCache
	cacheTTL  time.Duration
	sf        singleflight.Group
}

// NewMessageService creates the message service. The contact cache may be
// nil, in which case ListContacts always reads through to the repository.
func NewMessageService(
	messages repository.MessageRepository,
	users repository.UserRepository,
	store storage.Storage,
	deliverer Deliverer,
	contacts cache.ContactCache,
	cacheTTL time.Duration,
) MessageService {
	return &messageServiceImpl{
		messages:  messages,
		users:     users,
		store:     store,
		deliverer: deliverer,
		contacts:  contacts,
		cacheTTL:  cacheTTL,
	}
}

// ListContacts returns every user except the caller, read through the
// contact cache with concurrent identical lookups collapsed.
func (s *messageServiceImpl) ListContacts(ctx context.Context, userID string) ([]domain.UserResponse, error) {
	if s.contacts == nil {
		return s.listContactsFromRepo(ctx, userID)
	}

	key := s.contacts.BuildKey(userID)
	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		cached, err := s.contacts.Get(ctx, key)
		if err == nil {
			return cached.Users, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Ctx(ctx).Warn().Err(err).Msg("contact cache get error")
		}

		users, err := s.listContactsFromRepo(ctx, userID)
		if err != nil {
			return nil, err
		}

		// Store in cache without blocking the response.
		go func() {
			cacheCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.contacts.Set(cacheCtx, key, &cache.ContactListResult{Users: users}, s.cacheTTL); err != nil {
				log.L().Warn().Err(err).Msg("contact cache set error")
			}
		}()

		return users, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]domain.UserResponse), nil
}

func (s *messageServiceImpl) listContactsFromRepo(ctx context.Context, userID string) ([]domain.UserResponse, error) {
	users, err := s.users.ListOthers(ctx, userID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to list contacts")
		return nil, err
	}

	responses := make([]domain.UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, u.ToResponse())
	}
	return responses, nil
}

// GetConversation returns the full ordered history between caller and peer.
func (s *messageServiceImpl) GetConversation(ctx context.Context, userID, peerID string) ([]*domain.Message, error) {
	messages, err := s.messages.GetConversation(ctx, userID, peerID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str(log.FieldUserID, userID).
			Str(log.FieldPeerID, peerID).
			Msg("failed to load conversation")
		return nil, err
	}
	return messages, nil
}

// Send is the delivery dispatch routine: validate, resolve the image to a
// durable URL, persist, and only after the durable write succeeds hand the
// message to the gateway. A failed write aborts the dispatch so the live
// socket never shows a message that a history fetch would not.
func (s *messageServiceImpl) Send(ctx context.Context, senderID, receiverID string, req *domain.SendMessageRequest) (*domain.Message, error) {
	l := log.Ctx(ctx)

	if !req.HasContent() {
		return nil, ErrEmptyMessage
	}

	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var imageURL string
	if req.Image != "" {
		url, err := storage.UploadDataURL(ctx, s.store, messageImagePrefix, req.Image)
		if err != nil {
			l.Warn().Err(err).Str(log.FieldUserID, senderID).Msg("message image upload failed")
			return nil, err
		}
		imageURL = url
	}

	msg := &domain.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       req.Text,
		Image:      imageURL,
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		l.Error().Err(err).
			Str(log.FieldUserID, senderID).
			Str(log.FieldPeerID, receiverID).
			Msg("failed to persist message")
		return nil, err
	}

	delivered := s.deliverer.Deliver(senderID, receiverID, msg)
	l.Debug().
		Str(log.FieldMessageID, msg.ID).
		Bool("delivered", delivered).
		Msg("message dispatched")

	audit.LogWithDetail(ctx, audit.ActionSendMessage, senderID, receiverID, "message sent")

	return msg, nil
}
