package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pairchat/pairchat/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One connection so every query sees the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&domain.UserModel{}, &domain.MessageModel{}))
	return db
}

func TestUserRepo_CreateAndGet(t *testing.T) {
	req := require.New(t)
	repo := NewGormUserRepository(newTestDB(t))
	ctx := context.Background()

	user := &domain.User{Email: "alice@example.com", FullName: "Alice", PasswordHash: "hash"}
	req.NoError(repo.Create(ctx, user))
	req.NotEmpty(user.ID)

	byID, err := repo.GetByID(ctx, user.ID)
	req.NoError(err)
	req.Equal("alice@example.com", byID.Email)

	byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
	req.NoError(err)
	req.Equal(user.ID, byEmail.ID)
}

func TestUserRepo_DuplicateEmail(t *testing.T) {
	req := require.New(t)
	repo := NewGormUserRepository(newTestDB(t))
	ctx := context.Background()

	req.NoError(repo.Create(ctx, &domain.User{Email: "alice@example.com", FullName: "Alice", PasswordHash: "h"}))

	err := repo.Create(ctx, &domain.User{Email: "alice@example.com", FullName: "Other", PasswordHash: "h"})
	req.ErrorIs(err, ErrEmailExists)
}

func TestUserRepo_GetMissing(t *testing.T) {
	repo := NewGormUserRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "nope")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepo_ListOthersExcludesAndOrders(t *testing.T) {
	req := require.New(t)
	repo := NewGormUserRepository(newTestDB(t))
	ctx := context.Background()

	me := &domain.User{Email: "me@example.com", FullName: "Me", PasswordHash: "h"}
	carol := &domain.User{Email: "carol@example.com", FullName: "Carol", PasswordHash: "h"}
	bob := &domain.User{Email: "bob@example.com", FullName: "Bob", PasswordHash: "h"}
	for _, u := range []*domain.User{me, carol, bob} {
		req.NoError(repo.Create(ctx, u))
	}

	others, err := repo.ListOthers(ctx, me.ID)
	req.NoError(err)
	req.Len(others, 2)
	req.Equal("Bob", others[0].FullName)
	req.Equal("Carol", others[1].FullName)
}

func TestUserRepo_UpdateProfilePic(t *testing.T) {
	req := require.New(t)
	repo := NewGormUserRepository(newTestDB(t))
	ctx := context.Background()

	user := &domain.User{Email: "alice@example.com", FullName: "Alice", PasswordHash: "h"}
	req.NoError(repo.Create(ctx, user))

	req.NoError(repo.UpdateProfilePic(ctx, user.ID, "/uploads/avatars/x.png"))

	updated, err := repo.GetByID(ctx, user.ID)
	req.NoError(err)
	req.Equal("/uploads/avatars/x.png", updated.ProfilePic)

	req.ErrorIs(repo.UpdateProfilePic(ctx, "nope", "/x.png"), ErrUserNotFound)
}

func TestMessageRepo_ConversationBothDirectionsOrdered(t *testing.T) {
	req := require.New(t)
	repo := NewGormMessageRepository(newTestDB(t))
	ctx := context.Background()

	// Spaced out so created_at ordering is unambiguous.
	texts := []struct {
		sender, receiver, text string
	}{
		{"A", "B", "first"},
		{"B", "A", "second"},
		{"A", "B", "third"},
		{"A", "C", "unrelated"},
	}
	for _, m := range texts {
		req.NoError(repo.Create(ctx, &domain.Message{SenderID: m.sender, ReceiverID: m.receiver, Text: m.text}))
		time.Sleep(2 * time.Millisecond)
	}

	history, err := repo.GetConversation(ctx, "A", "B")
	req.NoError(err)
	req.Len(history, 3)
	req.Equal("first", history[0].Text)
	req.Equal("second", history[1].Text)
	req.Equal("third", history[2].Text)

	// Same history regardless of which side asks.
	mirror, err := repo.GetConversation(ctx, "B", "A")
	req.NoError(err)
	req.Len(mirror, 3)
	req.Equal(history[0].ID, mirror[0].ID)
}

func TestMessageRepo_CreateAssignsIdentity(t *testing.T) {
	req := require.New(t)
	repo := NewGormMessageRepository(newTestDB(t))
	ctx := context.Background()

	msg := &domain.Message{SenderID: "A", ReceiverID: "B", Text: "hi"}
	req.NoError(repo.Create(ctx, msg))
	req.NotEmpty(msg.ID)
	req.False(msg.CreatedAt.IsZero())
}

func TestMessageRepo_EmptyConversation(t *testing.T) {
	repo := NewGormMessageRepository(newTestDB(t))

	history, err := repo.GetConversation(context.Background(), "A", "B")
	require.NoError(t, err)
	require.Empty(t, history)
}
