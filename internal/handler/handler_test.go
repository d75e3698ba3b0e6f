package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/pairchat/pairchat/internal/domain"
	"github.com/pairchat/pairchat/internal/middleware"
	"github.com/pairchat/pairchat/internal/service"
	"github.com/pairchat/pairchat/internal/token"
)

type fakeAuthService struct {
	signupErr error
	loginErr  error
	user      *domain.UserResponse
}

func (s *fakeAuthService) Signup(ctx context.Context, req *domain.SignupRequest) (*domain.UserResponse, string, error) {
	if s.signupErr != nil {
		return nil, "", s.signupErr
	}
	return s.user, "session-token", nil
}

func (s *fakeAuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.UserResponse, string, error) {
	if s.loginErr != nil {
		return nil, "", s.loginErr
	}
	return s.user, "session-token", nil
}

func (s *fakeAuthService) Logout(ctx context.Context, userID string) {}

func (s *fakeAuthService) GetUser(ctx context.Context, userID string) (*domain.UserResponse, error) {
	if s.user == nil {
		return nil, service.ErrUserNotFound
	}
	return s.user, nil
}

func (s *fakeAuthService) UpdateProfile(ctx context.Context, userID string, req *domain.UpdateProfileRequest) (*domain.UserResponse, error) {
	return s.user, nil
}

type fakeMessageService struct {
	sendErr  error
	sent     []*domain.SendMessageRequest
	contacts []domain.UserResponse
	history  []*domain.Message
}

func (s *fakeMessageService) ListContacts(ctx context.Context, userID string) ([]domain.UserResponse, error) {
	return s.contacts, nil
}

func (s *fakeMessageService) GetConversation(ctx context.Context, userID, peerID string) ([]*domain.Message, error) {
	return s.history, nil
}

func (s *fakeMessageService) Send(ctx context.Context, senderID, receiverID string, req *domain.SendMessageRequest) (*domain.Message, error) {
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	s.sent = append(s.sent, req)
	return &domain.Message{ID: "m1", SenderID: senderID, ReceiverID: receiverID, Text: req.Text}, nil
}

type testEnv struct {
	router   *gin.Engine
	tokens   *token.Manager
	auth     *fakeAuthService
	messages *fakeMessageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := token.NewManager("test-secret", "pairchat", time.Hour)
	require.NoError(t, err)
	mw := middleware.NewAuthMiddleware(tokens)

	auth := &fakeAuthService{user: &domain.UserResponse{ID: "A", Email: "a@example.com", FullName: "Alice"}}
	messages := &fakeMessageService{}

	r := gin.New()
	NewAuthHandler(auth, mw, 3600, false).RegisterRoutes(r)
	NewMessageHandler(messages, mw).RegisterRoutes(r)

	return &testEnv{router: r, tokens: tokens, auth: auth, messages: messages}
}

func (e *testEnv) do(t *testing.T, method, path, body string, authenticated bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		tok, err := e.tokens.Generate("A", "a@example.com")
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: token.CookieName, Value: tok})
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestSignup_SetsSessionCookie(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/signup",
		`{"full_name":"Alice","email":"a@example.com","password":"secret1"}`, false)
	req.Equal(http.StatusCreated, w.Code)

	resp := decodeEnvelope(t, w)
	req.True(resp.Success)

	cookies := w.Result().Cookies()
	req.Len(cookies, 1)
	req.Equal(token.CookieName, cookies[0].Name)
	req.Equal("session-token", cookies[0].Value)
	req.True(cookies[0].HttpOnly)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	env.auth.signupErr = service.ErrEmailExists

	w := env.do(t, http.MethodPost, "/api/auth/signup",
		`{"full_name":"Alice","email":"a@example.com","password":"secret1"}`, false)
	req.Equal(http.StatusBadRequest, w.Code)
	req.Equal("Email already exists", decodeEnvelope(t, w).Error.Message)
}

func TestSignup_ShortPasswordRejectedByBinding(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/signup",
		`{"full_name":"Alice","email":"a@example.com","password":"short"}`, false)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	env.auth.loginErr = service.ErrInvalidCredentials

	w := env.do(t, http.MethodPost, "/api/auth/login",
		`{"email":"a@example.com","password":"wrong-pass"}`, false)
	req.Equal(http.StatusBadRequest, w.Code)
	req.Equal("Invalid credentials", decodeEnvelope(t, w).Error.Message)
}

func TestLogout_ClearsCookie(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/logout", "", true)
	req.Equal(http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	req.Len(cookies, 1)
	req.Equal(token.CookieName, cookies[0].Name)
	req.Empty(cookies[0].Value)
	req.Negative(cookies[0].MaxAge)
}

func TestCheck_RequiresSession(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/auth/check", "", false)
	req.Equal(http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/auth/check", "", true)
	req.Equal(http.StatusOK, w.Code)

	var user domain.UserResponse
	req.NoError(json.Unmarshal(decodeEnvelope(t, w).Data, &user))
	req.Equal("A", user.ID)
}

func TestCheck_RejectsBadCookie(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/check", nil)
	req.AddCookie(&http.Cookie{Name: token.CookieName, Value: "garbage"})
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListContacts_RequiresSession(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	env.messages.contacts = []domain.UserResponse{{ID: "B", FullName: "Bob"}}

	w := env.do(t, http.MethodGet, "/api/messages/users", "", false)
	req.Equal(http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/messages/users", "", true)
	req.Equal(http.StatusOK, w.Code)

	var contacts []domain.UserResponse
	req.NoError(json.Unmarshal(decodeEnvelope(t, w).Data, &contacts))
	req.Len(contacts, 1)
	req.Equal("B", contacts[0].ID)
}

func TestGetConversation_ReturnsHistory(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	env.messages.history = []*domain.Message{
		{ID: "1", SenderID: "A", ReceiverID: "B", Text: "hi"},
		{ID: "2", SenderID: "B", ReceiverID: "A", Text: "hey"},
	}

	w := env.do(t, http.MethodGet, "/api/messages/B", "", true)
	req.Equal(http.StatusOK, w.Code)

	var history []*domain.Message
	req.NoError(json.Unmarshal(decodeEnvelope(t, w).Data, &history))
	req.Len(history, 2)
	req.Equal("1", history[0].ID)
}

func TestSendMessage_Created(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/messages/send/B", `{"text":"hello"}`, true)
	req.Equal(http.StatusCreated, w.Code)

	var msg domain.Message
	req.NoError(json.Unmarshal(decodeEnvelope(t, w).Data, &msg))
	req.Equal("A", msg.SenderID)
	req.Equal("B", msg.ReceiverID)
	req.Equal("hello", msg.Text)
	req.Len(env.messages.sent, 1)
}

func TestSendMessage_EmptyRejected(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	env.messages.sendErr = service.ErrEmptyMessage

	w := env.do(t, http.MethodPost, "/api/messages/send/B", `{}`, true)
	req.Equal(http.StatusBadRequest, w.Code)
	req.Equal("Message must contain text or an image", decodeEnvelope(t, w).Error.Message)
}

func TestSendMessage_UnknownReceiver(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	env.messages.sendErr = service.ErrUserNotFound

	w := env.do(t, http.MethodPost, "/api/messages/send/ghost", `{"text":"hi"}`, true)
	req.Equal(http.StatusNotFound, w.Code)
}

func TestSendMessage_RequiresSession(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/messages/send/B", `{"text":"hi"}`, false)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Empty(t, env.messages.sent)
}
