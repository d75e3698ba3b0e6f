package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pairchat/pairchat/internal/domain"
	"github.com/pairchat/pairchat/internal/middleware"
	"github.com/pairchat/pairchat/internal/service"
	"github.com/pairchat/pairchat/internal/storage"
	"github.com/pairchat/pairchat/internal/token"
	"github.com/pairchat/pairchat/pkg/response"
)

// AuthHandler exposes account and session endpoints.
type AuthHandler struct {
	auth         service.AuthService
	authRequired gin.HandlerFunc
	cookieMaxAge int
	cookieSecure bool
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(auth service.AuthService, mw *middleware.AuthMiddleware, cookieMaxAge int, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		authRequired: mw.RequireAuth(),
		cookieMaxAge: cookieMaxAge,
		cookieSecure: cookieSecure,
	}
}

// RegisterRoutes mounts the auth endpoints under /api/auth.
func (h *AuthHandler) RegisterRoutes(r *gin.Engine) {
	auth := r.Group("/api/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/check", h.authRequired, h.Check)
		auth.PUT("/update-profile", h.authRequired, h.UpdateProfile)
	}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req domain.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, sessionToken, err := h.auth.Signup(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			response.BadRequest(c, "Email already exists")
			return
		}
		response.InternalError(c, "Internal server error")
		return
	}

	h.setSessionCookie(c, sessionToken)
	response.Created(c, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, sessionToken, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.BadRequest(c, "Invalid credentials")
			return
		}
		response.InternalError(c, "Internal server error")
		return
	}

	h.setSessionCookie(c, sessionToken)
	response.Success(c, user)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.auth.Logout(c.Request.Context(), middleware.GetUserID(c))

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(token.CookieName, "", -1, "/", "", h.cookieSecure, true)
	response.Success(c, gin.H{"message": "Logged out successfully"})
}

func (h *AuthHandler) Check(c *gin.Context) {
	user, err := h.auth.GetUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "User not found")
			return
		}
		response.InternalError(c, "Internal server error")
		return
	}
	response.Success(c, user)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req domain.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Profile pic is required")
		return
	}

	user, err := h.auth.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidImage):
			response.BadRequest(c, "Invalid image data")
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, "User not found")
		default:
			response.InternalError(c, "Internal server error")
		}
		return
	}
	response.Success(c, user)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, sessionToken string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(token.CookieName, sessionToken, h.cookieMaxAge, "/", "", h.cookieSecure, true)
}
