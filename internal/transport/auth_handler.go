package transport

import (
	"errors"
	"net/http"
	"time"

	"backoffice/internal/middleware"
	"backoffice/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents the token refresh and logout payload
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type ResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type NewPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// SettingsRequest changes the caller's profile; absent fields are kept
type SettingsRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Password    *string `json:"password"`
	NewPassword *string `json:"newPassword" validate:"omitempty,min=6"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         interface{} `json:"user"`
}

// RefreshResponse represents the token refresh response
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// CookieConfig describes the HttpOnly cookie carrying the access token
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// AuthHandler handles account and session requests
type AuthHandler struct {
	auth   service.AuthService
	cookie CookieConfig
	logger *zap.Logger
}

func NewAuthHandler(auth service.AuthService, cookie CookieConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, cookie: cookie, logger: logger}
}

// RegisterRoutes registers the /api/auth routes
func (h *AuthHandler) RegisterRoutes(r chi.Router, g Guards) {
	r.Route("/api/auth", func(r chi.Router) {
		limited := g.Limited(r)
		limited.Post("/register", h.Register)
		limited.Post("/login", h.Login)
		limited.Post("/reset", h.RequestPasswordReset)
		limited.Post("/new-password", h.ResetPassword)
		r.Post("/new-verification", h.VerifyEmail)
		r.Post("/refresh", h.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(g.Auth)
			r.Post("/logout", h.Logout)
			r.Get("/me", h.Profile)
			r.Patch("/settings", h.UpdateSettings)
		})
	})
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Registration validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Registration")
		return
	}

	h.logger.Info("User registered successfully", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, user)
}

// VerifyEmail confirms the address a verification token was mailed to
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	if err := h.auth.VerifyEmail(r.Context(), req.Token); err != nil {
		respondWithServiceError(w, h.logger, err, "Email verification")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, messageResponse{Message: "Email verified!"})
}

// Login handles user authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	accessToken, refreshToken, user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Login")
		return
	}

	h.setSessionCookie(w, accessToken)
	h.logger.Info("User logged in successfully", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	})
}

// Logout revokes the refresh token, ends the session and clears the cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	if err := h.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		respondWithServiceError(w, h.logger, err, "Logout")
		return
	}

	h.clearSessionCookie(w)
	middleware.RespondWithJSON(w, http.StatusOK, messageResponse{Message: "logged out successfully"})
}

// Refresh handles token refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	accessToken, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			middleware.RespondWithError(w, http.StatusUnauthorized, "invalid refresh token")
		case errors.Is(err, service.ErrTokenExpired):
			middleware.RespondWithError(w, http.StatusUnauthorized, "refresh token expired")
		default:
			respondWithServiceError(w, h.logger, err, "Token refresh")
		}
		return
	}

	h.setSessionCookie(w, accessToken)
	middleware.RespondWithJSON(w, http.StatusOK, RefreshResponse{AccessToken: accessToken})
}

// RequestPasswordReset mails a reset link
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	if err := h.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		respondWithServiceError(w, h.logger, err, "Password reset request")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, messageResponse{Message: "Reset email sent!"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req NewPasswordRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		respondWithServiceError(w, h.logger, err, "Password reset")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, messageResponse{Message: "Password updated!"})
}

// Profile returns the authenticated user
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.auth.Profile(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Profile lookup")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req SettingsRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	user, err := h.auth.UpdateSettings(r.Context(), userID, service.SettingsInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Settings update")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	if h.cookie.Name == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	if h.cookie.Name == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
