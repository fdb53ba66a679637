package handlers

import (
	"errors"
	"net/http"
	"time"

	"pickem-go/interfaces"
	"pickem-go/logging"
	"pickem-go/middleware"
	"pickem-go/models"
	"pickem-go/services"
)

// PendingPicksCookie carries the anonymous staging token
const PendingPicksCookie = "pending_picks"

// CookieConfig controls the cookies handlers set
type CookieConfig struct {
	// Secure is false behind a TLS terminating proxy that talks plain HTTP to us
	Secure   bool
	TokenTTL time.Duration
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService interfaces.AuthServiceInterface
	pickService interfaces.PickServiceInterface
	cookies     CookieConfig
	logger      *logging.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService interfaces.AuthServiceInterface, pickService interfaces.PickServiceInterface, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		pickService: pickService,
		cookies:     cookies,
		logger:      logging.WithPrefix("AuthHandler"),
	}
}

type authResult struct {
	User         models.User `json:"user"`
	Token        string      `json:"token"`
	ClaimedPicks int         `json:"claimedPicks"`
}

// Signup handles POST /signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrUsernameTaken) {
			writeError(w, http.StatusConflict, "username already taken")
			return
		}
		h.logger.Errorf("Signup failed for %q: %v", req.Username, err)
		writeError(w, http.StatusInternalServerError, "could not create account")
		return
	}

	h.finishLogin(w, r, resp, http.StatusCreated)
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.logger.Infof("Login failed for %q", req.Username)
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		h.logger.Errorf("Login error for %q: %v", req.Username, err)
		writeError(w, http.StatusInternalServerError, "could not log in")
		return
	}

	h.finishLogin(w, r, resp, http.StatusOK)
}

// finishLogin sets the session cookie and saves any picks made while anonymous
func (h *AuthHandler) finishLogin(w http.ResponseWriter, r *http.Request, resp *models.AuthResponse, status int) {
	h.setAuthCookie(w, resp.Token)

	result := authResult{User: resp.User, Token: resp.Token}
	if cookie, err := r.Cookie(PendingPicksCookie); err == nil && cookie.Value != "" {
		submission, err := h.pickService.ClaimPendingPicks(r.Context(), resp.User.ID, cookie.Value)
		if err != nil {
			// the account is fine; the staged picks are what was lost
			h.logger.Errorf("Claiming pending picks for user %d: %v", resp.User.ID, err)
		}
		if submission != nil {
			result.ClaimedPicks = len(submission.Saved)
		}
		h.clearCookie(w, PendingPicksCookie)
	}

	h.logger.Infof("User %s logged in", resp.User.Username)
	writeJSON(w, status, result)
}

// Logout handles POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, middleware.AuthCookieName)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me returns the current user's information
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, user.ToSafeUser())
}

// DeleteAccount handles POST /users/delete
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.authService.DeleteAccount(r.Context(), user.ID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		h.logger.Errorf("Deleting user %d: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "could not delete account")
		return
	}

	h.clearCookie(w, middleware.AuthCookieName)
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *AuthHandler) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookies.TokenTTL),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string) {
	clearCookie(w, name, h.cookies.Secure)
}

func clearCookie(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
