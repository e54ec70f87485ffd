package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"expense-manager/internal/auth"
	applog "expense-manager/internal/log"
	"expense-manager/internal/models"
	"expense-manager/internal/storage"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

func init() {
	// Amounts leave the API as JSON numbers rather than quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Context key type to avoid collisions.
type contextKey string

const (
	// UserContextKey is the context key for the authenticated user.
	UserContextKey contextKey = "user"
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"
	// SessionDuration is how long sessions last (30 days).
	SessionDuration = 30 * 24 * time.Hour
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db           *storage.DB
	logger       *applog.Logger
	secureCookie bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *storage.DB, logger *applog.Logger, secureCookie bool) *Handlers {
	return &Handlers{db: db, logger: logger.WithComponent(applog.ComponentHTTP), secureCookie: secureCookie}
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// AuthMiddleware wraps handlers to require authentication.
// It also implements rolling sessions: if a session is past the halfway point
// of its lifetime, it automatically renews the session.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		sessionInfo, err := h.db.ValidateSessionWithInfo(cookie.Value)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				h.log(r).ErrorContext(r.Context(), "Session lookup failed", applog.FieldError, err)
			}
			h.clearSessionCookie(w)
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		now := time.Now()
		if sessionInfo.ExpiresAt.Sub(now) < SessionDuration/2 {
			newExpiresAt := now.Add(SessionDuration)
			if err := h.db.RenewSession(cookie.Value, newExpiresAt); err == nil {
				h.setSessionCookie(w, cookie.Value)
			} else {
				// The current session is still valid, carry on with it.
				h.log(r).WarnContext(r.Context(), "Session renewal failed", applog.FieldError, err)
			}
		}

		ctx := context.WithValue(r.Context(), UserContextKey, sessionInfo.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Health reports that the server is up.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Register creates a user account from the username, email and password form fields.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form submission")
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if username == "" || email == "" || password == "" {
		writeError(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	user, err := h.db.CreateUser(username, email, password)
	if err != nil {
		h.storageError(w, r, "register", err)
		return
	}

	h.log(r).InfoContext(r.Context(), "User registered", applog.FieldUserID, user.ID)
	writeJSON(w, http.StatusCreated, user)
}

// Login authenticates the form credentials and starts a session.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form submission")
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.db.Authenticate(username, password)
	if err != nil {
		h.storageError(w, r, "login", err)
		return
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		h.log(r).ErrorContext(r.Context(), "Failed to generate session token", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "An error occurred. Please try again.")
		return
	}

	if err := h.db.CreateSession(token, user.ID, time.Now().Add(SessionDuration)); err != nil {
		h.storageError(w, r, "create session", err)
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, user)
}

// Logout handles user logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.db.DeleteSession(cookie.Value); err != nil {
			h.log(r).ErrorContext(r.Context(), "Failed to delete session", applog.FieldError, err)
		}
	}
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GetUserFromContext(r))
}

// ChangePassword replaces the user's password after checking the current one.
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form submission")
		return
	}

	current := r.FormValue("current_password")
	next := r.FormValue("new_password")
	if current == "" || strings.TrimSpace(next) == "" {
		writeError(w, http.StatusBadRequest, "Current and new password are required")
		return
	}

	if _, err := h.db.Authenticate(user.Username, current); err != nil {
		h.storageError(w, r, "change password", err)
		return
	}
	if err := h.db.UpdatePassword(user.ID, next); err != nil {
		h.storageError(w, r, "change password", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// storageError maps repository errors onto HTTP responses.
func (h *Handlers) storageError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrConflict):
		writeError(w, http.StatusConflict, "Username or email already exists")
	case errors.Is(err, storage.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, storage.ErrNoOpUpdate):
		writeError(w, http.StatusBadRequest, "No valid fields to update")
	default:
		h.log(r).ErrorContext(r.Context(), "Storage failure", applog.FieldOperation, op, applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

type errorResponse struct {
	Error  string   `json:"error"`
	Errors []string `json:"errors,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
