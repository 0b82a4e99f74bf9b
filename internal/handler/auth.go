package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/minhdn/taskquest/internal/auth"
	"github.com/minhdn/taskquest/internal/store"
	"github.com/minhdn/taskquest/internal/validation"
)

type AuthHandler struct {
	users  *store.UserStore
	secret []byte
	logger *slog.Logger
}

func NewAuthHandler(users *store.UserStore, secret []byte, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, secret: secret, logger: logger}
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req validation.SignUpInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Please fill in enough fields.")
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	if err := validation.ValidateSignUp(req); err != nil {
		writeError(w, http.StatusBadRequest, validation.Messages(err))
		return
	}

	existing, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("sign up lookup", "error", err)
		writeInternalError(w)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Email existed.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeInternalError(w)
		return
	}

	user, err := h.users.Create(req.Email, string(hash))
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeInternalError(w)
		return
	}

	if err := h.setTokenCookie(w, r, user.ID); err != nil {
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, response{Success: true, Message: "Sign up successfully", Data: user})
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Please fill in enough fields.")
		return
	}

	user, err := h.users.GetByEmail(strings.TrimSpace(req.Email))
	if err != nil {
		h.logger.Error("sign in lookup", "error", err)
		writeInternalError(w)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusNotAcceptable, "Wrong password.")
		return
	}

	if err := h.setTokenCookie(w, r, user.ID); err != nil {
		writeInternalError(w)
		return
	}

	writeData(w, http.StatusOK, user)
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeMessage(w, http.StatusOK, "Sign out successfully")
}

// Me returns the authenticated user's own profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	user, err := h.users.GetByID(userID)
	if err != nil {
		h.logger.Error("get user", "error", err)
		writeInternalError(w)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeData(w, http.StatusOK, user)
}

// GetByID serves a user by id, but only the caller's own: user lookups are
// capability-checked against the authenticated identity.
func (h *AuthHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	userID, _ := auth.UserID(r.Context())
	if id != userID {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}

	h.Me(w, r)
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, r *http.Request, userID int64) error {
	token, err := auth.NewToken(h.secret, userID, auth.TokenTTL)
	if err != nil {
		h.logger.Error("mint token", "error", err)
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.TokenTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	return nil
}
