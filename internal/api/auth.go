package api

import (
	"errors"
	"net/http"
	"strings"

	"vox/internal/auth"
	"vox/internal/db"
	"vox/internal/models"
	"vox/internal/sanitize"
)

// AuthHandler serves the HTTP auth surface. It mirrors the websocket
// auth operations for clients that establish a session before opening
// the socket.
type AuthHandler struct {
	users  *db.UserRepository
	tokens *auth.TokenService
}

func NewAuthHandler(users *db.UserRepository, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

type registerRequest struct {
	Username    string `json:"username" validate:"required,min=4,max=32"`
	Password    string `json:"password" validate:"required,min=6,max=128"`
	DisplayName string `json:"display_name" validate:"max=64"`
	AvatarColor string `json:"avatar_color" validate:"max=16"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type autoLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Token    string `json:"token" validate:"required"`
}

type logoutRequest struct {
	Username string `json:"username" validate:"required"`
	Token    string `json:"token" validate:"required"`
}

type authResponse struct {
	Success bool         `json:"success"`
	User    *models.User `json:"user"`
	Token   string       `json:"token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	displayName := sanitize.Text(req.DisplayName)
	if displayName == "" {
		displayName = strings.ToLower(strings.TrimSpace(req.Username))
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		internalError(w)
		return
	}

	user, err := h.users.Create(req.Username, hash, displayName, req.AvatarColor)
	if errors.Is(err, db.ErrDuplicate) {
		conflict(w, "username is taken")
		return
	}
	if err != nil {
		internalError(w)
		return
	}

	token, err := h.issueSession(user.Username)
	if err != nil {
		internalError(w)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{Success: true, User: user, Token: token})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	user, err := h.users.FindByUsername(req.Username)
	if errors.Is(err, db.ErrNotFound) {
		unauthorized(w, "invalid credentials")
		return
	}
	if err != nil {
		internalError(w)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		unauthorized(w, "invalid credentials")
		return
	}
	if user.Banned || user.Deleted {
		unauthorized(w, "account unavailable")
		return
	}

	token, err := h.issueSession(user.Username)
	if err != nil {
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Success: true, User: user, Token: token})
}

// AutoLogin resumes a session. The token must verify and match the copy
// stored on the user row.
func (h *AuthHandler) AutoLogin(w http.ResponseWriter, r *http.Request) {
	var req autoLoginRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	claims, err := h.tokens.ValidateSessionToken(req.Token)
	if err != nil {
		unauthorized(w, "invalid session")
		return
	}
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if claims.Username != username {
		unauthorized(w, "invalid session")
		return
	}

	user, err := h.users.FindByUsername(username)
	if errors.Is(err, db.ErrNotFound) {
		unauthorized(w, "invalid session")
		return
	}
	if err != nil {
		internalError(w)
		return
	}

	if user.SessionToken == "" || user.SessionToken != req.Token {
		unauthorized(w, "invalid session")
		return
	}
	if user.Banned || user.Deleted {
		unauthorized(w, "account unavailable")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Success: true, User: user, Token: req.Token})
}

// Logout clears the stored session token, invalidating auto-login
// everywhere.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	user, err := h.users.FindByUsername(req.Username)
	if errors.Is(err, db.ErrNotFound) {
		unauthorized(w, "invalid session")
		return
	}
	if err != nil {
		internalError(w)
		return
	}
	if user.SessionToken == "" || user.SessionToken != req.Token {
		unauthorized(w, "invalid session")
		return
	}

	if err := h.users.ClearSessionToken(user.Username); err != nil {
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) issueSession(username string) (string, error) {
	token, err := h.tokens.GenerateSessionToken(username)
	if err != nil {
		return "", err
	}
	if err := h.users.UpdateSessionToken(username, token); err != nil {
		return "", err
	}
	return token, nil
}
