package ws

import (
	"encoding/json"
	"errors"
	"strings"

	"vox/internal/auth"
	"vox/internal/constants"
	"vox/internal/db"
	"vox/internal/models"
	"vox/internal/sanitize"
)

func (c *Client) handleRegister(raw json.RawMessage) {
	var req RegisterRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypeRegister, constants.ErrCodeInvalidRequest)
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	if len(username) < constants.MinUsernameLength || len(username) > constants.MaxUsernameLength {
		c.fail(TypeRegister, constants.ErrCodeInvalidRequest)
		return
	}
	if len(req.Password) < constants.MinPasswordLength {
		c.fail(TypeRegister, constants.ErrCodeInvalidRequest)
		return
	}

	displayName := sanitize.Text(req.DisplayName)
	if displayName == "" {
		displayName = username
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.hub.logger.Error("hashing password", "error", err)
		c.fail(TypeRegister, constants.ErrCodeInternal)
		return
	}

	user, err := c.hub.users.Create(username, hash, displayName, req.AvatarColor)
	if errors.Is(err, db.ErrDuplicate) {
		c.fail(TypeRegister, constants.ErrCodeConflict)
		return
	}
	if err != nil {
		c.hub.logger.Error("creating user", "error", err)
		c.fail(TypeRegister, constants.ErrCodeInternal)
		return
	}

	token, err := c.issueSession(user.Username)
	if err != nil {
		c.fail(TypeRegister, constants.ErrCodeInternal)
		return
	}

	c.hub.Bind(c, user.Username)
	c.setUser(user)
	c.reply(AuthResponse{Type: TypeRegister, Success: true, User: user, Token: token})
}

func (c *Client) handleLogin(raw json.RawMessage) {
	var req LoginRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypeLogin, constants.ErrCodeInvalidRequest)
		return
	}

	user, err := c.hub.users.FindByUsername(req.Username)
	if errors.Is(err, db.ErrNotFound) {
		c.fail(TypeLogin, constants.ErrCodeAuthFailed)
		return
	}
	if err != nil {
		c.hub.logger.Error("looking up user", "error", err)
		c.fail(TypeLogin, constants.ErrCodeInternal)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.fail(TypeLogin, constants.ErrCodeAuthFailed)
		return
	}
	if reason, ok := accountBarred(user); ok {
		c.reply(AuthResponse{Type: TypeLogin, Success: false, Error: constants.ErrCodeAuthFailed, Reason: reason})
		return
	}

	token, err := c.issueSession(user.Username)
	if err != nil {
		c.fail(TypeLogin, constants.ErrCodeInternal)
		return
	}

	c.hub.Bind(c, user.Username)
	c.setUser(user)
	c.reply(AuthResponse{Type: TypeLogin, Success: true, User: user, Token: token})
}

// handleAutoLogin resumes a session from a stored token. The token must
// carry a valid signature, name the same user, and match the copy on the
// user row, so logout and forced resets invalidate it server-side.
func (c *Client) handleAutoLogin(raw json.RawMessage) {
	var req AutoLoginRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypeAutoLogin, constants.ErrCodeInvalidRequest)
		return
	}

	claims, err := c.hub.tokens.ValidateSessionToken(req.Token)
	if err != nil {
		c.fail(TypeAutoLogin, constants.ErrCodeAuthFailed)
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	if claims.Username != username {
		c.fail(TypeAutoLogin, constants.ErrCodeAuthFailed)
		return
	}

	user, err := c.hub.users.FindByUsername(username)
	if errors.Is(err, db.ErrNotFound) {
		c.fail(TypeAutoLogin, constants.ErrCodeAuthFailed)
		return
	}
	if err != nil {
		c.hub.logger.Error("looking up user", "error", err)
		c.fail(TypeAutoLogin, constants.ErrCodeInternal)
		return
	}

	if user.SessionToken == "" || user.SessionToken != req.Token {
		c.fail(TypeAutoLogin, constants.ErrCodeAuthFailed)
		return
	}
	if reason, ok := accountBarred(user); ok {
		c.reply(AuthResponse{Type: TypeAutoLogin, Success: false, Error: constants.ErrCodeAuthFailed, Reason: reason})
		return
	}

	c.hub.Bind(c, user.Username)
	c.setUser(user)
	c.reply(AuthResponse{Type: TypeAutoLogin, Success: true, User: user, Token: req.Token})
}

func (c *Client) handleSearch(raw json.RawMessage) {
	var req SearchRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypeSearch, constants.ErrCodeInvalidRequest)
		return
	}

	query := sanitize.Text(req.Query)
	if query == "" {
		c.reply(SearchResponse{Type: TypeSearch, Success: true, Results: []*models.Profile{}})
		return
	}

	results, err := c.hub.users.Search(query, 20)
	if err != nil {
		c.hub.logger.Error("searching users", "error", err)
		c.fail(TypeSearch, constants.ErrCodeInternal)
		return
	}
	c.reply(SearchResponse{Type: TypeSearch, Success: true, Results: results})
}

// handleGetProfile resolves the name through the shared username/alias
// namespace and returns the public view.
func (c *Client) handleGetProfile(raw json.RawMessage) {
	var req GetProfileRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypeGetProfile, constants.ErrCodeInvalidRequest)
		return
	}

	user, err := c.resolveUser(req.Username)
	if errors.Is(err, db.ErrNotFound) {
		c.fail(TypeGetProfile, constants.ErrCodeNotFound)
		return
	}
	if err != nil {
		c.hub.logger.Error("resolving profile", "error", err)
		c.fail(TypeGetProfile, constants.ErrCodeInternal)
		return
	}
	if user.Deleted || user.Banned {
		c.fail(TypeGetProfile, constants.ErrCodeNotFound)
		return
	}

	c.reply(ProfileResponse{Type: TypeGetProfile, Success: true, Profile: user.PublicProfile()})
}

func (c *Client) handleUpdateProfile(raw json.RawMessage) {
	var req UpdateProfileRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypeUpdateProfile, constants.ErrCodeInvalidRequest)
		return
	}

	user, ok := c.activeUser(TypeUpdateProfile)
	if !ok {
		return
	}

	if req.DisplayName != nil {
		clean := sanitize.Text(*req.DisplayName)
		if clean == "" {
			c.fail(TypeUpdateProfile, constants.ErrCodeInvalidRequest)
			return
		}
		req.DisplayName = &clean
	}
	if req.Bio != nil {
		clean := sanitize.Text(*req.Bio)
		req.Bio = &clean
	}

	if err := c.hub.users.UpdateProfile(user.Username, req.DisplayName, req.Bio, req.AvatarColor); err != nil {
		c.hub.logger.Error("updating profile", "error", err)
		c.fail(TypeUpdateProfile, constants.ErrCodeInternal)
		return
	}

	updated, err := c.hub.users.FindByUsername(user.Username)
	if err != nil {
		c.fail(TypeUpdateProfile, constants.ErrCodeInternal)
		return
	}
	c.setUser(updated)
	c.reply(ProfileResponse{Type: TypeUpdateProfile, Success: true, Profile: updated.PublicProfile()})
}

func (c *Client) handleRequestPremium(raw json.RawMessage) {
	user, ok := c.activeUser(TypeRequestPremium)
	if !ok {
		return
	}
	if user.Premium {
		c.fail(TypeRequestPremium, constants.ErrCodeConflict)
		return
	}

	if _, err := c.hub.premium.Request(user.Username); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			c.fail(TypeRequestPremium, constants.ErrCodeConflict)
			return
		}
		c.hub.logger.Error("filing premium request", "error", err)
		c.fail(TypeRequestPremium, constants.ErrCodeInternal)
		return
	}

	c.hub.SendToAdmins(AdminNoticePayload{
		Type:   EventAdminNotice,
		Notice: "premium request from " + user.Username,
	})
	c.reply(Response{Type: TypeRequestPremium, Success: true})
}

// issueSession mints a session token and stores it on the user row.
func (c *Client) issueSession(username string) (string, error) {
	token, err := c.hub.tokens.GenerateSessionToken(username)
	if err != nil {
		c.hub.logger.Error("generating session token", "error", err)
		return "", err
	}
	if err := c.hub.users.UpdateSessionToken(username, token); err != nil {
		c.hub.logger.Error("storing session token", "error", err)
		return "", err
	}
	return token, nil
}

// resolveUser finds a user by username, falling back to alias lookup.
func (c *Client) resolveUser(name string) (*models.User, error) {
	user, err := c.hub.users.FindByUsername(name)
	if !errors.Is(err, db.ErrNotFound) {
		return user, err
	}

	owner, err := c.hub.aliases.ResolveOwner(name)
	if err != nil {
		return nil, err
	}
	return c.hub.users.FindByUsername(owner)
}

// activeUser re-reads the caller and rejects the request if the account
// can no longer write (frozen, banned or deleted since login).
func (c *Client) activeUser(reqType string) (*models.User, bool) {
	user, err := c.hub.users.FindByUsername(c.Username())
	if err != nil {
		c.fail(reqType, constants.ErrCodeInternal)
		return nil, false
	}
	if user.Banned || user.Deleted {
		c.fail(reqType, constants.ErrCodeAuthFailed)
		return nil, false
	}
	if user.Frozen {
		c.fail(reqType, constants.ErrCodeAccountFrozen)
		return nil, false
	}
	return user, true
}

func accountBarred(user *models.User) (string, bool) {
	switch {
	case user.Banned:
		return "banned", true
	case user.Deleted:
		reason := "account deleted"
		if user.DeleteReason != nil && *user.DeleteReason != "" {
			reason = *user.DeleteReason
		}
		return reason, true
	}
	return "", false
}
