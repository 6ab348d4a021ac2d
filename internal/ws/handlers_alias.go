package ws

import (
	"encoding/json"
	"errors"

	"vox/internal/constants"
	"vox/internal/db"
)

// handleAddAlias claims an extra handle within the caller's allowance.
func (c *Client) handleAddAlias(raw json.RawMessage) {
	var req AliasRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypeAddAlias, constants.ErrCodeInvalidRequest)
		return
	}

	user, ok := c.activeUser(TypeAddAlias)
	if !ok {
		return
	}

	if _, err := c.hub.aliases.Add(user.Username, req.Alias); err != nil {
		switch {
		case errors.Is(err, db.ErrCapacityExhausted):
			c.fail(TypeAddAlias, constants.ErrCodeAliasCapacity)
		case errors.Is(err, db.ErrDuplicate):
			c.fail(TypeAddAlias, constants.ErrCodeConflict)
		default:
			c.fail(TypeAddAlias, constants.ErrCodeInvalidRequest)
		}
		return
	}

	c.replyAliases(TypeAddAlias, user.Username)
}

func (c *Client) handleRemoveAlias(raw json.RawMessage) {
	var req AliasRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypeRemoveAlias, constants.ErrCodeInvalidRequest)
		return
	}

	if err := c.hub.aliases.Remove(c.Username(), req.Alias); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.fail(TypeRemoveAlias, constants.ErrCodeNotFound)
			return
		}
		c.hub.logger.Error("removing alias", "error", err)
		c.fail(TypeRemoveAlias, constants.ErrCodeInternal)
		return
	}

	c.replyAliases(TypeRemoveAlias, c.Username())
}

func (c *Client) handleGetMyAliases(raw json.RawMessage) {
	c.replyAliases(TypeGetMyAliases, c.Username())
}

func (c *Client) replyAliases(reqType, owner string) {
	aliases, err := c.hub.aliases.ForOwner(owner)
	if err != nil {
		c.hub.logger.Error("listing aliases", "error", err)
		c.fail(reqType, constants.ErrCodeInternal)
		return
	}
	c.reply(AliasResponse{Type: reqType, Success: true, Aliases: aliases})
}
