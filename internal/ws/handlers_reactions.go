package ws

import (
	"encoding/json"
	"errors"

	"vox/internal/constants"
	"vox/internal/db"
	"vox/internal/models"
)

// handleAddReaction sets the caller's reaction on a message. A second
// reaction from the same user on the same message replaces the first.
func (c *Client) handleAddReaction(raw json.RawMessage) {
	var req AddReactionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypeAddReaction, constants.ErrCodeInvalidRequest)
		return
	}

	user, ok := c.activeUser(TypeAddReaction)
	if !ok {
		return
	}
	if req.Emoji == "" {
		c.fail(TypeAddReaction, constants.ErrCodeInvalidRequest)
		return
	}

	var audience []string
	switch req.Scope {
	case models.ScopePrivate:
		msg, err := c.hub.private.FindByID(req.MessageID)
		if errors.Is(err, db.ErrNotFound) {
			c.fail(TypeAddReaction, constants.ErrCodeNotFound)
			return
		}
		if err != nil {
			c.hub.logger.Error("looking up private message", "error", err)
			c.fail(TypeAddReaction, constants.ErrCodeInternal)
			return
		}
		if msg.Sender != user.Username && msg.Recipient != user.Username {
			c.fail(TypeAddReaction, constants.ErrCodeNotFound)
			return
		}
		audience = privateParticipants(msg)

	case models.ScopeGroup:
		msg, err := c.hub.chats.FindMessageByID(req.MessageID)
		if errors.Is(err, db.ErrNotFound) {
			c.fail(TypeAddReaction, constants.ErrCodeNotFound)
			return
		}
		if err != nil {
			c.hub.logger.Error("looking up chat message", "error", err)
			c.fail(TypeAddReaction, constants.ErrCodeInternal)
			return
		}
		member, err := c.hub.chats.IsMember(msg.ChatID, user.Username)
		if err != nil {
			c.fail(TypeAddReaction, constants.ErrCodeInternal)
			return
		}
		if !member {
			c.fail(TypeAddReaction, constants.ErrCodeNotFound)
			return
		}
		members, err := c.hub.chats.Members(msg.ChatID)
		if err != nil {
			c.hub.logger.Error("listing members", "error", err)
			c.fail(TypeAddReaction, constants.ErrCodeInternal)
			return
		}
		audience = members

	default:
		c.fail(TypeAddReaction, constants.ErrCodeInvalidRequest)
		return
	}

	reaction, err := c.hub.reactions.Set(req.MessageID, user.Username, req.Scope, req.Emoji)
	if err != nil {
		c.hub.logger.Error("setting reaction", "error", err)
		c.fail(TypeAddReaction, constants.ErrCodeInternal)
		return
	}

	c.reply(ReactionPayload{Type: TypeAddReaction, Success: true, Reaction: reaction})
	push := ReactionPayload{Type: EventReactionAdded, Success: true, Reaction: reaction}
	for _, username := range audience {
		c.hub.SendToUser(username, push)
	}
}

// handleDeleteMessage soft-deletes a message the caller authored. The
// content is replaced with a placeholder; the row survives.
func (c *Client) handleDeleteMessage(raw json.RawMessage) {
	var req DeleteMessageRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypeDeleteMessage, constants.ErrCodeInvalidRequest)
		return
	}

	user, ok := c.activeUser(TypeDeleteMessage)
	if !ok {
		return
	}

	var audience []string
	switch req.Scope {
	case models.ScopePrivate:
		msg, err := c.hub.private.SoftDelete(req.MessageID, user.Username)
		if err != nil {
			c.failDelete(err)
			return
		}
		audience = privateParticipants(msg)

	case models.ScopeGroup:
		msg, err := c.hub.chats.SoftDeleteMessage(req.MessageID, user.Username)
		if err != nil {
			c.failDelete(err)
			return
		}
		members, err := c.hub.chats.Members(msg.ChatID)
		if err != nil {
			c.hub.logger.Error("listing members", "error", err)
			c.fail(TypeDeleteMessage, constants.ErrCodeInternal)
			return
		}
		audience = members

	default:
		c.fail(TypeDeleteMessage, constants.ErrCodeInvalidRequest)
		return
	}

	c.reply(MessageDeletedPayload{Type: TypeDeleteMessage, Success: true, MessageID: req.MessageID, Scope: req.Scope})
	push := MessageDeletedPayload{Type: EventMessageDeleted, Success: true, MessageID: req.MessageID, Scope: req.Scope}
	for _, username := range audience {
		c.hub.SendToUser(username, push)
	}
}

func (c *Client) failDelete(err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		c.fail(TypeDeleteMessage, constants.ErrCodeNotFound)
	case errors.Is(err, db.ErrNotOwner):
		c.fail(TypeDeleteMessage, constants.ErrCodeAuthFailed)
	default:
		c.hub.logger.Error("deleting message", "error", err)
		c.fail(TypeDeleteMessage, constants.ErrCodeInternal)
	}
}
