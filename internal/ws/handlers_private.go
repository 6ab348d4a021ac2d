package ws

import (
	"encoding/json"
	"errors"

	"vox/internal/constants"
	"vox/internal/db"
	"vox/internal/sanitize"
)

func (c *Client) handlePrivateMessage(raw json.RawMessage) {
	var req PrivateMessageRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypePrivateMessage, constants.ErrCodeInvalidRequest)
		return
	}

	user, ok := c.activeUser(TypePrivateMessage)
	if !ok {
		return
	}
	if !c.allowContent() {
		c.fail(TypePrivateMessage, constants.ErrCodeRateLimited)
		return
	}

	content := sanitize.Text(req.Text)
	if content == "" || len(content) > constants.MaxMessageContentLength {
		c.fail(TypePrivateMessage, constants.ErrCodeInvalidRequest)
		return
	}

	// Messages addressed to the helper pseudo-recipient become support
	// ticket entries instead of peer messages.
	if req.To == constants.HelperRecipient {
		msg, err := c.hub.support.Append(user.Username, user.Username, content, false)
		if err != nil {
			c.hub.logger.Error("appending support message", "error", err)
			c.fail(TypePrivateMessage, constants.ErrCodeInternal)
			return
		}
		c.hub.SendToAdmins(SupportUpdatePayload{Type: EventSupportUpdate, TicketID: msg.TicketID, Message: msg})
		c.reply(Response{Type: TypePrivateMessage, Success: true})
		return
	}

	recipient, err := c.resolveUser(req.To)
	if errors.Is(err, db.ErrNotFound) {
		c.fail(TypePrivateMessage, constants.ErrCodeNotFound)
		return
	}
	if err != nil {
		c.hub.logger.Error("resolving recipient", "error", err)
		c.fail(TypePrivateMessage, constants.ErrCodeInternal)
		return
	}
	if recipient.Deleted || recipient.Banned {
		c.fail(TypePrivateMessage, constants.ErrCodeNotFound)
		return
	}

	msg, err := c.hub.private.Create(user.Username, recipient.Username, content)
	if err != nil {
		c.hub.logger.Error("creating private message", "error", err)
		c.fail(TypePrivateMessage, constants.ErrCodeInternal)
		return
	}

	c.reply(PrivateMessageResponse{Type: TypePrivateMessage, Success: true, Message: msg})

	push := NewPrivateMessagePayload{Type: EventNewPrivateMessage, Message: msg}
	c.hub.SendToUser(recipient.Username, push)
	if recipient.Username != user.Username {
		// Keeps the sender's other devices in sync.
		c.hub.SendToUser(user.Username, push)
	}

	if c.hub.IsUserOnline(recipient.Username) {
		summaries, err := c.hub.private.Summaries(recipient.Username)
		if err != nil {
			c.hub.logger.Error("loading recipient summaries", "error", err)
			return
		}
		c.hub.SendToUser(recipient.Username, ChatSummariesPayload{
			Type:      EventChatSummaries,
			Success:   true,
			Summaries: summaries,
		})
	}
}

func (c *Client) handleGetPrivateHistory(raw json.RawMessage) {
	var req GetPrivateHistoryRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypeGetPrivateHistory, constants.ErrCodeInvalidRequest)
		return
	}

	counterpart, err := c.resolveUser(req.With)
	if errors.Is(err, db.ErrNotFound) {
		c.fail(TypeGetPrivateHistory, constants.ErrCodeNotFound)
		return
	}
	if err != nil {
		c.hub.logger.Error("resolving counterpart", "error", err)
		c.fail(TypeGetPrivateHistory, constants.ErrCodeInternal)
		return
	}

	messages, err := c.hub.private.History(c.Username(), counterpart.Username, constants.HistoryLimit)
	if err != nil {
		c.hub.logger.Error("loading private history", "error", err)
		c.fail(TypeGetPrivateHistory, constants.ErrCodeInternal)
		return
	}

	c.reply(PrivateHistoryResponse{
		Type:     TypeGetPrivateHistory,
		Success:  true,
		With:     counterpart.Username,
		Messages: messages,
	})
}

func (c *Client) handleGetMyChats(raw json.RawMessage) {
	summaries, err := c.hub.private.Summaries(c.Username())
	if err != nil {
		c.hub.logger.Error("loading chat summaries", "error", err)
		c.fail(TypeGetMyChats, constants.ErrCodeInternal)
		return
	}
	c.reply(ChatSummariesPayload{Type: TypeGetMyChats, Success: true, Summaries: summaries})
}
