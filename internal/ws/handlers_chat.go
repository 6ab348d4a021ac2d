package ws

import (
	"encoding/json"
	"errors"

	"vox/internal/constants"
	"vox/internal/db"
	"vox/internal/models"
	"vox/internal/sanitize"
)

func (c *Client) handleCreateChat(raw json.RawMessage) {
	var req CreateChatRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypeCreateChat, constants.ErrCodeInvalidRequest)
		return
	}

	user, ok := c.activeUser(TypeCreateChat)
	if !ok {
		return
	}

	name := sanitize.Text(req.Name)
	if name == "" {
		c.fail(TypeCreateChat, constants.ErrCodeInvalidRequest)
		return
	}
	chatType := req.ChatType
	if chatType == "" {
		chatType = "group"
	}

	chat, err := c.hub.chats.Create(user.Username, name, sanitize.Text(req.Description), chatType, req.IsPublic)
	if err != nil {
		c.hub.logger.Error("creating chat", "error", err)
		c.fail(TypeCreateChat, constants.ErrCodeInternal)
		return
	}

	c.reply(ChatResponse{Type: TypeCreateChat, Success: true, Chat: chat})
}

// handleJoinChat joins by invite link. Joining twice is idempotent and
// reports already_member without side effects.
func (c *Client) handleJoinChat(raw json.RawMessage) {
	var req JoinChatRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypeJoinChat, constants.ErrCodeInvalidRequest)
		return
	}

	user, ok := c.activeUser(TypeJoinChat)
	if !ok {
		return
	}

	chat, err := c.hub.chats.FindByLink(req.Link)
	if errors.Is(err, db.ErrNotFound) {
		c.fail(TypeJoinChat, constants.ErrCodeNotFound)
		return
	}
	if err != nil {
		c.hub.logger.Error("looking up chat", "error", err)
		c.fail(TypeJoinChat, constants.ErrCodeInternal)
		return
	}

	alreadyMember, err := c.hub.chats.Join(chat.ID, user.Username)
	if err != nil {
		c.hub.logger.Error("joining chat", "error", err)
		c.fail(TypeJoinChat, constants.ErrCodeInternal)
		return
	}

	c.reply(ChatResponse{Type: TypeJoinChat, Success: true, Chat: chat, AlreadyMember: alreadyMember})
}

func (c *Client) handleLeaveChat(raw json.RawMessage) {
	var req LeaveChatRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypeLeaveChat, constants.ErrCodeInvalidRequest)
		return
	}

	if err := c.hub.chats.Leave(req.ChatID, c.Username()); err != nil {
		c.hub.logger.Error("leaving chat", "error", err)
		c.fail(TypeLeaveChat, constants.ErrCodeInternal)
		return
	}
	c.reply(Response{Type: TypeLeaveChat, Success: true})
}

func (c *Client) handleChatMessage(raw json.RawMessage) {
	var req ChatMessageRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypeChatMessage, constants.ErrCodeInvalidRequest)
		return
	}

	user, ok := c.activeUser(TypeChatMessage)
	if !ok {
		return
	}
	if !c.allowContent() {
		c.fail(TypeChatMessage, constants.ErrCodeRateLimited)
		return
	}

	content := sanitize.Text(req.Text)
	if content == "" && req.Media == nil {
		// Empty chat messages are dropped without a reply.
		return
	}
	if len(content) > constants.MaxMessageContentLength {
		c.fail(TypeChatMessage, constants.ErrCodeInvalidRequest)
		return
	}

	member, err := c.hub.chats.IsMember(req.ChatID, user.Username)
	if err != nil {
		c.hub.logger.Error("checking membership", "error", err)
		c.fail(TypeChatMessage, constants.ErrCodeInternal)
		return
	}
	if !member {
		c.fail(TypeChatMessage, constants.ErrCodeNotFound)
		return
	}

	msg, err := c.hub.chats.CreateMessage(req.ChatID, user.Username, content, req.Media, req.ReplyTo, req.ForwardFrom)
	if err != nil {
		c.hub.logger.Error("creating chat message", "error", err)
		c.fail(TypeChatMessage, constants.ErrCodeInternal)
		return
	}

	c.fanoutToChat(req.ChatID, NewChatMessagePayload{
		Type:              EventNewChatMessage,
		Message:           msg,
		SenderDisplayName: user.DisplayName,
		SenderAvatar:      user.Avatar,
	})
	c.reply(Response{Type: TypeChatMessage, Success: true})
}

func (c *Client) handleGetChatHistory(raw json.RawMessage) {
	var req GetChatHistoryRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypeGetChatHistory, constants.ErrCodeInvalidRequest)
		return
	}

	member, err := c.hub.chats.IsMember(req.ChatID, c.Username())
	if err != nil {
		c.hub.logger.Error("checking membership", "error", err)
		c.fail(TypeGetChatHistory, constants.ErrCodeInternal)
		return
	}
	if !member {
		c.fail(TypeGetChatHistory, constants.ErrCodeNotFound)
		return
	}

	messages, err := c.hub.chats.History(req.ChatID, constants.HistoryLimit)
	if err != nil {
		c.hub.logger.Error("loading chat history", "error", err)
		c.fail(TypeGetChatHistory, constants.ErrCodeInternal)
		return
	}

	c.reply(ChatHistoryResponse{Type: TypeGetChatHistory, Success: true, ChatID: req.ChatID, Messages: messages})
}

// fanoutToChat delivers a payload to every online member of a chat.
func (c *Client) fanoutToChat(chatID string, payload any) {
	members, err := c.hub.chats.Members(chatID)
	if err != nil {
		c.hub.logger.Error("listing chat members for fanout", "error", err)
		return
	}
	for _, member := range members {
		c.hub.SendToUser(member, payload)
	}
}

// privateParticipants returns the two usernames on a private message.
func privateParticipants(msg *models.PrivateMessage) []string {
	if msg.Sender == msg.Recipient {
		return []string{msg.Sender}
	}
	return []string{msg.Sender, msg.Recipient}
}
