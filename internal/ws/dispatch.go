package ws

import (
	"encoding/json"
)

type authLevel int

const (
	authPublic authLevel = iota
	authUser
	authAdmin
)

type handlerEntry struct {
	level  authLevel
	handle func(*Client, json.RawMessage)
}

// handlers maps wire message types to their handler and the minimum
// authorization required to invoke it.
var handlers = map[string]handlerEntry{
	TypeRegister:       {authPublic, (*Client).handleRegister},
	TypeLogin:          {authPublic, (*Client).handleLogin},
	TypeAutoLogin:      {authPublic, (*Client).handleAutoLogin},
	TypeSearch:         {authPublic, (*Client).handleSearch},
	TypeGetProfile:     {authPublic, (*Client).handleGetProfile},
	TypeSupportMessage: {authPublic, (*Client).handleSupportMessage},

	TypeUpdateProfile:        {authUser, (*Client).handleUpdateProfile},
	TypePrivateMessage:       {authUser, (*Client).handlePrivateMessage},
	TypeGetPrivateHistory:    {authUser, (*Client).handleGetPrivateHistory},
	TypeGetMyChats:           {authUser, (*Client).handleGetMyChats},
	TypeCreateChat:           {authUser, (*Client).handleCreateChat},
	TypeJoinChat:             {authUser, (*Client).handleJoinChat},
	TypeLeaveChat:            {authUser, (*Client).handleLeaveChat},
	TypeChatMessage:          {authUser, (*Client).handleChatMessage},
	TypeGetChatHistory:       {authUser, (*Client).handleGetChatHistory},
	TypeAddReaction:          {authUser, (*Client).handleAddReaction},
	TypeDeleteMessage:        {authUser, (*Client).handleDeleteMessage},
	TypeSendGift:             {authUser, (*Client).handleSendGift},
	TypeTransferCrystals:     {authUser, (*Client).handleTransferCrystals},
	TypeAddAlias:             {authUser, (*Client).handleAddAlias},
	TypeRemoveAlias:          {authUser, (*Client).handleRemoveAlias},
	TypeGetMyAliases:         {authUser, (*Client).handleGetMyAliases},
	TypeRequestPremium:       {authUser, (*Client).handleRequestPremium},
	TypeGetMySupportMessages: {authUser, (*Client).handleGetMySupportMessages},

	TypeAdminAction:       {authAdmin, (*Client).handleAdminAction},
	TypeAdminGiveNft:      {authAdmin, (*Client).handleAdminGiveNft},
	TypeAdminGetStats:     {authAdmin, (*Client).handleAdminGetStats},
	TypeGetSupportTickets: {authAdmin, (*Client).handleGetSupportTickets},
	TypeSupportReply:      {authAdmin, (*Client).handleSupportReply},
	TypeApprovePremium:    {authAdmin, (*Client).handleApprovePremium},
	TypeRejectPremium:     {authAdmin, (*Client).handleRejectPremium},
}

// dispatch routes one inbound frame. Authorization failures and unknown
// types are dropped without a reply so probing reveals nothing about
// which operations exist.
func (c *Client) dispatch(raw []byte) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Type == "" {
		c.hub.logger.Debug("unparseable frame", "error", err)
		return
	}

	entry, ok := handlers[envelope.Type]
	if !ok {
		c.hub.logger.Debug("unknown message type", "type", envelope.Type)
		return
	}

	switch entry.level {
	case authUser:
		if c.Username() == "" {
			c.hub.logger.Debug("dropping unauthenticated request", "type", envelope.Type)
			return
		}
	case authAdmin:
		if !c.isAdminNow() {
			c.hub.logger.Debug("dropping unauthorized admin request", "type", envelope.Type, "username", c.Username())
			return
		}
	}

	entry.handle(c, raw)
}

// isAdminNow re-reads the caller's role so a demotion takes effect on
// the next request, not the next login.
func (c *Client) isAdminNow() bool {
	username := c.Username()
	if username == "" {
		return false
	}
	user, err := c.hub.users.FindByUsername(username)
	if err != nil {
		return false
	}
	return user.IsAdmin()
}
