package ws

import (
	"encoding/json"

	"vox/internal/constants"
	"vox/internal/db"
	"vox/internal/sanitize"
)

// handleSupportMessage opens or continues a support ticket. It is
// reachable before login so locked-out users can still reach support;
// an unauthenticated sender gets a generated guest ticket.
func (c *Client) handleSupportMessage(raw json.RawMessage) {
	var req SupportMessageRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypeSupportMessage, constants.ErrCodeInvalidRequest)
		return
	}

	content := sanitize.Text(req.Text)
	if content == "" {
		c.fail(TypeSupportMessage, constants.ErrCodeInvalidRequest)
		return
	}
	if email := sanitize.Text(req.Email); email != "" {
		content = content + "\n[contact: " + email + "]"
	}

	ticketID := c.Username()
	sender := c.Username()
	if ticketID == "" {
		guest, err := db.GenerateID("guest")
		if err != nil {
			c.fail(TypeSupportMessage, constants.ErrCodeInternal)
			return
		}
		ticketID = guest
		sender = guest
	}

	msg, err := c.hub.support.Append(ticketID, sender, content, false)
	if err != nil {
		c.hub.logger.Error("appending support message", "error", err)
		c.fail(TypeSupportMessage, constants.ErrCodeInternal)
		return
	}

	c.hub.SendToAdmins(SupportUpdatePayload{Type: EventSupportUpdate, TicketID: ticketID, Message: msg})
	c.reply(SupportThreadResponse{Type: TypeSupportMessage, Success: true, TicketID: ticketID})
}

func (c *Client) handleGetMySupportMessages(raw json.RawMessage) {
	messages, err := c.hub.support.Thread(c.Username())
	if err != nil {
		c.hub.logger.Error("loading support thread", "error", err)
		c.fail(TypeGetMySupportMessages, constants.ErrCodeInternal)
		return
	}
	c.reply(SupportThreadResponse{
		Type:     TypeGetMySupportMessages,
		Success:  true,
		TicketID: c.Username(),
		Messages: messages,
	})
}

func (c *Client) handleGetSupportTickets(raw json.RawMessage) {
	tickets, err := c.hub.support.Previews()
	if err != nil {
		c.hub.logger.Error("listing support tickets", "error", err)
		c.fail(TypeGetSupportTickets, constants.ErrCodeInternal)
		return
	}
	c.reply(SupportTicketsResponse{Type: TypeGetSupportTickets, Success: true, Tickets: tickets})
}

// handleSupportReply appends an admin answer to a ticket and pushes it
// to the ticket owner if they are online.
func (c *Client) handleSupportReply(raw json.RawMessage) {
	var req SupportReplyRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypeSupportReply, constants.ErrCodeInvalidRequest)
		return
	}

	content := sanitize.Text(req.Text)
	if content == "" || req.TicketID == "" {
		c.fail(TypeSupportReply, constants.ErrCodeInvalidRequest)
		return
	}

	exists, err := c.hub.support.Exists(req.TicketID)
	if err != nil {
		c.fail(TypeSupportReply, constants.ErrCodeInternal)
		return
	}
	if !exists {
		c.fail(TypeSupportReply, constants.ErrCodeNotFound)
		return
	}

	msg, err := c.hub.support.Append(req.TicketID, c.Username(), content, true)
	if err != nil {
		c.hub.logger.Error("appending support reply", "error", err)
		c.fail(TypeSupportReply, constants.ErrCodeInternal)
		return
	}

	// User tickets are keyed by username, so the push reaches the owner.
	c.hub.SendToUser(req.TicketID, SupportUpdatePayload{Type: EventSupportUpdate, TicketID: req.TicketID, Message: msg})
	c.reply(Response{Type: TypeSupportReply, Success: true})
}
