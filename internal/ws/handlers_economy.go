package ws

import (
	"encoding/json"
	"errors"

	"vox/internal/constants"
	"vox/internal/db"
)

// handleSendGift purchases a gift for another user. The price is burned
// from the sender's balance, not credited to the recipient.
func (c *Client) handleSendGift(raw json.RawMessage) {
	var req SendGiftRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypeSendGift, constants.ErrCodeInvalidRequest)
		return
	}

	user, ok := c.activeUser(TypeSendGift)
	if !ok {
		return
	}
	if req.GiftID == "" || req.Price < 0 {
		c.fail(TypeSendGift, constants.ErrCodeInvalidRequest)
		return
	}

	recipient, err := c.resolveUser(req.To)
	if errors.Is(err, db.ErrNotFound) {
		c.fail(TypeSendGift, constants.ErrCodeNotFound)
		return
	}
	if err != nil {
		c.hub.logger.Error("resolving gift recipient", "error", err)
		c.fail(TypeSendGift, constants.ErrCodeInternal)
		return
	}
	if recipient.Deleted || recipient.Banned {
		c.fail(TypeSendGift, constants.ErrCodeNotFound)
		return
	}

	gift, balance, err := c.hub.economy.PurchaseGift(user.Username, recipient.Username, req.GiftID, req.Price)
	if errors.Is(err, db.ErrInsufficientFunds) {
		c.fail(TypeSendGift, constants.ErrCodeInsufficientFunds)
		return
	}
	if err != nil {
		c.hub.logger.Error("purchasing gift", "error", err)
		c.fail(TypeSendGift, constants.ErrCodeInternal)
		return
	}

	c.reply(GiftResponse{Type: TypeSendGift, Success: true, Gift: gift, Balance: balance})
	c.hub.SendToUser(recipient.Username, GiftResponse{Type: EventGiftReceived, Success: true, Gift: gift})
	c.hub.SendToUser(user.Username, BalanceUpdatePayload{Type: EventBalanceUpdate, Balance: balance, Reason: "gift"})
}

func (c *Client) handleTransferCrystals(raw json.RawMessage) {
	var req TransferCrystalsRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypeTransferCrystals, constants.ErrCodeInvalidRequest)
		return
	}

	user, ok := c.activeUser(TypeTransferCrystals)
	if !ok {
		return
	}
	if req.Amount < 1 {
		c.fail(TypeTransferCrystals, constants.ErrCodeInvalidRequest)
		return
	}

	recipient, err := c.resolveUser(req.To)
	if errors.Is(err, db.ErrNotFound) {
		c.fail(TypeTransferCrystals, constants.ErrCodeNotFound)
		return
	}
	if err != nil {
		c.hub.logger.Error("resolving transfer recipient", "error", err)
		c.fail(TypeTransferCrystals, constants.ErrCodeInternal)
		return
	}
	if recipient.Username == user.Username {
		c.fail(TypeTransferCrystals, constants.ErrCodeInvalidRequest)
		return
	}

	senderBalance, recipientBalance, err := c.hub.economy.Transfer(user.Username, recipient.Username, req.Amount)
	switch {
	case errors.Is(err, db.ErrInsufficientFunds):
		c.fail(TypeTransferCrystals, constants.ErrCodeInsufficientFunds)
		return
	case errors.Is(err, db.ErrNotFound):
		c.fail(TypeTransferCrystals, constants.ErrCodeNotFound)
		return
	case err != nil:
		c.hub.logger.Error("transferring crystals", "error", err)
		c.fail(TypeTransferCrystals, constants.ErrCodeInternal)
		return
	}

	c.reply(TransferResponse{Type: TypeTransferCrystals, Success: true, Balance: senderBalance})
	c.hub.SendToUser(recipient.Username, BalanceUpdatePayload{
		Type:    EventBalanceUpdate,
		Balance: recipientBalance,
		Reason:  "transfer from " + user.Username,
	})
}
