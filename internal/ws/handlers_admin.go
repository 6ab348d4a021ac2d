package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"vox/internal/constants"
	"vox/internal/db"
	"vox/internal/sanitize"
)

// handleAdminAction executes one moderation verb against a target user.
func (c *Client) handleAdminAction(raw json.RawMessage) {
	var req AdminActionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypeAdminAction, constants.ErrCodeInvalidRequest)
		return
	}

	if req.Action == "broadcast_update" {
		c.hub.BroadcastAll(UpdateAvailablePayload{Type: EventUpdateAvailable})
		c.confirm(TypeAdminAction, "update broadcast sent")
		return
	}

	if req.Target == "" {
		c.fail(TypeAdminAction, constants.ErrCodeInvalidRequest)
		return
	}

	var err error
	var detail string

	switch req.Action {
	case "freeze":
		err = c.hub.users.SetFlag(req.Target, "frozen", true)
	case "unfreeze":
		err = c.hub.users.SetFlag(req.Target, "frozen", false)
	case "ban":
		err = c.hub.users.SetFlag(req.Target, "banned", true)
	case "unban":
		err = c.hub.users.SetFlag(req.Target, "banned", false)
	case "verify":
		err = c.hub.users.SetFlag(req.Target, "verified", true)
	case "unverify":
		err = c.hub.users.SetFlag(req.Target, "verified", false)
	case "give_premium":
		err = c.hub.users.SetFlag(req.Target, "premium", true)
	case "remove_premium":
		err = c.hub.users.SetFlag(req.Target, "premium", false)
	case "delete":
		err = c.hub.users.SoftDelete(req.Target, req.Value)
	case "give_crystals":
		if req.Amount < 1 {
			c.fail(TypeAdminAction, constants.ErrCodeInvalidRequest)
			return
		}
		var balance int64
		balance, err = c.hub.economy.Grant(req.Target, req.Amount)
		if err == nil {
			detail = fmt.Sprintf("balance now %d", balance)
			c.hub.SendToUser(req.Target, BalanceUpdatePayload{Type: EventBalanceUpdate, Balance: balance, Reason: "admin grant"})
		}
	case "reset_crystals":
		err = c.hub.economy.Reset(req.Target)
		if err == nil {
			c.hub.SendToUser(req.Target, BalanceUpdatePayload{Type: EventBalanceUpdate, Balance: 0, Reason: "admin reset"})
		}
	case "set_display_name":
		clean := sanitize.Text(req.Value)
		if clean == "" {
			c.fail(TypeAdminAction, constants.ErrCodeInvalidRequest)
			return
		}
		err = c.hub.users.SetDisplayName(req.Target, clean)
	case "reset_avatar":
		err = c.hub.users.ResetAvatar(req.Target)
	case "rename_user":
		if len(req.Value) < constants.MinUsernameLength {
			c.fail(TypeAdminAction, constants.ErrCodeInvalidRequest)
			return
		}
		err = c.hub.users.Rename(req.Target, req.Value)
		if err == nil {
			detail = "renamed to " + req.Value
		}
	default:
		c.fail(TypeAdminAction, constants.ErrCodeInvalidRequest)
		return
	}

	switch {
	case errors.Is(err, db.ErrNotFound):
		c.fail(TypeAdminAction, constants.ErrCodeNotFound)
		return
	case errors.Is(err, db.ErrDuplicate):
		c.fail(TypeAdminAction, constants.ErrCodeConflict)
		return
	case err != nil:
		c.hub.logger.Error("admin action failed", "action", req.Action, "target", req.Target, "error", err)
		c.fail(TypeAdminAction, constants.ErrCodeInternal)
		return
	}

	c.hub.logger.Info("admin action", "admin", c.Username(), "action", req.Action, "target", req.Target)
	if detail == "" {
		detail = req.Action + " applied to " + req.Target
	}
	c.confirm(TypeAdminAction, detail)
}

// handleAdminGiveNft grants a batch of aliases to a user and raises
// their allowance by the number actually inserted.
func (c *Client) handleAdminGiveNft(raw json.RawMessage) {
	var req AdminGiveNftRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(TypeAdminGiveNft, constants.ErrCodeInvalidRequest)
		return
	}
	if req.To == "" || len(req.Aliases) == 0 {
		c.fail(TypeAdminGiveNft, constants.ErrCodeInvalidRequest)
		return
	}

	exists, err := c.hub.users.Exists(req.To)
	if err != nil {
		c.fail(TypeAdminGiveNft, constants.ErrCodeInternal)
		return
	}
	if !exists {
		c.fail(TypeAdminGiveNft, constants.ErrCodeNotFound)
		return
	}

	added, err := c.hub.aliases.GrantBatch(req.To, req.Aliases)
	if err != nil {
		c.hub.logger.Error("granting aliases", "target", req.To, "error", err)
		c.fail(TypeAdminGiveNft, constants.ErrCodeInternal)
		return
	}

	c.hub.SendToUser(req.To, AdminNoticePayload{
		Type:   EventAdminNotice,
		Notice: fmt.Sprintf("you received %d new handles", len(added)),
	})
	c.confirm(TypeAdminGiveNft, fmt.Sprintf("granted %d of %d handles to %s", len(added), len(req.Aliases), req.To))
}

func (c *Client) handleAdminGetStats(raw json.RawMessage) {
	stats, err := c.hub.stats.Snapshot()
	if err != nil {
		c.hub.logger.Error("collecting stats", "error", err)
		c.fail(TypeAdminGetStats, constants.ErrCodeInternal)
		return
	}
	stats.Online = c.hub.OnlineCount()
	c.reply(StatsResponse{Type: TypeAdminGetStats, Success: true, Stats: stats})
}

func (c *Client) handleApprovePremium(raw json.RawMessage) {
	c.resolvePremium(raw, TypeApprovePremium, "approved")
}

func (c *Client) handleRejectPremium(raw json.RawMessage) {
	c.resolvePremium(raw, TypeRejectPremium, "rejected")
}

func (c *Client) resolvePremium(raw json.RawMessage, reqType, status string) {
	var req PremiumDecisionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.fail(reqType, constants.ErrCodeInvalidRequest)
		return
	}

	if err := c.hub.premium.Resolve(req.Username, status); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.fail(reqType, constants.ErrCodeNotFound)
			return
		}
		c.hub.logger.Error("resolving premium request", "error", err)
		c.fail(reqType, constants.ErrCodeInternal)
		return
	}

	c.hub.SendToUser(req.Username, PremiumDecisionPayload{Type: EventPremiumDecision, Status: status})
	c.confirm(reqType, status+" for "+req.Username)
}

func (c *Client) confirm(reqType, message string) {
	c.reply(AdminConfirmation{Type: reqType, Success: true, Message: message})
}
