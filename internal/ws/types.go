package ws

import (
	"vox/internal/models"
)

// Every frame on the wire is a single flat JSON object carrying a "type"
// discriminator plus type-specific fields, in both directions.

// Client -> server message types.
const (
	TypeRegister             = "register"
	TypeLogin                = "login"
	TypeAutoLogin            = "auto_login"
	TypeSearch               = "search"
	TypeGetProfile           = "get_profile"
	TypeUpdateProfile        = "update_profile"
	TypePrivateMessage       = "private_message"
	TypeGetPrivateHistory    = "get_private_history"
	TypeGetMyChats           = "get_my_chats"
	TypeCreateChat           = "create_chat"
	TypeJoinChat             = "join_chat"
	TypeLeaveChat            = "leave_chat"
	TypeChatMessage          = "chat_message"
	TypeGetChatHistory       = "get_chat_history"
	TypeAddReaction          = "add_reaction"
	TypeDeleteMessage        = "delete_message"
	TypeSendGift             = "send_gift"
	TypeTransferCrystals     = "transfer_crystals"
	TypeAddAlias             = "add_alias"
	TypeRemoveAlias          = "remove_alias"
	TypeGetMyAliases         = "get_my_aliases"
	TypeRequestPremium       = "request_premium"
	TypeSupportMessage       = "support_message"
	TypeGetMySupportMessages = "get_my_support_messages"
	TypeAdminAction          = "admin_action"
	TypeAdminGiveNft         = "admin_give_nft"
	TypeAdminGetStats        = "admin_get_stats"
	TypeGetSupportTickets    = "get_support_tickets"
	TypeSupportReply         = "support_reply"
	TypeApprovePremium       = "approve_premium"
	TypeRejectPremium        = "reject_premium"
)

// Server -> client push types (asynchronous, not direct replies).
const (
	EventNewPrivateMessage = "new_private_message"
	EventChatSummaries     = "chat_summaries"
	EventNewChatMessage    = "new_chat_message"
	EventReactionAdded     = "reaction_added"
	EventMessageDeleted    = "message_deleted"
	EventGiftReceived      = "gift_received"
	EventBalanceUpdate     = "balance_update"
	EventSupportUpdate     = "support_update"
	EventAdminNotice       = "admin_notice"
	EventPremiumDecision   = "premium_decision"
	EventUpdateAvailable   = "update_available"
)

// Client -> server payloads.

type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	AvatarColor string `json:"avatar_color"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AutoLoginRequest struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

type SearchRequest struct {
	Query string `json:"query"`
}

type GetProfileRequest struct {
	Username string `json:"username"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	AvatarColor *string `json:"avatar_color,omitempty"`
}

type PrivateMessageRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

type GetPrivateHistoryRequest struct {
	With string `json:"with"`
}

type CreateChatRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ChatType    string `json:"chat_type"`
	IsPublic    bool   `json:"is_public"`
}

type JoinChatRequest struct {
	Link string `json:"link"`
}

type LeaveChatRequest struct {
	ChatID string `json:"chat_id"`
}

type ChatMessageRequest struct {
	ChatID      string  `json:"chat_id"`
	Text        string  `json:"text"`
	Media       *string `json:"media,omitempty"`
	ReplyTo     *string `json:"reply_to,omitempty"`
	ForwardFrom *string `json:"forward_from,omitempty"`
}

type GetChatHistoryRequest struct {
	ChatID string `json:"chat_id"`
}

type AddReactionRequest struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
	Scope     string `json:"scope"`
}

type DeleteMessageRequest struct {
	MessageID string `json:"message_id"`
	Scope     string `json:"scope"`
}

type SendGiftRequest struct {
	To     string `json:"to"`
	GiftID string `json:"gift_id"`
	Price  int64  `json:"price"`
}

type TransferCrystalsRequest struct {
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

type AliasRequest struct {
	Alias string `json:"alias"`
}

type SupportMessageRequest struct {
	Text  string `json:"text"`
	Email string `json:"email,omitempty"`
}

type SupportReplyRequest struct {
	TicketID string `json:"ticket_id"`
	Text     string `json:"text"`
}

type AdminActionRequest struct {
	Action string `json:"action"`
	Target string `json:"target"`
	Value  string `json:"value,omitempty"`
	Amount int64  `json:"amount,omitempty"`
}

type AdminGiveNftRequest struct {
	To      string   `json:"to"`
	Aliases []string `json:"aliases"`
}

type PremiumDecisionRequest struct {
	Username string `json:"username"`
}

// Server -> client payloads. Direct replies carry the request type with a
// success flag; pushes carry their own event type.

type Response struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type AuthResponse struct {
	Type    string       `json:"type"`
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`
	Reason  string       `json:"reason,omitempty"`
	User    *models.User `json:"user,omitempty"`
	Token   string       `json:"token,omitempty"`
}

type ProfileResponse struct {
	Type    string          `json:"type"`
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Profile *models.Profile `json:"profile,omitempty"`
}

type SearchResponse struct {
	Type    string            `json:"type"`
	Success bool              `json:"success"`
	Results []*models.Profile `json:"results"`
}

type PrivateMessageResponse struct {
	Type    string                 `json:"type"`
	Success bool                   `json:"success"`
	Error   string                 `json:"error,omitempty"`
	Message *models.PrivateMessage `json:"message,omitempty"`
}

type PrivateHistoryResponse struct {
	Type     string                   `json:"type"`
	Success  bool                     `json:"success"`
	With     string                   `json:"with"`
	Messages []*models.PrivateMessage `json:"messages"`
}

type ChatSummariesPayload struct {
	Type      string                `json:"type"`
	Success   bool                  `json:"success"`
	Summaries []*models.ChatSummary `json:"summaries"`
}

type ChatResponse struct {
	Type          string       `json:"type"`
	Success       bool         `json:"success"`
	Error         string       `json:"error,omitempty"`
	Chat          *models.Chat `json:"chat,omitempty"`
	AlreadyMember bool         `json:"already_member,omitempty"`
}

type ChatHistoryResponse struct {
	Type     string                `json:"type"`
	Success  bool                  `json:"success"`
	ChatID   string                `json:"chat_id"`
	Messages []*models.ChatMessage `json:"messages"`
}

type NewPrivateMessagePayload struct {
	Type    string                 `json:"type"`
	Message *models.PrivateMessage `json:"message"`
}

type NewChatMessagePayload struct {
	Type              string              `json:"type"`
	Message           *models.ChatMessage `json:"message"`
	SenderDisplayName string              `json:"sender_display_name"`
	SenderAvatar      string              `json:"sender_avatar,omitempty"`
}

type ReactionPayload struct {
	Type     string           `json:"type"`
	Success  bool             `json:"success"`
	Reaction *models.Reaction `json:"reaction,omitempty"`
}

type MessageDeletedPayload struct {
	Type      string `json:"type"`
	Success   bool   `json:"success"`
	MessageID string `json:"message_id"`
	Scope     string `json:"scope"`
}

type GiftResponse struct {
	Type    string       `json:"type"`
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`
	Gift    *models.Gift `json:"gift,omitempty"`
	Balance int64        `json:"balance"`
}

type BalanceUpdatePayload struct {
	Type    string `json:"type"`
	Balance int64  `json:"balance"`
	Reason  string `json:"reason,omitempty"`
}

type TransferResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Balance int64  `json:"balance"`
}

type AliasResponse struct {
	Type    string          `json:"type"`
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Aliases []*models.Alias `json:"aliases,omitempty"`
}

type SupportThreadResponse struct {
	Type     string                   `json:"type"`
	Success  bool                     `json:"success"`
	TicketID string                   `json:"ticket_id,omitempty"`
	Messages []*models.SupportMessage `json:"messages"`
}

type SupportTicketsResponse struct {
	Type    string                  `json:"type"`
	Success bool                    `json:"success"`
	Tickets []*models.TicketPreview `json:"tickets"`
}

type SupportUpdatePayload struct {
	Type     string                 `json:"type"`
	TicketID string                 `json:"ticket_id"`
	Message  *models.SupportMessage `json:"message"`
}

type AdminConfirmation struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type AdminNoticePayload struct {
	Type   string `json:"type"`
	Notice string `json:"notice"`
}

type StatsResponse struct {
	Type    string        `json:"type"`
	Success bool          `json:"success"`
	Stats   *models.Stats `json:"stats"`
}

type PremiumDecisionPayload struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

type UpdateAvailablePayload struct {
	Type string `json:"type"`
}
