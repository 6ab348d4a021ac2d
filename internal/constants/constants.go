package constants

const (
	// Shared REST/WS transport-agnostic errors
	ErrCodeAuthFailed     = "AUTH_FAILED"
	ErrCodeRateLimited    = "RATE_LIMITED"
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeConflict       = "CONFLICT"
	ErrCodeInternal       = "INTERNAL_ERROR"

	// Chat domain errors
	ErrCodeMessageTooLong    = "MESSAGE_TOO_LONG"
	ErrCodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	ErrCodeAccountFrozen     = "ACCOUNT_FROZEN"
	ErrCodeAliasCapacity     = "ALIAS_CAPACITY"
)

const (
	// MinUsernameLength applies to usernames and aliases; the two share
	// one global namespace.
	MinUsernameLength = 4
	MinPasswordLength = 6
	MaxUsernameLength = 32

	// HistoryLimit caps private and chat history queries.
	HistoryLimit = 100

	// SummaryPreviewLength is the truncation length for the last-message
	// preview stored on chat summaries.
	SummaryPreviewLength = 64

	MaxMessageContentLength = 4000

	// IDRandomBytes is the entropy for generated entity IDs.
	IDRandomBytes = 16

	WSClientSendBufferSize = 256

	// DeletedPlaceholder replaces the content of soft-deleted messages.
	// The row itself is never removed.
	DeletedPlaceholder = "Message deleted"

	// HelperRecipient redirects a private message into the support
	// ticket path instead of peer messaging.
	HelperRecipient = "helper"
)
