package shared

// FailureReason defines why a transfer was recorded as failed
type FailureReason string

const (
	FailureReasonWalletNotFound    FailureReason = "WALLET_NOT_FOUND"
	FailureReasonInsufficientFunds FailureReason = "INSUFFICIENT_FUNDS"
	FailureReasonInvalidAmount     FailureReason = "INVALID_AMOUNT"
	FailureReasonLimitExceeded     FailureReason = "LIMIT_EXCEEDED"
	FailureReasonUnknownError      FailureReason = "UNKNOWN_ERROR"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
