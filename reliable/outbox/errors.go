package outbox

import "errors"

var (
	ErrMessageRequired     = errors.New("outbox message is required")
	ErrRepositoryRequired  = errors.New("outbox repository is required")
	ErrSinkRequired        = errors.New("outbox sink is required")
	ErrDispatcherRunning   = errors.New("outbox dispatcher is already running")
	ErrTypeRequired        = errors.New("outbox message type is required")
	ErrPayloadRequired     = errors.New("outbox message payload is required")
	ErrPayloadTooLarge     = errors.New("outbox message payload exceeds maximum allowed size")
	ErrPayloadNotJSON      = errors.New("outbox message payload must be valid JSON")
	ErrTransactionRequired = errors.New("outbox publish requires the business transaction")
	ErrNoReadyMessages     = errors.New("no outbox messages ready for delivery")
	ErrSinkURLRequired     = errors.New("sink url is required")
	ErrUnexpectedStatus    = errors.New("sink returned a non-2xx status")
)
