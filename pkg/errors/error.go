package errors

import (
	stderrors "errors"
)

// ErrorCode represents a specific error code in the system.
type ErrorCode string

const (
	// GeneralInternalServerError represents a generic internal error.
	GeneralInternalServerError ErrorCode = "general_internal_server_error"

	// InvalidActionPayload represents an inbound action that failed decoding or validation.
	InvalidActionPayload ErrorCode = "invalid_action_payload"
	// InvalidOrderAmount represents an attempt to rest an order with no remaining amount.
	InvalidOrderAmount ErrorCode = "invalid_order_amount"
	// CorruptBookEntry represents a stored member or status that can no longer be decoded.
	CorruptBookEntry ErrorCode = "corrupt_book_entry"

	// RedisConfigError represents an error when the Redis configuration is invalid or nil.
	RedisConfigError ErrorCode = "redis_config_error"
	// RedisConnectionError represents an error when connecting to Redis.
	RedisConnectionError ErrorCode = "redis_connection_error"
	// RedisDisconnectionError represents an error when disconnecting from Redis.
	RedisDisconnectionError ErrorCode = "redis_disconnection_error"
	// RedisPingError represents an error when pinging Redis.
	RedisPingError ErrorCode = "redis_pinging_error"

	// RedisGetError represents an error when getting a value from Redis.
	RedisGetError ErrorCode = "redis_get_error"
	// RedisSetError represents an error when setting a value in Redis.
	RedisSetError ErrorCode = "redis_set_error"

	// RedisZAddError represents an error when adding members to a sorted set in Redis.
	RedisZAddError ErrorCode = "redis_zadd_error"
	// RedisZPopError represents an error when popping the lowest or highest member of a sorted set.
	RedisZPopError ErrorCode = "redis_zpop_error"
	// RedisZRangeError represents an error when reading a score range of a sorted set.
	RedisZRangeError ErrorCode = "redis_zrange_error"
	// RedisZRemError represents an error when removing members from a sorted set.
	RedisZRemError ErrorCode = "redis_zrem_error"

	// ExecutionPublishError represents a failure to publish an execution batch.
	ExecutionPublishError ErrorCode = "execution_publish_error"
	// DeadLetterPublishError represents a failure to publish a dead-letter entry.
	DeadLetterPublishError ErrorCode = "dead_letter_publish_error"
	// CheckpointError represents a failure to load or store a consumer checkpoint.
	CheckpointError ErrorCode = "checkpoint_error"
)

// DetailsOf walks the error chain and returns the first ErrorDetails found.
func DetailsOf(err error) (*ErrorDetails, bool) {
	var details *ErrorDetails
	if stderrors.As(err, &details) {
		return details, true
	}
	return nil, false
}

// CodeOf walks the error chain and returns the code of the first ErrorDetails found.
func CodeOf(err error) (ErrorCode, bool) {
	if details, ok := DetailsOf(err); ok {
		return ErrorCode(details.Code), true
	}
	return "", false
}

// HasCode reports whether any ErrorDetails in the chain of err carries code.
func HasCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}
