package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrValidation      = errors.New("validation failed")
	ErrServiceNotFound = errors.New("service not found")
	ErrNoOnlineClient  = errors.New("no online client available")
	ErrMemoryStore     = errors.New("memory store operation failed")
)
