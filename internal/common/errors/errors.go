// Package errors provides standardized error handling for the notification core.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeNoRecipients      ErrorCode = "NO_RECIPIENTS"
	ErrCodeTemplateNotFound  ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodePersistenceFailed ErrorCode = "PERSISTENCE_FAILED"
	ErrCodeChannelDelivery   ErrorCode = "CHANNEL_DELIVERY_FAILED"
	ErrCodeUnknownBulkAction ErrorCode = "UNKNOWN_BULK_ACTION"
	ErrCodePreferencesLoad   ErrorCode = "PREFERENCES_LOAD_FAILED"
	ErrCodeDirectoryQuery    ErrorCode = "DIRECTORY_QUERY_FAILED"
	ErrCodeEntityNotFound    ErrorCode = "ENTITY_NOT_FOUND"
	ErrCodeInvalidRequest    ErrorCode = "INVALID_REQUEST"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewNoRecipientsError marks a send whose recipient resolution came up empty.
// Reported as a failed result, not thrown.
func NewNoRecipientsError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoRecipients,
		Message:   "No recipients resolved for delivery request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateNotFoundError creates a non-retryable template error.
func NewTemplateNotFoundError(templateID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "Template not found in registry",
		Details:   fmt.Sprintf("templateId: %s", templateID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceError creates a retryable store error.
func NewPersistenceError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailed,
		Message:   fmt.Sprintf("Notification store operation failed: %s", op),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewChannelDeliveryError marks a per-recipient channel failure. Always
// absorbed by the fan-out loop, never propagated to sibling sends.
func NewChannelDeliveryError(channel, recipientID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeChannelDelivery,
		Message:   fmt.Sprintf("Delivery failed on %s channel", channel),
		Details:   err.Error(),
		Retryable: true,
		Metadata: map[string]interface{}{
			"channel":     channel,
			"recipientId": recipientID,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownBulkActionError creates a non-retryable bulk operation error.
func NewUnknownBulkActionError(action string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownBulkAction,
		Message:   "Unknown bulk operation action",
		Details:   fmt.Sprintf("action: %s", action),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPreferencesLoadError creates a retryable preferences store error.
func NewPreferencesLoadError(userID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePreferencesLoad,
		Message:   "Failed to load notification preferences",
		Details:   fmt.Sprintf("userId: %s: %v", userID, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDirectoryQueryError creates a retryable user directory error.
func NewDirectoryQueryError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDirectoryQuery,
		Message:   "User directory query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEntityNotFoundError marks a missing related entity lookup.
func NewEntityNotFoundError(entityType, id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEntityNotFound,
		Message:   fmt.Sprintf("Related %s not found", entityType),
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestError creates a non-retryable request validation error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Delivery request failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
