// internal/models/notification.go
package models

import "time"

// Notification types
const (
	TypeSystem       = "system"
	TypeAnnouncement = "announcement"
	TypeEvent        = "event"
	TypeRegistration = "registration"
	TypeResource     = "resource"
	TypeNewsletter   = "newsletter"
	TypeMaintenance  = "maintenance"
	TypeReminder     = "reminder"
)

// Priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Recipient selection strategies
const (
	RecipientAll        = "all"
	RecipientSpecific   = "specific"
	RecipientRoleBased  = "role_based"
	RecipientGradeBased = "grade_based"
)

// Bulk operation actions
const (
	BulkActionMarkRead   = "mark_read"
	BulkActionMarkUnread = "mark_unread"
	BulkActionArchive    = "archive"
	BulkActionDelete     = "delete"
)

// Notification is one persisted row. Fan-out creates exactly one row per
// recipient; there are no multi-recipient rows. ReadAt is set iff IsRead.
type Notification struct {
	ID          string     `json:"id"`
	RecipientID string     `json:"recipientId"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	Type        string     `json:"type"`
	Priority    string     `json:"priority"`
	IsRead      bool       `json:"isRead"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	RelatedID   string     `json:"relatedId,omitempty"`
	RelatedType string     `json:"relatedType,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// TemplateConfig is one entry of the static template catalog.
type TemplateConfig struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Message       string   `json:"message"`
	Variables     []string `json:"variables"`
	Priority      string   `json:"priority"`
	Type          string   `json:"type"`
}

// DeliveryRequest is the transient instruction to send a notification.
// Either Title/Message or TemplateKey+TemplateData carry the content.
type DeliveryRequest struct {
	Title         string                 `json:"title,omitempty"`
	Message       string                 `json:"message,omitempty"`
	Type          string                 `json:"type"`
	Priority      string                 `json:"priority,omitempty"`
	RecipientType string                 `json:"recipientType"`
	RecipientIDs  []string               `json:"recipientIds,omitempty"`
	Roles         []string               `json:"roles,omitempty"`
	Grades        []string               `json:"grades,omitempty"`
	TemplateKey   string                 `json:"templateKey,omitempty"`
	TemplateData  map[string]interface{} `json:"templateData,omitempty"`
	RelatedID     string                 `json:"relatedId,omitempty"`
	RelatedType   string                 `json:"relatedType,omitempty"`
	ExpiresAt     *time.Time             `json:"expiresAt,omitempty"`
}

// RecipientOutcome partitions recipient ids by delivery outcome.
type RecipientOutcome struct {
	Success []string `json:"success"`
	Failed  []string `json:"failed"`
}

// SendResult summarizes one sendNotification invocation. Callers must treat
// "sent" as best-effort and check the counts rather than assume success.
type SendResult struct {
	Success     bool             `json:"success"`
	TotalSent   int              `json:"totalSent"`
	TotalFailed int              `json:"totalFailed"`
	Recipients  RecipientOutcome `json:"recipients"`
	Errors      []string         `json:"errors,omitempty"`
}

// BulkOperation is the instruction for a bulk read-state transition.
type BulkOperation struct {
	Action          string   `json:"action"`
	NotificationIDs []string `json:"notificationIds"`
}

// BulkResult reports the outcome of a bulk operation.
type BulkResult struct {
	Success       bool   `json:"success"`
	AffectedCount int64  `json:"affectedCount"`
	Error         string `json:"error,omitempty"`
}
