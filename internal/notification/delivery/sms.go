// internal/notification/delivery/sms.go
package delivery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/geonook/es-international-department-sub001/internal/common/logger"
	"github.com/geonook/es-international-department-sub001/internal/common/metrics"
	"github.com/geonook/es-international-department-sub001/internal/models"
)

// SNSService is the slice of the SNS client the SMS channel needs.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SMSChannel is an opt-in escalation path: it only fires for notifications at
// or above the configured priority threshold, and is disabled by default.
type SMSChannel struct {
	sns       SNSService
	enabled   bool
	threshold string
	senderID  string
	logger    logger.Logger
}

// NewSMSChannel builds the channel. senderID, when set, becomes the
// alphanumeric sender shown on recipients' phones in regions that support it.
func NewSMSChannel(snsClient SNSService, enabled bool, threshold, senderID string, log logger.Logger) *SMSChannel {
	if threshold == "" {
		threshold = models.PriorityUrgent
	}
	return &SMSChannel{
		sns:       snsClient,
		enabled:   enabled,
		threshold: threshold,
		senderID:  senderID,
		logger:    log.WithFields(map[string]interface{}{"channel": "sms"}),
	}
}

func (c *SMSChannel) Enabled() bool {
	return c.enabled
}

var priorityRank = map[string]int{
	models.PriorityLow:    0,
	models.PriorityMedium: 1,
	models.PriorityHigh:   2,
	models.PriorityUrgent: 3,
}

// ShouldEscalate reports whether a notification's priority clears the SMS
// threshold.
func (c *SMSChannel) ShouldEscalate(priority string) bool {
	return c.enabled && priorityRank[priority] >= priorityRank[c.threshold]
}

// Send publishes one SMS.
func (c *SMSChannel) Send(ctx context.Context, phone, message string) error {
	if !c.enabled {
		return nil
	}
	if phone == "" {
		return fmt.Errorf("recipient has no phone number")
	}

	metrics.DeliveriesAttempted.WithLabelValues("sms").Inc()

	input := &sns.PublishInput{
		PhoneNumber: aws.String(phone),
		Message:     aws.String(message),
	}
	if c.senderID != "" {
		input.MessageAttributes = map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(c.senderID),
			},
		}
	}

	_, err := c.sns.Publish(ctx, input)
	if err != nil {
		metrics.DeliveriesFailed.WithLabelValues("sms").Inc()
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
