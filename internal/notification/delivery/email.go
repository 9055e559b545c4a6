// internal/notification/delivery/email.go
package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/geonook/es-international-department-sub001/internal/common/logger"
	"github.com/geonook/es-international-department-sub001/internal/common/metrics"
)

// SESService is the slice of the SES client the email channel needs; defined
// here so tests can substitute a mock.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type EmailChannel struct {
	ses     SESService
	from    string
	enabled bool
	logger  logger.Logger
}

func NewEmailChannel(sesClient SESService, from string, enabled bool, log logger.Logger) *EmailChannel {
	return &EmailChannel{
		ses:     sesClient,
		from:    from,
		enabled: enabled,
		logger:  log.WithFields(map[string]interface{}{"channel": "email"}),
	}
}

func (c *EmailChannel) Enabled() bool {
	return c.enabled
}

// Send delivers one email. Event-type notifications carry the event date,
// appended to the body so the recipient sees the date without opening the
// portal.
func (c *EmailChannel) Send(ctx context.Context, to, subject, body string, eventDate *time.Time) error {
	if !c.enabled {
		return nil
	}
	if to == "" {
		return fmt.Errorf("recipient has no email address")
	}

	metrics.DeliveriesAttempted.WithLabelValues("email").Inc()

	text := body
	if eventDate != nil {
		text = fmt.Sprintf("%s\n\nEvent date: %s", body, eventDate.Format("Monday, January 2, 2006 15:04"))
	}

	_, err := c.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(text)},
				Html: &types.Content{Data: aws.String(text)},
			},
		},
		Source: aws.String(c.from),
	})
	if err != nil {
		metrics.DeliveriesFailed.WithLabelValues("email").Inc()
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}
