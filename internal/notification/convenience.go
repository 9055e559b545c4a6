// internal/notification/convenience.go

package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/geonook/es-international-department-sub001/internal/common/errors"
	"github.com/geonook/es-international-department-sub001/internal/models"
	"github.com/geonook/es-international-department-sub001/internal/notification/templates"
)

// Entity-driven wrappers. Each one loads the related record, fills the
// matching template, and hands off to the send pipeline.

const displayDateFormat = "Monday, January 2, 2006 15:04"

// CreateEventNotification announces an event lifecycle change to all active
// users. Change must be one of created, updated, cancelled. Extra entries
// override the derived template data.
func (s *Service) CreateEventNotification(ctx context.Context, eventID, change string, extra map[string]interface{}) (*models.SendResult, error) {
	var key string
	switch change {
	case "created":
		key = templates.KeyEventCreated
	case "updated":
		key = templates.KeyEventUpdated
	case "cancelled":
		key = templates.KeyEventCancelled
	default:
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("unknown event change %q", change))
	}

	event, err := s.dir.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"eventTitle": event.Title,
		"eventDate":  event.StartDate.Format(displayDateFormat),
		"location":   event.Location,
	}
	for k, v := range extra {
		data[k] = v
	}

	return s.SendNotification(ctx, &models.DeliveryRequest{
		TemplateKey:   key,
		TemplateData:  data,
		RecipientType: models.RecipientAll,
		RelatedID:     event.ID,
		RelatedType:   models.EntityEvent,
	})
}

// CreateAnnouncementNotification notifies all active users of a published
// announcement.
func (s *Service) CreateAnnouncementNotification(ctx context.Context, announcementID string) (*models.SendResult, error) {
	ann, err := s.dir.GetAnnouncement(ctx, announcementID)
	if err != nil {
		return nil, err
	}

	return s.SendNotification(ctx, &models.DeliveryRequest{
		TemplateKey: templates.KeyAnnouncementPublished,
		TemplateData: map[string]interface{}{
			"title":   ann.Title,
			"summary": ann.Summary,
		},
		RecipientType: models.RecipientAll,
		RelatedID:     ann.ID,
		RelatedType:   models.EntityAnnouncement,
	})
}

// CreateRegistrationNotification tells one registrant about a registration
// status change. Status must be one of confirmed, waitlisted, cancelled.
func (s *Service) CreateRegistrationNotification(ctx context.Context, registrationID, status string) (*models.SendResult, error) {
	var key string
	switch status {
	case "confirmed":
		key = templates.KeyRegistrationConfirmed
	case "waitlisted":
		key = templates.KeyRegistrationWaitlisted
	case "cancelled":
		key = templates.KeyRegistrationCancelled
	default:
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("unknown registration status %q", status))
	}

	reg, err := s.dir.GetRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	event, err := s.dir.GetEvent(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"eventTitle": event.Title,
		"eventDate":  event.StartDate.Format(displayDateFormat),
	}
	if status == "waitlisted" && reg.WaitlistPosition > 0 {
		data["position"] = reg.WaitlistPosition
	}

	return s.SendNotification(ctx, &models.DeliveryRequest{
		TemplateKey:   key,
		TemplateData:  data,
		RecipientType: models.RecipientSpecific,
		RecipientIDs:  []string{reg.UserID},
		RelatedID:     event.ID,
		RelatedType:   models.EntityEvent,
	})
}

// CreateResourceNotification announces a newly shared resource.
func (s *Service) CreateResourceNotification(ctx context.Context, resourceID string) (*models.SendResult, error) {
	res, err := s.dir.GetResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	return s.SendNotification(ctx, &models.DeliveryRequest{
		TemplateKey: templates.KeyResourceUploaded,
		TemplateData: map[string]interface{}{
			"resourceTitle": res.Title,
			"category":      res.Category,
		},
		RecipientType: models.RecipientAll,
		RelatedID:     res.ID,
		RelatedType:   models.EntityResource,
	})
}

// CreateNewsletterNotification announces a newsletter issue.
func (s *Service) CreateNewsletterNotification(ctx context.Context, newsletterID string) (*models.SendResult, error) {
	nl, err := s.dir.GetNewsletter(ctx, newsletterID)
	if err != nil {
		return nil, err
	}

	return s.SendNotification(ctx, &models.DeliveryRequest{
		TemplateKey: templates.KeyNewsletterPublished,
		TemplateData: map[string]interface{}{
			"newsletterTitle": nl.Title,
			"issue":           nl.Issue,
		},
		RecipientType: models.RecipientAll,
		RelatedID:     nl.ID,
		RelatedType:   models.EntityNewsletter,
	})
}

// CreateMaintenanceNotification warns everyone about a maintenance window.
// The notification expires when the window ends.
func (s *Service) CreateMaintenanceNotification(ctx context.Context, start, end time.Time, description string) (*models.SendResult, error) {
	expiry := end
	return s.SendNotification(ctx, &models.DeliveryRequest{
		TemplateKey: templates.KeySystemMaintenance,
		TemplateData: map[string]interface{}{
			"startTime":   start.Format(displayDateFormat),
			"endTime":     end.Format(displayDateFormat),
			"description": description,
		},
		RecipientType: models.RecipientAll,
		ExpiresAt:     &expiry,
	})
}

// CreateReminderNotification sends a deadline reminder. With no explicit
// recipients it goes to all active users.
func (s *Service) CreateReminderNotification(ctx context.Context, subject, deadline string, recipientIDs []string) (*models.SendResult, error) {
	req := &models.DeliveryRequest{
		TemplateKey: templates.KeyDeadlineReminder,
		TemplateData: map[string]interface{}{
			"subject":  subject,
			"deadline": deadline,
		},
		RecipientType: models.RecipientAll,
	}
	if len(recipientIDs) > 0 {
		req.RecipientType = models.RecipientSpecific
		req.RecipientIDs = recipientIDs
	}
	return s.SendNotification(ctx, req)
}

// CreateEventReminders sweeps upcoming events and sends a reminder for
// each. The window starts at the next midnight and spans the configured
// lookahead. Reminders expire at the event start, and the dedup guard keeps
// repeated sweeps from double-sending. Returns the number of events that
// produced at least one delivery.
func (s *Service) CreateEventReminders(ctx context.Context) (int, error) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	to := from.Add(s.lookahead)

	events, err := s.dir.ListEventsBetween(ctx, from, to)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, event := range events {
		expiry := event.StartDate
		result, err := s.SendNotification(ctx, &models.DeliveryRequest{
			TemplateKey: templates.KeyEventReminder,
			TemplateData: map[string]interface{}{
				"eventTitle": event.Title,
				"eventDate":  event.StartDate.Format(displayDateFormat),
				"location":   event.Location,
			},
			RecipientType: models.RecipientAll,
			RelatedID:     event.ID,
			RelatedType:   models.EntityEvent,
			ExpiresAt:     &expiry,
		})
		if err != nil {
			s.logger.Error("event reminder failed", map[string]interface{}{
				"eventId": event.ID,
				"error":   err.Error(),
			})
			continue
		}
		if result.Success {
			sent++
		}
	}
	return sent, nil
}
