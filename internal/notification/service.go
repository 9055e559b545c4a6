// internal/notification/service.go

// Package notification orchestrates the portal's notification core: recipient
// resolution, deduplication, persistence, and fan-out over the delivery
// channels.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/geonook/es-international-department-sub001/internal/common/errors"
	"github.com/geonook/es-international-department-sub001/internal/common/logger"
	"github.com/geonook/es-international-department-sub001/internal/common/metrics"
	"github.com/geonook/es-international-department-sub001/internal/common/observability"
	"github.com/geonook/es-international-department-sub001/internal/models"
	"github.com/geonook/es-international-department-sub001/internal/notification/templates"
)

// ==========================
// Collaborator interfaces
// ==========================

type RecipientResolver interface {
	Resolve(ctx context.Context, req *models.DeliveryRequest) ([]string, error)
}

type DuplicateGuard interface {
	FilterDuplicates(ctx context.Context, recipientIDs []string, title, ntype, relatedID string) ([]string, error)
}

type NotificationStore interface {
	CreateMany(ctx context.Context, records []models.Notification) error
	BulkMarkRead(ctx context.Context, userID string, ids []string) (int64, error)
	BulkMarkUnread(ctx context.Context, userID string, ids []string) (int64, error)
	BulkDelete(ctx context.Context, userID string, ids []string) (int64, error)
	Archive(ctx context.Context, userID string, ids []string) (int64, error)
	CleanupExpired(ctx context.Context) (int64, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
}

type PreferencesStore interface {
	Get(ctx context.Context, userID string) (*models.NotificationPreferences, error)
	Update(ctx context.Context, userID string, patch *models.PreferencesUpdate) (*models.NotificationPreferences, error)
}

// EntityDirectory is the read-only view of the user directory and the
// related-entity tables owned by other subsystems.
type EntityDirectory interface {
	GetUser(ctx context.Context, id string) (*models.DirectoryUser, error)
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListEventsBetween(ctx context.Context, from, to time.Time) ([]models.Event, error)
	GetAnnouncement(ctx context.Context, id string) (*models.Announcement, error)
	GetRegistration(ctx context.Context, id string) (*models.Registration, error)
	GetResource(ctx context.Context, id string) (*models.Resource, error)
	GetNewsletter(ctx context.Context, id string) (*models.Newsletter, error)
}

type RealtimePusher interface {
	Enabled() bool
	Push(ctx context.Context, userID string, notes []models.Notification) error
}

type EmailSender interface {
	Enabled() bool
	Send(ctx context.Context, to, subject, body string, eventDate *time.Time) error
}

type SMSSender interface {
	Enabled() bool
	ShouldEscalate(priority string) bool
	Send(ctx context.Context, phone, message string) error
}

// ==========================
// Service
// ==========================

// Dependencies bundles everything the service needs.
type Dependencies struct {
	Resolver    RecipientResolver
	Guard       DuplicateGuard
	Store       NotificationStore
	Preferences PreferencesStore
	Directory   EntityDirectory
	Realtime    RealtimePusher
	Email       EmailSender
	SMS         SMSSender
	Logger      logger.Logger
	Obs         *observability.Observability

	// ReminderLookahead bounds the event-reminder sweep window. Defaults to
	// 24 hours when zero.
	ReminderLookahead time.Duration
}

type Service struct {
	resolver  RecipientResolver
	guard     DuplicateGuard
	store     NotificationStore
	prefs     PreferencesStore
	dir       EntityDirectory
	realtime  RealtimePusher
	email     EmailSender
	sms       SMSSender
	logger    logger.Logger
	obs       *observability.Observability
	lookahead time.Duration
}

func NewService(deps Dependencies) *Service {
	lookahead := deps.ReminderLookahead
	if lookahead <= 0 {
		lookahead = 24 * time.Hour
	}
	return &Service{
		resolver:  deps.Resolver,
		guard:     deps.Guard,
		store:     deps.Store,
		prefs:     deps.Preferences,
		dir:       deps.Directory,
		realtime:  deps.Realtime,
		email:     deps.Email,
		sms:       deps.SMS,
		logger:    deps.Logger.WithFields(map[string]interface{}{"component": "notification-service"}),
		obs:       deps.Obs,
		lookahead: lookahead,
	}
}

// ==========================
// Send path
// ==========================

// SendNotification runs the full pipeline: resolve recipients, render
// content, filter duplicates, persist, fan out. Persistence strictly precedes
// any channel push; channel failures never abort sibling deliveries. The only
// returned error is a programming error (unknown template); everything else
// is reported through the result.
func (s *Service) SendNotification(ctx context.Context, req *models.DeliveryRequest) (*models.SendResult, error) {
	start := time.Now()
	result, err := s.send(ctx, req)

	ntype := req.Type
	if ntype == "" && req.TemplateKey != "" {
		if tpl, tplErr := templates.Get(req.TemplateKey); tplErr == nil {
			ntype = tpl.Type
		}
	}
	if ntype == "" {
		ntype = models.TypeSystem
	}
	metrics.SendDuration.WithLabelValues(ntype).Observe(time.Since(start).Seconds())
	if s.obs != nil {
		status := "failed"
		if result != nil && result.Success {
			status = "success"
		}
		s.obs.RecordSend(ctx, status)
		s.obs.RecordSendDuration(ctx, time.Since(start), status)
	}
	return result, err
}

func (s *Service) send(ctx context.Context, req *models.DeliveryRequest) (*models.SendResult, error) {
	title := req.Title
	message := req.Message
	priority := req.Priority
	ntype := req.Type

	// Template rendering happens before anything else so an unknown key fails
	// loudly without touching the directory.
	if req.TemplateKey != "" {
		tpl, err := templates.Get(req.TemplateKey)
		if err != nil {
			return nil, err
		}
		title = templates.ApplyTemplate(tpl.Title, req.TemplateData)
		message = templates.ApplyTemplate(tpl.Message, req.TemplateData)
		if priority == "" {
			priority = tpl.Priority
		}
		if ntype == "" {
			ntype = tpl.Type
		}
	}
	if priority == "" {
		priority = models.PriorityMedium
	}

	recipients, err := s.resolver.Resolve(ctx, req)
	if err != nil {
		s.logger.Error("recipient resolution failed", map[string]interface{}{
			"recipientType": req.RecipientType,
			"error":         err.Error(),
		})
		return failedResult(err.Error()), nil
	}
	if len(recipients) == 0 {
		return failedResult(errors.NewNoRecipientsError(req.RecipientType).Error()), nil
	}

	duplicates, err := s.guard.FilterDuplicates(ctx, recipients, title, ntype, req.RelatedID)
	if err != nil {
		s.logger.Error("duplicate check failed", map[string]interface{}{"error": err.Error()})
		return failedResult(err.Error()), nil
	}
	dupSet := toSet(duplicates)
	metrics.NotificationsDeduplicated.WithLabelValues(ntype).Add(float64(len(duplicates)))

	// Load preferences once per recipient; a disabled category blocks every
	// channel including the persisted in-app row.
	prefsByUser := make(map[string]*models.NotificationPreferences, len(recipients))
	var survivors, skipped []string
	for _, id := range recipients {
		if dupSet[id] {
			skipped = append(skipped, id)
			continue
		}
		p, err := s.prefs.Get(ctx, id)
		if err != nil {
			s.logger.Warn("preferences unavailable, using defaults", map[string]interface{}{
				"userId": id,
				"error":  err.Error(),
			})
			p = models.DefaultPreferences(id)
		}
		if !p.CategoryEnabled(ntype) {
			skipped = append(skipped, id)
			continue
		}
		prefsByUser[id] = p
		survivors = append(survivors, id)
	}

	if len(survivors) == 0 {
		return &models.SendResult{
			Success:     false,
			TotalFailed: len(skipped),
			Recipients:  models.RecipientOutcome{Success: []string{}, Failed: skipped},
			Errors:      []string{"all recipients filtered (duplicates or disabled category)"},
		}, nil
	}

	records := make([]models.Notification, 0, len(survivors))
	for _, id := range survivors {
		records = append(records, models.Notification{
			ID:          uuid.New().String(),
			RecipientID: id,
			Title:       title,
			Message:     message,
			Type:        ntype,
			Priority:    priority,
			RelatedID:   req.RelatedID,
			RelatedType: req.RelatedType,
			ExpiresAt:   req.ExpiresAt,
			CreatedAt:   time.Now().UTC(),
		})
	}

	if err := s.store.CreateMany(ctx, records); err != nil {
		s.logger.Error("notification persistence failed", map[string]interface{}{
			"count": len(records),
			"error": err.Error(),
		})
		return &models.SendResult{
			Success:     false,
			TotalFailed: len(recipients),
			Recipients:  models.RecipientOutcome{Success: []string{}, Failed: recipients},
			Errors:      []string{err.Error()},
		}, nil
	}
	metrics.NotificationsCreated.WithLabelValues(ntype).Add(float64(len(records)))

	eventDate := s.eventDateFor(ctx, req, ntype)

	s.fanOutRealtime(ctx, records, prefsByUser, ntype, priority)
	s.fanOutEmail(ctx, records, prefsByUser, ntype, priority, eventDate)
	s.fanOutSMS(ctx, records, prefsByUser, ntype, priority)

	return &models.SendResult{
		Success:     true,
		TotalSent:   len(survivors),
		TotalFailed: len(skipped),
		Recipients:  models.RecipientOutcome{Success: survivors, Failed: skipped},
	}, nil
}

// eventDateFor resolves the related event's start date so email delivery can
// include it. Lookup failures degrade to a date-less email.
func (s *Service) eventDateFor(ctx context.Context, req *models.DeliveryRequest, ntype string) *time.Time {
	if req.RelatedType != models.EntityEvent || req.RelatedID == "" {
		return nil
	}
	if ntype != models.TypeEvent && ntype != models.TypeReminder && ntype != models.TypeRegistration {
		return nil
	}
	event, err := s.dir.GetEvent(ctx, req.RelatedID)
	if err != nil {
		s.logger.Warn("related event lookup failed", map[string]interface{}{
			"eventId": req.RelatedID,
			"error":   err.Error(),
		})
		return nil
	}
	return &event.StartDate
}

// quietHoursSuppress reports whether a recipient's do-not-disturb window
// holds back a channel push right now. The in-app row is already persisted;
// only the push is withheld. Urgent notifications break through.
func (s *Service) quietHoursSuppress(p *models.NotificationPreferences, priority, userID, channel string) bool {
	if p == nil || priority == models.PriorityUrgent || !p.InQuietHours(time.Now()) {
		return false
	}
	s.logger.Debug("delivery withheld during quiet hours", map[string]interface{}{
		"userId":  userID,
		"channel": channel,
	})
	return true
}

// fanOutRealtime groups the persisted batch by recipient and pushes each
// group. One transport failure never aborts the other recipients.
func (s *Service) fanOutRealtime(ctx context.Context, records []models.Notification, prefsByUser map[string]*models.NotificationPreferences, ntype, priority string) {
	if s.realtime == nil || !s.realtime.Enabled() {
		return
	}

	grouped := groupByRecipient(records)
	for userID, notes := range grouped {
		p := prefsByUser[userID]
		if p != nil && !p.SystemAllowed(ntype) {
			continue
		}
		if s.quietHoursSuppress(p, priority, userID, "realtime") {
			continue
		}
		if err := s.realtime.Push(ctx, userID, notes); err != nil {
			deliveryErr := errors.NewChannelDeliveryError("realtime", userID, err)
			s.logger.Warn("realtime delivery failed", map[string]interface{}{
				"userId": userID,
				"error":  deliveryErr.Error(),
			})
		}
	}
}

// fanOutEmail sends one email per notification, honoring each recipient's
// preferences. Recipients with no address or email disabled are skipped; a
// per-email failure is logged and the loop continues.
func (s *Service) fanOutEmail(ctx context.Context, records []models.Notification, prefsByUser map[string]*models.NotificationPreferences, ntype, priority string, eventDate *time.Time) {
	if s.email == nil || !s.email.Enabled() {
		return
	}

	for userID, notes := range groupByRecipient(records) {
		p := prefsByUser[userID]
		if p != nil && !p.EmailAllowed(ntype) {
			continue
		}
		if s.quietHoursSuppress(p, priority, userID, "email") {
			continue
		}

		user, err := s.dir.GetUser(ctx, userID)
		if err != nil {
			s.logger.Warn("recipient lookup failed for email delivery", map[string]interface{}{
				"userId": userID,
				"error":  err.Error(),
			})
			continue
		}
		if user.Email == "" {
			s.logger.Debug("recipient has no email address", map[string]interface{}{
				"userId": userID,
			})
			continue
		}

		// One email per notification, not batched per user.
		for _, n := range notes {
			if err := s.email.Send(ctx, user.Email, n.Title, n.Message, eventDate); err != nil {
				deliveryErr := errors.NewChannelDeliveryError("email", userID, err)
				s.logger.Warn("email delivery failed", map[string]interface{}{
					"userId":         userID,
					"notificationId": n.ID,
					"error":          deliveryErr.Error(),
				})
			}
		}
	}
}

// fanOutSMS escalates urgent notifications to SMS for recipients with a phone
// on file. Opt-in; most deployments leave it disabled.
func (s *Service) fanOutSMS(ctx context.Context, records []models.Notification, prefsByUser map[string]*models.NotificationPreferences, ntype, priority string) {
	if s.sms == nil || !s.sms.ShouldEscalate(priority) {
		return
	}

	for userID, notes := range groupByRecipient(records) {
		p := prefsByUser[userID]
		if p != nil && !p.SMSAllowed(ntype) {
			continue
		}

		user, err := s.dir.GetUser(ctx, userID)
		if err != nil || user.Phone == "" {
			continue
		}
		for _, n := range notes {
			if err := s.sms.Send(ctx, user.Phone, fmt.Sprintf("%s: %s", n.Title, n.Message)); err != nil {
				deliveryErr := errors.NewChannelDeliveryError("sms", userID, err)
				s.logger.Warn("sms delivery failed", map[string]interface{}{
					"userId": userID,
					"error":  deliveryErr.Error(),
				})
			}
		}
	}
}

// ==========================
// Bulk operations
// ==========================

// BulkOperation applies a read-state transition to a user's notifications.
// Unknown actions surface both as a failed result and an error.
func (s *Service) BulkOperation(ctx context.Context, userID string, op *models.BulkOperation) (*models.BulkResult, error) {
	var (
		count int64
		err   error
	)

	switch op.Action {
	case models.BulkActionMarkRead:
		count, err = s.store.BulkMarkRead(ctx, userID, op.NotificationIDs)
	case models.BulkActionMarkUnread:
		count, err = s.store.BulkMarkUnread(ctx, userID, op.NotificationIDs)
	case models.BulkActionArchive:
		count, err = s.store.Archive(ctx, userID, op.NotificationIDs)
	case models.BulkActionDelete:
		count, err = s.store.BulkDelete(ctx, userID, op.NotificationIDs)
	default:
		actionErr := errors.NewUnknownBulkActionError(op.Action)
		return &models.BulkResult{Success: false, Error: actionErr.Error()}, actionErr
	}

	if err != nil {
		s.logger.Error("bulk operation failed", map[string]interface{}{
			"userId": userID,
			"action": op.Action,
			"error":  err.Error(),
		})
		return &models.BulkResult{Success: false, Error: err.Error()}, nil
	}

	return &models.BulkResult{Success: true, AffectedCount: count}, nil
}

// CleanupExpiredNotifications deletes rows whose expiry has passed.
func (s *Service) CleanupExpiredNotifications(ctx context.Context) (int64, error) {
	count, err := s.store.CleanupExpired(ctx)
	if err != nil {
		return 0, err
	}
	metrics.ExpiredCleaned.Add(float64(count))
	return count, nil
}

// ==========================
// Reads and preferences
// ==========================

func (s *Service) GetTemplate(key string) (models.TemplateConfig, error) {
	return templates.Get(key)
}

func (s *Service) GetAllTemplates() []models.TemplateConfig {
	return templates.All()
}

func (s *Service) GetUserPreferences(ctx context.Context, userID string) (*models.NotificationPreferences, error) {
	return s.prefs.Get(ctx, userID)
}

func (s *Service) UpdateUserPreferences(ctx context.Context, userID string, patch *models.PreferencesUpdate) (*models.NotificationPreferences, error) {
	return s.prefs.Update(ctx, userID, patch)
}

func (s *Service) ListNotifications(ctx context.Context, userID string, offset, limit int) ([]models.Notification, error) {
	return s.store.ListByUser(ctx, userID, offset, limit)
}

func (s *Service) CountUnread(ctx context.Context, userID string) (int64, error) {
	return s.store.CountUnread(ctx, userID)
}

// ==========================
// Helpers
// ==========================

func failedResult(msg string) *models.SendResult {
	return &models.SendResult{
		Success:    false,
		Recipients: models.RecipientOutcome{Success: []string{}, Failed: []string{}},
		Errors:     []string{msg},
	}
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func groupByRecipient(records []models.Notification) map[string][]models.Notification {
	grouped := make(map[string][]models.Notification)
	for _, n := range records {
		grouped[n.RecipientID] = append(grouped[n.RecipientID], n)
	}
	return grouped
}
