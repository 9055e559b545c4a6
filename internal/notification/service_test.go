// internal/notification/service_test.go

package notification

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/geonook/es-international-department-sub001/internal/common/logger"
	"github.com/geonook/es-international-department-sub001/internal/models"
	"github.com/geonook/es-international-department-sub001/internal/notification/templates"
)

// ==========================
// Mocks
// ==========================

type mockResolver struct {
	resolveFn func(ctx context.Context, req *models.DeliveryRequest) ([]string, error)
}

func (m *mockResolver) Resolve(ctx context.Context, req *models.DeliveryRequest) ([]string, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, req)
	}
	return nil, nil
}

type mockGuard struct {
	filterFn func(ctx context.Context, recipientIDs []string, title, ntype, relatedID string) ([]string, error)
}

func (m *mockGuard) FilterDuplicates(ctx context.Context, recipientIDs []string, title, ntype, relatedID string) ([]string, error) {
	if m.filterFn != nil {
		return m.filterFn(ctx, recipientIDs, title, ntype, relatedID)
	}
	return nil, nil
}

type mockStore struct {
	createManyFn  func(ctx context.Context, records []models.Notification) error
	markReadFn    func(ctx context.Context, userID string, ids []string) (int64, error)
	markUnreadFn  func(ctx context.Context, userID string, ids []string) (int64, error)
	deleteFn      func(ctx context.Context, userID string, ids []string) (int64, error)
	archiveFn     func(ctx context.Context, userID string, ids []string) (int64, error)
	cleanupFn     func(ctx context.Context) (int64, error)
	listFn        func(ctx context.Context, userID string, offset, limit int) ([]models.Notification, error)
	countUnreadFn func(ctx context.Context, userID string) (int64, error)

	created [][]models.Notification
}

func (m *mockStore) CreateMany(ctx context.Context, records []models.Notification) error {
	m.created = append(m.created, records)
	if m.createManyFn != nil {
		return m.createManyFn(ctx, records)
	}
	return nil
}

func (m *mockStore) BulkMarkRead(ctx context.Context, userID string, ids []string) (int64, error) {
	if m.markReadFn != nil {
		return m.markReadFn(ctx, userID, ids)
	}
	return int64(len(ids)), nil
}

func (m *mockStore) BulkMarkUnread(ctx context.Context, userID string, ids []string) (int64, error) {
	if m.markUnreadFn != nil {
		return m.markUnreadFn(ctx, userID, ids)
	}
	return int64(len(ids)), nil
}

func (m *mockStore) BulkDelete(ctx context.Context, userID string, ids []string) (int64, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, ids)
	}
	return int64(len(ids)), nil
}

func (m *mockStore) Archive(ctx context.Context, userID string, ids []string) (int64, error) {
	if m.archiveFn != nil {
		return m.archiveFn(ctx, userID, ids)
	}
	return int64(len(ids)), nil
}

func (m *mockStore) CleanupExpired(ctx context.Context) (int64, error) {
	if m.cleanupFn != nil {
		return m.cleanupFn(ctx)
	}
	return 0, nil
}

func (m *mockStore) ListByUser(ctx context.Context, userID string, offset, limit int) ([]models.Notification, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, offset, limit)
	}
	return nil, nil
}

func (m *mockStore) CountUnread(ctx context.Context, userID string) (int64, error) {
	if m.countUnreadFn != nil {
		return m.countUnreadFn(ctx, userID)
	}
	return 0, nil
}

type mockPrefs struct {
	getFn    func(ctx context.Context, userID string) (*models.NotificationPreferences, error)
	updateFn func(ctx context.Context, userID string, patch *models.PreferencesUpdate) (*models.NotificationPreferences, error)
}

func (m *mockPrefs) Get(ctx context.Context, userID string) (*models.NotificationPreferences, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return models.DefaultPreferences(userID), nil
}

func (m *mockPrefs) Update(ctx context.Context, userID string, patch *models.PreferencesUpdate) (*models.NotificationPreferences, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, patch)
	}
	return models.DefaultPreferences(userID), nil
}

type mockDir struct {
	getUserFn         func(ctx context.Context, id string) (*models.DirectoryUser, error)
	getEventFn        func(ctx context.Context, id string) (*models.Event, error)
	listEventsFn      func(ctx context.Context, from, to time.Time) ([]models.Event, error)
	getAnnouncementFn func(ctx context.Context, id string) (*models.Announcement, error)
	getRegistrationFn func(ctx context.Context, id string) (*models.Registration, error)
	getResourceFn     func(ctx context.Context, id string) (*models.Resource, error)
	getNewsletterFn   func(ctx context.Context, id string) (*models.Newsletter, error)
}

func (m *mockDir) GetUser(ctx context.Context, id string) (*models.DirectoryUser, error) {
	if m.getUserFn != nil {
		return m.getUserFn(ctx, id)
	}
	return &models.DirectoryUser{ID: id, Email: id + "@school.edu", IsActive: true}, nil
}

func (m *mockDir) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	if m.getEventFn != nil {
		return m.getEventFn(ctx, id)
	}
	return &models.Event{ID: id, Title: "Science Fair", StartDate: time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)}, nil
}

func (m *mockDir) ListEventsBetween(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	if m.listEventsFn != nil {
		return m.listEventsFn(ctx, from, to)
	}
	return nil, nil
}

func (m *mockDir) GetAnnouncement(ctx context.Context, id string) (*models.Announcement, error) {
	if m.getAnnouncementFn != nil {
		return m.getAnnouncementFn(ctx, id)
	}
	return &models.Announcement{ID: id, Title: "Term Dates", Summary: "New term dates published"}, nil
}

func (m *mockDir) GetRegistration(ctx context.Context, id string) (*models.Registration, error) {
	if m.getRegistrationFn != nil {
		return m.getRegistrationFn(ctx, id)
	}
	return &models.Registration{ID: id, EventID: "evt-1", UserID: "user-1", Status: "confirmed"}, nil
}

func (m *mockDir) GetResource(ctx context.Context, id string) (*models.Resource, error) {
	if m.getResourceFn != nil {
		return m.getResourceFn(ctx, id)
	}
	return &models.Resource{ID: id, Title: "Homework Pack", Category: "worksheets"}, nil
}

func (m *mockDir) GetNewsletter(ctx context.Context, id string) (*models.Newsletter, error) {
	if m.getNewsletterFn != nil {
		return m.getNewsletterFn(ctx, id)
	}
	return &models.Newsletter{ID: id, Title: "September Issue"}, nil
}

type mockRealtime struct {
	enabled bool
	pushFn  func(ctx context.Context, userID string, notes []models.Notification) error
	pushes  map[string][]models.Notification
}

func (m *mockRealtime) Enabled() bool { return m.enabled }

func (m *mockRealtime) Push(ctx context.Context, userID string, notes []models.Notification) error {
	if m.pushes == nil {
		m.pushes = make(map[string][]models.Notification)
	}
	m.pushes[userID] = append(m.pushes[userID], notes...)
	if m.pushFn != nil {
		return m.pushFn(ctx, userID, notes)
	}
	return nil
}

type mockEmail struct {
	enabled bool
	sendFn  func(ctx context.Context, to, subject, body string, eventDate *time.Time) error
	sent    []string
}

func (m *mockEmail) Enabled() bool { return m.enabled }

func (m *mockEmail) Send(ctx context.Context, to, subject, body string, eventDate *time.Time) error {
	m.sent = append(m.sent, to)
	if m.sendFn != nil {
		return m.sendFn(ctx, to, subject, body, eventDate)
	}
	return nil
}

type mockSMS struct {
	enabled   bool
	threshold string
	sendFn    func(ctx context.Context, phone, message string) error
	sent      []string
}

func (m *mockSMS) Enabled() bool { return m.enabled }

func (m *mockSMS) ShouldEscalate(priority string) bool {
	return m.enabled && priority == models.PriorityUrgent
}

func (m *mockSMS) Send(ctx context.Context, phone, message string) error {
	m.sent = append(m.sent, phone)
	if m.sendFn != nil {
		return m.sendFn(ctx, phone, message)
	}
	return nil
}

type fixture struct {
	resolver *mockResolver
	guard    *mockGuard
	store    *mockStore
	prefs    *mockPrefs
	dir      *mockDir
	realtime *mockRealtime
	email    *mockEmail
	sms      *mockSMS
}

func newFixture(t *testing.T) (*Service, *fixture) {
	f := &fixture{
		resolver: &mockResolver{},
		guard:    &mockGuard{},
		store:    &mockStore{},
		prefs:    &mockPrefs{},
		dir:      &mockDir{},
		realtime: &mockRealtime{enabled: true},
		email:    &mockEmail{enabled: true},
		sms:      &mockSMS{},
	}
	svc := NewService(Dependencies{
		Resolver:    f.resolver,
		Guard:       f.guard,
		Store:       f.store,
		Preferences: f.prefs,
		Directory:   f.dir,
		Realtime:    f.realtime,
		Email:       f.email,
		SMS:         f.sms,
		Logger:      logger.NewTestLogger(t),
	})
	return svc, f
}

// ==========================
// Send path
// ==========================

func TestSendNotification_EmptyRecipients(t *testing.T) {
	svc, f := newFixture(t)
	f.resolver.resolveFn = func(ctx context.Context, req *models.DeliveryRequest) ([]string, error) {
		return []string{}, nil
	}

	result, err := svc.SendNotification(context.Background(), &models.DeliveryRequest{
		Title:         "Hello",
		Message:       "World",
		Type:          models.TypeSystem,
		RecipientType: models.RecipientSpecific,
	})

	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 0, result.TotalSent)
	assert.NotEmpty(t, result.Errors)
	assert.Empty(t, f.store.created, "nothing should be persisted")
	assert.Empty(t, f.realtime.pushes)
	assert.Empty(t, f.email.sent)
}

func TestSendNotification_UnknownTemplate(t *testing.T) {
	svc, _ := newFixture(t)

	result, err := svc.SendNotification(context.Background(), &models.DeliveryRequest{
		TemplateKey:   "no_such_template",
		RecipientType: models.RecipientAll,
	})

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestSendNotification_AnnouncementFanOut(t *testing.T) {
	svc, f := newFixture(t)
	f.resolver.resolveFn = func(ctx context.Context, req *models.DeliveryRequest) ([]string, error) {
		return []string{"u1", "u2", "u3"}, nil
	}

	result, err := svc.SendNotification(context.Background(), &models.DeliveryRequest{
		TemplateKey:   templates.KeyAnnouncementPublished,
		TemplateData:  map[string]interface{}{"title": "Term Dates", "summary": "posted"},
		RecipientType: models.RecipientAll,
		RelatedID:     "ann-9",
		RelatedType:   models.EntityAnnouncement,
	})

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.TotalSent)
	assert.Equal(t, 0, result.TotalFailed)
	assert.ElementsMatch(t, []string{"u1", "u2", "u3"}, result.Recipients.Success)

	if assert.Len(t, f.store.created, 1) {
		records := f.store.created[0]
		assert.Len(t, records, 3)
		seen := map[string]bool{}
		for _, n := range records {
			assert.NotEmpty(t, n.ID)
			assert.False(t, seen[n.ID], "notification ids must be unique")
			seen[n.ID] = true
			assert.Equal(t, models.TypeAnnouncement, n.Type)
			assert.Equal(t, "ann-9", n.RelatedID)
			assert.Contains(t, n.Title, "Term Dates")
		}
	}

	assert.Len(t, f.realtime.pushes, 3)
	assert.Len(t, f.email.sent, 3)
}

func TestSendNotification_DeduplicatedRecipientsReportedFailed(t *testing.T) {
	svc, f := newFixture(t)
	f.resolver.resolveFn = func(ctx context.Context, req *models.DeliveryRequest) ([]string, error) {
		return []string{"u1", "u2"}, nil
	}
	f.guard.filterFn = func(ctx context.Context, recipientIDs []string, title, ntype, relatedID string) ([]string, error) {
		return []string{"u2"}, nil
	}

	result, err := svc.SendNotification(context.Background(), &models.DeliveryRequest{
		Title:         "Reminder",
		Message:       "Tomorrow",
		Type:          models.TypeReminder,
		RecipientType: models.RecipientAll,
	})

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.TotalSent)
	assert.Equal(t, 1, result.TotalFailed)
	assert.Equal(t, []string{"u1"}, result.Recipients.Success)
	assert.Equal(t, []string{"u2"}, result.Recipients.Failed)

	if assert.Len(t, f.store.created, 1) {
		assert.Len(t, f.store.created[0], 1)
		assert.Equal(t, "u1", f.store.created[0][0].RecipientID)
	}
}

func TestSendNotification_AllDeduplicated(t *testing.T) {
	svc, f := newFixture(t)
	f.resolver.resolveFn = func(ctx context.Context, req *models.DeliveryRequest) ([]string, error) {
		return []string{"u1"}, nil
	}
	f.guard.filterFn = func(ctx context.Context, recipientIDs []string, title, ntype, relatedID string) ([]string, error) {
		return []string{"u1"}, nil
	}

	result, err := svc.SendNotification(context.Background(), &models.DeliveryRequest{
		Title:         "Reminder",
		Message:       "Tomorrow",
		Type:          models.TypeReminder,
		RecipientType: models.RecipientAll,
	})

	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 0, result.TotalSent)
	assert.Empty(t, f.store.created)
	assert.Empty(t, f.realtime.pushes)
}

func TestSendNotification_DisabledCategoryBlocksAllChannels(t *testing.T) {
	svc, f := newFixture(t)
	f.resolver.resolveFn = func(ctx context.Context, req *models.DeliveryRequest) ([]string, error) {
		return []string{"u1", "u2"}, nil
	}
	f.prefs.getFn = func(ctx context.Context, userID string) (*models.NotificationPreferences, error) {
		p := models.DefaultPreferences(userID)
		if userID == "u2" {
			p.Categories = map[string]models.CategoryPreference{
				models.TypeResource: {Enabled: false},
			}
		}
		return p, nil
	}

	result, err := svc.SendNotification(context.Background(), &models.DeliveryRequest{
		Title:         "New worksheet",
		Message:       "Check the library",
		Type:          models.TypeResource,
		RecipientType: models.RecipientAll,
	})

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"u1"}, result.Recipients.Success)
	assert.Equal(t, []string{"u2"}, result.Recipients.Failed)

	if assert.Len(t, f.store.created, 1) {
		assert.Len(t, f.store.created[0], 1)
		assert.Equal(t, "u1", f.store.created[0][0].RecipientID)
	}
	assert.NotContains(t, f.email.sent, "u2@school.edu")
	_, pushed := f.realtime.pushes["u2"]
	assert.False(t, pushed)
}

func TestSendNotification_QuietHoursWithholdsPushes(t *testing.T) {
	svc, f := newFixture(t)
	f.resolver.resolveFn = func(ctx context.Context, req *models.DeliveryRequest) ([]string, error) {
		return []string{"u1"}, nil
	}
	f.prefs.getFn = func(ctx context.Context, userID string) (*models.NotificationPreferences, error) {
		now := time.Now()
		p := models.DefaultPreferences(userID)
		p.QuietHoursEnabled = true
		p.QuietHoursStart = now.Add(-time.Hour).Format("15:04")
		p.QuietHoursEnd = now.Add(time.Hour).Format("15:04")
		return p, nil
	}

	result, err := svc.SendNotification(context.Background(), &models.DeliveryRequest{
		Title:         "Library hours change",
		Message:       "Open late Thursdays",
		Type:          models.TypeAnnouncement,
		Priority:      models.PriorityMedium,
		RecipientType: models.RecipientAll,
	})

	assert.NoError(t, err)
	assert.True(t, result.Success)

	// The in-app row persists; only the pushes are withheld.
	if assert.Len(t, f.store.created, 1) {
		assert.Equal(t, "u1", f.store.created[0][0].RecipientID)
	}
	assert.Empty(t, f.realtime.pushes)
	assert.Empty(t, f.email.sent)

	// Urgent notifications break through the window.
	result, err = svc.SendNotification(context.Background(), &models.DeliveryRequest{
		Title:         "Campus closed",
		Message:       "Severe weather warning",
		Type:          models.TypeSystem,
		Priority:      models.PriorityUrgent,
		RecipientType: models.RecipientAll,
	})
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, f.realtime.pushes["u1"], 1)
	assert.Len(t, f.email.sent, 1)
}

func TestSendNotification_PersistenceFailure(t *testing.T) {
	svc, f := newFixture(t)
	f.resolver.resolveFn = func(ctx context.Context, req *models.DeliveryRequest) ([]string, error) {
		return []string{"u1", "u2"}, nil
	}
	f.store.createManyFn = func(ctx context.Context, records []models.Notification) error {
		return fmt.Errorf("pq: connection refused")
	}

	result, err := svc.SendNotification(context.Background(), &models.DeliveryRequest{
		Title:         "Hello",
		Message:       "World",
		Type:          models.TypeSystem,
		RecipientType: models.RecipientAll,
	})

	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 0, result.TotalSent)
	assert.Equal(t, 2, result.TotalFailed)
	assert.NotEmpty(t, result.Errors)
	assert.Empty(t, f.realtime.pushes, "no fan-out after failed persistence")
	assert.Empty(t, f.email.sent)
}

func TestSendNotification_ChannelFailureDoesNotAbortSiblings(t *testing.T) {
	svc, f := newFixture(t)
	f.resolver.resolveFn = func(ctx context.Context, req *models.DeliveryRequest) ([]string, error) {
		return []string{"u1", "u2"}, nil
	}
	f.realtime.pushFn = func(ctx context.Context, userID string, notes []models.Notification) error {
		if userID == "u1" {
			return fmt.Errorf("connection reset")
		}
		return nil
	}
	f.email.sendFn = func(ctx context.Context, to, subject, body string, eventDate *time.Time) error {
		if to == "u1@school.edu" {
			return fmt.Errorf("ses throttled")
		}
		return nil
	}

	result, err := svc.SendNotification(context.Background(), &models.DeliveryRequest{
		Title:         "Hello",
		Message:       "World",
		Type:          models.TypeSystem,
		RecipientType: models.RecipientAll,
	})

	assert.NoError(t, err)
	assert.True(t, result.Success, "persisted rows count as sent even when a channel fails")
	assert.Equal(t, 2, result.TotalSent)
	assert.Len(t, f.realtime.pushes, 2)
	assert.ElementsMatch(t, []string{"u1@school.edu", "u2@school.edu"}, f.email.sent)
}

func TestSendNotification_SMSOnlyForUrgent(t *testing.T) {
	svc, f := newFixture(t)
	f.sms.enabled = true
	f.resolver.resolveFn = func(ctx context.Context, req *models.DeliveryRequest) ([]string, error) {
		return []string{"u1"}, nil
	}
	f.dir.getUserFn = func(ctx context.Context, id string) (*models.DirectoryUser, error) {
		return &models.DirectoryUser{ID: id, Email: id + "@school.edu", Phone: "+15550100", IsActive: true}, nil
	}

	_, err := svc.SendNotification(context.Background(), &models.DeliveryRequest{
		Title:         "Heads up",
		Message:       "Routine notice",
		Type:          models.TypeSystem,
		Priority:      models.PriorityHigh,
		RecipientType: models.RecipientAll,
	})
	assert.NoError(t, err)
	assert.Empty(t, f.sms.sent)

	_, err = svc.SendNotification(context.Background(), &models.DeliveryRequest{
		Title:         "School closed",
		Message:       "Severe weather",
		Type:          models.TypeSystem,
		Priority:      models.PriorityUrgent,
		RecipientType: models.RecipientAll,
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"+15550100"}, f.sms.sent)
}

// ==========================
// Bulk operations and cleanup
// ==========================

func TestBulkOperation(t *testing.T) {
	tests := []struct {
		name   string
		action string
	}{
		{"mark read", models.BulkActionMarkRead},
		{"mark unread", models.BulkActionMarkUnread},
		{"archive", models.BulkActionArchive},
		{"delete", models.BulkActionDelete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newFixture(t)
			result, err := svc.BulkOperation(context.Background(), "u1", &models.BulkOperation{
				Action:          tt.action,
				NotificationIDs: []string{"n1", "n2"},
			})
			assert.NoError(t, err)
			assert.True(t, result.Success)
			assert.Equal(t, int64(2), result.AffectedCount)
		})
	}
}

func TestBulkOperation_UnknownAction(t *testing.T) {
	svc, _ := newFixture(t)
	result, err := svc.BulkOperation(context.Background(), "u1", &models.BulkOperation{
		Action:          "explode",
		NotificationIDs: []string{"n1"},
	})
	assert.Error(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestBulkOperation_ArchiveMarksRead(t *testing.T) {
	svc, f := newFixture(t)
	archived := false
	f.store.archiveFn = func(ctx context.Context, userID string, ids []string) (int64, error) {
		archived = true
		return 1, nil
	}

	result, err := svc.BulkOperation(context.Background(), "u1", &models.BulkOperation{
		Action:          models.BulkActionArchive,
		NotificationIDs: []string{"n1"},
	})
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, archived)
}

func TestCleanupExpiredNotifications(t *testing.T) {
	svc, f := newFixture(t)
	f.store.cleanupFn = func(ctx context.Context) (int64, error) {
		return 42, nil
	}

	count, err := svc.CleanupExpiredNotifications(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(42), count)
}

// ==========================
// Convenience wrappers
// ==========================

func TestCreateEventNotification(t *testing.T) {
	svc, f := newFixture(t)
	f.resolver.resolveFn = func(ctx context.Context, req *models.DeliveryRequest) ([]string, error) {
		assert.Equal(t, models.RecipientAll, req.RecipientType)
		return []string{"u1"}, nil
	}

	result, err := svc.CreateEventNotification(context.Background(), "evt-1", "created", nil)
	assert.NoError(t, err)
	assert.True(t, result.Success)

	if assert.Len(t, f.store.created, 1) {
		n := f.store.created[0][0]
		assert.Equal(t, models.TypeEvent, n.Type)
		assert.Equal(t, "evt-1", n.RelatedID)
		assert.Contains(t, n.Message, "Science Fair")
	}
}

func TestCreateEventNotification_UnknownChange(t *testing.T) {
	svc, _ := newFixture(t)
	result, err := svc.CreateEventNotification(context.Background(), "evt-1", "rescheduled", nil)
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestCreateRegistrationNotification_Waitlisted(t *testing.T) {
	svc, f := newFixture(t)
	f.dir.getRegistrationFn = func(ctx context.Context, id string) (*models.Registration, error) {
		return &models.Registration{ID: id, EventID: "evt-1", UserID: "u7", Status: "waitlisted", WaitlistPosition: 3}, nil
	}
	f.resolver.resolveFn = func(ctx context.Context, req *models.DeliveryRequest) ([]string, error) {
		assert.Equal(t, models.RecipientSpecific, req.RecipientType)
		return req.RecipientIDs, nil
	}

	result, err := svc.CreateRegistrationNotification(context.Background(), "reg-1", "waitlisted")
	assert.NoError(t, err)
	assert.True(t, result.Success)

	if assert.Len(t, f.store.created, 1) {
		n := f.store.created[0][0]
		assert.Equal(t, "u7", n.RecipientID)
		assert.Equal(t, models.TypeRegistration, n.Type)
		assert.Contains(t, n.Message, "3")
	}
}

func TestCreateNewsletterNotification_RendersTitleAndIssue(t *testing.T) {
	svc, f := newFixture(t)
	f.dir.getNewsletterFn = func(ctx context.Context, id string) (*models.Newsletter, error) {
		return &models.Newsletter{ID: id, Title: "Back to School", Issue: 42}, nil
	}
	f.resolver.resolveFn = func(ctx context.Context, req *models.DeliveryRequest) ([]string, error) {
		return []string{"u1"}, nil
	}

	result, err := svc.CreateNewsletterNotification(context.Background(), "nl-1")
	assert.NoError(t, err)
	assert.True(t, result.Success)

	if assert.Len(t, f.store.created, 1) {
		n := f.store.created[0][0]
		assert.Equal(t, "Newsletter: Back to School", n.Title)
		assert.Contains(t, n.Message, "Issue 42")
		assert.NotContains(t, n.Title, "{{")
		assert.NotContains(t, n.Message, "{{")
	}
}

func TestCreateMaintenanceNotification_ExpiresAtWindowEnd(t *testing.T) {
	svc, f := newFixture(t)
	f.resolver.resolveFn = func(ctx context.Context, req *models.DeliveryRequest) ([]string, error) {
		return []string{"u1"}, nil
	}

	start := time.Date(2026, 9, 5, 22, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	result, err := svc.CreateMaintenanceNotification(context.Background(), start, end, "Database upgrade")
	assert.NoError(t, err)
	assert.True(t, result.Success)

	if assert.Len(t, f.store.created, 1) {
		n := f.store.created[0][0]
		if assert.NotNil(t, n.ExpiresAt) {
			assert.True(t, n.ExpiresAt.Equal(end))
		}
	}
}

func TestCreateEventReminders(t *testing.T) {
	svc, f := newFixture(t)
	f.dir.listEventsFn = func(ctx context.Context, from, to time.Time) ([]models.Event, error) {
		assert.True(t, to.Sub(from) == 24*time.Hour)
		return []models.Event{
			{ID: "evt-1", Title: "Sports Day", StartDate: from.Add(9 * time.Hour)},
			{ID: "evt-2", Title: "Book Fair", StartDate: from.Add(13 * time.Hour)},
		}, nil
	}
	f.resolver.resolveFn = func(ctx context.Context, req *models.DeliveryRequest) ([]string, error) {
		return []string{"u1"}, nil
	}

	sent, err := svc.CreateEventReminders(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, f.store.created, 2)

	n := f.store.created[0][0]
	assert.Equal(t, models.TypeReminder, n.Type)
	if assert.NotNil(t, n.ExpiresAt) {
		assert.False(t, n.ExpiresAt.IsZero())
	}
}

func TestCreateEventReminders_ConfiguredLookahead(t *testing.T) {
	f := &fixture{
		resolver: &mockResolver{},
		guard:    &mockGuard{},
		store:    &mockStore{},
		prefs:    &mockPrefs{},
		dir:      &mockDir{},
		realtime: &mockRealtime{enabled: true},
		email:    &mockEmail{enabled: true},
		sms:      &mockSMS{},
	}
	svc := NewService(Dependencies{
		Resolver:    f.resolver,
		Guard:       f.guard,
		Store:       f.store,
		Preferences: f.prefs,
		Directory:   f.dir,
		Realtime:    f.realtime,
		Email:       f.email,
		SMS:         f.sms,
		Logger:      logger.NewTestLogger(t),

		ReminderLookahead: 48 * time.Hour,
	})

	var window time.Duration
	f.dir.listEventsFn = func(ctx context.Context, from, to time.Time) ([]models.Event, error) {
		window = to.Sub(from)
		return nil, nil
	}

	sent, err := svc.CreateEventReminders(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, sent)
	assert.Equal(t, 48*time.Hour, window)
}
