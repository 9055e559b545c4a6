// internal/api/server_test.go

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/geonook/es-international-department-sub001/internal/common/logger"
	"github.com/geonook/es-international-department-sub001/internal/models"
	"github.com/geonook/es-international-department-sub001/internal/notification/templates"
)

type mockService struct {
	sendFn        func(ctx context.Context, req *models.DeliveryRequest) (*models.SendResult, error)
	bulkFn        func(ctx context.Context, userID string, op *models.BulkOperation) (*models.BulkResult, error)
	cleanupFn     func(ctx context.Context) (int64, error)
	getPrefsFn    func(ctx context.Context, userID string) (*models.NotificationPreferences, error)
	updatePrefsFn func(ctx context.Context, userID string, patch *models.PreferencesUpdate) (*models.NotificationPreferences, error)
	listFn        func(ctx context.Context, userID string, offset, limit int) ([]models.Notification, error)
	countUnreadFn func(ctx context.Context, userID string) (int64, error)
}

func (m *mockService) SendNotification(ctx context.Context, req *models.DeliveryRequest) (*models.SendResult, error) {
	if m.sendFn != nil {
		return m.sendFn(ctx, req)
	}
	return &models.SendResult{Success: true, TotalSent: 1}, nil
}

func (m *mockService) BulkOperation(ctx context.Context, userID string, op *models.BulkOperation) (*models.BulkResult, error) {
	if m.bulkFn != nil {
		return m.bulkFn(ctx, userID, op)
	}
	return &models.BulkResult{Success: true, AffectedCount: int64(len(op.NotificationIDs))}, nil
}

func (m *mockService) CleanupExpiredNotifications(ctx context.Context) (int64, error) {
	if m.cleanupFn != nil {
		return m.cleanupFn(ctx)
	}
	return 0, nil
}

func (m *mockService) GetTemplate(key string) (models.TemplateConfig, error) {
	return templates.Get(key)
}

func (m *mockService) GetAllTemplates() []models.TemplateConfig {
	return templates.All()
}

func (m *mockService) GetUserPreferences(ctx context.Context, userID string) (*models.NotificationPreferences, error) {
	if m.getPrefsFn != nil {
		return m.getPrefsFn(ctx, userID)
	}
	return models.DefaultPreferences(userID), nil
}

func (m *mockService) UpdateUserPreferences(ctx context.Context, userID string, patch *models.PreferencesUpdate) (*models.NotificationPreferences, error) {
	if m.updatePrefsFn != nil {
		return m.updatePrefsFn(ctx, userID, patch)
	}
	return models.DefaultPreferences(userID), nil
}

func (m *mockService) ListNotifications(ctx context.Context, userID string, offset, limit int) ([]models.Notification, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, offset, limit)
	}
	return nil, nil
}

func (m *mockService) CountUnread(ctx context.Context, userID string) (int64, error) {
	if m.countUnreadFn != nil {
		return m.countUnreadFn(ctx, userID)
	}
	return 0, nil
}

func newTestServer(t *testing.T, svc *mockService) *Server {
	return NewServer(svc, logger.NewTestLogger(t))
}

func doRequest(s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHandleSend_OK(t *testing.T) {
	var captured *models.DeliveryRequest
	svc := &mockService{
		sendFn: func(ctx context.Context, req *models.DeliveryRequest) (*models.SendResult, error) {
			captured = req
			return &models.SendResult{Success: true, TotalSent: 2}, nil
		},
	}
	s := newTestServer(t, svc)

	w := doRequest(s, http.MethodPost, "/api/notifications/send", map[string]interface{}{
		"title":         "Hello",
		"message":       "World",
		"type":          "system",
		"recipientType": "all",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	if assert.NotNil(t, captured) {
		assert.Equal(t, "Hello", captured.Title)
		assert.Equal(t, models.RecipientAll, captured.RecipientType)
	}

	var result models.SendResult
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.TotalSent)
}

func TestHandleSend_SchemaViolation(t *testing.T) {
	s := newTestServer(t, &mockService{})

	w := doRequest(s, http.MethodPost, "/api/notifications/send", map[string]interface{}{
		"title":   "Hello",
		"message": "World",
		"type":    "gossip",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestHandleSend_UnknownTemplate(t *testing.T) {
	svc := &mockService{
		sendFn: func(ctx context.Context, req *models.DeliveryRequest) (*models.SendResult, error) {
			return nil, fmt.Errorf("template not found: %s", req.TemplateKey)
		},
	}
	s := newTestServer(t, svc)

	w := doRequest(s, http.MethodPost, "/api/notifications/send", map[string]interface{}{
		"templateKey":   "no_such_template",
		"recipientType": "all",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandleBulk(t *testing.T) {
	var gotUser string
	svc := &mockService{
		bulkFn: func(ctx context.Context, userID string, op *models.BulkOperation) (*models.BulkResult, error) {
			gotUser = userID
			return &models.BulkResult{Success: true, AffectedCount: 2}, nil
		},
	}
	s := newTestServer(t, svc)

	w := doRequest(s, http.MethodPost, "/api/users/u1/notifications/bulk", models.BulkOperation{
		Action:          models.BulkActionMarkRead,
		NotificationIDs: []string{"n1", "n2"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", gotUser)

	var result models.BulkResult
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, int64(2), result.AffectedCount)
}

func TestHandleBulk_UnknownAction(t *testing.T) {
	svc := &mockService{
		bulkFn: func(ctx context.Context, userID string, op *models.BulkOperation) (*models.BulkResult, error) {
			return &models.BulkResult{Success: false, Error: "unknown bulk action"}, fmt.Errorf("unknown bulk action: %s", op.Action)
		},
	}
	s := newTestServer(t, svc)

	w := doRequest(s, http.MethodPost, "/api/users/u1/notifications/bulk", models.BulkOperation{
		Action:          "explode",
		NotificationIDs: []string{"n1"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCleanup(t *testing.T) {
	svc := &mockService{
		cleanupFn: func(ctx context.Context) (int64, error) { return 7, nil },
	}
	s := newTestServer(t, svc)

	w := doRequest(s, http.MethodPost, "/api/notifications/cleanup", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deletedCount":7`)
}

func TestHandleTemplates(t *testing.T) {
	s := newTestServer(t, &mockService{})

	w := doRequest(s, http.MethodGet, "/api/templates", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Templates []models.TemplateConfig `json:"templates"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Templates, 12)

	w = doRequest(s, http.MethodGet, "/api/templates/event_created", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, http.MethodGet, "/api/templates/no_such_template", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleListNotifications(t *testing.T) {
	svc := &mockService{
		listFn: func(ctx context.Context, userID string, offset, limit int) ([]models.Notification, error) {
			assert.Equal(t, 10, offset)
			assert.Equal(t, 5, limit)
			return []models.Notification{{ID: "n1", RecipientID: userID, Title: "Hi"}}, nil
		},
	}
	s := newTestServer(t, svc)

	w := doRequest(s, http.MethodGet, "/api/users/u1/notifications?offset=10&limit=5", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"n1"`)
}

func TestHandleListNotifications_EmptyIsArray(t *testing.T) {
	s := newTestServer(t, &mockService{})

	w := doRequest(s, http.MethodGet, "/api/users/u1/notifications", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"notifications":[]`)
}

func TestHandleUnreadCount(t *testing.T) {
	svc := &mockService{
		countUnreadFn: func(ctx context.Context, userID string) (int64, error) { return 3, nil },
	}
	s := newTestServer(t, svc)

	w := doRequest(s, http.MethodGet, "/api/users/u1/notifications/unread-count", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"unreadCount":3`)
}

func TestHandlePreferences(t *testing.T) {
	var gotPatch *models.PreferencesUpdate
	svc := &mockService{
		updatePrefsFn: func(ctx context.Context, userID string, patch *models.PreferencesUpdate) (*models.NotificationPreferences, error) {
			gotPatch = patch
			p := models.DefaultPreferences(userID)
			p.EmailEnabled = false
			return p, nil
		},
	}
	s := newTestServer(t, svc)

	w := doRequest(s, http.MethodGet, "/api/users/u1/preferences", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"emailEnabled":true`)

	disabled := false
	w = doRequest(s, http.MethodPut, "/api/users/u1/preferences", models.PreferencesUpdate{
		EmailEnabled: &disabled,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"emailEnabled":false`)
	if assert.NotNil(t, gotPatch) && assert.NotNil(t, gotPatch.EmailEnabled) {
		assert.False(t, *gotPatch.EmailEnabled)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, &mockService{})

	w := doRequest(s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
