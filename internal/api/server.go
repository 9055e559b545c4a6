// internal/api/server.go

// Package api exposes the notification service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geonook/es-international-department-sub001/internal/common/logger"
	"github.com/geonook/es-international-department-sub001/internal/common/validation"
	"github.com/geonook/es-international-department-sub001/internal/models"
)

// NotificationService is the surface the handlers need.
type NotificationService interface {
	SendNotification(ctx context.Context, req *models.DeliveryRequest) (*models.SendResult, error)
	BulkOperation(ctx context.Context, userID string, op *models.BulkOperation) (*models.BulkResult, error)
	CleanupExpiredNotifications(ctx context.Context) (int64, error)
	GetTemplate(key string) (models.TemplateConfig, error)
	GetAllTemplates() []models.TemplateConfig
	GetUserPreferences(ctx context.Context, userID string) (*models.NotificationPreferences, error)
	UpdateUserPreferences(ctx context.Context, userID string, patch *models.PreferencesUpdate) (*models.NotificationPreferences, error)
	ListNotifications(ctx context.Context, userID string, offset, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
}

type Server struct {
	svc    NotificationService
	logger logger.Logger
	engine *gin.Engine
}

func NewServer(svc NotificationService, log logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		svc:    svc,
		logger: log.WithFields(map[string]interface{}{"component": "api"}),
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

// Handler returns the root http.Handler, mainly for tests and for mounting
// under the main server mux.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	api := s.engine.Group("/api")

	api.POST("/notifications/send", s.handleSend)
	api.POST("/notifications/cleanup", s.handleCleanup)

	api.GET("/templates", s.handleListTemplates)
	api.GET("/templates/:key", s.handleGetTemplate)

	users := api.Group("/users/:userId")
	users.GET("/notifications", s.handleListNotifications)
	users.GET("/notifications/unread-count", s.handleUnreadCount)
	users.POST("/notifications/bulk", s.handleBulk)
	users.GET("/preferences", s.handleGetPreferences)
	users.PUT("/preferences", s.handleUpdatePreferences)

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request handled", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}

// handleSend validates the raw payload against the delivery schema before
// binding, so schema errors name the offending field instead of surfacing as
// a bind failure.
func (s *Server) handleSend(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable request body"})
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if err := validation.ValidateDeliveryRequest(payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req models.DeliveryRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.svc.SendNotification(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleBulk(c *gin.Context) {
	userID := c.Param("userId")

	var op models.BulkOperation
	if err := c.ShouldBindJSON(&op); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.svc.BulkOperation(c.Request.Context(), userID, &op)
	if err != nil {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleCleanup(c *gin.Context) {
	count, err := s.svc.CleanupExpiredNotifications(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deletedCount": count})
}

func (s *Server) handleListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": s.svc.GetAllTemplates()})
}

func (s *Server) handleGetTemplate(c *gin.Context) {
	tpl, err := s.svc.GetTemplate(c.Param("key"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (s *Server) handleListNotifications(c *gin.Context) {
	userID := c.Param("userId")
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	notes, err := s.svc.ListNotifications(c.Request.Context(), userID, offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if notes == nil {
		notes = []models.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notes, "offset": offset, "limit": limit})
}

func (s *Server) handleUnreadCount(c *gin.Context) {
	count, err := s.svc.CountUnread(c.Request.Context(), c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

func (s *Server) handleGetPreferences(c *gin.Context) {
	prefs, err := s.svc.GetUserPreferences(c.Request.Context(), c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (s *Server) handleUpdatePreferences(c *gin.Context) {
	var patch models.PreferencesUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prefs, err := s.svc.UpdateUserPreferences(c.Request.Context(), c.Param("userId"), &patch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prefs)
}
