// internal/notification/preferences/preferences.go

// Package preferences persists per-user delivery preferences in redis. Users
// without a stored record fall back to the built-in defaults.
package preferences

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/geonook/es-international-department-sub001/internal/common/errors"
	"github.com/geonook/es-international-department-sub001/internal/common/logger"
	"github.com/geonook/es-international-department-sub001/internal/models"
)

const keyPrefix = "notification:prefs:"

type Store struct {
	redis  *redis.Client
	logger logger.Logger
}

func NewStore(rdb *redis.Client, log logger.Logger) *Store {
	return &Store{
		redis:  rdb,
		logger: log.WithFields(map[string]interface{}{"component": "preferences"}),
	}
}

func key(userID string) string {
	return keyPrefix + userID
}

// Get returns the stored preferences for a user, or the defaults when no
// record exists.
func (s *Store) Get(ctx context.Context, userID string) (*models.NotificationPreferences, error) {
	raw, err := s.redis.Get(ctx, key(userID)).Result()
	if err == redis.Nil {
		return models.DefaultPreferences(userID), nil
	}
	if err != nil {
		return nil, errors.NewPreferencesLoadError(userID, err)
	}

	var prefs models.NotificationPreferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		// A corrupt record should not block delivery; fall back to defaults.
		s.logger.Warn("stored preferences unreadable, using defaults", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return models.DefaultPreferences(userID), nil
	}
	prefs.UserID = userID
	return &prefs, nil
}

// Update merges a partial patch over the current preferences and writes the
// result through. Returns the merged record.
func (s *Store) Update(ctx context.Context, userID string, patch *models.PreferencesUpdate) (*models.NotificationPreferences, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := mergePreferences(current, patch)

	payload, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("marshal preferences: %w", err)
	}

	// No TTL: preferences live until changed.
	if err := s.redis.Set(ctx, key(userID), payload, time.Duration(0)).Err(); err != nil {
		return nil, errors.NewPreferencesLoadError(userID, err)
	}

	return merged, nil
}

func mergePreferences(current *models.NotificationPreferences, patch *models.PreferencesUpdate) *models.NotificationPreferences {
	merged := *current
	if patch == nil {
		return &merged
	}

	if patch.EmailEnabled != nil {
		merged.EmailEnabled = *patch.EmailEnabled
	}
	if patch.SystemEnabled != nil {
		merged.SystemEnabled = *patch.SystemEnabled
	}
	if patch.BrowserEnabled != nil {
		merged.BrowserEnabled = *patch.BrowserEnabled
	}
	if patch.QuietHoursEnabled != nil {
		merged.QuietHoursEnabled = *patch.QuietHoursEnabled
	}
	if patch.QuietHoursStart != nil {
		merged.QuietHoursStart = *patch.QuietHoursStart
	}
	if patch.QuietHoursEnd != nil {
		merged.QuietHoursEnd = *patch.QuietHoursEnd
	}
	if len(patch.Categories) > 0 {
		if merged.Categories == nil {
			merged.Categories = make(map[string]models.CategoryPreference, len(patch.Categories))
		} else {
			// Copy so the caller's current record is not mutated.
			copied := make(map[string]models.CategoryPreference, len(merged.Categories)+len(patch.Categories))
			for k, v := range merged.Categories {
				copied[k] = v
			}
			merged.Categories = copied
		}
		for k, v := range patch.Categories {
			merged.Categories[k] = v
		}
	}
	return &merged
}
