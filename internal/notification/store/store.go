// internal/notification/store/store.go

// Package store is the persistence boundary for notification rows.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/geonook/es-international-department-sub001/internal/common/errors"
	"github.com/geonook/es-international-department-sub001/internal/common/logger"
	"github.com/geonook/es-international-department-sub001/internal/models"
)

type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "notification-store"}),
	}
}

// CreateMany bulk-inserts notification rows. Every record must carry a
// recipient id and a type; constraint violations propagate as a
// PersistenceError, not retried here.
func (s *Store) CreateMany(ctx context.Context, records []models.Notification) error {
	if len(records) == 0 {
		return nil
	}

	for _, r := range records {
		if r.RecipientID == "" || r.Type == "" {
			return errors.NewPersistenceError("createMany",
				fmt.Errorf("notification record missing recipient id or type"))
		}
	}

	// One multi-row INSERT keeps the write atomic without an explicit
	// transaction.
	placeholders := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*9)
	for i, r := range records {
		base := i * 9
		placeholders = append(placeholders, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9))
		args = append(args,
			r.ID, r.RecipientID, r.Title, r.Message, r.Type, r.Priority,
			nullableString(r.RelatedID), nullableString(r.RelatedType), r.ExpiresAt)
	}

	query := `INSERT INTO notifications
		(id, recipient_id, title, message, type, priority, related_id, related_type, expires_at)
		VALUES ` + strings.Join(placeholders, ", ")

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.NewPersistenceError("createMany", err)
	}

	s.logger.Info("notifications persisted", map[string]interface{}{
		"count": len(records),
	})
	return nil
}

// BulkMarkRead marks the given notifications read for userID and returns the
// count actually changed. Rows owned by other users or already read fall out
// of the count silently.
func (s *Store) BulkMarkRead(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = true, read_at = NOW()
		 WHERE recipient_id = $1 AND id = ANY($2) AND is_read = false`,
		userID, pq.Array(ids))
	if err != nil {
		return 0, errors.NewPersistenceError("bulkMarkRead", err)
	}
	return res.RowsAffected()
}

// BulkMarkUnread clears the read flag and read timestamp together, keeping
// the readAt-iff-isRead invariant.
func (s *Store) BulkMarkUnread(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = false, read_at = NULL
		 WHERE recipient_id = $1 AND id = ANY($2) AND is_read = true`,
		userID, pq.Array(ids))
	if err != nil {
		return 0, errors.NewPersistenceError("bulkMarkUnread", err)
	}
	return res.RowsAffected()
}

// BulkDelete hard-deletes rows owned by userID among the given ids.
func (s *Store) BulkDelete(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE recipient_id = $1 AND id = ANY($2)`,
		userID, pq.Array(ids))
	if err != nil {
		return 0, errors.NewPersistenceError("bulkDelete", err)
	}
	return res.RowsAffected()
}

// Archive is implemented as mark-read: the persisted schema has no distinct
// archived state.
func (s *Store) Archive(ctx context.Context, userID string, ids []string) (int64, error) {
	return s.BulkMarkRead(ctx, userID, ids)
}

// CleanupExpired deletes every row whose expires_at is strictly in the past.
// Rows with a NULL expires_at are never touched. Intended to run from a
// periodic job.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE expires_at IS NOT NULL AND expires_at < NOW()`)
	if err != nil {
		return 0, errors.NewPersistenceError("cleanupExpired", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewPersistenceError("cleanupExpired", err)
	}
	if count > 0 {
		s.logger.Info("expired notifications removed", map[string]interface{}{
			"count": count,
		})
	}
	return count, nil
}

// ListByUser returns a page of a user's notifications, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string, offset, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, recipient_id, title, message, type, priority, is_read, read_at,
		        expires_at, COALESCE(related_id, ''), COALESCE(related_type, ''), created_at
		 FROM notifications
		 WHERE recipient_id = $1
		 ORDER BY created_at DESC
		 OFFSET $2 LIMIT $3`,
		userID, offset, limit)
	if err != nil {
		return nil, errors.NewPersistenceError("listByUser", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		var readAt, expiresAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Title, &n.Message, &n.Type, &n.Priority,
			&n.IsRead, &readAt, &expiresAt, &n.RelatedID, &n.RelatedType, &n.CreatedAt); err != nil {
			return nil, errors.NewPersistenceError("listByUser", err)
		}
		if readAt.Valid {
			t := readAt.Time
			n.ReadAt = &t
		}
		if expiresAt.Valid {
			t := expiresAt.Time
			n.ExpiresAt = &t
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceError("listByUser", err)
	}
	return out, nil
}

// CountUnread returns the number of unread notifications for a user.
func (s *Store) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = false`,
		userID).Scan(&count)
	if err != nil {
		return 0, errors.NewPersistenceError("countUnread", err)
	}
	return count, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
