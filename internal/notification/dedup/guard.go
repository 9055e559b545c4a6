// internal/notification/dedup/guard.go

// Package dedup suppresses near-identical sends to the same recipient inside
// a trailing time window, protecting against retry storms and duplicate event
// triggers. The check is best-effort: concurrent sends can race past it.
package dedup

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/geonook/es-international-department-sub001/internal/common/errors"
	"github.com/geonook/es-international-department-sub001/internal/common/logger"
)

// DefaultWindow is the trailing window used when no override is configured.
const DefaultWindow = 24 * time.Hour

type Guard struct {
	db     *sql.DB
	window time.Duration
	logger logger.Logger
}

func NewGuard(db *sql.DB, window time.Duration, log logger.Logger) *Guard {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Guard{
		db:     db,
		window: window,
		logger: log.WithFields(map[string]interface{}{"component": "dedup-guard"}),
	}
}

// FilterDuplicates returns the subset of recipientIDs that already received a
// notification with the exact same title, type and related id inside the
// window. The caller subtracts the result from the candidate set.
func (g *Guard) FilterDuplicates(ctx context.Context, recipientIDs []string, title, ntype, relatedID string) ([]string, error) {
	if len(recipientIDs) == 0 {
		return nil, nil
	}

	cutoff := time.Now().UTC().Add(-g.window)

	rows, err := g.db.QueryContext(ctx,
		`SELECT DISTINCT recipient_id FROM notifications
		 WHERE recipient_id = ANY($1)
		   AND title = $2
		   AND type = $3
		   AND COALESCE(related_id, '') = $4
		   AND created_at > $5`,
		pq.Array(recipientIDs), title, ntype, relatedID, cutoff)
	if err != nil {
		return nil, errors.NewPersistenceError("filterDuplicates", err)
	}
	defer rows.Close()

	var duplicates []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewPersistenceError("filterDuplicates", err)
		}
		duplicates = append(duplicates, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceError("filterDuplicates", err)
	}

	if len(duplicates) > 0 {
		g.logger.Debug("duplicate recipients filtered", map[string]interface{}{
			"count": len(duplicates),
			"title": title,
			"type":  ntype,
		})
	}

	return duplicates, nil
}
