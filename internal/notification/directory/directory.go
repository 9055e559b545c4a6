// internal/notification/directory/directory.go

// Package directory provides read-only lookups against the user directory and
// the related-entity tables owned by other portal subsystems.
package directory

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/geonook/es-international-department-sub001/internal/common/errors"
	"github.com/geonook/es-international-department-sub001/internal/common/logger"
	"github.com/geonook/es-international-department-sub001/internal/models"
)

type Directory struct {
	db     *sql.DB
	logger logger.Logger
}

func New(db *sql.DB, log logger.Logger) *Directory {
	return &Directory{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "directory"}),
	}
}

// GetActiveUsers returns every user flagged active.
func (d *Directory) GetActiveUsers(ctx context.Context) ([]models.DirectoryUser, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, email, display_name, COALESCE(phone, '') FROM users WHERE is_active = true ORDER BY id`)
	if err != nil {
		return nil, errors.NewDirectoryQueryError(err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// GetActiveUsersByRoles returns active users holding at least one of the given
// roles. An empty role list yields an empty result.
func (d *Directory) GetActiveUsersByRoles(ctx context.Context, roles []string) ([]models.DirectoryUser, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT DISTINCT u.id, u.email, u.display_name, COALESCE(u.phone, '')
		 FROM users u
		 JOIN user_roles ur ON ur.user_id = u.id
		 WHERE u.is_active = true AND ur.role = ANY($1)
		 ORDER BY u.id`,
		pq.Array(roles))
	if err != nil {
		return nil, errors.NewDirectoryQueryError(err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// GetUser returns a single directory record regardless of active flag.
func (d *Directory) GetUser(ctx context.Context, id string) (*models.DirectoryUser, error) {
	var u models.DirectoryUser
	err := d.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, COALESCE(phone, ''), is_active FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.DisplayName, &u.Phone, &u.IsActive)
	if err == sql.ErrNoRows {
		return nil, errors.NewEntityNotFoundError("user", id)
	}
	if err != nil {
		return nil, errors.NewDirectoryQueryError(err)
	}
	return &u, nil
}

func scanUsers(rows *sql.Rows) ([]models.DirectoryUser, error) {
	var users []models.DirectoryUser
	for rows.Next() {
		var u models.DirectoryUser
		if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Phone); err != nil {
			return nil, errors.NewDirectoryQueryError(err)
		}
		u.IsActive = true
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDirectoryQueryError(err)
	}
	return users, nil
}

// --- Related entity lookups ---

func (d *Directory) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var e models.Event
	err := d.db.QueryRowContext(ctx,
		`SELECT id, title, COALESCE(location, ''), start_date, end_date FROM events WHERE id = $1`, id).
		Scan(&e.ID, &e.Title, &e.Location, &e.StartDate, &e.EndDate)
	if err == sql.ErrNoRows {
		return nil, errors.NewEntityNotFoundError(models.EntityEvent, id)
	}
	if err != nil {
		return nil, errors.NewDirectoryQueryError(err)
	}
	return &e, nil
}

// ListEventsBetween returns events starting inside [from, to), used by the
// reminder sweep.
func (d *Directory) ListEventsBetween(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, title, COALESCE(location, ''), start_date, end_date
		 FROM events WHERE start_date >= $1 AND start_date < $2 ORDER BY start_date`,
		from, to)
	if err != nil {
		return nil, errors.NewDirectoryQueryError(err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Location, &e.StartDate, &e.EndDate); err != nil {
			return nil, errors.NewDirectoryQueryError(err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDirectoryQueryError(err)
	}
	return events, nil
}

func (d *Directory) GetAnnouncement(ctx context.Context, id string) (*models.Announcement, error) {
	var a models.Announcement
	err := d.db.QueryRowContext(ctx,
		`SELECT id, title, COALESCE(summary, '') FROM announcements WHERE id = $1`, id).
		Scan(&a.ID, &a.Title, &a.Summary)
	if err == sql.ErrNoRows {
		return nil, errors.NewEntityNotFoundError(models.EntityAnnouncement, id)
	}
	if err != nil {
		return nil, errors.NewDirectoryQueryError(err)
	}
	return &a, nil
}

func (d *Directory) GetRegistration(ctx context.Context, id string) (*models.Registration, error) {
	var r models.Registration
	err := d.db.QueryRowContext(ctx,
		`SELECT id, event_id, user_id, status, COALESCE(waitlist_position, 0) FROM registrations WHERE id = $1`, id).
		Scan(&r.ID, &r.EventID, &r.UserID, &r.Status, &r.WaitlistPosition)
	if err == sql.ErrNoRows {
		return nil, errors.NewEntityNotFoundError(models.EntityRegistration, id)
	}
	if err != nil {
		return nil, errors.NewDirectoryQueryError(err)
	}
	return &r, nil
}

func (d *Directory) GetResource(ctx context.Context, id string) (*models.Resource, error) {
	var r models.Resource
	err := d.db.QueryRowContext(ctx,
		`SELECT id, title, COALESCE(category, '') FROM resources WHERE id = $1`, id).
		Scan(&r.ID, &r.Title, &r.Category)
	if err == sql.ErrNoRows {
		return nil, errors.NewEntityNotFoundError(models.EntityResource, id)
	}
	if err != nil {
		return nil, errors.NewDirectoryQueryError(err)
	}
	return &r, nil
}

func (d *Directory) GetNewsletter(ctx context.Context, id string) (*models.Newsletter, error) {
	var n models.Newsletter
	err := d.db.QueryRowContext(ctx,
		`SELECT id, title, COALESCE(issue, 0) FROM newsletters WHERE id = $1`, id).
		Scan(&n.ID, &n.Title, &n.Issue)
	if err == sql.ErrNoRows {
		return nil, errors.NewEntityNotFoundError(models.EntityNewsletter, id)
	}
	if err != nil {
		return nil, errors.NewDirectoryQueryError(err)
	}
	return &n, nil
}
