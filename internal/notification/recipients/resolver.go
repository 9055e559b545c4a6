// internal/notification/recipients/resolver.go
package recipients

import (
	"context"
	"fmt"

	"github.com/geonook/es-international-department-sub001/internal/common/logger"
	"github.com/geonook/es-international-department-sub001/internal/models"
)

// UserDirectory is the slice of the directory the resolver reads from.
type UserDirectory interface {
	GetActiveUsers(ctx context.Context) ([]models.DirectoryUser, error)
	GetActiveUsersByRoles(ctx context.Context, roles []string) ([]models.DirectoryUser, error)
}

type Resolver struct {
	directory UserDirectory
	logger    logger.Logger
}

func NewResolver(dir UserDirectory, log logger.Logger) *Resolver {
	return &Resolver{
		directory: dir,
		logger:    log.WithFields(map[string]interface{}{"component": "recipient-resolver"}),
	}
}

// Resolve expands a delivery request's recipient strategy into concrete user
// ids. Purely a read; no side effects.
func (r *Resolver) Resolve(ctx context.Context, req *models.DeliveryRequest) ([]string, error) {
	switch req.RecipientType {
	case models.RecipientAll:
		return r.activeUserIDs(ctx)

	case models.RecipientSpecific:
		// Literal list, no existence check at this layer.
		return req.RecipientIDs, nil

	case models.RecipientRoleBased:
		if len(req.Roles) == 0 {
			return nil, nil
		}
		users, err := r.directory.GetActiveUsersByRoles(ctx, req.Roles)
		if err != nil {
			return nil, err
		}
		return userIDs(users), nil

	case models.RecipientGradeBased:
		// Grade filtering is not implemented; the documented fallback is all
		// active users. Logged so the fallback stays visible.
		r.logger.Warn("grade filter not implemented, falling back to all active users", map[string]interface{}{
			"grades": req.Grades,
		})
		return r.activeUserIDs(ctx)

	default:
		return nil, fmt.Errorf("unknown recipient type: %s", req.RecipientType)
	}
}

func (r *Resolver) activeUserIDs(ctx context.Context) ([]string, error) {
	users, err := r.directory.GetActiveUsers(ctx)
	if err != nil {
		return nil, err
	}
	return userIDs(users), nil
}

func userIDs(users []models.DirectoryUser) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}
