// internal/notification/templates/registry.go
package templates

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/geonook/es-international-department-sub001/internal/common/errors"
	"github.com/geonook/es-international-department-sub001/internal/models"
)

// Template keys
const (
	KeyAnnouncementPublished   = "announcement_published"
	KeyEventCreated            = "event_created"
	KeyEventUpdated            = "event_updated"
	KeyEventCancelled          = "event_cancelled"
	KeyRegistrationConfirmed   = "registration_confirmed"
	KeyRegistrationWaitlisted  = "registration_waitlisted"
	KeyRegistrationCancelled   = "registration_cancelled"
	KeyResourceUploaded        = "resource_uploaded"
	KeyNewsletterPublished     = "newsletter_published"
	KeySystemMaintenance       = "system_maintenance"
	KeyEventReminder           = "event_reminder"
	KeyDeadlineReminder        = "deadline_reminder"
)

// catalogOrder fixes the iteration order of All().
var catalogOrder = []string{
	KeyAnnouncementPublished,
	KeyEventCreated,
	KeyEventUpdated,
	KeyEventCancelled,
	KeyRegistrationConfirmed,
	KeyRegistrationWaitlisted,
	KeyRegistrationCancelled,
	KeyResourceUploaded,
	KeyNewsletterPublished,
	KeySystemMaintenance,
	KeyEventReminder,
	KeyDeadlineReminder,
}

// catalog is the static template table. One entry per system event kind; never
// mutated after init.
var catalog = map[string]models.TemplateConfig{
	KeyAnnouncementPublished: {
		ID:        KeyAnnouncementPublished,
		Title:     "New Announcement: {{title}}",
		Message:   "A new announcement has been published: {{summary}}",
		Variables: []string{"title", "summary"},
		Priority:  models.PriorityMedium,
		Type:      models.TypeAnnouncement,
	},
	KeyEventCreated: {
		ID:        KeyEventCreated,
		Title:     "New Event: {{eventTitle}}",
		Message:   "{{eventTitle}} is scheduled for {{eventDate}} at {{location}}. Register now to secure your spot.",
		Variables: []string{"eventTitle", "eventDate", "location"},
		Priority:  models.PriorityMedium,
		Type:      models.TypeEvent,
	},
	KeyEventUpdated: {
		ID:        KeyEventUpdated,
		Title:     "Event Updated: {{eventTitle}}",
		Message:   "Details for {{eventTitle}} have changed. Please review the updated information.",
		Variables: []string{"eventTitle"},
		Priority:  models.PriorityMedium,
		Type:      models.TypeEvent,
	},
	KeyEventCancelled: {
		ID:        KeyEventCancelled,
		Title:     "Event Cancelled: {{eventTitle}}",
		Message:   "{{eventTitle}} scheduled for {{eventDate}} has been cancelled. We apologize for any inconvenience.",
		Variables: []string{"eventTitle", "eventDate"},
		Priority:  models.PriorityHigh,
		Type:      models.TypeEvent,
	},
	KeyRegistrationConfirmed: {
		ID:        KeyRegistrationConfirmed,
		Title:     "Registration Confirmed: {{eventTitle}}",
		Message:   "Your registration for {{eventTitle}} on {{eventDate}} is confirmed.",
		Variables: []string{"eventTitle", "eventDate"},
		Priority:  models.PriorityMedium,
		Type:      models.TypeRegistration,
	},
	KeyRegistrationWaitlisted: {
		ID:        KeyRegistrationWaitlisted,
		Title:     "Waitlisted: {{eventTitle}}",
		Message:   "{{eventTitle}} is currently full. You are number {{position}} on the waitlist and will be notified if a spot opens.",
		Variables: []string{"eventTitle", "position"},
		Priority:  models.PriorityMedium,
		Type:      models.TypeRegistration,
	},
	KeyRegistrationCancelled: {
		ID:        KeyRegistrationCancelled,
		Title:     "Registration Cancelled: {{eventTitle}}",
		Message:   "Your registration for {{eventTitle}} has been cancelled.",
		Variables: []string{"eventTitle"},
		Priority:  models.PriorityMedium,
		Type:      models.TypeRegistration,
	},
	KeyResourceUploaded: {
		ID:        KeyResourceUploaded,
		Title:     "New Resource: {{resourceTitle}}",
		Message:   "A new resource has been added to {{category}}: {{resourceTitle}}",
		Variables: []string{"resourceTitle", "category"},
		Priority:  models.PriorityLow,
		Type:      models.TypeResource,
	},
	KeyNewsletterPublished: {
		ID:        KeyNewsletterPublished,
		Title:     "Newsletter: {{newsletterTitle}}",
		Message:   "Issue {{issue}} of the school newsletter is out: {{newsletterTitle}}",
		Variables: []string{"newsletterTitle", "issue"},
		Priority:  models.PriorityLow,
		Type:      models.TypeNewsletter,
	},
	KeySystemMaintenance: {
		ID:        KeySystemMaintenance,
		Title:     "Scheduled Maintenance",
		Message:   "The portal will be unavailable from {{startTime}} to {{endTime}}. {{description}}",
		Variables: []string{"startTime", "endTime", "description"},
		Priority:  models.PriorityHigh,
		Type:      models.TypeMaintenance,
	},
	KeyEventReminder: {
		ID:        KeyEventReminder,
		Title:     "Reminder: {{eventTitle}} tomorrow",
		Message:   "{{eventTitle}} takes place tomorrow ({{eventDate}}) at {{location}}. See you there!",
		Variables: []string{"eventTitle", "eventDate", "location"},
		Priority:  models.PriorityMedium,
		Type:      models.TypeReminder,
	},
	KeyDeadlineReminder: {
		ID:        KeyDeadlineReminder,
		Title:     "Deadline Approaching: {{subject}}",
		Message:   "The deadline for {{subject}} is {{deadline}}. Don't miss it.",
		Variables: []string{"subject", "deadline"},
		Priority:  models.PriorityHigh,
		Type:      models.TypeReminder,
	},
}

// Get returns the template for the given key.
func Get(key string) (models.TemplateConfig, error) {
	tpl, ok := catalog[key]
	if !ok {
		return models.TemplateConfig{}, errors.NewTemplateNotFoundError(key)
	}
	return tpl, nil
}

// All returns the full catalog in stable order.
func All() []models.TemplateConfig {
	out := make([]models.TemplateConfig, 0, len(catalogOrder))
	for _, key := range catalogOrder {
		out = append(out, catalog[key])
	}
	return out
}

// ApplyTemplate replaces every {{name}} occurrence with the string form of
// data[name]. Placeholders without a matching key stay verbatim. Only string
// and numeric values interpolate; other value types leave the placeholder
// untouched.
func ApplyTemplate(pattern string, data map[string]interface{}) string {
	result := pattern
	for k, v := range data {
		value, ok := stringify(v)
		if !ok {
			continue
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}
	return result
}

func stringify(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case int:
		return strconv.Itoa(val), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float32:
		return trimFloat(float64(val)), true
	case float64:
		return trimFloat(val), true
	default:
		return "", false
	}
}

// trimFloat renders JSON numbers without a trailing ".0" for whole values.
func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return fmt.Sprintf("%v", f)
}
