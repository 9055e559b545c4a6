// internal/models/preferences.go
package models

import "time"

// Channel names used by preference overrides.
const (
	ChannelEmail   = "email"
	ChannelSystem  = "system"
	ChannelBrowser = "browser"
	ChannelSMS     = "sms"
)

// CategoryPreference controls one notification category. An empty Channels
// list inherits the global switches.
type CategoryPreference struct {
	Enabled  bool     `json:"enabled"`
	Channels []string `json:"channels,omitempty"`
}

// NotificationPreferences holds one user's delivery preferences.
type NotificationPreferences struct {
	UserID            string                        `json:"userId"`
	EmailEnabled      bool                          `json:"emailEnabled"`
	SystemEnabled     bool                          `json:"systemEnabled"`
	BrowserEnabled    bool                          `json:"browserEnabled"`
	QuietHoursEnabled bool                          `json:"quietHoursEnabled"`
	QuietHoursStart   string                        `json:"quietHoursStart,omitempty"` // "HH:MM"
	QuietHoursEnd     string                        `json:"quietHoursEnd,omitempty"`   // "HH:MM"
	Categories        map[string]CategoryPreference `json:"categories,omitempty"`
}

// PreferencesUpdate is a partial preferences patch. Nil pointers leave the
// current value untouched.
type PreferencesUpdate struct {
	EmailEnabled      *bool                         `json:"emailEnabled,omitempty"`
	SystemEnabled     *bool                         `json:"systemEnabled,omitempty"`
	BrowserEnabled    *bool                         `json:"browserEnabled,omitempty"`
	QuietHoursEnabled *bool                         `json:"quietHoursEnabled,omitempty"`
	QuietHoursStart   *string                       `json:"quietHoursStart,omitempty"`
	QuietHoursEnd     *string                       `json:"quietHoursEnd,omitempty"`
	Categories        map[string]CategoryPreference `json:"categories,omitempty"`
}

// categoryFor returns the override for a notification type, defaulting to an
// enabled category with inherited channels.
func (p *NotificationPreferences) categoryFor(ntype string) CategoryPreference {
	if p.Categories != nil {
		if cat, ok := p.Categories[ntype]; ok {
			return cat
		}
	}
	return CategoryPreference{Enabled: true}
}

// CategoryEnabled reports whether notifications of the given type are allowed
// at all. A disabled category blocks every channel regardless of the global
// switches.
func (p *NotificationPreferences) CategoryEnabled(ntype string) bool {
	return p.categoryFor(ntype).Enabled
}

func (p *NotificationPreferences) channelAllowed(ntype, channel string) bool {
	cat := p.categoryFor(ntype)
	if !cat.Enabled {
		return false
	}
	if len(cat.Channels) == 0 {
		return true
	}
	for _, ch := range cat.Channels {
		if ch == channel {
			return true
		}
	}
	return false
}

// EmailAllowed reports whether the email channel applies for the given type.
func (p *NotificationPreferences) EmailAllowed(ntype string) bool {
	return p.EmailEnabled && p.channelAllowed(ntype, ChannelEmail)
}

// SystemAllowed reports whether the in-app/real-time channel applies for the
// given type.
func (p *NotificationPreferences) SystemAllowed(ntype string) bool {
	return p.SystemEnabled && p.channelAllowed(ntype, ChannelSystem)
}

// SMSAllowed reports whether the SMS escalation channel applies for the given
// type. SMS has no global switch; it is gated by service config and priority.
func (p *NotificationPreferences) SMSAllowed(ntype string) bool {
	return p.channelAllowed(ntype, ChannelSMS)
}

// InQuietHours reports whether t falls inside the user's do-not-disturb
// window. The window may cross midnight ("22:00" to "07:00"). Malformed or
// missing bounds disable the window.
func (p *NotificationPreferences) InQuietHours(t time.Time) bool {
	if !p.QuietHoursEnabled {
		return false
	}
	start, okStart := parseClock(p.QuietHoursStart)
	end, okEnd := parseClock(p.QuietHoursEnd)
	if !okStart || !okEnd || start == end {
		return false
	}
	minute := t.Hour()*60 + t.Minute()
	if start < end {
		return minute >= start && minute < end
	}
	return minute >= start || minute < end
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, bool) {
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return parsed.Hour()*60 + parsed.Minute(), true
}

// DefaultPreferences returns the built-in defaults applied to users without a
// stored preference record.
func DefaultPreferences(userID string) *NotificationPreferences {
	return &NotificationPreferences{
		UserID:         userID,
		EmailEnabled:   true,
		SystemEnabled:  true,
		BrowserEnabled: true,
	}
}
