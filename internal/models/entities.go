// internal/models/entities.go
package models

import "time"

// Related-entity kinds referenced by a Notification. The referenced record is
// owned by another subsystem; no foreign key is enforced at this layer.
const (
	EntityEvent        = "event"
	EntityAnnouncement = "announcement"
	EntityRegistration = "registration"
	EntityResource     = "resource"
	EntityNewsletter   = "newsletter"
)

type Event struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Location  string    `json:"location,omitempty"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

type Announcement struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
}

type Registration struct {
	ID               string `json:"id"`
	EventID          string `json:"eventId"`
	UserID           string `json:"userId"`
	Status           string `json:"status"`
	WaitlistPosition int    `json:"waitlistPosition,omitempty"`
}

type Resource struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
}

type Newsletter struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Issue int    `json:"issue,omitempty"`
}
