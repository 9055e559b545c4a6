// internal/models/user.go
package models

// DirectoryUser is a read-only record from the user directory.
type DirectoryUser struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"displayName"`
	Phone       string   `json:"phone,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	IsActive    bool     `json:"isActive"`
}
