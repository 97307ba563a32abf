package models

// AdminUser is an account of the remote system.
type AdminUser struct {
	ID          int64   `json:"id"`
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	IsActive    bool    `json:"is_active"`
	IsStaff     bool    `json:"is_staff"`
	IsSuperuser bool    `json:"is_superuser"`
	LastLogin   string  `json:"last_login,omitempty"`
	DateJoined  string  `json:"date_joined,omitempty"`
	Groups      []int64 `json:"groups,omitempty"`
}

// RecordID implements Record.
func (u AdminUser) RecordID() int64 { return u.ID }

// DisplayName is "first last" for search and display.
func (u AdminUser) DisplayName() string { return u.FirstName + " " + u.LastName }

// Status is the short Persian badge shown next to the account.
func (u AdminUser) Status() string {
	switch {
	case !u.IsActive:
		return "غیرفعال"
	case u.IsSuperuser:
		return "مدیر کل"
	case u.IsStaff:
		return "کارمند"
	default:
		return "فعال"
	}
}

// AdminGroup bundles permissions.
type AdminGroup struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Permissions []int64 `json:"permissions,omitempty"`
}

// RecordID implements Record.
func (g AdminGroup) RecordID() int64 { return g.ID }

// AdminPermission is a single grantable capability.
type AdminPermission struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Codename    string `json:"codename"`
	ContentType Text   `json:"content_type"`
}

// RecordID implements Record.
func (p AdminPermission) RecordID() int64 { return p.ID }
