package models

import (
	"strconv"
	"time"
)

// UserRole represents the roles an account can hold in the store backend.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleStaff      UserRole = "STAFF"
	RoleCustomer   UserRole = "CUSTOMER"
)

// User is a row of the users screen.
type User struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      UserRole   `json:"role"`
	Active    bool       `json:"active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (u User) ItemID() string { return "user-" + strconv.FormatInt(u.ID, 10) }

func (User) ExportHeaders() []string {
	return []string{"ID", "Name", "Email", "Role", "Active", "Created"}
}

func (u User) ExportRow() map[string]string {
	return map[string]string{
		"ID":      strconv.FormatInt(u.ID, 10),
		"Name":    u.Name,
		"Email":   u.Email,
		"Role":    string(u.Role),
		"Active":  strconv.FormatBool(u.Active),
		"Created": formatDate(u.CreatedAt),
	}
}

// Role is a row of the roles screen.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	UserCount   int       `json:"users_count"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r Role) ItemID() string { return "role-" + strconv.FormatInt(r.ID, 10) }

func (Role) ExportHeaders() []string {
	return []string{"ID", "Name", "Description", "Permissions", "Users"}
}

func (r Role) ExportRow() map[string]string {
	return map[string]string{
		"ID":          strconv.FormatInt(r.ID, 10),
		"Name":        r.Name,
		"Description": r.Description,
		"Permissions": strconv.Itoa(len(r.Permissions)),
		"Users":       strconv.Itoa(r.UserCount),
	}
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalCount int  `json:"total_count"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
