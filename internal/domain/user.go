package domain

import (
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the back-office role of an account.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleEditor  Role = "editor"
	RoleVisitor Role = "visitor"
)

// Valid returns true if the Role is recognized.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleVisitor:
		return true
	}
	return false
}

// Permissions granted per role, in resource:action form.
var rolePermissions = map[Role][]string{
	RoleAdmin:   {"*:*"},
	RoleEditor:  {"sites:write", "events:write", "media:write"},
	RoleVisitor: {},
}

// Permissions returns the resource:action strings granted to the role.
func (r Role) Permissions() []string {
	return slices.Clone(rolePermissions[r])
}

// User is a back-office account allowed to manage heritage content.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string // Never expose this externally
	FullName     string
	Role         Role
	Active       bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewUser(email, fullName string, role Role) (*User, error) {
	u := &User{
		ID:        uuid.New(),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		FullName:  strings.TrimSpace(fullName),
		Role:      role,
		Active:    true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) Validate() error {
	var errs ValidationErrors

	if u.Email == "" {
		errs = append(errs, ValidationError{Field: "email", Message: "required"})
	} else if _, err := mail.ParseAddress(u.Email); err != nil {
		errs = append(errs, ValidationError{Field: "email", Message: "invalid format"})
	}

	if len(u.FullName) > 200 {
		errs = append(errs, ValidationError{Field: "full_name", Message: "must be at most 200 characters"})
	}

	if !u.Role.Valid() {
		errs = append(errs, ValidationError{Field: "role", Message: "invalid role"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (u *User) IsActive() bool {
	return u.Active
}

// HasPermission reports whether the user's role grants resource:action,
// honoring resource and action wildcards.
func (u *User) HasPermission(resource, action string) bool {
	return HasPermission(u.Role.Permissions(), resource, action)
}

// HasPermission checks a resource:action pair against a granted permission list.
func HasPermission(granted []string, resource, action string) bool {
	target := resource + ":" + action
	for _, p := range granted {
		if p == target || p == resource+":*" || p == "*:"+action || p == "*:*" {
			return true
		}
	}
	return false
}
