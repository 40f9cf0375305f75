package model

import "time"

// Permission codes embedded in staff JWT claims.
type Permission string

const (
	PermissionRegistrationsRead  Permission = "registrations:read"
	PermissionRegistrationsWrite Permission = "registrations:write"
	PermissionGradebookWrite     Permission = "gradebook:write"
	PermissionCoursesRead        Permission = "courses:read"
	PermissionCoursesWrite       Permission = "courses:write"
	PermissionCreditsRead        Permission = "credits:read"
	PermissionExamsWrite         Permission = "exams:write"
	PermissionExamsMonitor       Permission = "exams:monitor"
	PermissionDocumentsRead      Permission = "documents:read"
	PermissionStaffWrite         Permission = "staff:write"
)

// AllPermissions lists every known permission code.
var AllPermissions = []Permission{
	PermissionRegistrationsRead,
	PermissionRegistrationsWrite,
	PermissionGradebookWrite,
	PermissionCoursesRead,
	PermissionCoursesWrite,
	PermissionCreditsRead,
	PermissionExamsWrite,
	PermissionExamsMonitor,
	PermissionDocumentsRead,
	PermissionStaffWrite,
}

// Staff is a staff user (teacher, facilitator admin, registrar).
type Staff struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RoleID       int       `json:"role_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Role groups permissions for staff users.
type Role struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// StaffLoginRequest is the payload for staff authentication.
type StaffLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// StaffLoginResponse is returned after successful staff login.
type StaffLoginResponse struct {
	Token string `json:"token"`
	Staff Staff  `json:"staff"`
}
