package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID        int64     `json:"id" db:"id" example:"1"`                                   // Unique identifier for the user
	Login     string    `json:"login" db:"login" example:"ge42abc"`                       // Login name used in exam rosters
	Email     string    `json:"email" db:"email" example:"user@school.edu"`               // User's email address
	FirstName string    `json:"firstName" db:"first_name" example:"John"`                 // User's first name
	LastName  string    `json:"lastName" db:"last_name" example:"Doe"`                    // User's last name
	RoleType  RoleType  `json:"roleType" db:"role_type" example:"STUDENT"`                // Global role
	CreatedAt time.Time `json:"createdAt" db:"created_at" example:"2024-01-01T10:00:00Z"` // Timestamp when the user was created
}

// IsAdmin reports whether the user holds the global admin role
func (u *User) IsAdmin() bool {
	return u.RoleType == RoleAdmin
}
