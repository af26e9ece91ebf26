package entities

import (
	"time"

	"gorm.io/gorm"
)

// AccountRole controls what a login account may do in the admin surface.
type AccountRole string

const (
	RoleAdmin     AccountRole = "admin"
	RoleLibrarian AccountRole = "librarian"
)

// Account is a login user (librarian or admin), distinct from the borrower
// User records the library manages.
type Account struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Username     string      `gorm:"uniqueIndex;size:100" json:"username"`
	Email        string      `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string      `gorm:"size:100" json:"-"`
	Role         AccountRole `gorm:"size:20;default:'librarian'" json:"role"`

	FailedLoginCount int        `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time `json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Account) TableName() string {
	return "accounts"
}
