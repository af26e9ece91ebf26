package entities

import (
	"time"

	"gorm.io/gorm"
)

// RentalStatus describes the circulation state of a single book copy.
type RentalStatus string

const (
	StatusAvailable    RentalStatus = "available"
	StatusRented       RentalStatus = "rented"
	StatusBroken       RentalStatus = "broken"
	StatusPresentation RentalStatus = "presentation"
	StatusOrdered      RentalStatus = "ordered"
	StatusLost         RentalStatus = "lost"
	StatusRemote       RentalStatus = "remote"
)

// Book is one physical copy in the library catalog. A rental is not a
// separate row: it lives in the book's own status, due date and borrower
// fields. DueDate is only meaningful while RentalStatus is "rented".
type Book struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Title        string       `gorm:"index;size:512" json:"title"`
	Author       string       `gorm:"index;size:256" json:"author"`
	Subtitle     string       `gorm:"size:512" json:"subtitle,omitempty"`
	Topics       string       `gorm:"size:1024" json:"topics,omitempty"` // semicolon-delimited tags
	ISBN         string       `gorm:"index;size:20" json:"isbn,omitempty"`
	Publisher    string       `gorm:"size:256" json:"publisher,omitempty"`
	PublishYear  int          `json:"publish_year,omitempty"`
	CoverURL     string       `gorm:"size:2048" json:"cover_url,omitempty"`
	RentalStatus RentalStatus `gorm:"size:20;default:'available';index" json:"rental_status"`
	DueDate      *time.Time   `json:"due_date,omitempty"`
	RenewalCount int          `gorm:"default:0" json:"renewal_count"`
	BorrowerID   *uint        `gorm:"index" json:"borrower_id,omitempty"`
	ReminderAt   *time.Time   `json:"reminder_at,omitempty"` // last overdue-reminder stamp

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// User is a borrower record (a pupil, not a login account). IDs are
// either assigned manually or as max-existing+1, so the column is a plain
// primary key without autoincrement semantics baked into the domain.
type User struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	LastName      string `gorm:"index;size:256" json:"last_name"`
	FirstName     string `gorm:"index;size:256" json:"first_name"`
	SchoolGrade   string `gorm:"size:32" json:"school_grade,omitempty"`
	SchoolTeacher string `gorm:"size:256" json:"school_teacher,omitempty"`
	Active        bool   `gorm:"default:true" json:"active"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// RentalProjection is the per-loan view model handed to list screens and
// reports. It is computed fresh on every read from Book and User state and
// never persisted.
type RentalProjection struct {
	BookID       uint   `json:"book_id"`
	Title        string `json:"title"`
	LastName     string `json:"last_name"`
	FirstName    string `json:"first_name"`
	UserID       uint   `json:"user_id"`
	DueDate      string `json:"due_date"`
	RenewalCount int    `json:"renewal_count"`
	// DueDays is the signed day count past due: positive means overdue.
	DueDays int `json:"due_days"`
}

func (Book) TableName() string {
	return "books"
}

func (User) TableName() string {
	return "users"
}
