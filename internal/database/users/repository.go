// Package users provides database operations for borrower records.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByID(7)
package users

import (
	"errors"

	"gorm.io/gorm"

	"github.com/openlibry/openlibry/internal/entities"
)

// ErrNotFound is returned when a requested borrower does not exist.
var ErrNotFound = errors.New("user not found")

// ErrNameRequired is returned when last or first name is missing.
var ErrNameRequired = errors.New("last name and first name are required")

// Repository handles all borrower database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetUserByID retrieves a borrower by ID.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetAllUsers retrieves all borrowers ordered by ID.
func (r *Repository) GetAllUsers() ([]entities.User, error) {
	var users []entities.User
	err := r.db.Order("id ASC").Find(&users).Error
	return users, err
}

// CreateUser creates a borrower. A zero ID is assigned as max-existing+1;
// a non-zero ID is taken as a manual assignment.
func (r *Repository) CreateUser(user *entities.User) (*entities.User, error) {
	if user.LastName == "" || user.FirstName == "" {
		return nil, ErrNameRequired
	}
	if user.ID == 0 {
		next, err := r.NextID()
		if err != nil {
			return nil, err
		}
		user.ID = next
	}
	if err := r.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// NextID returns max-existing+1, the default for auto-assigned borrower IDs.
func (r *Repository) NextID() (uint, error) {
	var maxID *uint
	err := r.db.Model(&entities.User{}).Select("MAX(id)").Scan(&maxID).Error
	if err != nil {
		return 0, err
	}
	if maxID == nil {
		return 1, nil
	}
	return *maxID + 1, nil
}

// UpdateUser applies a column patch to a borrower and returns the fresh row.
func (r *Repository) UpdateUser(id uint, patch map[string]any) (*entities.User, error) {
	result := r.db.Model(&entities.User{}).Where("id = ?", id).Updates(patch)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetUserByID(id)
}

// DeleteUser soft-deletes a borrower and returns their active loans to the
// shelf, so no book stays rented to a record that no longer exists.
func (r *Repository) DeleteUser(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&entities.Book{}).
			Where("rental_status = ? AND borrower_id = ?", entities.StatusRented, id).
			Updates(map[string]any{
				"rental_status": entities.StatusAvailable,
				"due_date":      nil,
				"renewal_count": 0,
				"borrower_id":   nil,
			}).Error
		if err != nil {
			return err
		}

		result := tx.Delete(&entities.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
