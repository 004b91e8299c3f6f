package user

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no user matches a lookup. Callers rely on it
// to tell an absent user apart from a storage failure.
var ErrNotFound = errors.New("user not found")

// Store is the gorm-backed user repository.
type Store struct {
	DB *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) Create(u *User) error {
	return s.DB.Create(u).Error
}

func (s *Store) FindByEmail(email string) (*User, error) {
	var u User
	if err := s.DB.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindByID(id uuid.UUID) (*User, error) {
	var u User
	if err := s.DB.Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) ExistsByEmail(email string) (bool, error) {
	var count int64
	if err := s.DB.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) ExistsByID(id uuid.UUID) (bool, error) {
	var count int64
	if err := s.DB.Model(&User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes the user row. Refresh tokens are cleaned up by the
// ON DELETE CASCADE constraint on the ledger table.
func (s *Store) Delete(id uuid.UUID) (int64, error) {
	res := s.DB.Where("id = ?", id).Delete(&User{})
	return res.RowsAffected, res.Error
}
