package repository

import (
	"time"

	"github.com/AdPulseHQ/AdPulse/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Delete(id uint) error
}

// IntegrationRepository defines the interface for integration-related
// database operations. Reads that act on behalf of a user filter on both
// id and user_id so ownership is enforced in the query itself, never after
// the fact.
type IntegrationRepository interface {
	Create(integration *models.Integration) error
	GetByID(id uint) (*models.Integration, error)
	GetByIDAndUserID(id, userID uint) (*models.Integration, error)
	GetByUserID(userID uint) ([]models.Integration, error)
	GetByUserIDAndPlatform(userID uint, platform string) (*models.Integration, error)
	UpdateTokens(id uint, accessToken, refreshToken string, expiresAt *time.Time) error
	Update(integration *models.Integration) error
	DeleteByIDAndUserID(id, userID uint) (int64, error)
	Count() (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User        UserRepository
	Integration IntegrationRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Integration: NewIntegrationRepository(db),
	}
}
