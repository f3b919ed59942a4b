package repository

import (
	"time"

	"github.com/AdPulseHQ/AdPulse/app/models"
	"gorm.io/gorm"
)

// integrationRepository implements the IntegrationRepository interface
type integrationRepository struct {
	db *gorm.DB
}

// NewIntegrationRepository creates a new integration repository instance
func NewIntegrationRepository(db *gorm.DB) IntegrationRepository {
	return &integrationRepository{db: db}
}

// Create inserts a new integration. The unique (user_id, platform) index
// rejects duplicates at the database level.
func (r *integrationRepository) Create(integration *models.Integration) error {
	return r.db.Create(integration).Error
}

// GetByID retrieves an integration by its ID regardless of owner. Internal
// use only (token manager re-reads after a lost refresh race).
func (r *integrationRepository) GetByID(id uint) (*models.Integration, error) {
	var integration models.Integration
	err := r.db.First(&integration, id).Error
	if err != nil {
		return nil, err
	}
	return &integration, nil
}

// GetByIDAndUserID retrieves an integration owned by the given user.
func (r *integrationRepository) GetByIDAndUserID(id, userID uint) (*models.Integration, error) {
	var integration models.Integration
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&integration).Error
	if err != nil {
		return nil, err
	}
	return &integration, nil
}

// GetByUserID retrieves all integrations for a user
func (r *integrationRepository) GetByUserID(userID uint) ([]models.Integration, error) {
	var integrations []models.Integration
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&integrations).Error
	return integrations, err
}

// GetByUserIDAndPlatform retrieves the user's integration for one platform
func (r *integrationRepository) GetByUserIDAndPlatform(userID uint, platform string) (*models.Integration, error) {
	var integration models.Integration
	err := r.db.Where("user_id = ? AND platform = ?", userID, platform).First(&integration).Error
	if err != nil {
		return nil, err
	}
	return &integration, nil
}

// UpdateTokens persists a refreshed credential. Token and expiry go out in
// a single UPDATE so no reader ever observes one without the other. An
// empty refreshToken keeps the stored one.
func (r *integrationRepository) UpdateTokens(id uint, accessToken, refreshToken string, expiresAt *time.Time) error {
	updates := map[string]interface{}{
		"access_token": accessToken,
		"expires_at":   expiresAt,
	}
	if refreshToken != "" {
		updates["refresh_token"] = refreshToken
	}
	return r.db.Model(&models.Integration{}).Where("id = ?", id).Updates(updates).Error
}

// Update saves the full integration record
func (r *integrationRepository) Update(integration *models.Integration) error {
	return r.db.Save(integration).Error
}

// DeleteByIDAndUserID removes an integration owned by the given user and
// returns how many rows were deleted.
func (r *integrationRepository) DeleteByIDAndUserID(id, userID uint) (int64, error) {
	tx := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Integration{})
	return tx.RowsAffected, tx.Error
}

// Count returns the total number of integrations
func (r *integrationRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Integration{}).Count(&count).Error
	return count, err
}
