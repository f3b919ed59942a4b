package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	STATUS_ACTIVE   = "active"
	STATUS_INACTIVE = "inactive"
	STATUS_DISABLED = "disabled"
)

// User is the owning account for integrations. Account management itself
// (signup, settings, billing) lives in the dashboard service; this model
// only exists so integrations cascade with user deletion.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"type:varchar(150)" json:"name"`
	Email        string         `gorm:"uniqueIndex;type:varchar(200)" json:"email"`
	Status       string         `gorm:"type:varchar(50);default:'active'" json:"status"`
	Integrations []Integration  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
