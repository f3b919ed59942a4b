package repository

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/AdPulseHQ/AdPulse/app/models"
)

func TestUserRepositoryCreateAndGet(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	user := &models.User{Name: "Dana", Email: "dana@example.com"}
	if err := repo.Create(user); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.ID == 0 {
		t.Fatalf("id not assigned")
	}

	got, err := repo.GetByID(user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Email != "dana@example.com" {
		t.Fatalf("unexpected user: %+v", got)
	}

	got, err = repo.GetByEmail("dana@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("id = %d, want %d", got.ID, user.ID)
	}

	if _, err := repo.GetByEmail("nobody@example.com"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

// Deleting a user takes their integrations with them; other users' rows
// stay put.
func TestUserRepositoryDeleteRemovesIntegrations(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	integrations := NewIntegrationRepository(db)

	user := &models.User{Name: "Dana", Email: "dana@example.com"}
	if err := users.Create(user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	other := &models.User{Name: "Sam", Email: "sam@example.com"}
	if err := users.Create(other); err != nil {
		t.Fatalf("create other user: %v", err)
	}

	seedIntegration(t, integrations, user.ID, models.PlatformGoogleAds)
	seedIntegration(t, integrations, user.ID, models.PlatformTikTokAds)
	kept := seedIntegration(t, integrations, other.ID, models.PlatformGoogleAds)

	if err := users.Delete(user.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := users.GetByID(user.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("deleted user still readable: %v", err)
	}
	rows, err := integrations.GetByUserID(user.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("deleted user still has %d integrations", len(rows))
	}

	if _, err := integrations.GetByID(kept.ID); err != nil {
		t.Fatalf("other user's integration was removed: %v", err)
	}
}
