// seed-owner creates or updates the store owner account for a fresh install.
// Credentials come from env so real deployments never ship the defaults.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//   OWNER_USERNAME=owner OWNER_PASSWORD=... OWNER_EMAIL=... go run ./cmd/seed-owner
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/exhibition_backend/config"
	"bitbucket.org/mmdatafocus/exhibition_backend/models"
	"bitbucket.org/mmdatafocus/exhibition_backend/utils"
	"gorm.io/gorm"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	username := envOr("OWNER_USERNAME", "owner")
	password := envOr("OWNER_PASSWORD", "ChangeMe123!")
	email := envOr("OWNER_EMAIL", "owner@example.com")
	fullName := envOr("OWNER_FULL_NAME", "Store Owner")

	hashed, err := utils.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	hashedStr := string(hashed)

	var existing models.User
	err = db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		u := models.User{
			Username: username,
			Email:    email,
			Password: hashedStr,
			Role:     models.UserRoleOwner,
			FullName: fullName,
			IsActive: utils.NewTrue(),
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create owner user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created owner user: username=%q\n", username)
		return
	}

	if err := db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Updates(map[string]any{
		"password":  hashedStr,
		"email":     email,
		"full_name": fullName,
		"is_active": utils.NewTrue(),
		"role":      models.UserRoleOwner,
	}).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update owner user: %v\n", err)
		os.Exit(1)
	}
	_ = existing.RemoveInstanceRedis()
	fmt.Printf("Updated owner user: username=%q\n", username)
}
