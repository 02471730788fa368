package models

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/exhibition_backend/config"
	"bitbucket.org/mmdatafocus/exhibition_backend/utils"
)

type ProductCategory struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type NewProductCategory struct {
	Name string `json:"name" binding:"required" validate:"required"`
}

func ListProductCategories(ctx context.Context) ([]ProductCategory, error) {
	db := config.GetDB()
	var categories []ProductCategory
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func CreateProductCategory(ctx context.Context, input *NewProductCategory) (*ProductCategory, error) {
	db := config.GetDB()

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, utils.ValidationError("category name is required")
	}

	var count int64
	err := db.WithContext(ctx).Model(&ProductCategory{}).
		Where("is_active = ? AND LOWER(name) = ?", true, strings.ToLower(name)).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.ConflictError("category already exists")
	}

	category := ProductCategory{
		Name:     name,
		IsActive: utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func DeleteProductCategory(ctx context.Context, id int) error {
	db := config.GetDB()

	result := db.WithContext(ctx).Model(&ProductCategory{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.NotFoundError("category not found")
	}
	return nil
}
