package models

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/exhibition_backend/config"
	"bitbucket.org/mmdatafocus/exhibition_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID              int             `gorm:"primary_key" json:"id"`
	Name            string          `gorm:"index;size:200;not null" json:"name" binding:"required"`
	Price           decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	Notes           string          `gorm:"size:1000" json:"notes"`
	LocationInStore string          `gorm:"size:200" json:"location_in_store"`
	ImageUrl        string          `gorm:"size:500" json:"image_url"`
	StockQuantity   int             `gorm:"not null;default:0" json:"stock_quantity"`
	ExpiryDate      *time.Time      `json:"expiry_date"`
	CategoryId      *int            `gorm:"index" json:"category_id"`
	IsActive        *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name            string          `form:"name" json:"name" binding:"required" validate:"required"`
	Price           decimal.Decimal `form:"price" json:"price" validate:"required"`
	Notes           string          `form:"notes" json:"notes"`
	LocationInStore string          `form:"location_in_store" json:"location_in_store"`
	StockQuantity   int             `form:"stock_quantity" json:"stock_quantity" validate:"gte=0"`
	ExpiryDate      *time.Time      `form:"expiry_date" json:"expiry_date"`
	CategoryId      *int            `form:"category_id" json:"category_id"`
}

type UpdateProduct struct {
	Name            string          `form:"name" json:"name" binding:"required" validate:"required"`
	Price           decimal.Decimal `form:"price" json:"price" validate:"required"`
	Notes           string          `form:"notes" json:"notes"`
	LocationInStore string          `form:"location_in_store" json:"location_in_store"`
	StockQuantity   int             `form:"stock_quantity" json:"stock_quantity" validate:"gte=0"`
	ExpiryDate      *time.Time      `form:"expiry_date" json:"expiry_date"`
	CategoryId      *int            `form:"category_id" json:"category_id"`
}

func (input *NewProduct) validate(ctx context.Context) error {
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ValidationError(err.Error())
	}
	if input.Price.IsNegative() {
		return utils.ValidationError("price cannot be negative")
	}
	if input.StockQuantity < 0 {
		return utils.ValidationError("stock quantity cannot be negative")
	}
	if input.CategoryId != nil && *input.CategoryId > 0 {
		db := config.GetDB()
		var count int64
		err := db.WithContext(ctx).Model(&ProductCategory{}).
			Where("id = ? AND is_active = ?", *input.CategoryId, true).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count == 0 {
			return utils.NotFoundError("category not found")
		}
	}
	return nil
}

func ListProducts(ctx context.Context, search string) ([]Product, error) {
	db := config.GetDB()

	query := db.WithContext(ctx).Model(&Product{}).Where("is_active = ?", true)
	if strings.TrimSpace(search) != "" {
		like := "%" + strings.TrimSpace(search) + "%"
		query = query.Where("name LIKE ? OR location_in_store LIKE ?", like, like)
	}

	var products []Product
	if err := query.Order("name ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// GetProductById returns the product whether or not it is active; callers
// that serve the catalog must check IsActive themselves.
func GetProductById(ctx context.Context, id int) (*Product, error) {
	db := config.GetDB()
	var product Product
	err := db.WithContext(ctx).Where("id = ?", id).Take(&product).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NotFoundError("product not found")
		}
		return nil, err
	}
	return &product, nil
}

func CreateProduct(ctx context.Context, input *NewProduct, imageUrl string) (*Product, error) {
	db := config.GetDB()

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	product := Product{
		Name:            strings.TrimSpace(input.Name),
		Price:           input.Price,
		Notes:           input.Notes,
		LocationInStore: input.LocationInStore,
		ImageUrl:        imageUrl,
		StockQuantity:   input.StockQuantity,
		ExpiryDate:      input.ExpiryDate,
		CategoryId:      input.CategoryId,
		IsActive:        utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// EditProduct updates catalog fields in place. Historical invoice lines keep
// the unit price captured at creation time; a price change here never
// rewrites them.
func EditProduct(ctx context.Context, id int, input *UpdateProduct, imageUrl string) (*Product, error) {
	db := config.GetDB()

	product, err := GetProductById(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.IsActive == nil || !*product.IsActive {
		return nil, utils.NotFoundError("product not found")
	}

	newInput := NewProduct(*input)
	if err := newInput.validate(ctx); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":              strings.TrimSpace(input.Name),
		"price":             input.Price,
		"notes":             input.Notes,
		"location_in_store": input.LocationInStore,
		"stock_quantity":    input.StockQuantity,
		"expiry_date":       input.ExpiryDate,
		"category_id":       input.CategoryId,
	}
	if imageUrl != "" {
		updates["image_url"] = imageUrl
	}
	if err := db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	return GetProductById(ctx, id)
}

// DeleteProduct is a soft delete. Invoice items reference products by id, so
// the row itself must survive for as long as any invoice line points at it.
func DeleteProduct(ctx context.Context, id int) error {
	db := config.GetDB()

	result := db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.NotFoundError("product not found")
	}
	return nil
}
