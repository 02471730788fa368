package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/exhibition_backend/config"
	"bitbucket.org/mmdatafocus/exhibition_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Invoice struct {
	ID               int             `gorm:"primary_key" json:"id"`
	CustomerName     string          `gorm:"size:200" json:"customer_name"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_amount"`
	CreatedByUserId  int             `gorm:"index;not null" json:"created_by_user_id"`
	IsConfirmed      *bool           `gorm:"not null;default:false" json:"is_confirmed"`
	IsViewedByOwner  *bool           `gorm:"not null;default:false" json:"is_viewed_by_owner"`
	IsDeletedByOwner *bool           `gorm:"not null;default:false" json:"is_deleted_by_owner"`
	DeletedByOwnerAt *time.Time      `json:"deleted_by_owner_at"`
	CreatedAt        time.Time       `gorm:"index;autoCreateTime" json:"created_at"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceId;constraint:OnDelete:CASCADE" json:"items"`
}

type InvoiceItem struct {
	ID        int             `gorm:"primary_key" json:"id"`
	InvoiceId int             `gorm:"index;not null" json:"invoice_id"`
	ProductId int             `gorm:"index;not null" json:"product_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	// UnitPrice is snapshotted from the product at creation time. Catalog
	// price edits never reach back into committed lines.
	UnitPrice  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_price"`
}

type NewInvoice struct {
	CustomerName string           `json:"customer_name"`
	Items        []NewInvoiceItem `json:"items" binding:"required"`
}

type NewInvoiceItem struct {
	ProductId int `json:"product_id" binding:"required" validate:"required,gt=0"`
	Quantity  int `json:"quantity" binding:"required" validate:"required,gte=1"`
}

type InvoiceView struct {
	ID                int               `json:"id"`
	CustomerName      string            `json:"customer_name"`
	TotalAmount       decimal.Decimal   `json:"total_amount"`
	CreatedAt         time.Time         `json:"created_at"`
	CreatedByUserId   int               `json:"created_by_user_id"`
	CreatedByUserName string            `json:"created_by_user_name"`
	IsConfirmed       bool              `json:"is_confirmed"`
	IsViewedByOwner   bool              `json:"is_viewed_by_owner"`
	Items             []InvoiceItemView `json:"items"`
}

type InvoiceItemView struct {
	ID          int             `json:"id"`
	ProductId   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type InvoiceFilter struct {
	IsConfirmed     *bool
	CreatedByUserId *int
}

// EmployeeDayWindow returns the half-open interval [start of today, start of
// tomorrow) in loc. Invoices roll out of an employee's list view the moment
// the store day ticks over.
func EmployeeDayWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	// Next calendar day, not start+24h: DST transition days are not 24h long.
	end := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	return start, end
}

// InvoiceVisibilityScope is the one place the role-based invoice visibility
// rule lives. Owners see everything they have not soft-deleted; employees see
// only their own invoices from the current store day.
func InvoiceVisibilityScope(role UserRole, userId int, now time.Time, loc *time.Location) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if role.IsOwner() {
			return db.Where("is_deleted_by_owner = ?", false)
		}
		dayStart, dayEnd := EmployeeDayWindow(now, loc)
		return db.Where("created_by_user_id = ? AND created_at >= ? AND created_at < ?",
			userId, dayStart.UTC(), dayEnd.UTC())
	}
}

func ListInvoices(ctx context.Context, role UserRole, userId int, filter InvoiceFilter) ([]InvoiceView, error) {
	db := config.GetDB()

	query := db.WithContext(ctx).Model(&Invoice{}).
		Scopes(InvoiceVisibilityScope(role, userId, time.Now(), config.GetStoreLocation()))

	if filter.IsConfirmed != nil {
		query = query.Where("is_confirmed = ?", *filter.IsConfirmed)
	}
	if role.IsOwner() && filter.CreatedByUserId != nil {
		query = query.Where("created_by_user_id = ?", *filter.CreatedByUserId)
	}

	var invoices []Invoice
	err := query.Preload("Items").Order("created_at DESC").Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return assembleViews(ctx, invoices)
}

// GetInvoice is not date-restricted for employees; only the list view is.
// Employees still cannot read anyone else's invoice.
func GetInvoice(ctx context.Context, role UserRole, userId int, invoiceId int) (*InvoiceView, error) {
	db := config.GetDB()

	var invoice Invoice
	err := db.WithContext(ctx).Preload("Items").
		Where("id = ?", invoiceId).Take(&invoice).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NotFoundError("invoice not found")
		}
		return nil, err
	}

	if role.IsOwner() {
		if invoice.IsDeletedByOwner != nil && *invoice.IsDeletedByOwner {
			return nil, utils.NotFoundError("invoice not found")
		}
	} else if invoice.CreatedByUserId != userId {
		return nil, utils.ForbiddenError("invoice belongs to another user")
	}

	views, err := assembleViews(ctx, []Invoice{invoice})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func GetInvoiceById(ctx context.Context, invoiceId int) (*Invoice, error) {
	db := config.GetDB()
	var invoice Invoice
	err := db.WithContext(ctx).Preload("Items").
		Where("id = ?", invoiceId).Take(&invoice).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NotFoundError("invoice not found")
		}
		return nil, err
	}
	return &invoice, nil
}

// DeleteInvoiceByOwner hides the invoice from the owner's view. It never
// restocks and never touches the row's items; re-deleting an already-deleted
// invoice succeeds without moving the original deletion timestamp.
func DeleteInvoiceByOwner(ctx context.Context, invoiceId int) error {
	db := config.GetDB()

	var invoice Invoice
	err := db.WithContext(ctx).Select("id", "is_deleted_by_owner").
		Where("id = ?", invoiceId).Take(&invoice).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.NotFoundError("invoice not found")
		}
		return err
	}
	if invoice.IsDeletedByOwner != nil && *invoice.IsDeletedByOwner {
		return nil
	}

	now := time.Now().UTC()
	return db.WithContext(ctx).Model(&Invoice{}).
		Where("id = ? AND is_deleted_by_owner = ?", invoiceId, false).
		Updates(map[string]interface{}{
			"is_deleted_by_owner": true,
			"deleted_by_owner_at": now,
		}).Error
}

func MarkInvoiceAsViewed(ctx context.Context, invoiceId int) error {
	db := config.GetDB()
	result := db.WithContext(ctx).Model(&Invoice{}).
		Where("id = ? AND is_deleted_by_owner = ?", invoiceId, false).
		Update("is_viewed_by_owner", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		err := db.WithContext(ctx).Model(&Invoice{}).
			Where("id = ? AND is_deleted_by_owner = ?", invoiceId, false).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count == 0 {
			return utils.NotFoundError("invoice not found")
		}
	}
	return nil
}

// assembleViews resolves creator usernames and product names in two batched
// lookups instead of a query per row.
func assembleViews(ctx context.Context, invoices []Invoice) ([]InvoiceView, error) {
	db := config.GetDB()

	userIds := make([]int, 0, len(invoices))
	productIds := make([]int, 0)
	for _, inv := range invoices {
		userIds = append(userIds, inv.CreatedByUserId)
		for _, item := range inv.Items {
			productIds = append(productIds, item.ProductId)
		}
	}

	userNames := map[int]string{}
	if len(userIds) > 0 {
		var users []User
		if err := db.WithContext(ctx).Select("id", "username").
			Where("id IN ?", userIds).Find(&users).Error; err != nil {
			return nil, err
		}
		for _, u := range users {
			userNames[u.ID] = u.Username
		}
	}

	productNames := map[int]string{}
	if len(productIds) > 0 {
		var products []Product
		if err := db.WithContext(ctx).Select("id", "name").
			Where("id IN ?", productIds).Find(&products).Error; err != nil {
			return nil, err
		}
		for _, p := range products {
			productNames[p.ID] = p.Name
		}
	}

	views := make([]InvoiceView, 0, len(invoices))
	for _, inv := range invoices {
		items := make([]InvoiceItemView, 0, len(inv.Items))
		for _, item := range inv.Items {
			items = append(items, InvoiceItemView{
				ID:          item.ID,
				ProductId:   item.ProductId,
				ProductName: productNames[item.ProductId],
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				TotalPrice:  item.TotalPrice,
			})
		}
		views = append(views, InvoiceView{
			ID:                inv.ID,
			CustomerName:      inv.CustomerName,
			TotalAmount:       inv.TotalAmount,
			CreatedAt:         inv.CreatedAt,
			CreatedByUserId:   inv.CreatedByUserId,
			CreatedByUserName: userNames[inv.CreatedByUserId],
			IsConfirmed:       inv.IsConfirmed != nil && *inv.IsConfirmed,
			IsViewedByOwner:   inv.IsViewedByOwner != nil && *inv.IsViewedByOwner,
			Items:             items,
		})
	}
	return views, nil
}
