package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/exhibition_backend/config"
	"bitbucket.org/mmdatafocus/exhibition_backend/models"
	"bitbucket.org/mmdatafocus/exhibition_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var tracer = otel.Tracer("exhibition-backend")

// CreateInvoice commits the invoice, its line items, and the matching stock
// decrements as one transaction. Any failing line rolls the whole thing back.
func CreateInvoice(ctx context.Context, logger *logrus.Logger, input *models.NewInvoice, actingUserId int) (int, error) {

	ctx, span := tracer.Start(ctx, "CreateInvoice")
	defer span.End()

	if len(input.Items) == 0 {
		return 0, utils.ValidationError("invoice must contain at least one item")
	}
	for _, item := range input.Items {
		if item.ProductId <= 0 {
			return 0, utils.ValidationError("product id is required on every item")
		}
		if item.Quantity < 1 {
			return 0, utils.ValidationError(
				fmt.Sprintf("quantity for product %d must be at least 1", item.ProductId))
		}
	}

	db := config.GetDB()
	var invoiceId int

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		items := make([]models.InvoiceItem, 0, len(input.Items))
		totalAmount := decimal.Zero

		for _, line := range input.Items {
			// Row lock so two concurrent invoices cannot both pass the
			// stock check against the same product.
			var product models.Product
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ?", line.ProductId).
				Take(&product).Error
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return utils.NotFoundError(
						fmt.Sprintf("product %d not found", line.ProductId))
				}
				config.LogError(logger, "invoiceWorkflow.go", "CreateInvoice", "LockProduct", line.ProductId, err)
				return err
			}
			if product.IsActive == nil || !*product.IsActive {
				return utils.NotFoundError(
					fmt.Sprintf("product %q is no longer available", product.Name))
			}
			if product.StockQuantity < line.Quantity {
				return utils.ConflictError(
					fmt.Sprintf("insufficient stock for %q: have %d, requested %d",
						product.Name, product.StockQuantity, line.Quantity))
			}

			// The quantity guard in the WHERE clause is the last line of
			// defence; the row lock above should already serialize us.
			result := tx.Model(&models.Product{}).
				Where("id = ? AND stock_quantity >= ?", product.ID, line.Quantity).
				Update("stock_quantity", gorm.Expr("stock_quantity - ?", line.Quantity))
			if result.Error != nil {
				config.LogError(logger, "invoiceWorkflow.go", "CreateInvoice", "DecrementStock", product.ID, result.Error)
				return result.Error
			}
			if result.RowsAffected == 0 {
				return utils.ConflictError(
					fmt.Sprintf("insufficient stock for %q", product.Name))
			}

			unitPrice := product.Price
			lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
			totalAmount = totalAmount.Add(lineTotal)
			items = append(items, models.InvoiceItem{
				ProductId:  product.ID,
				Quantity:   line.Quantity,
				UnitPrice:  unitPrice,
				TotalPrice: lineTotal,
			})
		}

		invoice := models.Invoice{
			CustomerName:     input.CustomerName,
			TotalAmount:      totalAmount,
			CreatedByUserId:  actingUserId,
			IsConfirmed:      utils.NewFalse(),
			IsViewedByOwner:  utils.NewFalse(),
			IsDeletedByOwner: utils.NewFalse(),
		}
		if err := tx.Create(&invoice).Error; err != nil {
			config.LogError(logger, "invoiceWorkflow.go", "CreateInvoice", "CreateInvoice", invoice, err)
			return err
		}
		for i := range items {
			items[i].InvoiceId = invoice.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			config.LogError(logger, "invoiceWorkflow.go", "CreateInvoice", "CreateInvoiceItems", invoice.ID, err)
			return err
		}

		invoiceId = invoice.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return invoiceId, nil
}

// ConfirmInvoice flips is_confirmed exactly once. The compare-and-set on the
// flag is authoritative; the redis lock only shortcuts the common concurrent
// double-click and the flow is correct without it.
func ConfirmInvoice(ctx context.Context, logger *logrus.Logger, invoiceId int) error {

	ctx, span := tracer.Start(ctx, "ConfirmInvoice")
	defer span.End()

	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, fmt.Sprintf("ConfirmInvoice:%d", invoiceId), 10*time.Second, nil)
		if err == nil {
			defer lock.Release(context.WithoutCancel(ctx))
		}
	}

	db := config.GetDB()

	invoice, err := models.GetInvoiceById(ctx, invoiceId)
	if err != nil {
		return err
	}
	if invoice.IsConfirmed != nil && *invoice.IsConfirmed {
		return utils.ConflictError("invoice already confirmed")
	}

	result := db.WithContext(ctx).Model(&models.Invoice{}).
		Where("id = ? AND is_confirmed = ?", invoiceId, false).
		Update("is_confirmed", true)
	if result.Error != nil {
		config.LogError(logger, "invoiceWorkflow.go", "ConfirmInvoice", "ConfirmUpdate", invoiceId, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Lost the race to a concurrent confirm.
		return utils.ConflictError("invoice already confirmed")
	}

	var creatorName string
	if creator, err := models.GetUserById(ctx, invoice.CreatedByUserId); err == nil {
		creatorName = creator.Username
	} else {
		config.LogError(logger, "invoiceWorkflow.go", "ConfirmInvoice", "GetCreator", invoice.CreatedByUserId, err)
	}

	// Best-effort: the confirmation above is already committed and a
	// notification failure must not undo it.
	NotifyOwnersOfInvoice(ctx, logger, invoice.ID, invoice.CustomerName, invoice.TotalAmount, creatorName)
	return nil
}
