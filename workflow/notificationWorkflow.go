package workflow

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/exhibition_backend/config"
	"bitbucket.org/mmdatafocus/exhibition_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// NotifyOwnersOfInvoice writes one in-system notification per active owner.
// Failures are logged and swallowed; callers never see them. Actual device
// push lives behind a gateway we have not wired up.
func NotifyOwnersOfInvoice(ctx context.Context, logger *logrus.Logger, invoiceId int, customerName string, totalAmount decimal.Decimal, createdByUserName string) {

	owners, err := models.GetActiveOwners(ctx)
	if err != nil {
		config.LogError(logger, "notificationWorkflow.go", "NotifyOwnersOfInvoice", "GetActiveOwners", invoiceId, err)
		return
	}
	if len(owners) == 0 {
		return
	}

	customer := customerName
	if customer == "" {
		customer = "walk-in customer"
	}
	message := fmt.Sprintf("%s created a new invoice for %s totalling %s",
		createdByUserName, customer, totalAmount.StringFixed(2))

	notifications := make([]models.Notification, 0, len(owners))
	for _, owner := range owners {
		id := invoiceId
		notifications = append(notifications, models.Notification{
			UserId:    owner.ID,
			Title:     "Invoice confirmed",
			Message:   message,
			InvoiceId: &id,
		})
	}
	if err := models.CreateNotifications(ctx, notifications); err != nil {
		config.LogError(logger, "notificationWorkflow.go", "NotifyOwnersOfInvoice", "CreateNotifications", invoiceId, err)
	}
}
