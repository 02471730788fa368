package reports

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/exhibition_backend/config"
	"github.com/shopspring/decimal"
)

type DailySalesRow struct {
	SaleDate       string          `json:"sale_date"`
	InvoiceCount   int             `json:"invoice_count"`
	ConfirmedCount int             `json:"confirmed_count"`
	TotalSales     decimal.Decimal `json:"total_sales"`
}

type SalesByEmployeeRow struct {
	UserId       int             `json:"user_id"`
	Username     string          `json:"username"`
	InvoiceCount int             `json:"invoice_count"`
	TotalSales   decimal.Decimal `json:"total_sales"`
}

// GetDailySalesReport aggregates owner-visible invoices per calendar day of
// the store timezone. Soft-deleted invoices stay out of the totals.
func GetDailySalesReport(ctx context.Context, fromDate time.Time, toDate time.Time) ([]*DailySalesRow, error) {

	sql := `
SELECT
    DATE(CONVERT_TZ(created_at, '+00:00', @tzOffset)) AS sale_date,
    COUNT(id) AS invoice_count,
    SUM(CASE WHEN is_confirmed = 1 THEN 1 ELSE 0 END) AS confirmed_count,
    SUM(total_amount) AS total_sales
FROM
    invoices
WHERE
    is_deleted_by_owner = 0
        AND created_at >= @fromDate
        AND created_at < @toDate
GROUP BY sale_date
ORDER BY sale_date;
`

	var rows []*DailySalesRow
	db := config.GetDB()
	err := db.WithContext(ctx).Raw(sql,
		map[string]interface{}{
			"tzOffset": tzOffset(fromDate),
			"fromDate": fromDate.UTC(),
			"toDate":   toDate.UTC(),
		}).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetSalesByEmployeeReport totals owner-visible invoices per creating user
// over [fromDate, toDate).
func GetSalesByEmployeeReport(ctx context.Context, fromDate time.Time, toDate time.Time) ([]*SalesByEmployeeRow, error) {

	sql := `
SELECT
    invoices.created_by_user_id AS user_id,
    users.username,
    COUNT(invoices.id) AS invoice_count,
    SUM(invoices.total_amount) AS total_sales
FROM
    invoices
        LEFT JOIN
    users ON users.id = invoices.created_by_user_id
WHERE
    invoices.is_deleted_by_owner = 0
        AND invoices.created_at >= @fromDate
        AND invoices.created_at < @toDate
GROUP BY invoices.created_by_user_id, users.username
ORDER BY total_sales DESC;
`

	var rows []*SalesByEmployeeRow
	db := config.GetDB()
	err := db.WithContext(ctx).Raw(sql,
		map[string]interface{}{
			"fromDate": fromDate.UTC(),
			"toDate":   toDate.UTC(),
		}).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// tzOffset renders the location's UTC offset at t as "+06:30" for CONVERT_TZ,
// which works even when the server has no tz tables loaded.
func tzOffset(t time.Time) string {
	_, offset := t.In(config.GetStoreLocation()).Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("%s%02d:%02d", sign, offset/3600, (offset%3600)/60)
}
