package main

import (
	"fmt"
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/exhibition_backend/models"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// exportInvoicesHandler streams an xlsx of the owner-visible invoices, one
// row per invoice, honoring the same query filters as the list endpoint.
func exportInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, role, ok := callerIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		views, err := models.ListInvoices(c.Request.Context(), role, userId, models.InvoiceFilter{})
		if err != nil {
			respondError(c, err)
			return
		}

		f := excelize.NewFile()
		sheet := "Invoices"
		if _, err := f.NewSheet(sheet); err != nil {
			respondError(c, err)
			return
		}
		f.DeleteSheet("Sheet1")

		f.SetCellValue(sheet, "A1", "InvoiceId")
		f.SetCellValue(sheet, "B1", "CustomerName")
		f.SetCellValue(sheet, "C1", "CreatedBy")
		f.SetCellValue(sheet, "D1", "CreatedAt")
		f.SetCellValue(sheet, "E1", "ItemCount")
		f.SetCellValue(sheet, "F1", "TotalAmount")
		f.SetCellValue(sheet, "G1", "Confirmed")

		for i, v := range views {
			row := fmt.Sprint(i + 2)
			f.SetCellValue(sheet, "A"+row, v.ID)
			f.SetCellValue(sheet, "B"+row, v.CustomerName)
			f.SetCellValue(sheet, "C"+row, v.CreatedByUserName)
			f.SetCellValue(sheet, "D"+row, v.CreatedAt.Format(time.RFC3339))
			f.SetCellValue(sheet, "E"+row, len(v.Items))
			f.SetCellValue(sheet, "F"+row, v.TotalAmount.StringFixed(2))
			f.SetCellValue(sheet, "G"+row, v.IsConfirmed)
		}

		filename := "invoices_" + time.Now().Format("20060102") + ".xlsx"
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename="+filename)
		if err := f.Write(c.Writer); err != nil {
			_ = c.Error(err)
		}
	}
}
