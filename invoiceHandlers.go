package main

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/exhibition_backend/config"
	"bitbucket.org/mmdatafocus/exhibition_backend/models"
	"bitbucket.org/mmdatafocus/exhibition_backend/utils"
	"bitbucket.org/mmdatafocus/exhibition_backend/workflow"
	"github.com/gin-gonic/gin"
)

func createInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		userId, _, ok := callerIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var input models.NewInvoice
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		invoiceId, err := workflow.CreateInvoice(c.Request.Context(), logger, &input, userId)
		if err != nil {
			// Every client-side failure on this endpoint reads as a bad
			// request: missing product, insufficient stock, bad quantity.
			if _, ok := utils.KindOf(err); ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"invoice_id": invoiceId})
	}
}

func confirmInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		invoiceId, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := workflow.ConfirmInvoice(c.Request.Context(), logger, invoiceId); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "invoice confirmed"})
	}
}

func listInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, role, ok := callerIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var filter models.InvoiceFilter
		if v := c.Query("isConfirmed"); v != "" {
			confirmed, err := strconv.ParseBool(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid isConfirmed"})
				return
			}
			filter.IsConfirmed = &confirmed
		}
		if v := c.Query("createdByUserId"); v != "" {
			creatorId, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid createdByUserId"})
				return
			}
			filter.CreatedByUserId = &creatorId
		}

		views, err := models.ListInvoices(c.Request.Context(), role, userId, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, views)
	}
}

func getInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, role, ok := callerIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		invoiceId, ok := idParam(c, "id")
		if !ok {
			return
		}
		view, err := models.GetInvoice(c.Request.Context(), role, userId, invoiceId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func deleteInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		invoiceId, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := models.DeleteInvoiceByOwner(c.Request.Context(), invoiceId); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "invoice deleted"})
	}
}

func markInvoiceAsViewedHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		invoiceId, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := models.MarkInvoiceAsViewed(c.Request.Context(), invoiceId); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "invoice marked as viewed"})
	}
}
