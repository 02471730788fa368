package main

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/exhibition_backend/models"
	"github.com/gin-gonic/gin"
)

func listNotificationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, _, ok := callerIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		unreadOnly := false
		if v := c.Query("unreadOnly"); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid unreadOnly"})
				return
			}
			unreadOnly = parsed
		}

		notifications, err := models.ListNotifications(c.Request.Context(), userId, unreadOnly)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, notifications)
	}
}

func markNotificationAsReadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, _, ok := callerIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		notificationId, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := models.MarkNotificationAsRead(c.Request.Context(), userId, notificationId); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
	}
}

func markAllNotificationsAsReadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, _, ok := callerIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		updated, err := models.MarkAllNotificationsAsRead(c.Request.Context(), userId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": updated})
	}
}

func listEmployeesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		employees, err := models.GetEmployees(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, employees)
	}
}

func getEmployeeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		employeeId, ok := idParam(c, "id")
		if !ok {
			return
		}
		employee, err := models.GetEmployeeById(c.Request.Context(), employeeId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, employee)
	}
}

// listEmployeeInvoicesHandler is the owner's drill-down: all of one
// employee's invoices through the owner-side visibility rules.
func listEmployeeInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, role, ok := callerIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		employeeId, ok := idParam(c, "id")
		if !ok {
			return
		}
		if _, err := models.GetEmployeeById(c.Request.Context(), employeeId); err != nil {
			respondError(c, err)
			return
		}

		filter := models.InvoiceFilter{CreatedByUserId: &employeeId}
		if v := c.Query("isConfirmed"); v != "" {
			confirmed, err := strconv.ParseBool(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid isConfirmed"})
				return
			}
			filter.IsConfirmed = &confirmed
		}

		views, err := models.ListInvoices(c.Request.Context(), role, userId, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, views)
	}
}
