package main

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/exhibition_backend/models"
	"bitbucket.org/mmdatafocus/exhibition_backend/utils"
	"github.com/gin-gonic/gin"
)

// callerIdentity pulls the authenticated (userId, role) the auth middleware
// stamped on the request context.
func callerIdentity(c *gin.Context) (int, models.UserRole, bool) {
	userId, ok := utils.GetUserIdFromContext(c.Request.Context())
	if !ok {
		return 0, "", false
	}
	roleStr, _ := utils.GetUserRoleFromContext(c.Request.Context())
	role, err := models.ParseUserRole(roleStr)
	if err != nil {
		return 0, "", false
	}
	return userId, role, true
}

func idParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// respondError maps the error kind onto an HTTP status. Unexpected errors
// get a generic body; details stay in the logs.
func respondError(c *gin.Context, err error) {
	if kind, ok := utils.KindOf(err); ok {
		switch kind {
		case utils.ErrorKindValidation, utils.ErrorKindConflict:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case utils.ErrorKindNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case utils.ErrorKindForbidden:
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		}
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
}
