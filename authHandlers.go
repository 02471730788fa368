package main

import (
	"net/http"

	"bitbucket.org/mmdatafocus/exhibition_backend/models"
	"bitbucket.org/mmdatafocus/exhibition_backend/utils"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	ResetToken  string `json:"reset_token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

type fcmTokenRequest struct {
	FcmToken string `json:"fcm_token" binding:"required"`
}

// createOwnerHandler bootstraps the first account on a fresh install. It is
// unauthenticated but refuses to run once any user exists.
func createOwnerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		owner, err := models.CreateOwner(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		owner.PrepareGive()
		c.JSON(http.StatusOK, owner)
	}
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input loginRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
			return
		}
		info, err := models.Login(c.Request.Context(), input.Username, input.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func registerEmployeeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		employee, err := models.CreateEmployee(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		employee.PrepareGive()
		c.JSON(http.StatusOK, employee)
	}
}

func changePasswordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, _, ok := callerIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var input changePasswordRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		user, err := models.GetUserById(c.Request.Context(), userId)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := utils.ComparePassword(user.Password, input.CurrentPassword); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "current password is incorrect"})
			return
		}
		if err := models.ChangePassword(c.Request.Context(), userId, input.NewPassword); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "password changed"})
	}
}

func forgotPasswordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input forgotPasswordRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
			return
		}
		resetToken, expiry, err := models.ForgotPassword(c.Request.Context(), input.Email)
		if err != nil {
			respondError(c, err)
			return
		}
		// Same response whether or not the email exists.
		response := gin.H{"message": "if the email exists, a reset token has been issued"}
		if resetToken != "" {
			response["reset_token"] = resetToken
			response["expires_at"] = expiry
		}
		c.JSON(http.StatusOK, response)
	}
}

func resetPasswordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input resetPasswordRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := models.ResetPassword(c.Request.Context(), input.ResetToken, input.NewPassword); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "password reset"})
	}
}

func updateFcmTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, _, ok := callerIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var input fcmTokenRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "fcm_token is required"})
			return
		}
		if err := models.UpdateFcmToken(c.Request.Context(), userId, input.FcmToken); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "fcm token updated"})
	}
}

// generateHashHandler is a setup helper for seeding credentials by hand.
func generateHashHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		password := c.Query("password")
		if password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password query parameter is required"})
			return
		}
		hash, err := utils.HashPasswordWithCost(password, 12)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"hash": string(hash)})
	}
}
