package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"flowerbelle-pos/internal/database"
	"flowerbelle-pos/internal/models"
	"flowerbelle-pos/internal/services"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// User management is OWNER-only; the routes are mounted behind RequireRole.

func GetUsers(c *gin.Context) {
	var users []models.User
	if err := database.DB.Order("created_at").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role" binding:"required"`
	Phone    string `json:"phone"`
}

func CreateUser(c *gin.Context) {
	var input CreateUserRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if input.Role != models.RoleOwner && input.Role != models.RoleStaff {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be OWNER or STAFF", "code": "VALIDATION"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		Username:     input.Username,
		PasswordHash: string(hashed),
		FullName:     input.FullName,
		Role:         input.Role,
		Phone:        input.Phone,
		IsActive:     true,
	}

	if err := database.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username already taken"})
		return
	}

	services.CreateAuditLog(database.DB, currentUserID(c), "CREATE", "users", user.ID,
		fmt.Sprintf("Created user %s (%s)", user.Username, user.Role), c.ClientIP())

	c.JSON(http.StatusCreated, user)
}

type UpdateUserRequest struct {
	FullName *string `json:"full_name"`
	Role     *string `json:"role"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password"`
}

func UpdateUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var input UpdateUserRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	updates := map[string]interface{}{}
	if input.FullName != nil {
		updates["full_name"] = *input.FullName
	}
	if input.Role != nil {
		if *input.Role != models.RoleOwner && *input.Role != models.RoleStaff {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be OWNER or STAFF", "code": "VALIDATION"})
			return
		}
		updates["role"] = *input.Role
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		updates["password_hash"] = string(hashed)
	}

	if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	services.CreateAuditLog(database.DB, currentUserID(c), "UPDATE", "users", user.ID,
		fmt.Sprintf("Updated user %s", user.Username), c.ClientIP())

	c.JSON(http.StatusOK, user)
}

// DeactivateUser soft-deletes: the account stays for audit and report joins
func DeactivateUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := database.DB.Model(&user).Update("is_active", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate user"})
		return
	}

	services.CreateAuditLog(database.DB, currentUserID(c), "DELETE", "users", user.ID,
		fmt.Sprintf("Deactivated user: %s", user.Username), c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"message": "User deactivated", "user": user})
}

func GetAuditLogs(c *gin.Context) {
	query := database.DB.Model(&models.AuditLog{}).Order("created_at desc")

	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	limit := 100
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 500 {
		limit = l
	}

	var logs []models.AuditLog
	if err := query.Limit(limit).Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit logs"})
		return
	}
	c.JSON(http.StatusOK, logs)
}
