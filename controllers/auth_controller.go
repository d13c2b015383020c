package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ahmedelbailey/occla-backend/models"
	"github.com/ahmedelbailey/occla-backend/utils"
)

const tokenLifetime = 24 * time.Hour

// AuthController handles signup, login, logout and the user status field.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Signup registers a local account with bcrypt hashing.
func (a *AuthController) Signup(ctx *gin.Context) {
	type request struct {
		Email    string `json:"email" binding:"required,email"`
		Name     string `json:"name" binding:"required,min=2,max=64"`
		Password string `json:"password" binding:"required,min=5"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusUnprocessableEntity, 42220, "invalid signup payload")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.User
	if err := a.db.Where("email = ?", email).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusConflict, 40920, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to hash password")
		return
	}

	user := models.User{
		Email:        email,
		Name:         utils.Sanitize(strings.TrimSpace(req.Name)),
		PasswordHash: hash,
		Status:       "I am new!",
	}
	if err := a.db.Create(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to create user")
		return
	}

	utils.Respond(ctx, http.StatusCreated, 0, "user created", gin.H{"userId": user.ID})
}

// Login verifies credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusUnprocessableEntity, 42221, "invalid login payload")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := a.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusUnauthorized, 40120, "invalid email or password")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load user")
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "invalid email or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email, tokenLifetime)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to issue token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "userId": user.ID})
}

// Logout revokes the presented token until its natural expiry.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, 40121, "invalid authorization header")
		return
	}

	token := strings.TrimSpace(parts[1])
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40122, "invalid token")
		return
	}

	expiresAt := time.Now().Add(tokenLifetime)
	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}

	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// GetStatus returns the acting user's status line.
func (a *AuthController) GetStatus(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40123, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to load user")
		return
	}

	utils.Success(ctx, gin.H{"status": user.Status})
}

// UpdateStatus replaces the acting user's status line.
func (a *AuthController) UpdateStatus(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40124, "unauthorized")
		return
	}

	type request struct {
		Status string `json:"status" binding:"required"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusUnprocessableEntity, 42222, "status cannot be empty")
		return
	}

	status := utils.Sanitize(strings.TrimSpace(req.Status))
	if status == "" {
		utils.Error(ctx, http.StatusUnprocessableEntity, 42222, "status cannot be empty")
		return
	}

	if err := a.db.Model(&models.User{}).Where("id = ?", userID).Update("status", status).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to update status")
		return
	}

	utils.Success(ctx, gin.H{"status": status})
}
