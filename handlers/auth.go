package handlers

import (
	"net/http"

	"feastfleet/auth"
	"feastfleet/middleware"
	"feastfleet/models"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Name     string          `json:"name" binding:"required"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=6"`
	UserType models.UserType `json:"user_type" binding:"required"`
	Phone    string          `json:"phone"`
}

type LoginRequest struct {
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required"`
	UserType models.UserType `json:"user_type" binding:"required"`
}

// Register creates a new user account
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.UserType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user type. Must be: customer or vendor"})
		return
	}

	user, err := h.Auth.Register(c.Request.Context(), auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		UserType: req.UserType,
	})
	if failed(err) {
		respondError(c, err)
		return
	}

	token, tokenErr := h.Tokens.GenerateToken(user)
	if tokenErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusCreated, withWarning(gin.H{
		"message": "Account created successfully",
		"token":   token,
		"user":    user.Public(),
	}, err))
}

// Login authenticates a user and returns a JWT
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password, req.UserType)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := h.Tokens.GenerateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user.Public(),
	})
}

// Logout drops the caller's server-side session: cart and tracking state.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.Sessions.Delete(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GetProfile returns the authenticated user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.Auth.User(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}

type UpdateProfileRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.Auth.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), auth.ProfileUpdate{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	h.respondUser(c, "Profile updated successfully", user, err)
}

type PreferencesRequest struct {
	Preferences      []string `json:"preferences"`
	Allergies        []string `json:"allergies"`
	FavoriteCuisines []string `json:"favorite_cuisines"`
	SpiceLevel       int      `json:"spice_level" binding:"omitempty,min=1,max=5"`
}

func (h *Handler) UpdatePreferences(c *gin.Context) {
	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.Auth.UpdatePreferences(c.Request.Context(), middleware.GetUserID(c), auth.Preferences{
		Preferences:      req.Preferences,
		Allergies:        req.Allergies,
		FavoriteCuisines: req.FavoriteCuisines,
		SpiceLevel:       req.SpiceLevel,
	})
	h.respondUser(c, "Preferences saved successfully", user, err)
}

func (h *Handler) UpdateNotifications(c *gin.Context) {
	var req models.NotificationSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.Auth.UpdateNotificationSettings(c.Request.Context(), middleware.GetUserID(c), req)
	h.respondUser(c, "Notification settings saved", user, err)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.NewPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "New passwords do not match"})
		return
	}
	err := h.Auth.ChangePassword(c.Request.Context(), middleware.GetUserID(c), req.CurrentPassword, req.NewPassword)
	if failed(err) {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, withWarning(gin.H{"message": "Password updated successfully"}, err))
}

// DeleteAccount only ends the session; the account record stays.
func (h *Handler) DeleteAccount(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if err := h.Sessions.Delete(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	middleware.Logger(c).Info("account deletion requested, session cleared")
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted. You have been logged out."})
}

func (h *Handler) respondUser(c *gin.Context, message string, user models.User, err error) {
	if failed(err) {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, withWarning(gin.H{"message": message, "user": user.Public()}, err))
}
