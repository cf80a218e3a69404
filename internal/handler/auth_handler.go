package handler

import (
	"errors"
	"log"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	service service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(s service.AuthService) *AuthHandler {
	return &AuthHandler{service: s}
}

// Helper to get authenticated user ID from context
func getAuthUserID(c *gin.Context) (string, error) {
	userIDVal, exists := c.Get(middleware.AuthUserKey)
	if !exists {
		return "", errors.New("user ID not found in context")
	}
	userID, ok := userIDVal.(string)
	if !ok {
		return "", errors.New("invalid user ID type in context")
	}
	return userID, nil
}

func isValidationErr(err error) bool {
	return errors.Is(err, service.ErrInvalidEmail) ||
		errors.Is(err, service.ErrInvalidPassword) ||
		errors.Is(err, service.ErrInvalidFullName) ||
		errors.Is(err, service.ErrInvalidCode)
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req model.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	err := h.service.SignUp(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		switch {
		case isValidationErr(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrUserAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrTooManyCodeRequests):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		default:
			log.Printf("Error during sign-up: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register, please try again"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Verification code sent, check your email",
		"email":   req.Email,
	})
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req model.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	session, err := h.service.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case isValidationErr(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrAccountNotVerified):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			log.Printf("Error during sign-in: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in, please try again"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Signed in successfully",
		"session": session,
	})
}

func (h *AuthHandler) Verify(c *gin.Context) {
	var req model.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	session, err := h.service.VerifyCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case isValidationErr(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrCodeMismatch):
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		default:
			log.Printf("Error during verification: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify, please try again"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Account verified",
		"session": session,
	})
}

func (h *AuthHandler) ResendCode(c *gin.Context) {
	var req model.ResendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	err := h.service.ResendCode(c.Request.Context(), req.Email)
	if err != nil {
		switch {
		case isValidationErr(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrTooManyCodeRequests):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		default:
			log.Printf("Error resending code: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resend code, please try again"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a new code was sent"})
}

func (h *AuthHandler) SignOut(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	h.service.SignOut(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

func (h *AuthHandler) GetSession(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	info, err := h.service.GetSessionInfo(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session user no longer exists"})
			return
		}
		log.Printf("Error loading session info: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// UpdateUserRole is the admin endpoint behind the role-change stream
func (h *AuthHandler) UpdateUserRole(c *gin.Context) {
	targetID := c.Param("id")
	var req model.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.service.UpdateUserRole(c.Request.Context(), targetID, req.Role); err != nil {
		log.Printf("Error updating role for %s: %v", targetID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role updated", "user_id": targetID, "role": req.Role})
}

// RegisterAuthRoutes registers auth routes
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/signup", h.SignUp)
		authGroup.POST("/signin", h.SignIn)
		authGroup.POST("/verify", h.Verify)
		authGroup.POST("/resend-code", h.ResendCode)
		authGroup.POST("/signout", authMW, h.SignOut)
		authGroup.GET("/session", authMW, h.GetSession)
	}

	adminGroup := rg.Group("/admin")
	adminGroup.Use(authMW)
	adminGroup.Use(adminMW)
	{
		adminGroup.PUT("/users/:id/role", h.UpdateUserRole)
	}
}
