package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderHandler handles order history requests
type OrderHandler struct {
	service service.OrderService
	auth    service.AuthService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(s service.OrderService, auth service.AuthService) *OrderHandler {
	return &OrderHandler{service: s, auth: auth}
}

func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	orders, err := h.service.ListOrders(c.Request.Context(), userID)
	if err != nil {
		log.Printf("Error listing orders: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve orders"})
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	userRole := h.auth.CurrentRole(c.Request.Context(), userID)

	order, err := h.service.GetOrder(c.Request.Context(), c.Param("id"), userID, userRole)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else if errors.Is(err, service.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		} else {
			log.Printf("Error getting order by ID: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve order"})
		}
		return
	}
	c.JSON(http.StatusOK, order)
}

// --- Admin Routes ---

func parseAdminOrderFilters(c *gin.Context) (model.AdminOrderFilters, error) {
	var filters model.AdminOrderFilters
	if userID := c.Query("user_id"); userID != "" {
		filters.UserID = &userID
	}
	if status := c.Query("status"); status != "" {
		filters.Status = &status
	}
	if startDateParam := c.Query("start_date"); startDateParam != "" {
		parsedDate, err := time.Parse("2006-01-02", startDateParam)
		if err != nil {
			return filters, fmt.Errorf("invalid date format for 'start_date', use YYYY-MM-DD")
		}
		filters.StartDate = &parsedDate
	}
	if endDateParam := c.Query("end_date"); endDateParam != "" {
		parsedDate, err := time.Parse("2006-01-02", endDateParam)
		if err != nil {
			return filters, fmt.Errorf("invalid date format for 'end_date', use YYYY-MM-DD")
		}
		// Adjust end date to include the whole day
		endOfDay := time.Date(parsedDate.Year(), parsedDate.Month(), parsedDate.Day(), 23, 59, 59, 999999999, parsedDate.Location())
		filters.EndDate = &endOfDay
	}
	return filters, nil
}

func (h *OrderHandler) GetAllOrdersAdmin(c *gin.Context) {
	filters, err := parseAdminOrderFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orders, err := h.service.GetAllOrdersAdmin(c.Request.Context(), filters)
	if err != nil {
		log.Printf("Error getting all orders for admin: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve orders"})
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetStatsAdmin(c *gin.Context) {
	filters, err := parseAdminOrderFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stats, err := h.service.GetStatsAdmin(c.Request.Context(), filters)
	if err != nil {
		log.Printf("Error getting order stats for admin: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *OrderHandler) ExportOrdersCSVAdmin(c *gin.Context) {
	filters, err := parseAdminOrderFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	csvBuffer, err := h.service.ExportOrdersCSVAdmin(c.Request.Context(), filters)
	if err != nil {
		log.Printf("Error exporting orders to CSV for admin: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export orders to CSV"})
		return
	}

	fileName := fmt.Sprintf("orders_export_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, "text/csv", csvBuffer.Bytes())
}

// RegisterOrderRoutes registers order routes
func (h *OrderHandler) RegisterOrderRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	orderRoutes := rg.Group("/orders")
	orderRoutes.Use(authMW)
	{
		orderRoutes.GET("", h.ListMyOrders)
		orderRoutes.GET("/:id", h.GetOrderByID) // Service layer handles ownership for non-admins
	}

	adminRoutes := rg.Group("/admin")
	adminRoutes.Use(authMW)
	adminRoutes.Use(adminMW)
	{
		adminRoutes.GET("/orders", h.GetAllOrdersAdmin)
		adminRoutes.GET("/orders/stats", h.GetStatsAdmin)
		adminRoutes.GET("/orders/export/csv", h.ExportOrdersCSVAdmin)
	}
}
