package handler

import (
	"github.com/bookline/service-booking/internal/domain/booking"
	"github.com/bookline/service-booking/internal/middleware"
	"github.com/gin-gonic/gin"
)

// AdminHandler exposes operational endpoints for back-office use.
type AdminHandler struct {
	repo booking.BookingRepository
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(repo booking.BookingRepository) *AdminHandler {
	return &AdminHandler{repo: repo}
}

// RegisterRoutes registers all admin routes on the given router group.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *middleware.JWTManager) {
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(middleware.RoleAdmin))
	{
		admin.GET("/bookings/stats", h.BookingStats)
	}
}

// BookingStats handles GET /api/v1/admin/bookings/stats.
func (h *AdminHandler) BookingStats(c *gin.Context) {
	counts, err := h.repo.CountByStatus(c.Request.Context())
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, counts)
}
