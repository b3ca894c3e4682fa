package handler

import (
	"net/http"
	"strconv"

	"github.com/bookline/service-booking/internal/application"
	bookingDomain "github.com/bookline/service-booking/internal/domain/booking"
	"github.com/bookline/service-booking/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *middleware.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", middleware.RequireRole(middleware.RoleCustomer), h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
		bookings.GET("/:id/refund-preview", h.PreviewRefund)
		bookings.GET("/:id/flex-pass-split", h.FlexPassSplit)
		bookings.POST("/:id/no-show", middleware.RequireRole(middleware.RoleProvider), h.MarkNoShow)
		bookings.POST("/:id/disputes", middleware.RequireRole(middleware.RoleCustomer), h.CreateDispute)
		bookings.POST("/:id/disputes/resolve", middleware.RequireRole(middleware.RoleAdmin), h.ResolveDispute)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		Error(c, err)
		return
	}

	Created(c, result)
}

// ListBookings handles GET /api/v1/bookings. Returns the caller's bookings.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, limit := parsePagination(c)

	result, err := h.service.GetCustomerBookings(c.Request.Context(), userID, page, limit)
	if err != nil {
		Error(c, err)
		return
	}

	Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, result)
}

type cancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid booking ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CancelBooking(c.Request.Context(), bookingID, userID, req.Reason)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, result)
}

// PreviewRefund handles GET /api/v1/bookings/:id/refund-preview. It prices a
// hypothetical cancellation at the current instant without changing anything.
func (h *BookingHandler) PreviewRefund(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.PreviewRefund(c.Request.Context(), bookingID)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, result)
}

// FlexPassSplit handles GET /api/v1/bookings/:id/flex-pass-split.
func (h *BookingHandler) FlexPassSplit(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.SplitFlexPassFee(c.Request.Context(), bookingID)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, result)
}

// MarkNoShow handles POST /api/v1/bookings/:id/no-show.
func (h *BookingHandler) MarkNoShow(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid booking ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.MarkNoShow(c.Request.Context(), bookingID, &userID)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, result)
}

type disputeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CreateDispute handles POST /api/v1/bookings/:id/disputes.
func (h *BookingHandler) CreateDispute(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid booking ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req disputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateDispute(c.Request.Context(), bookingID, userID, req.Reason)
	if err != nil {
		Error(c, err)
		return
	}

	Created(c, result)
}

type resolveDisputeRequest struct {
	Resolution string `json:"resolution" binding:"required"`
	Notes      string `json:"notes"`
}

// ResolveDispute handles POST /api/v1/bookings/:id/disputes/resolve.
func (h *BookingHandler) ResolveDispute(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid booking ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req resolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	resolution := bookingDomain.DisputeResolution(req.Resolution)
	if !resolution.IsValid() {
		BadRequest(c, "resolution must be 'customer' or 'provider'")
		return
	}

	result, err := h.service.ResolveDispute(c.Request.Context(), bookingID, userID, resolution, req.Notes)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, result)
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
