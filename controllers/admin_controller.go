package controllers

import (
	"net/http"

	"raffle-bff/clients"
	"raffle-bff/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminController handles the management pages. Routes sit behind
// middleware.RequireAdmin; the raffle API enforces the role again.
type AdminController struct {
	adminService services.AdminService
	logger       *zap.Logger
}

func NewAdminController(adminService services.AdminService, logger *zap.Logger) *AdminController {
	return &AdminController{adminService: adminService, logger: logger}
}

// Dashboard handles GET /bff/admin/dashboard.
func (ac *AdminController) Dashboard(c *gin.Context) {
	dashboard, err := ac.adminService.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// ListDonors handles GET /bff/admin/donors.
func (ac *AdminController) ListDonors(c *gin.Context) {
	donors, err := ac.adminService.Donors(c.Request.Context())
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"donors": donors})
}

// GetDonor handles GET /bff/admin/donors/:id.
func (ac *AdminController) GetDonor(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	donor, err := ac.adminService.Donor(c.Request.Context(), id)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"donor": donor})
}

// CreateDonor handles POST /bff/admin/donors.
func (ac *AdminController) CreateDonor(c *gin.Context) {
	var donor clients.Donor
	if err := c.ShouldBindJSON(&donor); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	created, err := ac.adminService.CreateDonor(c.Request.Context(), donor)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"donor": created})
}

// UpdateDonor handles PUT /bff/admin/donors/:id.
func (ac *AdminController) UpdateDonor(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var donor clients.Donor
	if err := c.ShouldBindJSON(&donor); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	updated, err := ac.adminService.UpdateDonor(c.Request.Context(), id, donor)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"donor": updated})
}

// DeleteDonor handles DELETE /bff/admin/donors/:id.
func (ac *AdminController) DeleteDonor(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := ac.adminService.DeleteDonor(c.Request.Context(), id); err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Donor deleted"})
}

// CreateGift handles POST /bff/admin/gifts.
func (ac *AdminController) CreateGift(c *gin.Context) {
	var gift clients.Gift
	if err := c.ShouldBindJSON(&gift); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if err := ac.adminService.CreateGift(c.Request.Context(), gift); err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Gift created"})
}

// UpdateGift handles PUT /bff/admin/gifts/:id.
func (ac *AdminController) UpdateGift(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var gift clients.Gift
	if err := c.ShouldBindJSON(&gift); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if err := ac.adminService.UpdateGift(c.Request.Context(), id, gift); err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Gift updated"})
}

// DeleteGift handles DELETE /bff/admin/gifts/:id.
func (ac *AdminController) DeleteGift(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := ac.adminService.DeleteGift(c.Request.Context(), id); err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Gift deleted"})
}

// ConductRaffle handles POST /bff/admin/raffle/:giftId.
func (ac *AdminController) ConductRaffle(c *gin.Context) {
	giftID, ok := parseID(c, "giftId")
	if !ok {
		return
	}

	winner, err := ac.adminService.ConductRaffle(c.Request.Context(), giftID)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"winner": winner})
}

// Winners handles GET /bff/admin/winners.
func (ac *AdminController) Winners(c *gin.Context) {
	winners, err := ac.adminService.Winners(c.Request.Context())
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"winners": winners})
}

// Orders handles GET /bff/admin/orders.
func (ac *AdminController) Orders(c *gin.Context) {
	orders, err := ac.adminService.Orders(c.Request.Context())
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// ConfirmOrder handles POST /bff/admin/orders/:id/confirm.
func (ac *AdminController) ConfirmOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := ac.adminService.ConfirmOrder(c.Request.Context(), id); err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order confirmed"})
}

// SalesReport handles GET /bff/admin/reports/sales.
func (ac *AdminController) SalesReport(c *gin.Context) {
	summary, err := ac.adminService.SalesReport(c.Request.Context())
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GiftsWithWinners handles GET /bff/admin/reports/gifts-with-winners.
func (ac *AdminController) GiftsWithWinners(c *gin.Context) {
	gifts, err := ac.adminService.GiftsWithWinners(c.Request.Context())
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gifts": gifts})
}
