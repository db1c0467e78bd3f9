package controllers

import (
	"net/http"

	"raffle-bff/middleware"
	"raffle-bff/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderController struct {
	orderService services.OrderService
	logger       *zap.Logger
}

func NewOrderController(orderService services.OrderService, logger *zap.Logger) *OrderController {
	return &OrderController{orderService: orderService, logger: logger}
}

// MyOrders handles GET /bff/orders/mine.
func (oc *OrderController) MyOrders(c *gin.Context) {
	owner, err := middleware.GetOwner(c)
	if err != nil {
		respondError(c, oc.logger, err)
		return
	}

	orders, err := oc.orderService.Mine(c.Request.Context(), owner)
	if err != nil {
		respondError(c, oc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
