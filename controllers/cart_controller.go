package controllers

import (
	"io"
	"net/http"

	"raffle-bff/middleware"
	"raffle-bff/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CartController exposes the signed-in user's cart. Every route sits behind
// middleware.RequireAuth.
type CartController struct {
	cartService services.CartService
	logger      *zap.Logger
}

func NewCartController(cartService services.CartService, logger *zap.Logger) *CartController {
	return &CartController{cartService: cartService, logger: logger}
}

type addItemRequest struct {
	GiftID   int64   `json:"giftId" binding:"required"`
	Quantity float64 `json:"quantity"`
}

// GetCart handles GET /bff/cart.
func (cc *CartController) GetCart(c *gin.Context) {
	owner, err := middleware.GetOwner(c)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}

	view, err := cc.cartService.View(c.Request.Context(), owner)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Events handles GET /bff/cart/events: a "cart" event with the current view,
// then a "lines" event for every change until the client disconnects.
func (cc *CartController) Events(c *gin.Context) {
	owner, err := middleware.GetOwner(c)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	ctx := c.Request.Context()

	updates := cc.cartService.Watch(ctx, owner)
	view, err := cc.cartService.View(ctx, owner)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("cart", view)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case lines, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("lines", lines)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// AddItem handles POST /bff/cart/items.
func (cc *CartController) AddItem(c *gin.Context) {
	owner, err := middleware.GetOwner(c)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	view, err := cc.cartService.Add(c.Request.Context(), owner, req.GiftID, req.Quantity)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RemoveItem handles DELETE /bff/cart/items/:giftId. Removing a gift that is
// not in the cart succeeds.
func (cc *CartController) RemoveItem(c *gin.Context) {
	owner, err := middleware.GetOwner(c)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	giftID, ok := parseID(c, "giftId")
	if !ok {
		return
	}

	view, err := cc.cartService.Remove(c.Request.Context(), owner, giftID)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ClearCart handles DELETE /bff/cart.
func (cc *CartController) ClearCart(c *gin.Context) {
	owner, err := middleware.GetOwner(c)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}

	if err := cc.cartService.Clear(c.Request.Context(), owner); err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

// Confirm handles POST /bff/cart/confirm.
func (cc *CartController) Confirm(c *gin.Context) {
	owner, err := middleware.GetOwner(c)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}

	confirmation, err := cc.cartService.Confirm(c.Request.Context(), owner)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order confirmed", "order": confirmation})
}
