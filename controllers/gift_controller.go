package controllers

import (
	"net/http"
	"strings"

	"raffle-bff/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GiftController serves the public gift catalog.
type GiftController struct {
	catalog services.CatalogService
	logger  *zap.Logger
}

func NewGiftController(catalog services.CatalogService, logger *zap.Logger) *GiftController {
	return &GiftController{catalog: catalog, logger: logger}
}

// ListGifts handles GET /bff/gifts.
func (gc *GiftController) ListGifts(c *gin.Context) {
	q, ok := parseCatalogQuery(c)
	if !ok {
		return
	}

	catalog, err := gc.catalog.Browse(c.Request.Context(), q)
	if err != nil {
		respondError(c, gc.logger, err)
		return
	}
	c.JSON(http.StatusOK, catalog)
}

// GetGift handles GET /bff/gifts/:id.
func (gc *GiftController) GetGift(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	gift, err := gc.catalog.Gift(c.Request.Context(), id)
	if err != nil {
		respondError(c, gc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gift": gift})
}

func parseCatalogQuery(c *gin.Context) (services.CatalogQuery, bool) {
	q := services.CatalogQuery{
		Category:   strings.TrimSpace(c.Query("category")),
		SortBy:     strings.ToLower(c.DefaultQuery("sortBy", services.SortByName)),
		Descending: strings.EqualFold(c.Query("order"), "desc"),
	}
	switch q.SortBy {
	case services.SortByName, services.SortByPrice, services.SortByCategory:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "sortBy must be name, price or category"})
		return q, false
	}

	q.Search.Name = strings.TrimSpace(c.Query("name"))
	q.Search.Donor = strings.TrimSpace(c.Query("donor"))
	for param, dst := range map[string]**decimal.Decimal{
		"minPrice": &q.Search.MinPrice,
		"maxPrice": &q.Search.MaxPrice,
	} {
		raw := strings.TrimSpace(c.Query(param))
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil || v.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param})
			return q, false
		}
		*dst = &v
	}
	return q, true
}
