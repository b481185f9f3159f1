package api

import (
	"net/http"

	"delivery-service/internal/models"
	"delivery-service/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func (h *Handler) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.Settings.FetchSettings(c.Request.Context()))
}

func (h *Handler) updateSettings(c *gin.Context) {
	var patch models.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	settings, err := h.deps.Settings.UpdateSettings(c.Request.Context(), patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) listPromos(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.Promos.List(c.Request.Context()))
}

func (h *Handler) createPromo(c *gin.Context) {
	var in validation.PromoCodeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	promo, err := h.deps.Promos.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, promo)
}

func (h *Handler) updatePromo(c *gin.Context) {
	var in validation.PromoCodeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	promo, err := h.deps.Promos.Update(c.Request.Context(), c.Param("code"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, promo)
}

func (h *Handler) deletePromo(c *gin.Context) {
	if err := h.deps.Promos.Delete(c.Request.Context(), c.Param("code")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type validatePromoRequest struct {
	Code     string          `json:"code" binding:"required"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func (h *Handler) validatePromo(c *gin.Context) {
	var req validatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	discount, err := h.deps.Promos.Validate(c.Request.Context(), req.Code, req.Subtotal)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, discount)
}

func (h *Handler) redeemPromo(c *gin.Context) {
	uses, err := h.deps.Promos.Redeem(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":         models.NormalizePromoCode(c.Param("code")),
		"current_uses": uses,
	})
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.deps.Catalog.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to load products",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) createProduct(c *gin.Context) {
	var in validation.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.deps.Catalog.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	var in validation.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.deps.Catalog.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.deps.Catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type quoteRequest struct {
	Items     []models.LineItem `json:"items" binding:"required,min=1"`
	PromoCode string            `json:"promo_code"`
}

// quote prices a cart before checkout
func (h *Handler) quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	quote, err := h.deps.Checkout.Quote(c.Request.Context(), req.Items, req.PromoCode)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}
