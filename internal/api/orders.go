package api

import (
	"io"
	"net/http"

	"delivery-service/internal/models"
	"delivery-service/internal/service"
	"delivery-service/internal/validation"

	"github.com/gin-gonic/gin"
)

// listOrders returns every order, newest first
func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.deps.Orders.ListOrders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to load orders",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, orders)
}

// streamOrders pushes the full order list as server-sent events, once on
// connect and again after every change. Slow clients only see the latest list.
func (h *Handler) streamOrders(c *gin.Context) {
	ctx := c.Request.Context()
	updates := make(chan []models.Order, 1)

	stop := h.deps.Orders.Watch(ctx, func(orders []models.Order) {
		select {
		case <-updates:
		default:
		}
		updates <- orders
	})
	defer stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case orders := <-updates:
			c.SSEvent("orders", orders)
			return true
		}
	})
}

// createOrder handles checkout submissions
func (h *Handler) createOrder(c *gin.Context) {
	var in validation.OrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.deps.Orders.CreateOrder(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	order, err := h.deps.Orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) deleteOrder(c *gin.Context) {
	if err := h.deps.Lifecycle.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// allowedTransitions lists the statuses the order can move to next
func (h *Handler) allowedTransitions(c *gin.Context) {
	order, err := h.deps.Orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      order.Status,
		"transitions": service.AllowedTransitions(order.Status),
	})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	status, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.deps.Lifecycle.Transition(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type paymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

func (h *Handler) updatePaymentStatus(c *gin.Context) {
	var req paymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	status, err := models.ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.deps.Lifecycle.SetPaymentStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) sendConfirmation(c *gin.Context) {
	outcome, err := h.deps.Lifecycle.SendConfirmation(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}
