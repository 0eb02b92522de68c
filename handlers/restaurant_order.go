package handlers

import (
	"net/http"

	"feastfleet/middleware"
	"feastfleet/statemachine"

	"github.com/gin-gonic/gin"
)

// GetRestaurantOrders returns all orders for the vendor's restaurants
func (h *Handler) GetRestaurantOrders(c *gin.Context) {
	status, ok := orderStatusQuery(c)
	if !ok {
		return
	}
	list, summary, err := h.Orders.VendorOrders(c.Request.Context(), middleware.GetUserID(c), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary,
		"count":         len(list),
		"orders":        list,
	})
}

var vendorActions = map[statemachine.Action]string{
	statemachine.ActionAccept:  "Order accepted",
	statemachine.ActionReject:  "Order rejected",
	statemachine.ActionReady:   "Order marked as out for delivery",
	statemachine.ActionDeliver: "Order marked as delivered",
}

// UpdateOrderStatus handles the vendor's actions on an order
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	action := statemachine.Action(c.Param("action"))
	message, ok := vendorActions[action]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown action. Must be: accept, reject, ready or deliver"})
		return
	}

	res, err := h.Orders.Apply(c.Request.Context(), statemachine.ActorVendor, middleware.GetUserID(c), c.Param("id"), action)
	if failed(err) {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, withWarning(gin.H{
		"message":         message,
		"order_id":        res.Order.ID,
		"previous_status": res.PreviousStatus,
		"current_status":  res.Order.Status,
		"notification":    res.Notification,
	}, err))
}
