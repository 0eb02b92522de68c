package handlers

import (
	"net/http"
	"time"

	"feastfleet/middleware"
	"feastfleet/models"
	"feastfleet/orders"
	"feastfleet/session"
	"feastfleet/statemachine"
	"feastfleet/store"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// ── Cart ────────────────────────────────────────────────────────────────────

func cartBody(s *session.Session) gin.H {
	return gin.H{
		"cart":       s.Cart,
		"item_count": s.ItemCount(),
		"total":      s.CartTotal(),
	}
}

// GetCart returns the caller's cart
func (h *Handler) GetCart(c *gin.Context) {
	s, err := h.Sessions.Load(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartBody(s))
}

type AddToCartRequest struct {
	MenuItemID string `json:"menu_item_id" binding:"required"`
}

// AddToCart puts one unit of a menu item in the cart
func (h *Handler) AddToCart(c *gin.Context) {
	ctx := c.Request.Context()
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.Store.MenuItems().ByID(ctx, req.MenuItemID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if !item.Available() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Menu item '" + item.Name + "' is not available"})
		return
	}
	restaurant, err := h.Store.Restaurants().ByID(ctx, item.RestaurantID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}

	s, err := h.Sessions.Update(ctx, middleware.GetUserID(c), func(s *session.Session) error {
		return s.AddItem(item, restaurant.Name)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	body := cartBody(s)
	body["message"] = "Added " + item.Name + " to cart!"
	c.JSON(http.StatusOK, body)
}

// RemoveFromCart drops a line from the cart
func (h *Handler) RemoveFromCart(c *gin.Context) {
	removed := false
	s, err := h.Sessions.Update(c.Request.Context(), middleware.GetUserID(c), func(s *session.Session) error {
		removed = s.RemoveItem(c.Param("itemId"))
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item is not in your cart"})
		return
	}
	c.JSON(http.StatusOK, cartBody(s))
}

// ClearCart empties the cart
func (h *Handler) ClearCart(c *gin.Context) {
	s, err := h.Sessions.Update(c.Request.Context(), middleware.GetUserID(c), func(s *session.Session) error {
		s.ClearCart()
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartBody(s))
}

// ── Orders ──────────────────────────────────────────────────────────────────

// Checkout places an order for everything in the cart
func (h *Handler) Checkout(c *gin.Context) {
	ctx := c.Request.Context()
	var req orders.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.Store.Users().ByID(ctx, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.Orders.Checkout(ctx, user, req)
	if failed(err) {
		respondError(c, err)
		return
	}
	message := "Order placed successfully!"
	if res.Notification.Success {
		message = "Order placed successfully! Confirmation SMS sent to your phone."
	}
	c.JSON(http.StatusCreated, withWarning(gin.H{
		"message":      message,
		"order":        res.Order,
		"notification": res.Notification,
	}, err))
}

// GetMyOrders returns all orders for the logged-in customer
func (h *Handler) GetMyOrders(c *gin.Context) {
	list, err := h.Orders.CustomerOrders(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	active := 0
	for _, o := range list {
		if !o.Status.Terminal() {
			active++
		}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(list), "active": active, "orders": list})
}

// GetOrderDetail returns a single order of the caller
func (h *Handler) GetOrderDetail(c *gin.Context) {
	order, err := h.Orders.Order(c.Request.Context(), statemachine.ActorCustomer, middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":           order,
		"minutes_elapsed": minutesSince(order.CreatedAt),
		"actions":         statemachine.ActionsFor(order.Status, statemachine.ActorCustomer),
	})
}

func minutesSince(unix float64) int {
	created := time.Unix(0, int64(unix*1e9))
	return int(time.Since(created).Minutes())
}

// CancelOrder cancels an order while it is confirmed or preparing
func (h *Handler) CancelOrder(c *gin.Context) {
	res, err := h.Orders.Apply(c.Request.Context(), statemachine.ActorCustomer, middleware.GetUserID(c), c.Param("id"), statemachine.ActionCancel)
	if failed(err) {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, withWarning(gin.H{
		"message":      "Order cancelled successfully",
		"order_id":     res.Order.ID,
		"order":        res.Order,
		"notification": res.Notification,
	}, err))
}

// Reorder refills the cart from a past order
func (h *Handler) Reorder(c *gin.Context) {
	res, err := h.Orders.Reorder(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, orders.ErrEmptyCart) {
			c.JSON(http.StatusConflict, gin.H{"error": "None of the items from this order are available any more", "skipped": res.Skipped})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Items added to your cart",
		"cart":    res.Cart,
		"skipped": res.Skipped,
	})
}

// orderStatusQuery validates an optional ?status= filter
func orderStatusQuery(c *gin.Context) (models.OrderStatus, bool) {
	status := models.OrderStatus(c.Query("status"))
	switch status {
	case "", models.StatusConfirmed, models.StatusPreparing, models.StatusOutForDelivery,
		models.StatusDelivered, models.StatusCancelled:
		return status, true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status: " + string(status)})
	return "", false
}
