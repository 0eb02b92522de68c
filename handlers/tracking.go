package handlers

import (
	"io"
	"net/http"
	"time"

	"feastfleet/middleware"
	"feastfleet/orders"
	"feastfleet/statemachine"

	"github.com/gin-gonic/gin"
)

// TrackOrder is one tracking poll for the customer who placed the order
func (h *Handler) TrackOrder(c *gin.Context) {
	h.track(c, statemachine.ActorCustomer)
}

// VendorTrackOrder is the same view for the restaurant's owner
func (h *Handler) VendorTrackOrder(c *gin.Context) {
	h.track(c, statemachine.ActorVendor)
}

func (h *Handler) track(c *gin.Context, actor statemachine.Actor) {
	t, err := h.Orders.Track(c.Request.Context(), actor, middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracking": t})
}

func (h *Handler) streamInterval() time.Duration {
	if h.StreamInterval > 0 {
		return h.StreamInterval
	}
	return orders.RefreshAfterSeconds * time.Second
}

// TrackOrderStream pushes a tracking event on every refresh until the order
// is delivered or cancelled, or the client goes away.
func (h *Handler) TrackOrderStream(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)
	orderID := c.Param("id")
	log := middleware.Logger(c).WithField("order_id", orderID)

	// the first poll decides between an error response and a stream
	first, err := h.Orders.Track(ctx, statemachine.ActorCustomer, userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	ticker := time.NewTicker(h.streamInterval())
	defer ticker.Stop()

	next := &first
	c.Stream(func(w io.Writer) bool {
		if next == nil {
			select {
			case <-ctx.Done():
				return false
			case <-ticker.C:
			}
			t, err := h.Orders.Track(ctx, statemachine.ActorCustomer, userID, orderID)
			if err != nil {
				log.WithError(err).Warn("tracking stream stopped")
				c.SSEvent("error", gin.H{"error": err.Error()})
				return false
			}
			next = &t
		}
		t := *next
		next = nil
		c.SSEvent("tracking", t)
		if t.Done() {
			c.SSEvent("done", gin.H{"status": t.Order.Status})
			return false
		}
		return true
	})
}
