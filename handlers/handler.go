package handlers

import (
	"net/http"
	"strconv"
	"time"

	"feastfleet/ai"
	"feastfleet/auth"
	"feastfleet/middleware"
	"feastfleet/models"
	"feastfleet/orders"
	"feastfleet/recipes"
	"feastfleet/session"
	"feastfleet/statemachine"
	"feastfleet/store"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// Handler holds everything the endpoints need.
type Handler struct {
	Store    store.Store
	Auth     *auth.Service
	Tokens   *middleware.Tokens
	Orders   *orders.Service
	Sessions session.Store
	AI       *ai.Client
	Recipes  *recipes.Scraper

	// DefaultLocation stands in for a caller that does not say where they are
	DefaultLocation models.Location
	// StreamInterval is the tracking stream refresh; zero means the poll interval
	StreamInterval time.Duration
}

// notPersistedWarning is shown when a change only made it into memory
const notPersistedWarning = "Saved for this session, but the change could not be written to disk"

// withWarning adds the not-persisted warning to body when err calls for it.
func withWarning(body gin.H, err error) gin.H {
	if errors.Is(err, store.ErrNotPersisted) {
		body["warning"] = notPersistedWarning
	}
	return body
}

// failed reports whether err should stop the request, i.e. anything other
// than a change that was applied but not written out.
func failed(err error) bool {
	return err != nil && !errors.Is(err, store.ErrNotPersisted)
}

// respondError maps domain errors onto status codes and logs what is left.
func respondError(c *gin.Context, err error) {
	var te *orders.TransitionError
	switch {
	case errors.As(err, &te):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":             "Invalid state transition",
			"reason":            te.Error(),
			"current_status":    te.Current,
			"valid_next_states": te.Valid,
		})
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, orders.ErrRestaurantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, orders.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
	case errors.Is(err, session.ErrMixedRestaurant):
		c.JSON(http.StatusConflict, gin.H{"error": "You can only add items from one restaurant at a time. Please clear your cart first."})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, auth.ErrInvalidUserType),
		errors.Is(err, orders.ErrEmptyCart),
		errors.Is(err, orders.ErrAddressRequired),
		errors.Is(err, orders.ErrInvalidPayment),
		errors.Is(err, recipes.ErrSiteNotAllowed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ai.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, ai.ErrUpstream), errors.Is(err, recipes.ErrFetch):
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
	default:
		middleware.Logger(c).WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// callerLocation reads lat/lng query parameters, falling back to the
// default location when either is missing or malformed.
func (h *Handler) callerLocation(c *gin.Context) models.Location {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		return h.DefaultLocation
	}
	return models.Location{Lat: lat, Lng: lng}
}

// intQuery parses a positive integer query parameter
func intQuery(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// GetStateMachineInfo returns the full state machine for informational purposes
func GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   statemachine.GetAllTransitions(),
		"terminal_states": []models.OrderStatus{models.StatusDelivered, models.StatusCancelled},
		"description":     "Food Delivery Order Lifecycle State Machine",
	})
}
