package handlers

import (
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"feastfleet/geo"
	"feastfleet/models"
	"feastfleet/store"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// DefaultSearchRadiusKm is how far the restaurant list looks by default
const DefaultSearchRadiusKm = 10.0

// ListRestaurants returns restaurants near the caller (public)
func (h *Handler) ListRestaurants(c *gin.Context) {
	all, err := h.Store.Restaurants().All(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	radius := DefaultSearchRadiusKm
	if r, err := strconv.ParseFloat(c.Query("radius"), 64); err == nil && r > 0 {
		radius = r
	}
	loc := h.callerLocation(c)
	restaurants := geo.Nearby(loc, all, radius)

	// search by name, cuisine or description
	if search := strings.ToLower(strings.TrimSpace(c.Query("search"))); search != "" {
		filtered := make([]models.Restaurant, 0, len(restaurants))
		for _, r := range restaurants {
			if strings.Contains(strings.ToLower(r.Name), search) ||
				strings.Contains(strings.ToLower(r.Cuisine), search) ||
				strings.Contains(strings.ToLower(r.Description), search) {
				filtered = append(filtered, r)
			}
		}
		restaurants = filtered
	}

	switch c.DefaultQuery("sort", "distance") {
	case "distance":
		// Nearby already sorts by distance
	case "rating":
		sort.SliceStable(restaurants, func(i, j int) bool { return restaurants[i].Rating > restaurants[j].Rating })
	case "name":
		sort.SliceStable(restaurants, func(i, j int) bool { return restaurants[i].Name < restaurants[j].Name })
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort. Must be: distance, rating or name"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":       len(restaurants),
		"location":    loc,
		"radius_km":   radius,
		"restaurants": restaurants,
	})
}

// GetRestaurant returns a single restaurant with the delivery estimate from
// the caller's location
func (h *Handler) GetRestaurant(c *gin.Context) {
	restaurant, err := h.Store.Restaurants().ByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	loc := h.callerLocation(c)
	distance := geo.Between(loc, restaurant.Location)
	rounded := math.Round(distance*100) / 100
	restaurant.Distance = &rounded

	c.JSON(http.StatusOK, gin.H{
		"restaurant":  restaurant,
		"eta_minutes": geo.ETAMinutes(distance, geo.DefaultSpeedKmh),
	})
}

// GetMenu returns the menu for a specific restaurant (public)
func (h *Handler) GetMenu(c *gin.Context) {
	ctx := c.Request.Context()
	restaurant, err := h.Store.Restaurants().ByID(ctx, c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	items, err := store.MenuByRestaurant(ctx, h.Store, restaurant.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	category := c.Query("category")
	vegOnly := c.Query("is_veg") == "true"
	menu := make([]models.MenuItem, 0, len(items))
	categories := []string{}
	byCategory := map[string][]models.MenuItem{}
	for _, it := range items {
		if category != "" && !strings.EqualFold(it.Category, category) {
			continue
		}
		if vegOnly && !it.IsVeg {
			continue
		}
		menu = append(menu, it)
		if _, ok := byCategory[it.Category]; !ok {
			categories = append(categories, it.Category)
		}
		byCategory[it.Category] = append(byCategory[it.Category], it)
	}

	c.JSON(http.StatusOK, gin.H{
		"restaurant":  restaurant.Name,
		"count":       len(menu),
		"menu":        menu,
		"categories":  categories,
		"by_category": byCategory,
	})
}

// Health is the liveness check
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "FeastFleet Food Delivery API",
		"version": "1.0.0",
	})
}
