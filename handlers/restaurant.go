package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"feastfleet/middleware"
	"feastfleet/models"
	"feastfleet/store"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// ── Restaurant Management ────────────────────────────────────────────────────

const (
	DefaultDeliveryRadius  = 5.0
	DefaultMenuCategories  = "Starters, Main Course, Desserts, Beverages"
	DefaultRestaurantImage = "https://images.unsplash.com/photo-1496450681664-3df85efbd29f"
)

var defaultPaymentOptions = []string{"Cash on Delivery", "UPI"}

type RestaurantRequest struct {
	Name           string   `json:"name" binding:"required"`
	Description    string   `json:"description" binding:"required"`
	Cuisine        string   `json:"cuisine" binding:"required"`
	Address        string   `json:"address" binding:"required"`
	Lat            *float64 `json:"lat"`
	Lng            *float64 `json:"lng"`
	OpeningTime    string   `json:"opening_time"`
	ClosingTime    string   `json:"closing_time"`
	FoodLicense    string   `json:"food_license"`
	IsCloudKitchen bool     `json:"is_cloud_kitchen"`
	OwnerName      string   `json:"owner_name"`
	Phone          string   `json:"phone"`
	Email          string   `json:"email"`
	Website        string   `json:"website"`
	PaymentOptions []string `json:"payment_options"`
	DeliveryRadius float64  `json:"delivery_radius" binding:"omitempty,min=1,max=20"`
	SelfDelivery   bool     `json:"self_delivery"`
	MenuCategories string   `json:"menu_categories"`
}

// apply copies the request onto r, filling in registration defaults
func (req RestaurantRequest) apply(r *models.Restaurant, owner models.User, fallback models.Location) {
	loc := fallback
	if req.Lat != nil && req.Lng != nil {
		loc = models.Location{Lat: *req.Lat, Lng: *req.Lng}
	}
	loc.Address = req.Address

	r.Name = req.Name
	r.Description = req.Description
	r.Cuisine = req.Cuisine
	r.Location = loc
	r.OpeningTime = req.OpeningTime
	r.ClosingTime = req.ClosingTime
	r.FoodLicense = req.FoodLicense
	r.IsCloudKitchen = req.IsCloudKitchen
	r.OwnerName = orDefault(req.OwnerName, owner.Name)
	r.Phone = orDefault(req.Phone, owner.Phone)
	r.Email = orDefault(req.Email, owner.Email)
	r.Website = req.Website
	r.PaymentOptions = req.PaymentOptions
	if r.PaymentOptions == nil {
		r.PaymentOptions = append([]string{}, defaultPaymentOptions...)
	}
	r.DeliveryRadius = req.DeliveryRadius
	if r.DeliveryRadius == 0 {
		r.DeliveryRadius = DefaultDeliveryRadius
	}
	r.SelfDelivery = req.SelfDelivery
	r.MenuCategories = orDefault(req.MenuCategories, DefaultMenuCategories)
	r.ImageURL = DefaultRestaurantImage
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func unixNow() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// CreateRestaurant registers a restaurant for the calling vendor
func (h *Handler) CreateRestaurant(c *gin.Context) {
	ctx := c.Request.Context()
	var req RestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	owner, err := h.Store.Users().ByID(ctx, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	now := unixNow()
	restaurant := models.Restaurant{OwnerID: owner.ID, CreatedAt: now, UpdatedAt: now}
	req.apply(&restaurant, owner, h.DefaultLocation)

	err = h.Store.Restaurants().Insert(ctx, &restaurant)
	if failed(err) {
		respondError(c, err)
		return
	}
	h.rememberRestaurant(ctx, c, owner, restaurant)
	c.JSON(http.StatusCreated, withWarning(gin.H{"message": "Restaurant registered successfully", "restaurant": restaurant}, err))
}

// GetMyRestaurants lists the restaurants owned by the logged-in vendor
func (h *Handler) GetMyRestaurants(c *gin.Context) {
	mine, err := store.RestaurantsByOwner(c.Request.Context(), h.Store, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(mine), "restaurants": mine})
}

// UpdateRestaurant replaces the details of one of the caller's restaurants.
// Rating, reviews, verification and creation time are kept.
func (h *Handler) UpdateRestaurant(c *gin.Context) {
	ctx := c.Request.Context()
	restaurant, ok := h.ownedRestaurant(c, c.Param("id"))
	if !ok {
		return
	}
	var req RestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	owner, err := h.Store.Users().ByID(ctx, restaurant.OwnerID)
	if err != nil {
		respondError(c, err)
		return
	}

	req.apply(&restaurant, owner, restaurant.Location)
	restaurant.UpdatedAt = unixNow()
	err = h.Store.Restaurants().Update(ctx, restaurant)
	if failed(err) {
		respondError(c, err)
		return
	}
	h.rememberRestaurant(ctx, c, owner, restaurant)
	c.JSON(http.StatusOK, withWarning(gin.H{"message": "Restaurant updated successfully", "restaurant": restaurant}, err))
}

// rememberRestaurant keeps a copy of the latest restaurant on the vendor's account
func (h *Handler) rememberRestaurant(ctx context.Context, c *gin.Context, owner models.User, r models.Restaurant) {
	owner.Restaurant = &r
	if err := h.Store.Users().Update(ctx, owner); failed(err) {
		middleware.Logger(c).WithError(err).WithField("restaurant_id", r.ID).Warn("restaurant copy not saved on vendor")
	}
}

// ownedRestaurant loads id and checks the caller owns it, writing the error
// response when not.
func (h *Handler) ownedRestaurant(c *gin.Context, id string) (models.Restaurant, bool) {
	restaurant, err := h.Store.Restaurants().ByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return restaurant, false
	}
	if err != nil {
		respondError(c, err)
		return restaurant, false
	}
	if restaurant.OwnerID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "This restaurant does not belong to you"})
		return restaurant, false
	}
	return restaurant, true
}

// ── Menu Management ─────────────────────────────────────────────────────────

type MenuItemRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Category    string  `json:"category"`
	IsVeg       bool    `json:"is_veg"`
	ImageURL    string  `json:"image_url"`
	IsAvailable *bool   `json:"is_available"`
}

// AddMenuItem adds an item to one of the caller's restaurants
func (h *Handler) AddMenuItem(c *gin.Context) {
	restaurant, ok := h.ownedRestaurant(c, c.Param("id"))
	if !ok {
		return
	}
	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	item := models.MenuItem{
		RestaurantID: restaurant.ID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Category:     req.Category,
		IsVeg:        req.IsVeg,
		ImageURL:     req.ImageURL,
		IsAvailable:  &available,
	}
	err := h.Store.MenuItems().Insert(c.Request.Context(), &item)
	if failed(err) {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, withWarning(gin.H{"message": "Menu item added", "item": item}, err))
}

// UpdateMenuItem edits a menu item of one of the caller's restaurants
func (h *Handler) UpdateMenuItem(c *gin.Context) {
	ctx := c.Request.Context()
	item, err := h.Store.MenuItems().ByID(ctx, c.Param("itemId"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if _, ok := h.ownedRestaurant(c, item.RestaurantID); !ok {
		return
	}

	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item.Name = req.Name
	item.Description = req.Description
	item.Price = req.Price
	item.Category = req.Category
	item.IsVeg = req.IsVeg
	item.ImageURL = req.ImageURL
	if req.IsAvailable != nil {
		item.IsAvailable = req.IsAvailable
	}
	err = h.Store.MenuItems().Update(ctx, item)
	if failed(err) {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, withWarning(gin.H{"message": "Menu item updated", "item": item}, err))
}
