package models

// Location is a point on the map, optionally with a street address
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

type Restaurant struct {
	ID             string   `json:"id" gorm:"primaryKey"`
	OwnerID        string   `json:"owner_id" gorm:"index;not null"`
	Name           string   `json:"name" gorm:"not null"`
	Description    string   `json:"description"`
	Cuisine        string   `json:"cuisine"`
	Location       Location `json:"location" gorm:"serializer:json"`
	OpeningTime    string   `json:"opening_time"`
	ClosingTime    string   `json:"closing_time"`
	DeliveryRadius float64  `json:"delivery_radius" gorm:"default:5"`
	PaymentOptions []string `json:"payment_options" gorm:"serializer:json"`
	Rating         float64  `json:"rating" gorm:"default:0"`
	ReviewCount    int      `json:"review_count" gorm:"default:0"`
	MenuCategories string   `json:"menu_categories"`
	FoodLicense    string   `json:"food_license"`
	IsCloudKitchen bool     `json:"is_cloud_kitchen"`
	OwnerName      string   `json:"owner_name"`
	Phone          string   `json:"phone"`
	Email          string   `json:"email"`
	Website        string   `json:"website"`
	SelfDelivery   bool     `json:"self_delivery"`
	IsVerified     bool     `json:"is_verified"`
	ImageURL       string   `json:"image_url"`
	CreatedAt      float64  `json:"created_at" gorm:"autoCreateTime:false"`
	UpdatedAt      float64  `json:"updated_at" gorm:"autoUpdateTime:false"`

	// Distance is only filled in by nearby searches and never stored.
	Distance *float64 `json:"distance,omitempty" gorm:"-"`
}

type MenuItem struct {
	ID           string  `json:"id" gorm:"primaryKey"`
	RestaurantID string  `json:"restaurant_id" gorm:"index;not null"`
	Name         string  `json:"name" gorm:"not null"`
	Description  string  `json:"description"`
	Price        float64 `json:"price" gorm:"not null"`
	Category     string  `json:"category"`
	IsVeg        bool    `json:"is_veg"`
	ImageURL     string  `json:"image_url"`
	IsAvailable  *bool   `json:"is_available,omitempty"`
}

// Available treats items saved before availability existed as available
func (m MenuItem) Available() bool {
	return m.IsAvailable == nil || *m.IsAvailable
}
