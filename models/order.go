package models

// OrderStatus represents all possible states of a food delivery order
type OrderStatus string

const (
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// Terminal reports whether no further transition can leave s
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// OrderLine is a snapshot of a cart line taken at checkout
type OrderLine struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type Order struct {
	ID               string      `json:"id" gorm:"primaryKey"`
	UserID           string      `json:"user_id" gorm:"index;not null"`
	RestaurantID     string      `json:"restaurant_id" gorm:"index;not null"`
	CustomerName     string      `json:"customer_name"`
	RestaurantName   string      `json:"restaurant_name"`
	Items            []string    `json:"items" gorm:"serializer:json"`
	ItemDetails      []OrderLine `json:"item_details" gorm:"serializer:json"`
	TotalAmount      float64     `json:"total_amount"`
	DeliveryAddress  string      `json:"delivery_address" gorm:"not null"`
	DeliveryLocation *Location   `json:"delivery_location,omitempty" gorm:"serializer:json"`
	Phone            string      `json:"phone"`
	PaymentMethod    string      `json:"payment_method"`
	Status           OrderStatus `json:"status" gorm:"index;not null;default:'confirmed'"`
	ETA              string      `json:"eta"`
	CreatedAt        float64     `json:"created_at" gorm:"autoCreateTime:false"`
	DistanceKm       float64     `json:"distance_km"`
}
