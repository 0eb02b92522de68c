package models

// UserType separates the two kinds of accounts in the system
type UserType string

const (
	UserCustomer UserType = "customer"
	UserVendor   UserType = "vendor"
)

// Valid reports whether t is a known account type
func (t UserType) Valid() bool {
	return t == UserCustomer || t == UserVendor
}

type Profile struct {
	Address          string   `json:"address"`
	Preferences      []string `json:"preferences"`
	Allergies        []string `json:"allergies"`
	FavoriteCuisines []string `json:"favorite_cuisines,omitempty"`
	SpiceLevel       int      `json:"spice_level,omitempty"`
}

type NotificationSettings struct {
	Email     bool `json:"email"`
	SMS       bool `json:"sms"`
	App       bool `json:"app"`
	Marketing bool `json:"marketing"`
}

// DefaultNotificationSettings mirrors what a fresh account sees on the profile page
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{Email: true, SMS: true, App: true}
}

// User is a customer or vendor account. The embedded Restaurant is a copy of
// the vendor's most recently saved restaurant, not a reference.
type User struct {
	ID                   string                `json:"id" gorm:"primaryKey"`
	Name                 string                `json:"name" gorm:"not null"`
	Email                string                `json:"email" gorm:"uniqueIndex;not null"`
	Phone                string                `json:"phone"`
	PasswordHash         string                `json:"password_hash" gorm:"not null"`
	UserType             UserType              `json:"user_type" gorm:"not null;default:'customer'"`
	CreatedAt            float64               `json:"created_at" gorm:"autoCreateTime:false"`
	Profile              Profile               `json:"profile" gorm:"serializer:json"`
	NotificationSettings *NotificationSettings `json:"notification_settings,omitempty" gorm:"serializer:json"`
	Restaurant           *Restaurant           `json:"restaurant,omitempty" gorm:"serializer:json"`
}

// PublicUser is a User as the API shows it: the outer PasswordHash shadows
// the embedded one and is always empty, so the hash is never encoded.
type PublicUser struct {
	User
	PasswordHash string `json:"password_hash,omitempty"`
}

// Public strips the password hash before a user leaves the API
func (u User) Public() PublicUser {
	return PublicUser{User: u}
}
