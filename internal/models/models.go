package models

import (
	"time"
)

const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
	RoleAdmin   = "admin"
)

const (
	StatusAvailable = "Available"
	StatusSold      = "Sold"
	StatusArchived  = "Archived"

	// StatusPending is a display-only relabel of a viewer's own Available
	// listings. It is never persisted.
	StatusPending = "Pending"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null"                 json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Phone        string    `gorm:"not null"                 json:"phone"`
	Role         string    `gorm:"not null"                 json:"role"`
	Department   string    `gorm:"not null"                 json:"department"`
	Year         string    `json:"year,omitempty"`
	ProfileImage string    `json:"profile_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SellerID    uint      `gorm:"index;not null"           json:"seller_id"`
	Name        string    `gorm:"not null"                 json:"name"`
	Category    string    `gorm:"not null"                 json:"category"`
	Price       float64   `gorm:"not null"                 json:"price"`
	Description string    `gorm:"not null"                 json:"description"`
	Image       string    `json:"image,omitempty"`
	Status      string    `gorm:"not null;default:Available;index" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey"                             json:"id"`
	UserID    uint `gorm:"index;not null;uniqueIndex:idx_user_product" json:"user_id"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_user_product"  json:"product_id"`
	Quantity  uint `gorm:"default:1;check:quantity>0"             json:"quantity"`
}
