package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"   json:"id"`
	Name         string    `gorm:"not null"                   json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"       json:"email"`
	PasswordHash string    `gorm:"not null"                   json:"-"`
	Role         string    `gorm:"size:20;default:'USER'"     json:"role"`
	CreatedAt    time.Time `                                  json:"-"`
}

// SweetItem is the backend view of a product. Quantity, category, image and origin live on the client only.
type SweetItem struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string  `gorm:"not null"                 json:"name"`
	Description *string `                                json:"description"`
	Price       float64 `gorm:"not null"                 json:"price"`
}

type Order struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerName string    `gorm:"not null"                 json:"customerName"`
	TotalAmount  float64   `gorm:"not null"                 json:"totalAmount"`
	UserID       *uint     `gorm:"index"                    json:"-"`
	CreatedAt    time.Time `                                json:"createdAt"`
}

type InventoryItem struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string  `gorm:"not null"                 json:"name"`
	Description string  `                                json:"description"`
	Price       float64 `gorm:"not null"                 json:"price"`
	Quantity    int     `gorm:"not null;default:0"       json:"quantity"`
}

type RevokedToken struct {
	ID        uint   `gorm:"primaryKey"              json:"id"`
	JTI       string `gorm:"uniqueIndex;not null"    json:"jti"`
	UserID    uint   `gorm:"index"                   json:"user_id"`
	ExpiresAt int64  `gorm:"not null"                json:"expires_at"`
}

func All() []any {
	return []any{&User{}, &SweetItem{}, &Order{}, &InventoryItem{}, &RevokedToken{}}
}
