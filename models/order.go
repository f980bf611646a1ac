package models

import "time"

// OrderStatus tracks the outcome of the factory call for an order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusFulfilled OrderStatus = "fulfilled"
	StatusFailed    OrderStatus = "failed"
)

type Order struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	DinerID     uint        `json:"-" gorm:"not null;index"`
	FranchiseID uint        `json:"franchiseId" gorm:"not null;index"`
	StoreID     uint        `json:"storeId" gorm:"not null;index"`
	Status      OrderStatus `json:"status" gorm:"not null;default:'pending'"`
	ReportURL   string      `json:"reportUrl,omitempty"`
	Items       []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt   time.Time   `json:"date"`
	UpdatedAt   time.Time   `json:"-"`
}

type OrderItem struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	OrderID     uint    `json:"-" gorm:"not null;index"`
	MenuID      uint    `json:"menuId" gorm:"not null"`
	Description string  `json:"description"`           // snapshot of the menu title
	Price       float64 `json:"price" gorm:"not null"` // snapshot price at time of order
}
