package models

import "time"

type Franchise struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	Name      string           `json:"name" gorm:"uniqueIndex;not null"`
	Admins    []FranchiseAdmin `json:"admins,omitempty" gorm:"-"`
	Stores    []Store          `json:"stores" gorm:"foreignKey:FranchiseID"`
	CreatedAt time.Time        `json:"-"`
	UpdatedAt time.Time        `json:"-"`
}

// FranchiseAdmin is the public view of a user holding the franchisee role
type FranchiseAdmin struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Store struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	FranchiseID  uint      `json:"-" gorm:"not null;index"`
	Name         string    `json:"name" gorm:"not null"`
	TotalRevenue float64   `json:"totalRevenue" gorm:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

type MenuItem struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Price       float64   `json:"price" gorm:"not null"`
	CreatedAt   time.Time `json:"-"`
}
