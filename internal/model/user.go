package model

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleShopper  Role = "shopper"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleShopper
}

// Actor is the resolved identity attached to an authenticated request.
type Actor struct {
	UserID int64
	Role   Role
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"-"`
	Role         Role      `json:"role"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	IsAvailable  bool      `json:"isAvailable"`
	Rating       float64   `json:"rating"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Review struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"orderId"`
	FromID    int64     `json:"fromId"`
	ToID      int64     `json:"toId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
