package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is a user's access level.
type Role string

const (
	RoleUser        Role = "user"
	RoleAdmin       Role = "admin"
	RoleSubAdmin    Role = "subadmin"
	RoleMasterAdmin Role = "masteradmin"
	RoleSuperAdmin  Role = "superadmin"
)

// AdminRoles are the roles allowed into the admin panel.
var AdminRoles = []Role{RoleAdmin, RoleSubAdmin, RoleMasterAdmin, RoleSuperAdmin}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r.IsAdmin()
}

// IsAdmin reports whether r may use the admin panel at all.
func (r Role) IsAdmin() bool {
	for _, a := range AdminRoles {
		if r == a {
			return true
		}
	}
	return false
}

// User is a registered customer or staff member.
type User struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	PasswordHash    string    `json:"-"`
	Role            Role      `json:"role"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	IsPhoneVerified bool      `json:"isPhoneVerified"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Address is a saved delivery address. At most one per user is the default.
type Address struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Pincode   string    `json:"pincode"`
	Phone     string    `json:"phone"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
}

// AddressInput is the body for adding or editing an address.
type AddressInput struct {
	Name      string `json:"name" validate:"required,max=100"`
	Address   string `json:"address" validate:"required,max=300"`
	City      string `json:"city" validate:"required,max=100"`
	State     string `json:"state" validate:"required,max=100"`
	Pincode   string `json:"pincode" validate:"required,numeric,len=6"`
	Phone     string `json:"phone" validate:"required,min=10,max=15"`
	IsDefault bool   `json:"isDefault"`
}

// CartItem is one line in a user's cart.
type CartItem struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size,omitempty"`
	Color     string    `json:"color,omitempty"`
	Product   *Product  `json:"product,omitempty"`
}

// Cart is the user's cart with computed totals.
type Cart struct {
	Items     []CartItem `json:"items"`
	ItemCount int        `json:"itemCount"`
	Subtotal  float64    `json:"subtotal"`
}

// CartItemInput adds a product to the cart.
type CartItemInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gt=0,lte=20"`
	Size      string    `json:"size" validate:"max=20"`
	Color     string    `json:"color" validate:"max=40"`
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,min=10,max=15"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the sign-in payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned after register and login.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// ProfileUpdate is the body of a profile edit.
type ProfileUpdate struct {
	Name  string `json:"name" validate:"required,max=100"`
	Phone string `json:"phone" validate:"omitempty,min=10,max=15"`
}

// RoleUpdateRequest changes a user's role.
type RoleUpdateRequest struct {
	Role Role `json:"role" validate:"required"`
}

// UserFilter holds admin user listing criteria.
type UserFilter struct {
	Search string
	Role   Role
	Page   int
	Limit  int
}
