package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinReviewRating  = 1
	MaxReviewRating  = 5
	MinReviewComment = 10
	MaxReviewComment = 1000
)

// Review is a customer's rating of a product. Anonymous reviews have no UserID.
type Review struct {
	ID                 uuid.UUID  `json:"id"`
	ProductID          uuid.UUID  `json:"productId"`
	UserID             *uuid.UUID `json:"userId,omitempty"`
	Name               string     `json:"name"`
	Email              string     `json:"-"`
	Rating             int        `json:"rating"`
	Comment            string     `json:"comment"`
	IsVerifiedPurchase bool       `json:"isVerifiedPurchase"`
	Helpful            int        `json:"helpful"`
	IsApproved         bool       `json:"isApproved"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// ReviewInput is the create/update payload.
type ReviewInput struct {
	Name    string `json:"name" validate:"max=100"`
	Email   string `json:"email" validate:"omitempty,email"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// RatingSummary is the aggregate written back onto a product.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// ReviewList is a product's reviews plus the star distribution.
type ReviewList struct {
	Reviews      []Review      `json:"reviews"`
	Summary      RatingSummary `json:"summary"`
	Distribution map[int]int   `json:"distribution"`
	Pagination   Pagination    `json:"pagination"`
}
