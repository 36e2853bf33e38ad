package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"

	// StatusCompleted only appears on legacy orders; verified purchase checks
	// still honour it.
	StatusCompleted OrderStatus = "completed"
)

// statusRank orders the forward path. Cancelled has no rank.
var statusRank = map[OrderStatus]int{
	StatusPending:    0,
	StatusConfirmed:  1,
	StatusProcessing: 2,
	StatusShipped:    3,
	StatusDelivered:  4,
}

// Valid reports whether s is settable through the admin status endpoint.
func (s OrderStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok || s == StatusCancelled
}

// Terminal reports whether no further status change is allowed.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// UserCancellable reports whether the customer may still cancel.
func (s OrderStatus) UserCancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanTransition reports whether an admin may move an order from s to next.
// Terminal states cannot be left and the forward path cannot be reversed.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	return statusRank[next] > statusRank[s]
}

// PaymentMethod is the customer's chosen way to pay.
type PaymentMethod string

const (
	PaymentCOD        PaymentMethod = "cod"
	PaymentUPI        PaymentMethod = "upi"
	PaymentCard       PaymentMethod = "card"
	PaymentNetBanking PaymentMethod = "netbanking"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentUPI, PaymentCard, PaymentNetBanking:
		return true
	}
	return false
}

// ReturnWindow is how long after delivery a return or exchange may be requested.
const ReturnWindow = 24 * time.Hour

// OrderNumberPrefix starts every human readable order number.
const OrderNumberPrefix = "DS"

// FormatOrderNumber derives an order number from t: the prefix followed by
// the last 8 digits of the Unix millisecond timestamp. Two orders created in
// the same millisecond collide; callers rely on the unique index and retry.
func FormatOrderNumber(t time.Time) string {
	ms := t.UnixMilli() % 100_000_000
	return fmt.Sprintf("%s%08d", OrderNumberPrefix, ms)
}

// ShippingAddress is captured on the order at checkout.
type ShippingAddress struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Pincode string `json:"pincode" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
}

// PaymentDetails holds masked payment instrument data only.
type PaymentDetails struct {
	CardLast4 string `json:"cardLast4,omitempty"`
	UPIID     string `json:"upiId,omitempty"`
	Bank      string `json:"bank,omitempty"`
}

// Mask strips everything but display-safe fragments.
func (d *PaymentDetails) Mask() {
	if len(d.CardLast4) > 4 {
		d.CardLast4 = d.CardLast4[len(d.CardLast4)-4:]
	}
	if n := len(d.UPIID); n > 0 {
		at := -1
		for i := 0; i < n; i++ {
			if d.UPIID[i] == '@' {
				at = i
				break
			}
		}
		if at > 2 {
			masked := make([]byte, 0, n)
			masked = append(masked, d.UPIID[:2]...)
			for i := 2; i < at; i++ {
				masked = append(masked, '*')
			}
			masked = append(masked, d.UPIID[at:]...)
			d.UPIID = string(masked)
		}
	}
}

// Cancellation records who cancelled an order and why.
type Cancellation struct {
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelledAt"`
	CancelledBy string    `json:"cancelledBy"` // "user" or "admin"
}

// ReturnType distinguishes a refund from a swap.
type ReturnType string

const (
	ReturnTypeReturn   ReturnType = "return"
	ReturnTypeExchange ReturnType = "exchange"
)

// ReturnStatus is the state of the return/exchange sub-flow.
type ReturnStatus string

const (
	ReturnRequested ReturnStatus = "requested"
	ReturnApproved  ReturnStatus = "approved"
	ReturnRejected  ReturnStatus = "rejected"
)

// ReturnExchange is created at most once per delivered order.
type ReturnExchange struct {
	Type        ReturnType   `json:"type"`
	Reason      string       `json:"reason"`
	Status      ReturnStatus `json:"status"`
	RequestedAt time.Time    `json:"requestedAt"`
	ProcessedAt *time.Time   `json:"processedAt,omitempty"`
	ProcessedBy *uuid.UUID   `json:"processedBy,omitempty"`
	AdminNotes  string       `json:"adminNotes,omitempty"`
}

// Order represents a customer order.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"userId"`
	OrderNumber     string          `json:"orderNumber"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentDetails  *PaymentDetails `json:"paymentDetails,omitempty"`
	Subtotal        float64         `json:"subtotal"`
	Shipping        float64         `json:"shipping"`
	Tax             float64         `json:"tax"`
	Total           float64         `json:"total"`
	Status          OrderStatus     `json:"status"`
	Notes           string          `json:"notes,omitempty"`
	Cancellation    *Cancellation   `json:"cancellation,omitempty"`
	ReturnExchange  *ReturnExchange `json:"returnExchange,omitempty"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ReturnWindowStart is the reference time for the return window.
func (o *Order) ReturnWindowStart() time.Time {
	if o.DeliveredAt != nil {
		return *o.DeliveredAt
	}
	return o.UpdatedAt
}

// OrderItem is a line item with a snapshot of the product at purchase time.
type OrderItem struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"-"`
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size,omitempty"`
	Color     string    `json:"color,omitempty"`
	Image     string    `json:"image,omitempty"`
}

// OrderRequest represents the request payload for creating an order.
type OrderRequest struct {
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress *ShippingAddress   `json:"shippingAddress" validate:"required"`
	PaymentMethod   PaymentMethod      `json:"paymentMethod" validate:"required"`
	PaymentDetails  *PaymentDetails    `json:"paymentDetails,omitempty"`
	Subtotal        *float64           `json:"subtotal" validate:"required,gte=0"`
	Shipping        float64            `json:"shipping" validate:"gte=0"`
	Tax             float64            `json:"tax" validate:"gte=0"`
	Total           *float64           `json:"total" validate:"required,gte=0"`
	Notes           string             `json:"notes" validate:"max=500"`
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Name      string    `json:"name"`
	Price     float64   `json:"price" validate:"gte=0"`
	Quantity  int       `json:"quantity" validate:"gt=0"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
	Image     string    `json:"image"`
}

// CancelRequest is the body of a customer cancellation.
type CancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// ReturnRequest is the body of a return/exchange request.
type ReturnRequest struct {
	Type   ReturnType `json:"type" validate:"required,oneof=return exchange"`
	Reason string     `json:"reason" validate:"required,max=1000"`
}

// StatusUpdateRequest is the body of an admin status change.
type StatusUpdateRequest struct {
	Status OrderStatus `json:"status" validate:"required"`
	Note   string      `json:"note"`
}

// ProcessReturnRequest is the body of an admin return decision.
type ProcessReturnRequest struct {
	Action     ReturnStatus `json:"action" validate:"required,oneof=approved rejected"`
	AdminNotes string       `json:"adminNotes" validate:"max=1000"`
}

// OrderFilter holds admin listing criteria.
type OrderFilter struct {
	UserID *uuid.UUID
	Status OrderStatus
	Search string
	Page   int
	Limit  int
}

// DashboardStats summarises store activity for the admin home page.
type DashboardStats struct {
	TotalOrders     int     `json:"totalOrders"`
	PendingOrders   int     `json:"pendingOrders"`
	ConfirmedOrders int     `json:"confirmedOrders"`
	DeliveredOrders int     `json:"deliveredOrders"`
	CancelledOrders int     `json:"cancelledOrders"`
	OpenReturns     int     `json:"openReturns"`
	Revenue         float64 `json:"revenue"`
	TotalUsers      int     `json:"totalUsers"`
	TotalProducts   int     `json:"totalProducts"`
	LowStock        int     `json:"lowStock"`
}
