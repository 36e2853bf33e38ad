package model

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a domain error. The transport layer maps each kind to
// exactly one status code.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindValidation
	KindInvalidState
	KindConflict
	KindUnauthorized
	KindPermissionDenied
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation_failed"
	case KindInvalidState:
		return "invalid_state"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindPermissionDenied:
		return "permission_denied"
	default:
		return "internal"
	}
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeValidation        = "VALIDATION_FAILED"
	ErrCodeProductNotFound   = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound     = "ORDER_NOT_FOUND"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
	ErrCodeReviewNotFound    = "REVIEW_NOT_FOUND"
	ErrCodeAddressNotFound   = "ADDRESS_NOT_FOUND"
	ErrCodeCartItemNotFound  = "CART_ITEM_NOT_FOUND"
	ErrCodeRoleNotFound      = "ROLE_NOT_FOUND"
	ErrCodeNotCancellable    = "ORDER_NOT_CANCELLABLE"
	ErrCodeInvalidTransition = "INVALID_STATUS_TRANSITION"
	ErrCodeReturnExists      = "RETURN_ALREADY_EXISTS"
	ErrCodeReturnWindow      = "RETURN_WINDOW_EXPIRED"
	ErrCodeReturnNotEligible = "RETURN_NOT_ELIGIBLE"
	ErrCodeReturnProcessed   = "RETURN_ALREADY_PROCESSED"
	ErrCodeReturnMissing     = "RETURN_NOT_FOUND"
	ErrCodeDuplicateReview   = "REVIEW_ALREADY_EXISTS"
	ErrCodeEmailTaken        = "EMAIL_ALREADY_REGISTERED"
	ErrCodeSKUTaken          = "SKU_ALREADY_EXISTS"
	ErrCodeBadCredentials    = "INVALID_CREDENTIALS"
	ErrCodeAccountDisabled   = "ACCOUNT_DISABLED"
	ErrCodeProtectedRole     = "ROLE_PROTECTED"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// DomainError is a business-rule failure with a human readable message.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches on kind and code so wrapped sentinels compare equal.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

func NewNotFound(code, format string, args ...any) *DomainError {
	return NewDomainError(KindNotFound, code, fmt.Sprintf(format, args...))
}

func NewValidation(format string, args ...any) *DomainError {
	return NewDomainError(KindValidation, ErrCodeValidation, fmt.Sprintf(format, args...))
}

func NewInvalidState(code, format string, args ...any) *DomainError {
	return NewDomainError(KindInvalidState, code, fmt.Sprintf(format, args...))
}

func NewConflict(code, format string, args ...any) *DomainError {
	return NewDomainError(KindConflict, code, fmt.Sprintf(format, args...))
}

// KindOf reports the kind of err, or KindInternal when err is not a domain error.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// HTTPStatus maps err to its response status. It is the only place a kind
// is turned into a status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindInvalidState, KindConflict:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindPermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Common domain errors
var (
	ErrProductNotFound  = NewDomainError(KindNotFound, ErrCodeProductNotFound, "Product not found")
	ErrOrderNotFound    = NewDomainError(KindNotFound, ErrCodeOrderNotFound, "Order not found")
	ErrUserNotFound     = NewDomainError(KindNotFound, ErrCodeUserNotFound, "User not found")
	ErrReviewNotFound   = NewDomainError(KindNotFound, ErrCodeReviewNotFound, "Review not found")
	ErrAddressNotFound  = NewDomainError(KindNotFound, ErrCodeAddressNotFound, "Address not found")
	ErrCartItemNotFound = NewDomainError(KindNotFound, ErrCodeCartItemNotFound, "Cart item not found")
	ErrRoleNotFound     = NewDomainError(KindNotFound, ErrCodeRoleNotFound, "Role not found")
	ErrInvalidQuantity  = NewDomainError(KindValidation, ErrCodeValidation, "Quantity must be greater than zero")
	ErrDuplicateReview  = NewDomainError(KindConflict, ErrCodeDuplicateReview, "You have already reviewed this product")
	ErrEmailTaken       = NewDomainError(KindConflict, ErrCodeEmailTaken, "Email is already registered")
	ErrSKUTaken         = NewDomainError(KindConflict, ErrCodeSKUTaken, "A product with this SKU already exists")
	ErrBadCredentials   = NewDomainError(KindUnauthorized, ErrCodeBadCredentials, "Invalid email or password")
	ErrAccountDisabled  = NewDomainError(KindUnauthorized, ErrCodeAccountDisabled, "Your account has been deactivated")
	ErrUnauthorised     = NewDomainError(KindUnauthorized, ErrCodeUnauthorised, "Authentication required")
	ErrForbidden        = NewDomainError(KindPermissionDenied, ErrCodeForbidden, "You do not have permission to perform this action")
)
