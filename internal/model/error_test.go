package model

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", ErrOrderNotFound, http.StatusNotFound},
		{"validation", NewValidation("quantity must be at least 1"), http.StatusBadRequest},
		{"invalid state", NewInvalidState(ErrCodeNotCancellable, "Order cannot be cancelled"), http.StatusBadRequest},
		{"conflict", ErrDuplicateReview, http.StatusBadRequest},
		{"unauthorised", ErrUnauthorised, http.StatusUnauthorized},
		{"disabled account", ErrAccountDisabled, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"wrapped domain error", fmt.Errorf("loading order: %w", ErrOrderNotFound), http.StatusNotFound},
		{"plain error", errors.New("connection reset"), http.StatusInternalServerError},
		{"nil", nil, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
