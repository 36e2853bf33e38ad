package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"divyashree/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestUserHandler_UpdateCartItem(t *testing.T) {
	user := customer()
	itemID := uuid.New()
	params := map[string]string{"itemId": itemID.String()}

	tests := []struct {
		name           string
		body           string
		params         map[string]string
		mockReturn     *model.Cart
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Success",
			body:           `{"quantity":3}`,
			params:         params,
			mockReturn:     &model.Cart{ItemCount: 3, Subtotal: 4497},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Unknown line",
			body:           `{"quantity":3}`,
			params:         params,
			mockError:      model.ErrCartItemNotFound,
			expectedStatus: http.StatusNotFound,
			expectService:  true,
		},
		{
			name:           "Malformed item ID",
			body:           `{"quantity":3}`,
			params:         map[string]string{"itemId": "first"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid JSON",
			body:           `quantity=3`,
			params:         params,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockUserService)
			handler := NewUserHandler(mockService, zerolog.Nop())

			if tt.expectService {
				mockService.On("UpdateCartItem", mock.Anything, user.ID, itemID, 3).Return(tt.mockReturn, tt.mockError)
			}

			w := httptest.NewRecorder()
			handler.UpdateCartItem(w, newRequest(t, http.MethodPut, "/", tt.body, user, tt.params))

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestUserHandler_AddAddress(t *testing.T) {
	user := customer()
	in := &model.AddressInput{
		Name:    "Meera Iyer",
		Address: "12 Temple Street, Mylapore",
		City:    "Chennai",
		State:   "Tamil Nadu",
		Pincode: "600004",
		Phone:   "9876543210",
	}

	t.Run("Created", func(t *testing.T) {
		mockService := new(MockUserService)
		mockService.On("AddAddress", mock.Anything, user.ID, in).
			Return([]model.Address{{ID: uuid.New(), Name: in.Name, IsDefault: true}}, nil)
		handler := NewUserHandler(mockService, zerolog.Nop())

		w := httptest.NewRecorder()
		handler.AddAddress(w, newRequest(t, http.MethodPost, "/", in, user, nil))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"isDefault":true`)
		mockService.AssertExpectations(t)
	})

	t.Run("Bad pincode", func(t *testing.T) {
		mockService := new(MockUserService)
		mockService.On("AddAddress", mock.Anything, user.ID, mock.Anything).
			Return(nil, model.NewValidation("pincode must contain digits only"))
		handler := NewUserHandler(mockService, zerolog.Nop())

		w := httptest.NewRecorder()
		handler.AddAddress(w, newRequest(t, http.MethodPost, "/", in, user, nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp, _ := decodeResponse(t, w)
		assert.Equal(t, "pincode must contain digits only", resp.Message)
	})
}

func TestUserHandler_Wishlist(t *testing.T) {
	user := customer()
	productID := uuid.New()
	params := map[string]string{"productId": productID.String()}

	mockService := new(MockUserService)
	mockService.On("AddToWishlist", mock.Anything, user.ID, productID).Return([]model.Product{{ID: productID}}, nil)
	mockService.On("RemoveFromWishlist", mock.Anything, user.ID, productID).Return([]model.Product{}, nil)
	handler := NewUserHandler(mockService, zerolog.Nop())

	w := httptest.NewRecorder()
	handler.AddToWishlist(w, newRequest(t, http.MethodPost, "/", nil, user, params))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.RemoveFromWishlist(w, newRequest(t, http.MethodDelete, "/", nil, user, params))
	assert.Equal(t, http.StatusOK, w.Code)

	mockService.AssertExpectations(t)
}

func TestUserHandler_RequiresUser(t *testing.T) {
	mockService := new(MockUserService)
	handler := NewUserHandler(mockService, zerolog.Nop())

	handlers := map[string]http.HandlerFunc{
		"profile":   handler.Profile,
		"addresses": handler.Addresses,
		"wishlist":  handler.Wishlist,
		"cart":      handler.Cart,
		"clear":     handler.ClearCart,
	}
	for name, fn := range handlers {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			fn(w, newRequest(t, http.MethodGet, "/", nil, nil, nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
