package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"divyashree/internal/model"
	"divyashree/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// userService implements UserService.
type userService struct {
	userRepo    repository.UserRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	logger      zerolog.Logger
	now         func() time.Time
}

// NewUserService creates a new user service.
func NewUserService(
	userRepo repository.UserRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	logger zerolog.Logger,
) UserService {
	return &userService{
		userRepo:    userRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      logger.With().Str("service", "user").Logger(),
		now:         time.Now,
	}
}

func (s *userService) Profile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.ProfileUpdate) (*model.User, error) {
	if req == nil {
		return nil, model.NewValidation("Request body is required")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Name = req.Name
	user.Phone = req.Phone
	user.UpdatedAt = s.now().UTC()

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Addresses(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	addresses, err := s.userRepo.ListAddresses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	if addresses == nil {
		addresses = []model.Address{}
	}
	return addresses, nil
}

// AddAddress saves an address. The first one becomes the default.
func (s *userService) AddAddress(ctx context.Context, userID uuid.UUID, in *model.AddressInput) ([]model.Address, error) {
	if err := validateAddress(in); err != nil {
		return nil, err
	}

	address := addressFrom(in)
	address.ID = uuid.New()
	address.UserID = userID
	address.CreatedAt = s.now().UTC()

	if err := s.userRepo.AddAddress(ctx, address); err != nil {
		return nil, fmt.Errorf("failed to add address: %w", err)
	}
	return s.Addresses(ctx, userID)
}

func (s *userService) UpdateAddress(ctx context.Context, userID, addressID uuid.UUID, in *model.AddressInput) ([]model.Address, error) {
	if err := validateAddress(in); err != nil {
		return nil, err
	}

	address := addressFrom(in)
	address.ID = addressID
	address.UserID = userID

	found, err := s.userRepo.UpdateAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to update address: %w", err)
	}
	if !found {
		return nil, model.ErrAddressNotFound
	}
	return s.Addresses(ctx, userID)
}

// DeleteAddress removes an address; a removed default is replaced by the newest remaining one.
func (s *userService) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) ([]model.Address, error) {
	found, err := s.userRepo.DeleteAddress(ctx, userID, addressID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete address: %w", err)
	}
	if !found {
		return nil, model.ErrAddressNotFound
	}
	return s.Addresses(ctx, userID)
}

func (s *userService) SetDefaultAddress(ctx context.Context, userID, addressID uuid.UUID) ([]model.Address, error) {
	found, err := s.userRepo.SetDefaultAddress(ctx, userID, addressID)
	if err != nil {
		return nil, fmt.Errorf("failed to set default address: %w", err)
	}
	if !found {
		return nil, model.ErrAddressNotFound
	}
	return s.Addresses(ctx, userID)
}

func (s *userService) Wishlist(ctx context.Context, userID uuid.UUID) ([]model.Product, error) {
	products, err := s.cartRepo.ListWishlist(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

func (s *userService) AddToWishlist(ctx context.Context, userID, productID uuid.UUID) ([]model.Product, error) {
	if err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}
	if err := s.cartRepo.AddWishlist(ctx, userID, productID); err != nil {
		return nil, fmt.Errorf("failed to add to wishlist: %w", err)
	}
	return s.Wishlist(ctx, userID)
}

// RemoveFromWishlist is idempotent.
func (s *userService) RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) ([]model.Product, error) {
	if _, err := s.cartRepo.RemoveWishlist(ctx, userID, productID); err != nil {
		return nil, fmt.Errorf("failed to remove from wishlist: %w", err)
	}
	return s.Wishlist(ctx, userID)
}

// Cart returns the cart lines with product data and totals.
func (s *userService) Cart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	items, err := s.cartRepo.ListCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return newCart(items), nil
}

// AddToCart merges into an existing line with the same product, size and color.
func (s *userService) AddToCart(ctx context.Context, userID uuid.UUID, in *model.CartItemInput) (*model.Cart, error) {
	if in == nil {
		return nil, model.NewValidation("Request body is required")
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	in.Size = strings.TrimSpace(in.Size)
	in.Color = strings.TrimSpace(in.Color)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := s.requireProduct(ctx, in.ProductID); err != nil {
		return nil, err
	}

	item := &model.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Size:      in.Size,
		Color:     in.Color,
	}
	if err := s.cartRepo.AddCartItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}

	s.logger.Debug().
		Str("user_id", userID.String()).
		Str("product_id", in.ProductID.String()).
		Int("quantity", item.Quantity).
		Msg("cart updated")

	return s.Cart(ctx, userID)
}

func (s *userService) UpdateCartItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*model.Cart, error) {
	if quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	found, err := s.cartRepo.UpdateCartQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}
	if !found {
		return nil, model.ErrCartItemNotFound
	}
	return s.Cart(ctx, userID)
}

func (s *userService) RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID) (*model.Cart, error) {
	found, err := s.cartRepo.RemoveCartItem(ctx, userID, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}
	if !found {
		return nil, model.ErrCartItemNotFound
	}
	return s.Cart(ctx, userID)
}

func (s *userService) ClearCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	if err := s.cartRepo.ClearCart(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}
	return newCart(nil), nil
}

func (s *userService) requireProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil || !product.IsActive {
		return model.ErrProductNotFound
	}
	return nil
}

func newCart(items []model.CartItem) *model.Cart {
	if items == nil {
		items = []model.CartItem{}
	}
	cart := &model.Cart{Items: items}
	subtotal := decimal.Zero
	for _, item := range items {
		cart.ItemCount += item.Quantity
		if item.Product != nil {
			subtotal = subtotal.Add(decimal.NewFromFloat(item.Product.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	cart.Subtotal = subtotal.Round(2).InexactFloat64()
	return cart
}

func validateAddress(in *model.AddressInput) error {
	if in == nil {
		return model.NewValidation("Request body is required")
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.Pincode = strings.TrimSpace(in.Pincode)
	in.Phone = strings.TrimSpace(in.Phone)
	return validateStruct(in)
}

func addressFrom(in *model.AddressInput) *model.Address {
	return &model.Address{
		Name:      in.Name,
		Address:   in.Address,
		City:      in.City,
		State:     in.State,
		Pincode:   in.Pincode,
		Phone:     in.Phone,
		IsDefault: in.IsDefault,
	}
}
