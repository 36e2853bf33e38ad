package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"divyashree/internal/auth"
	"divyashree/internal/model"
	"divyashree/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// authService implements AuthService.
type authService struct {
	userRepo   repository.UserRepository
	tokens     TokenIssuer
	bcryptCost int
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAuthService creates a new auth service.
func NewAuthService(userRepo repository.UserRepository, tokens TokenIssuer, bcryptCost int, logger zerolog.Logger) AuthService {
	return &authService{
		userRepo:   userRepo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger.With().Str("service", "auth").Logger(),
		now:        time.Now,
	}
}

// Register creates a customer account and signs a token for it.
func (s *authService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	if req == nil {
		return nil, model.NewValidation("Request body is required")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("failed to register: %w", err)
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         model.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return s.respond(user)
}

// Login checks credentials. Deactivated accounts cannot sign in.
func (s *authService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	if req == nil {
		return nil, model.NewValidation("Request body is required")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Debug().Msg("login rejected: bad credentials")
		return nil, model.ErrBadCredentials
	}
	if !user.IsActive {
		s.logger.Info().Str("user_id", user.ID.String()).Msg("login rejected: account deactivated")
		return nil, model.ErrAccountDisabled
	}

	return s.respond(user)
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

func (s *authService) respond(user *model.User) (*model.AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to issue token")
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &model.AuthResponse{Token: token, User: user}, nil
}
