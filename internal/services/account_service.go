package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tourdesk/travel-backend/internal/models"
	"github.com/tourdesk/travel-backend/pkg/jwt"
	"github.com/tourdesk/travel-backend/pkg/validator"
	"golang.org/x/crypto/bcrypt"
)

// minPasswordLength matches the binding rule on models.RegisterInput
const minPasswordLength = 8

// AccountService registers accounts and issues tokens
type AccountService struct {
	users      UserStore
	jwtService *jwt.Service
	phones     *validator.PhoneValidator
	bcryptCost int
	clock      Clock
	logger     *logrus.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(
	users UserStore,
	jwtService *jwt.Service,
	phones *validator.PhoneValidator,
	bcryptCost int,
	clock Clock,
	logger *logrus.Logger,
) *AccountService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AccountService{
		users:      users,
		jwtService: jwtService,
		phones:     phones,
		bcryptCost: bcryptCost,
		clock:      clock,
		logger:     logger,
	}
}

// Register creates a customer account and logs it in
func (s *AccountService) Register(ctx context.Context, input *models.RegisterInput) (*models.AuthResponse, error) {
	user, err := s.createAccount(ctx, input, models.RoleUser)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(user, "")
}

// RegisterTourGuide creates an agent account on behalf of an admin
func (s *AccountService) RegisterTourGuide(ctx context.Context, actor Actor, input *models.RegisterInput) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, forbidden(EntityTourGuide, 0, "admin only")
	}
	return s.createAccount(ctx, input, models.RoleAgent)
}

// CreateAdmin creates an admin account for operator tooling.
// It is not reachable over HTTP.
func (s *AccountService) CreateAdmin(ctx context.Context, input *models.RegisterInput) (*models.User, error) {
	if len(input.Password) < minPasswordLength {
		return nil, invalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength), nil)
	}
	return s.createAccount(ctx, input, models.RoleAdmin)
}

func (s *AccountService) createAccount(ctx context.Context, input *models.RegisterInput, role string) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.Name)
	if name == "" || email == "" {
		return nil, invalidInput("name and email are required", nil)
	}

	phone, err := s.phones.Validate(input.Phone)
	if err != nil {
		return nil, invalidInput("invalid phone number", err)
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, &DomainError{Kind: KindConflict, Entity: EntityUser, Detail: "email is already registered"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock.Now()
	user := &models.User{
		Name:         name,
		Email:        email,
		Phone:        &phone,
		Role:         role,
		Active:       true,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, &DomainError{Kind: KindConflict, Entity: EntityUser, Detail: "email or phone is already registered"}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    role,
	}).Info("Account registered")

	return user, nil
}

// Login authenticates by email or phone number and password
func (s *AccountService) Login(ctx context.Context, input *models.LoginInput) (*models.AuthResponse, error) {
	identifier := strings.TrimSpace(input.Identifier)
	if strings.Contains(identifier, "@") {
		identifier = strings.ToLower(identifier)
	} else {
		identifier = s.phones.Sanitize(identifier)
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &DomainError{Kind: KindUnauthenticated, Detail: "invalid credentials"}
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, &DomainError{Kind: KindUnauthenticated, Detail: "invalid credentials"}
	}

	if !user.Active {
		return nil, forbidden(EntityUser, user.ID, "account is inactive")
	}

	return s.issueTokens(user, "")
}

// Refresh issues a new access token for a valid refresh token
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, &DomainError{Kind: KindUnauthenticated, Detail: "invalid refresh token", Err: err}
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &DomainError{Kind: KindUnauthenticated, Detail: "account no longer exists"}
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.Active {
		return nil, forbidden(EntityUser, user.ID, "account is inactive")
	}

	return s.issueTokens(user, refreshToken)
}

// Me returns the caller's account
func (s *AccountService) Me(ctx context.Context, actor Actor) (*models.User, error) {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(EntityUser, actor.UserID)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// issueTokens signs an access token and, unless one is given, a refresh token
func (s *AccountService) issueTokens(user *models.User, refreshToken string) (*models.AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	if refreshToken == "" {
		refreshToken, err = s.jwtService.GenerateRefreshToken(user.ID, user.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to generate refresh token: %w", err)
		}
	}

	return &models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    s.clock.Now().Add(s.jwtService.AccessTokenExpiry()),
		User:         user,
	}, nil
}
