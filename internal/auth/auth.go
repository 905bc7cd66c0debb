package auth

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"papertrade/internal/models"
)

var (
	// ErrUsernameTaken is returned when registering an already-used username.
	ErrUsernameTaken = errors.New("username is already taken")
	// ErrInvalidCredentials covers both a missing user and a wrong password,
	// so a login failure never reveals which one it was.
	ErrInvalidCredentials = errors.New("invalid username and/or password")
)

// Service manages user accounts and credential checks.
type Service struct {
	db           *gorm.DB
	logger       *zap.Logger
	startingCash decimal.Decimal
}

// NewService creates a new auth service. startingCash is the play-money
// balance granted to every new account.
func NewService(db *gorm.DB, logger *zap.Logger, startingCash decimal.Decimal) *Service {
	return &Service{
		db:           db,
		logger:       logger,
		startingCash: startingCash,
	}
}

// Register creates a new user with a bcrypt-hashed password and the starting
// cash balance. A duplicate username yields ErrUsernameTaken.
func (s *Service) Register(username, password string) (*models.User, error) {
	var existing models.User
	err := s.db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username:     username,
		PasswordHash: string(hash),
		Cash:         s.startingCash,
	}
	if err := s.db.Create(&user).Error; err != nil {
		// Two racing registrations can both pass the lookup above; the
		// unique index decides, and the loser sees the same user error.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("New user registered", zap.String("username", username), zap.Uint("user_id", user.ID))
	return &user, nil
}

// Authenticate verifies a username/password pair against the stored hash.
func (s *Service) Authenticate(username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// UserByID loads a user by primary key.
func (s *Service) UserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}
	return &user, nil
}
