package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"papertrade/internal/models"
	"papertrade/internal/quote"
)

var (
	// ErrInsufficientFunds is returned when a buy would overdraw the user's cash.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrOversell is returned when a sell asks for more shares than are held.
	ErrOversell = errors.New("shares exceed current holding")
	// ErrHoldingNotFound is returned when a holding does not exist or belongs
	// to a different user.
	ErrHoldingNotFound = errors.New("holding not found")
)

// Service applies buy and sell operations to the users, holdings and
// transactions tables. Every mutating operation runs inside a single database
// transaction, so a failure leaves no partial state and concurrent requests
// for one user serialize at the store.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a new ledger service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Buy purchases shares at the quoted price. The cash check happens against
// the balance re-read inside the transaction; a rejected buy writes nothing.
func (s *Service) Buy(ctx context.Context, userID uint, q quote.Quote, shares int64) error {
	if shares <= 0 {
		return fmt.Errorf("share count must be positive, got %d", shares)
	}
	cost := q.Price.Mul(decimal.NewFromInt(shares))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return fmt.Errorf("failed to load user %d: %w", userID, err)
		}
		if user.Cash.LessThan(cost) {
			return ErrInsufficientFunds
		}

		var holding models.Holding
		err := tx.Where("owner_id = ? AND symbol = ?", userID, q.Symbol).First(&holding).Error
		switch {
		case err == nil:
			holding.Shares += shares
			holding.Total = holding.Total.Add(cost)
			holding.Price = q.Price
			if err := tx.Save(&holding).Error; err != nil {
				return fmt.Errorf("failed to update holding: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			holding = models.Holding{
				OwnerID: userID,
				Symbol:  q.Symbol,
				Name:    q.Name,
				Price:   q.Price,
				Shares:  shares,
				Total:   cost,
			}
			if err := tx.Create(&holding).Error; err != nil {
				return fmt.Errorf("failed to create holding: %w", err)
			}
		default:
			return fmt.Errorf("failed to load holding: %w", err)
		}

		newCash := user.Cash.Sub(cost)
		if err := tx.Model(&user).Update("cash", newCash).Error; err != nil {
			return fmt.Errorf("failed to debit cash: %w", err)
		}

		record := models.Transaction{
			OwnerID:   userID,
			Symbol:    q.Symbol,
			Shares:    shares,
			Price:     q.Price,
			Timestamp: time.Now(),
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Buy executed",
		zap.Uint("user_id", userID),
		zap.String("symbol", q.Symbol),
		zap.Int64("shares", shares),
		zap.String("price", q.Price.String()),
	)
	return nil
}

// Sell disposes of shares from one holding at the given current price.
// The cost basis is reduced by shares at the current price, not the original
// purchase price, which lets the basis drift over repeated trades.
// Holdings are kept in place when their share count reaches zero.
func (s *Service) Sell(ctx context.Context, userID, holdingID uint, shares int64, price decimal.Decimal) error {
	if shares <= 0 {
		return fmt.Errorf("share count must be positive, got %d", shares)
	}
	proceeds := price.Mul(decimal.NewFromInt(shares))

	var symbol string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var holding models.Holding
		err := tx.Where("id = ? AND owner_id = ?", holdingID, userID).First(&holding).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHoldingNotFound
			}
			return fmt.Errorf("failed to load holding: %w", err)
		}
		if shares > holding.Shares {
			return ErrOversell
		}
		symbol = holding.Symbol

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return fmt.Errorf("failed to load user %d: %w", userID, err)
		}

		holding.Shares -= shares
		holding.Total = holding.Total.Sub(proceeds)
		if err := tx.Save(&holding).Error; err != nil {
			return fmt.Errorf("failed to update holding: %w", err)
		}

		newCash := user.Cash.Add(proceeds)
		if err := tx.Model(&user).Update("cash", newCash).Error; err != nil {
			return fmt.Errorf("failed to credit cash: %w", err)
		}

		record := models.Transaction{
			OwnerID:   userID,
			Symbol:    holding.Symbol,
			Shares:    -shares,
			Price:     price,
			Timestamp: time.Now(),
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Sell executed",
		zap.Uint("user_id", userID),
		zap.String("symbol", symbol),
		zap.Int64("shares", shares),
		zap.String("price", price.String()),
	)
	return nil
}

// Holding loads one holding, scoped to its owner.
func (s *Service) Holding(ctx context.Context, userID, holdingID uint) (*models.Holding, error) {
	var holding models.Holding
	err := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", holdingID, userID).First(&holding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHoldingNotFound
		}
		return nil, fmt.Errorf("failed to load holding: %w", err)
	}
	return &holding, nil
}

// Portfolio returns a user's cash balance and all of their holdings.
func (s *Service) Portfolio(ctx context.Context, userID uint) (decimal.Decimal, []models.Holding, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return decimal.Zero, nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	var holdings []models.Holding
	if err := s.db.WithContext(ctx).Where("owner_id = ?", userID).Order("symbol").Find(&holdings).Error; err != nil {
		return decimal.Zero, nil, fmt.Errorf("failed to load holdings: %w", err)
	}
	return user.Cash, holdings, nil
}

// ActiveHoldings returns the user's holdings that still have shares,
// the ones eligible for selling.
func (s *Service) ActiveHoldings(ctx context.Context, userID uint) ([]models.Holding, error) {
	var holdings []models.Holding
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND shares > 0", userID).
		Order("symbol").
		Find(&holdings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}
	return holdings, nil
}

// History returns a user's transaction log, oldest first.
func (s *Service) History(ctx context.Context, userID uint) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", userID).
		Order("timestamp, id").
		Find(&transactions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return transactions, nil
}
