package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrWalletNotFound = errors.New("wallet not found")

// Repository credits user wallets. The credit methods take the caller's open
// transaction so a reward lands in the same atomic unit as the play that
// produced it.
type Repository interface {
	GetByUser(ctx context.Context, userID string) (*Wallet, error)
	CreditCash(ctx context.Context, tx *gorm.DB, userID string, amount decimal.Decimal, referenceID string) error
	CreditPoints(ctx context.Context, tx *gorm.DB, userID string, points int64, referenceID string) error
}

type RepositoryImpl struct {
	db *gorm.DB
}

func NewRepositoryImpl(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) GetByUser(ctx context.Context, userID string) (*Wallet, error) {
	var w Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *RepositoryImpl) CreditCash(ctx context.Context, tx *gorm.DB, userID string, amount decimal.Decimal, referenceID string) error {
	w, err := r.lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	newBalance := w.CashBalance.Add(amount)
	result := tx.WithContext(ctx).Model(&Wallet{}).Where("wallet_id = ?", w.WalletID).
		Updates(map[string]interface{}{
			"cash_balance": newBalance,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to credit cash: %w", result.Error)
	}

	entry := &Entry{
		EntryID:       uuid.New().String(),
		WalletID:      w.WalletID,
		UserID:        userID,
		EntryType:     EntryTypeCash,
		Amount:        amount,
		BalanceBefore: w.CashBalance,
		BalanceAfter:  newBalance,
		ReferenceID:   referenceID,
		CreatedAt:     time.Now(),
	}
	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) CreditPoints(ctx context.Context, tx *gorm.DB, userID string, points int64, referenceID string) error {
	w, err := r.lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	before := decimal.NewFromInt(w.PointsBalance)
	after := decimal.NewFromInt(w.PointsBalance + points)
	result := tx.WithContext(ctx).Model(&Wallet{}).Where("wallet_id = ?", w.WalletID).
		Updates(map[string]interface{}{
			"points_balance": gorm.Expr("points_balance + ?", points),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to credit points: %w", result.Error)
	}

	entry := &Entry{
		EntryID:       uuid.New().String(),
		WalletID:      w.WalletID,
		UserID:        userID,
		EntryType:     EntryTypePoints,
		Amount:        decimal.NewFromInt(points),
		BalanceBefore: before,
		BalanceAfter:  after,
		ReferenceID:   referenceID,
		CreatedAt:     time.Now(),
	}
	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

// lockWallet takes a row lock on the user's wallet, creating it on first
// credit.
func (r *RepositoryImpl) lockWallet(ctx context.Context, tx *gorm.DB, userID string) (*Wallet, error) {
	var w Wallet
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&w).Error
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}

	w = Wallet{
		WalletID:  uuid.New().String(),
		UserID:    userID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := tx.WithContext(ctx).Create(&w).Error; err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return &w, nil
}
