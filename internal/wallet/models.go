package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

type Wallet struct {
	WalletID      string          `gorm:"column:wallet_id;primaryKey;type:uuid" json:"wallet_id"`
	UserID        string          `gorm:"column:user_id;type:uuid;not null;uniqueIndex" json:"user_id"`
	CashBalance   decimal.Decimal `gorm:"column:cash_balance;type:numeric(20,2);not null;default:0" json:"cash_balance"`
	PointsBalance int64           `gorm:"column:points_balance;not null;default:0" json:"points_balance"`
	CreatedAt     time.Time       `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

// Entry is one ledger row per credit. ReferenceID points at the play result
// that produced the credit, so every award is traceable to exactly one play.
type Entry struct {
	EntryID       string          `gorm:"column:entry_id;primaryKey;type:uuid" json:"entry_id"`
	WalletID      string          `gorm:"column:wallet_id;type:uuid;not null" json:"wallet_id"`
	UserID        string          `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	EntryType     string          `gorm:"column:entry_type;type:varchar(20);not null" json:"entry_type"` // "cash", "points"
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(20,2);not null" json:"amount"`
	BalanceBefore decimal.Decimal `gorm:"column:balance_before;type:numeric(20,2);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"column:balance_after;type:numeric(20,2);not null" json:"balance_after"`
	ReferenceID   string          `gorm:"column:reference_id;type:varchar(255);not null;uniqueIndex" json:"reference_id"`
	CreatedAt     time.Time       `gorm:"column:created_at;not null;default:now()" json:"created_at"`
}

const (
	EntryTypeCash   = "cash"
	EntryTypePoints = "points"
)

type Balance struct {
	UserID        string          `json:"user_id"`
	CashBalance   decimal.Decimal `json:"cash_balance"`
	PointsBalance int64           `json:"points_balance"`
}
