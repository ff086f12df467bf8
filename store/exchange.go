package store

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ExchangeAccount is the contractual read-model named in spec.md §6:
//
//	ExchangeAccount(user_id, exchange_name, status, trading_enabled, allowed_symbols)
//
// It is owned by a collaborating account-management service; this core only
// reads it to resolve a user's exchange/symbol universe (C5).
type ExchangeAccount struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	UserID         string    `gorm:"column:user_id;not null;index" json:"user_id"`
	ExchangeName   string    `gorm:"column:exchange_name;not null" json:"exchange_name"`
	Status         string    `gorm:"column:status;not null;default:ACTIVE" json:"status"`
	TradingEnabled bool      `gorm:"column:trading_enabled;default:true" json:"trading_enabled"`
	AllowedSymbols string    `gorm:"column:allowed_symbols" json:"allowed_symbols"` // comma-separated
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (ExchangeAccount) TableName() string { return "exchange_accounts" }

// StatusActive is the only status C5 treats as usable.
const StatusActive = "ACTIVE"

// Symbols splits the comma-separated AllowedSymbols column.
func (a ExchangeAccount) Symbols() []string {
	if strings.TrimSpace(a.AllowedSymbols) == "" {
		return nil
	}
	parts := strings.Split(a.AllowedSymbols, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ExchangeAccountStore provides read access to ExchangeAccount rows.
type ExchangeAccountStore struct {
	db *gorm.DB
}

// NewExchangeAccountStore builds a store bound to an open gorm connection.
func NewExchangeAccountStore(db *gorm.DB) *ExchangeAccountStore {
	return &ExchangeAccountStore{db: db}
}

func (s *ExchangeAccountStore) migrate() error {
	return s.db.AutoMigrate(&ExchangeAccount{})
}

// ListActiveByUser returns the user's ACTIVE, trading-enabled exchange
// accounts, used by the universe resolver (C5) when the caller supplied no
// explicit exchange list.
func (s *ExchangeAccountStore) ListActiveByUser(userID string) ([]ExchangeAccount, error) {
	var accounts []ExchangeAccount
	err := s.db.
		Where("user_id = ? AND status = ? AND trading_enabled = ?", userID, StatusActive, true).
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("list exchange accounts for %s: %w", userID, err)
	}
	return accounts, nil
}
