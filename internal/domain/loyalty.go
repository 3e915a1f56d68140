package domain

import "time"

// LoyaltyTransactionType represents the kind of a ledger entry
type LoyaltyTransactionType string

const (
	TransactionEarned     LoyaltyTransactionType = "earned"
	TransactionRedeemed   LoyaltyTransactionType = "redeemed"
	TransactionExpired    LoyaltyTransactionType = "expired"
	TransactionBonus      LoyaltyTransactionType = "bonus"
	TransactionRefund     LoyaltyTransactionType = "refund"
	TransactionAdjustment LoyaltyTransactionType = "adjustment"
)

// CreditTransactionTypes ledger entry types that add points
var CreditTransactionTypes = []LoyaltyTransactionType{
	TransactionEarned,
	TransactionBonus,
	TransactionRefund,
}

// DebitTransactionTypes ledger entry types that remove points
var DebitTransactionTypes = []LoyaltyTransactionType{
	TransactionRedeemed,
	TransactionExpired,
	TransactionAdjustment,
}

// LoyaltyTransaction is an append-only ledger entry
// Points are signed: positive for credits, negative for debits
type LoyaltyTransaction struct {
	ID              int64
	UserID          int64
	Points          int64
	Type            LoyaltyTransactionType
	EarnReason      *string
	BookingID       *int64
	TransactionDate time.Time
	ExpiryDate      *time.Time
	IsExpired       bool
	CreatedAt       time.Time
}

// IsCredit returns true for entry types that add points
func (t *LoyaltyTransaction) IsCredit() bool {
	switch t.Type {
	case TransactionEarned, TransactionBonus, TransactionRefund:
		return true
	}
	return false
}

// CountsTowardBalance returns true if the entry contributes to the
// available balance: non-expired credits and all debits
func (t *LoyaltyTransaction) CountsTowardBalance() bool {
	if t.IsCredit() {
		return !t.IsExpired
	}
	return true
}

// PointsSummary is a cached projection of a user's ledger
// Never the source of truth: always recomputed from transactions
type PointsSummary struct {
	UserID          int64
	TotalEarned     int64
	TotalRedeemed   int64
	TotalExpired    int64
	AvailablePoints int64
	UpdatedAt       time.Time
}

// AvailableBalance replays a transaction list into a spendable balance
// Credits count while not expired; debits always count (points are negative)
func AvailableBalance(transactions []*LoyaltyTransaction) int64 {
	var balance int64
	for _, t := range transactions {
		if t.CountsTowardBalance() {
			balance += t.Points
		}
	}
	return balance
}
