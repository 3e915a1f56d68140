package models

import (
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// Request модели

// AwardRequest запрос на начисление баллов
type AwardRequest struct {
	UserID     int64           `json:"userId"`
	Points     int64           `json:"points"`
	Reason     string          `json:"reason"`
	BookingID  *int64          `json:"bookingId,omitempty"`
	ExpiryDate *time.Time      `json:"expiryDate,omitempty"` // по умолчанию now + 24 месяца
	Language   domain.Language `json:"language,omitempty"`
}

// RedeemRequest запрос на списание баллов
type RedeemRequest struct {
	UserID    int64           `json:"userId"`
	Points    int64           `json:"points"`
	BookingID *int64          `json:"bookingId,omitempty"`
	Language  domain.Language `json:"language,omitempty"`
}

// Response модели

// TransactionResponse транзакция журнала баллов
type TransactionResponse struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"userId"`
	Points          int64     `json:"points"`
	Type            string    `json:"type"`
	TypeLabel       string    `json:"typeLabel"`
	EarnReason      *string   `json:"earnReason,omitempty"`
	BookingID       *int64    `json:"bookingId,omitempty"`
	TransactionDate time.Time `json:"transactionDate"`
	ExpiryDate      *string   `json:"expiryDate,omitempty"` // ISO 8601 format
	IsExpired       bool      `json:"isExpired"`
}

// AwardResponse результат начисления
// AlreadyAwarded = true, если баллы за это бронирование уже начислялись:
// повторный вызов успешен, но журнал не меняется
type AwardResponse struct {
	Transaction    *TransactionResponse `json:"transaction,omitempty"`
	AlreadyAwarded bool                 `json:"alreadyAwarded"`
	Balance        int64                `json:"balance"`
}

// RedeemResponse результат списания
type RedeemResponse struct {
	Transaction *TransactionResponse `json:"transaction"`
	Balance     int64                `json:"balance"`
	Discount    float64              `json:"discount"`
}

// SummaryResponse сводка баллов пользователя
type SummaryResponse struct {
	UserID          int64     `json:"userId"`
	TotalEarned     int64     `json:"totalEarned"`
	TotalRedeemed   int64     `json:"totalRedeemed"`
	TotalExpired    int64     `json:"totalExpired"`
	AvailablePoints int64     `json:"availablePoints"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ExpireFailure ошибка обработки баллов одного пользователя в expire sweep
type ExpireFailure struct {
	UserID int64  `json:"userId"`
	Error  string `json:"error"`
}

// ExpireReport итог одного прогона expire sweep
type ExpireReport struct {
	Expired       int64           `json:"expired"`       // сгоревших транзакций
	UsersAffected int             `json:"usersAffected"` // пользователей со сгоревшими баллами
	Failures      []ExpireFailure `json:"failures,omitempty"`
}

// Методы конвертации

// FromDomainTransaction конвертирует domain модель в DTO
// Подпись типа операции локализуется по переданному языку
func FromDomainTransaction(t *domain.LoyaltyTransaction, lang domain.Language) *TransactionResponse {
	if t == nil {
		return nil
	}
	if lang == "" {
		lang = domain.DefaultLanguage
	}

	resp := &TransactionResponse{
		ID:              t.ID,
		UserID:          t.UserID,
		Points:          t.Points,
		Type:            string(t.Type),
		TypeLabel:       t.Type.Label(lang),
		EarnReason:      t.EarnReason,
		BookingID:       t.BookingID,
		TransactionDate: t.TransactionDate,
		IsExpired:       t.IsExpired,
	}

	if t.ExpiryDate != nil {
		expiryStr := t.ExpiryDate.Format(time.RFC3339)
		resp.ExpiryDate = &expiryStr
	}

	return resp
}

// FromDomainSummary конвертирует domain модель в DTO
func FromDomainSummary(s *domain.PointsSummary) *SummaryResponse {
	if s == nil {
		return nil
	}
	return &SummaryResponse{
		UserID:          s.UserID,
		TotalEarned:     s.TotalEarned,
		TotalRedeemed:   s.TotalRedeemed,
		TotalExpired:    s.TotalExpired,
		AvailablePoints: s.AvailablePoints,
		UpdatedAt:       s.UpdatedAt,
	}
}
