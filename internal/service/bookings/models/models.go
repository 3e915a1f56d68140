package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// Request модели

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	UserID             int64  `json:"userId"`
	CancellationReason string `json:"cancellationReason"`
}

// UpdateStatusRequest запрос на перевод бронирования в следующий статус
type UpdateStatusRequest struct {
	UserID int64  `json:"userId"`
	Status string `json:"status"`
}

// GetUserBookingsRequest запрос на получение бронирований пользователя
type GetUserBookingsRequest struct {
	UserID   int64           `json:"userId"`
	Status   *string         `json:"status,omitempty"`
	Language domain.Language `json:"language,omitempty"`
}

// Response модели

// BookingLineResponse строка дополнительной услуги бронирования
type BookingLineResponse struct {
	ExtraID    int64   `json:"extraId"`
	ExtraName  string  `json:"extraName"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
}

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID               int64  `json:"id"`
	Number           string `json:"number"`
	UserID           int64  `json:"userId"`
	VehicleID        int64  `json:"vehicleId"`
	PickupLocationID int64  `json:"pickupLocationId"`
	ReturnLocationID int64  `json:"returnLocationId"`
	StartDate        string `json:"startDate"` // "2025-10-15"
	EndDate          string `json:"endDate"`
	Days             int    `json:"days"`

	RentalCost  float64 `json:"rentalCost"`
	ExtrasCost  float64 `json:"extrasCost"`
	Discount    float64 `json:"discount"`
	FinalAmount float64 `json:"finalAmount"`

	Status      string `json:"status"`
	StatusLabel string `json:"statusLabel"`

	Lines []BookingLineResponse `json:"lines,omitempty"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601 format

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// SweepFailure ошибка обработки одного бронирования в cleanup sweep
type SweepFailure struct {
	BookingID int64  `json:"bookingId"`
	Error     string `json:"error"`
}

// CleanupReport итог одного прогона cleanup sweep
// Closed - количество фактически закрытых бронирований;
// Skipped - бронирования, закрытые конкурентным прогоном (no-op)
type CleanupReport struct {
	Closed   int            `json:"closed"`
	Skipped  int            `json:"skipped"`
	Failures []SweepFailure `json:"failures,omitempty"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
// Подпись статуса локализуется по переданному языку
func FromDomainBooking(b *domain.Booking, lines []*domain.BookingLine, lang domain.Language) *BookingResponse {
	if b == nil {
		return nil
	}
	if lang == "" {
		lang = domain.DefaultLanguage
	}

	resp := &BookingResponse{
		ID:                 b.ID,
		Number:             b.Number,
		UserID:             b.UserID,
		VehicleID:          b.VehicleID,
		PickupLocationID:   b.PickupLocationID,
		ReturnLocationID:   b.ReturnLocationID,
		StartDate:          b.StartDate.Format(domain.DateFormat),
		EndDate:            b.EndDate.Format(domain.DateFormat),
		Days:               b.Days(),
		RentalCost:         b.RentalCost,
		ExtrasCost:         b.ExtrasCost,
		Discount:           b.Discount,
		FinalAmount:        b.FinalAmount,
		Status:             string(b.Status),
		StatusLabel:        b.Status.Label(lang),
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	for _, line := range lines {
		resp.Lines = append(resp.Lines, BookingLineResponse{
			ExtraID:    line.ExtraID,
			ExtraName:  line.ExtraName,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			TotalPrice: line.TotalPrice,
		})
	}

	if b.CancelledAt != nil {
		cancelledStr := b.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking, lang domain.Language) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking, nil, lang); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus с валидацией
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	s := domain.BookingStatus(status)

	validStatuses := []domain.BookingStatus{
		domain.StatusOpen,
		domain.StatusConfirmed,
		domain.StatusInProgress,
		domain.StatusCompleted,
		domain.StatusClosed,
		domain.StatusCancelled,
	}

	for _, valid := range validStatuses {
		if s == valid {
			return s, nil
		}
	}

	return "", ErrInvalidStatus
}
