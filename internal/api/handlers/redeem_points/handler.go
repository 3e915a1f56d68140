package redeem_points

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/api/middleware"
	"github.com/m04kA/SMC-RentalService/internal/service/loyalty"
)

const (
	msgInvalidUserID       = "некорректный ID пользователя"
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgMissingUserID       = "отсутствует ID пользователя"
	msgForbidden           = "доступ запрещен"
	msgBelowMinRedemption  = "количество баллов меньше минимального для списания"
	msgInsufficientBalance = "недостаточно баллов на балансе"
	msgInvalidInput        = "некорректные входные данные"
)

type Handler struct {
	service LoyaltyService
	logger  Logger
}

func NewHandler(service LoyaltyService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/users/{userId}/points/redeem
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Извлекаем userId из URL
	vars := mux.Vars(r)
	userIDStr := vars["userId"]

	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		h.logger.Warn("POST /users/{userId}/points/redeem - Invalid user ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidUserID)
		return
	}

	// Пользователь может списывать только свои баллы
	authUserID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /users/{userId}/points/redeem - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}
	if authUserID != userID {
		h.logger.Warn("POST /users/{userId}/points/redeem - Access denied: user_id=%d, auth_user_id=%d",
			userID, authUserID)
		handlers.RespondForbidden(w, msgForbidden)
		return
	}

	// Декодируем body
	var req RedeemPointsRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /users/{userId}/points/redeem - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	// Списываем баллы
	result, err := h.service.Redeem(r.Context(), req.ToServiceRequest(userID))
	if err != nil {
		switch {
		case errors.Is(err, loyalty.ErrBelowMinRedemption):
			h.logger.Warn("POST /users/{userId}/points/redeem - Below minimum: user_id=%d, points=%d",
				userID, req.Points)
			handlers.RespondBadRequest(w, msgBelowMinRedemption)

		case errors.Is(err, loyalty.ErrInsufficientBalance):
			h.logger.Warn("POST /users/{userId}/points/redeem - Insufficient balance: user_id=%d, points=%d",
				userID, req.Points)
			handlers.RespondConflict(w, msgInsufficientBalance)

		case errors.Is(err, loyalty.ErrInvalidInput):
			h.logger.Warn("POST /users/{userId}/points/redeem - Invalid input: user_id=%d, error=%v", userID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /users/{userId}/points/redeem - Failed to redeem points: user_id=%d, error=%v",
				userID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /users/{userId}/points/redeem - Points redeemed: user_id=%d, points=%d, discount=%.2f",
		userID, req.Points, result.Discount)
	handlers.RespondJSON(w, http.StatusOK, result)
}
