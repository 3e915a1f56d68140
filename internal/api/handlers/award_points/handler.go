package award_points

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/service/loyalty"
)

const (
	msgInvalidUserID      = "некорректный ID пользователя"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidInput       = "некорректные входные данные"
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

// Handle POST /api/v1/users/{userId}/points/award
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Извлекаем userId из URL
	vars := mux.Vars(r)
	userIDStr := vars["userId"]

	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		h.logger.Warn("POST /users/{userId}/points/award - Invalid user ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidUserID)
		return
	}

	// Декодируем body
	var req AwardPointsRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /users/{userId}/points/award - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	// Начисляем баллы
	result, err := h.service.Award(r.Context(), req.ToServiceRequest(userID))
	if err != nil {
		if errors.Is(err, loyalty.ErrInvalidInput) {
			h.logger.Warn("POST /users/{userId}/points/award - Invalid input: user_id=%d, error=%v", userID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)
			return
		}
		h.logger.Error("POST /users/{userId}/points/award - Failed to award points: user_id=%d, error=%v",
			userID, err)
		handlers.RespondInternalError(w)
		return
	}

	// Повторное начисление за то же бронирование - не ошибка
	status := http.StatusCreated
	if result.AlreadyAwarded {
		status = http.StatusOK
	}

	h.logger.Info("POST /users/{userId}/points/award - Points awarded: user_id=%d, points=%d, already_awarded=%t",
		userID, req.Points, result.AlreadyAwarded)
	handlers.RespondJSON(w, status, result)
}
