package get_points_summary

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/api/middleware"
	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/service/loyalty/models"
)

const (
	msgInvalidUserID = "некорректный ID пользователя"
	msgMissingUserID = "отсутствует ID пользователя"
	msgForbidden     = "доступ запрещен"
)

// SummaryWithTransactions сводка баллов вместе с историей операций
type SummaryWithTransactions struct {
	Summary      *models.SummaryResponse       `json:"summary"`
	Transactions []*models.TransactionResponse `json:"transactions,omitempty"`
}

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

// Handle GET /api/v1/users/{userId}/points
//
// С query параметром includeTransactions=true в ответ добавляется
// полная история операций
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Извлекаем userId из URL
	vars := mux.Vars(r)
	userIDStr := vars["userId"]

	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		h.logger.Warn("GET /users/{userId}/points - Invalid user ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidUserID)
		return
	}

	// Пользователь может смотреть только свой баланс
	authUserID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /users/{userId}/points - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}
	if authUserID != userID {
		h.logger.Warn("GET /users/{userId}/points - Access denied: user_id=%d, auth_user_id=%d",
			userID, authUserID)
		handlers.RespondForbidden(w, msgForbidden)
		return
	}

	// Получаем сводку
	summary, err := h.service.GetSummary(r.Context(), userID)
	if err != nil {
		h.logger.Error("GET /users/{userId}/points - Failed to get summary: user_id=%d, error=%v", userID, err)
		handlers.RespondInternalError(w)
		return
	}

	response := &SummaryWithTransactions{Summary: summary}

	if r.URL.Query().Get("includeTransactions") == "true" {
		lang := domain.ParseLanguage(r.URL.Query().Get("lang"))
		transactions, err := h.service.GetTransactions(r.Context(), userID, lang)
		if err != nil {
			h.logger.Error("GET /users/{userId}/points - Failed to get transactions: user_id=%d, error=%v",
				userID, err)
			handlers.RespondInternalError(w)
			return
		}
		response.Transactions = transactions
	}

	h.logger.Info("GET /users/{userId}/points - Summary retrieved: user_id=%d, available=%d",
		userID, summary.AvailablePoints)
	handlers.RespondJSON(w, http.StatusOK, response)
}
