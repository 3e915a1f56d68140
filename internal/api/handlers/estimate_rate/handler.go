package estimate_rate

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/service/rates"
)

const (
	msgInvalidDays  = "некорректное количество дней"
	msgInvalidRates = "некорректные тарифы"
)

type Handler struct {
	logger Logger
}

func NewHandler(logger Logger) *Handler {
	return &Handler{
		logger: logger,
	}
}

// Handle GET /api/v1/rates/estimate
//
// Query параметры: days, dailyRate, weeklyRate, monthlyRate, lang (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	days, err := strconv.Atoi(query.Get("days"))
	if err != nil || days <= 0 {
		h.logger.Warn("GET /rates/estimate - Invalid days: %q", query.Get("days"))
		handlers.RespondBadRequest(w, msgInvalidDays)
		return
	}

	dailyRate, err1 := strconv.ParseFloat(query.Get("dailyRate"), 64)
	weeklyRate, err2 := strconv.ParseFloat(query.Get("weeklyRate"), 64)
	monthlyRate, err3 := strconv.ParseFloat(query.Get("monthlyRate"), 64)
	if err1 != nil || err2 != nil || err3 != nil || dailyRate < 0 || weeklyRate < 0 || monthlyRate < 0 {
		h.logger.Warn("GET /rates/estimate - Invalid rates: daily=%q, weekly=%q, monthly=%q",
			query.Get("dailyRate"), query.Get("weeklyRate"), query.Get("monthlyRate"))
		handlers.RespondBadRequest(w, msgInvalidRates)
		return
	}

	lang := domain.ParseLanguage(query.Get("lang"))

	breakdown, err := rates.ComputeOptimalCost(days, dailyRate, weeklyRate, monthlyRate, lang)
	if err != nil {
		if errors.Is(err, rates.ErrInvalidDayCount) {
			handlers.RespondBadRequest(w, msgInvalidDays)
			return
		}
		h.logger.Error("GET /rates/estimate - Failed to compute breakdown: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	comparison, err := rates.CompareStandardVsOptimized(days, dailyRate, weeklyRate, monthlyRate, lang)
	if err != nil {
		h.logger.Error("GET /rates/estimate - Failed to compute comparison: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /rates/estimate - Estimated: days=%d, total=%.2f, savings=%.2f",
		days, breakdown.TotalCost, comparison.Savings)
	handlers.RespondJSON(w, http.StatusOK, fromDomain(days, breakdown, comparison))
}
