// Package plans реализует HTTP-обработчик выдачи каталога тарифных планов.
package plans

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/99sellers/leadgen/internal/http/response"
	"github.com/99sellers/leadgen/internal/models"
)

// Handler обрабатывает запросы каталога планов.
type Handler struct {
	log   *slog.Logger
	plans func() []models.Plan // Источник каталога тарифов
}

// New создает новый Handler. plans обычно указывает на каталог
// сервиса подписок.
func New(log *slog.Logger, plans func() []models.Plan) *Handler {
	return &Handler{log: log, plans: plans}
}

// ServeHTTP godoc
// @Summary Каталог тарифных планов
// @Description Возвращает список тарифных планов с ценами и наборами возможностей.
// @Tags Subscriptions
// @Produce  json
// @Success 200 {object} map[string]any "Каталог планов"
// @Router /subscriptions/plans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.plans"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	catalog := h.plans()
	log.Info("plan catalog served", slog.Int("count", len(catalog)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"plans": catalog,
	}))
}
