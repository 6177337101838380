// Package history реализует HTTP-обработчик истории выгрузок пользователя.
package history

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/99sellers/leadgen/internal/http/middlewarectx"
	"github.com/99sellers/leadgen/internal/http/response"
	"github.com/99sellers/leadgen/internal/models"
)

// Handler обрабатывает запросы истории выгрузок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение истории выгрузок.
type Service interface {
	History(ctx context.Context, userUID string) []models.ExportHistoryEntry
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary История выгрузок
// @Description Возвращает список завершённых выгрузок текущего пользователя
// @Tags export
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /export/history [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.export.history.New"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || uid == "" {
		log.Error("missing user uid in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	entries := h.service.History(r.Context(), uid)
	log.Info("export history fetched", slog.Int("entries", len(entries)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"history": entries,
	}))
}
