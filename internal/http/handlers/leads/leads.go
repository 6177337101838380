// Package leads реализует HTTP-обработчик выдачи каталога лидов.
package leads

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/99sellers/leadgen/internal/http/middlewarectx"
	"github.com/99sellers/leadgen/internal/http/response"
	"github.com/99sellers/leadgen/internal/lib/sl"
	leadsservice "github.com/99sellers/leadgen/internal/services/leads"
)

// defaultPageSize — размер страницы выдачи по умолчанию.
const defaultPageSize = 20

// Handler обрабатывает запросы каталога лидов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает выдачу страницы лидов.
type Service interface {
	List(ctx context.Context, userUID string, limit, offset int) (*leadsservice.Page, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Каталог лидов
// @Description Возвращает страницу лидов; контакты маскируются без премиум-доступа
// @Tags leads
// @Produce json
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /leads [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.leads.New"
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

	limit := queryInt(r, "limit", defaultPageSize)
	offset := queryInt(r, "offset", 0)

	page, err := h.service.List(r.Context(), uid, limit, offset)
	if err != nil {
		log.Error("failed to list leads", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list leads"))
		return
	}

	log.Info("leads listed",
		slog.Int("count", len(page.Leads)),
		slog.Bool("full_access", page.FullAccess))
	render.JSON(w, r, response.StatusOKWithData(page))
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
