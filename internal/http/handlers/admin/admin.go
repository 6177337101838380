// Package admin реализует единый HTTP-обработчик административной
// CRUD-поверхности над ресурсами каталога и учётными записями.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/99sellers/leadgen/internal/http/response"
	"github.com/99sellers/leadgen/internal/lib/sl"
	services "github.com/99sellers/leadgen/internal/services/admin"
)

// defaultPageSize — размер страницы списков по умолчанию.
const defaultPageSize = 20

// Handler обрабатывает административные CRUD-запросы.
type Handler struct {
	log     *slog.Logger // Логгер для записи операций и ошибок
	service Service      // Сервис админских операций
}

// Service описывает интерфейс админской бизнес-логики.
type Service interface {
	List(ctx context.Context, resource string, limit, offset int) (any, error)
	Create(ctx context.Context, resource string, payload json.RawMessage) (int, error)
	Update(ctx context.Context, resource, id string, payload json.RawMessage) (int, error)
	Delete(ctx context.Context, resource, id string) (int, error)
	Stats(ctx context.Context, resource string) (map[string]any, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) requestLog(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("resource", chi.URLParam(r, "resource")),
	)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrUnknownResource):
		log.Error("unknown resource", sl.Err(err))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("unknown resource"))
	case errors.Is(err, services.ErrInvalidID):
		log.Error("invalid resource id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid resource id"))
	default:
		log.Error("admin operation failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
	}
}

// List godoc
// @Summary Список записей ресурса
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param resource path string true "Имя ресурса"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Страница записей"
// @Failure 404 {object} response.ErrorResponse "Неизвестный ресурс"
// @Router /admin/{resource} [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.list"
	log := h.requestLog(r, op)

	limit := queryInt(r, "limit", defaultPageSize)
	offset := queryInt(r, "offset", 0)

	result, err := h.service.List(r.Context(), chi.URLParam(r, "resource"), limit, offset)
	if err != nil {
		h.writeServiceError(w, r, log, err)
		return
	}

	log.Info("resource listed", slog.Int("limit", limit), slog.Int("offset", offset))
	render.JSON(w, r, response.StatusOKWithData(result))
}

// Create godoc
// @Summary Создать запись ресурса
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param resource path string true "Имя ресурса"
// @Success 200 {object} map[string]any "Идентификатор созданной записи"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Неизвестный ресурс"
// @Router /admin/{resource} [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.create"
	log := h.requestLog(r, op)

	payload, err := io.ReadAll(r.Body)
	if err != nil || len(payload) == 0 || !json.Valid(payload) {
		log.Error("invalid request body")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	id, err := h.service.Create(r.Context(), chi.URLParam(r, "resource"), payload)
	if err != nil {
		h.writeServiceError(w, r, log, err)
		return
	}

	log.Info("resource created", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id": id,
	}))
}

// Update godoc
// @Summary Обновить запись ресурса
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param resource path string true "Имя ресурса"
// @Param id path string true "Идентификатор записи"
// @Success 200 {object} map[string]any "Число обновлённых записей"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или идентификатор"
// @Failure 404 {object} response.ErrorResponse "Неизвестный ресурс"
// @Router /admin/{resource}/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.update"
	log := h.requestLog(r, op)

	payload, err := io.ReadAll(r.Body)
	if err != nil || len(payload) == 0 || !json.Valid(payload) {
		log.Error("invalid request body")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	affected, err := h.service.Update(r.Context(),
		chi.URLParam(r, "resource"), chi.URLParam(r, "id"), payload)
	if err != nil {
		h.writeServiceError(w, r, log, err)
		return
	}

	log.Info("resource updated", slog.Int("affected", affected))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"updated": affected,
	}))
}

// Delete godoc
// @Summary Удалить запись ресурса
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param resource path string true "Имя ресурса"
// @Param id path string true "Идентификатор записи"
// @Success 200 {object} map[string]any "Число удалённых записей"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 404 {object} response.ErrorResponse "Неизвестный ресурс"
// @Router /admin/{resource}/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.delete"
	log := h.requestLog(r, op)

	affected, err := h.service.Delete(r.Context(),
		chi.URLParam(r, "resource"), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, log, err)
		return
	}

	log.Info("resource deleted", slog.Int("affected", affected))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"deleted": affected,
	}))
}

// Stats godoc
// @Summary Сводка по ресурсу
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param resource path string true "Имя ресурса"
// @Success 200 {object} map[string]any "Сводка"
// @Failure 404 {object} response.ErrorResponse "Неизвестный ресурс"
// @Router /admin/{resource}/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.stats"
	log := h.requestLog(r, op)

	stats, err := h.service.Stats(r.Context(), chi.URLParam(r, "resource"))
	if err != nil {
		h.writeServiceError(w, r, log, err)
		return
	}

	log.Info("resource stats served")
	render.JSON(w, r, response.StatusOKWithData(stats))
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
