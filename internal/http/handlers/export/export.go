// Package export реализует HTTP-обработчик серверной выгрузки лидов
// для аутентифицированного пользователя.
package export

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	exportpipe "github.com/99sellers/leadgen/internal/export"
	"github.com/99sellers/leadgen/internal/http/middlewarectx"
	"github.com/99sellers/leadgen/internal/http/response"
	"github.com/99sellers/leadgen/internal/lib/sl"
	"github.com/99sellers/leadgen/internal/models"
)

// exportsTotal считает завершённые выгрузки по форматам.
var exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "leadgen_exports_total",
	Help: "Total number of completed lead exports.",
}, []string{"format"})

// Request — структура входных данных выгрузки.
type Request struct {
	Format      string `json:"format" validate:"required,oneof=csv json excel"`
	AcceptTerms bool   `json:"acceptTerms"`
}

// Handler обрабатывает запросы выгрузки лидов.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сервис серверных выгрузок
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс серверного конвейера экспорта.
type Service interface {
	Run(ctx context.Context, user *models.User, format models.ExportFormat,
		acceptTerms bool) (exportpipe.Result, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Выгрузка лидов
// @Description Формирует файл выгрузки лидов в запрошенном формате с водяными знаками лицензии.
// @Tags Export
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Формат выгрузки"
// @Success 200 {object} map[string]any "Файл выгрузки в base64"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Выгрузка недоступна на текущем тарифе"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /export [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.export"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.Any("request", req))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	email, _ := r.Context().Value(middlewarectx.UserEmail).(string)
	role, _ := r.Context().Value(middlewarectx.Role).(string)
	user := &models.User{UID: userUID, Email: email, Role: role}

	result, err := h.service.Run(r.Context(), user, models.ExportFormat(req.Format), req.AcceptTerms)
	if err != nil {
		log.Error("export failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not export leads"))
		return
	}
	if !result.Success {
		log.Info("export refused", slog.String("reason", result.Message))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error(result.Message))
		return
	}

	exportsTotal.WithLabelValues(req.Format).Inc()
	log.Info("export completed",
		slog.String("user_uid", userUID),
		slog.String("file", result.File.Name))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"name":        result.File.Name,
		"contentType": result.File.ContentType,
		"content":     base64.StdEncoding.EncodeToString(result.File.Data),
		"records":     result.Entry.Records,
	}))
}
