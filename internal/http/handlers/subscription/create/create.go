// Package create реализует HTTP-обработчик оформления платной подписки.
//
// Handler принимает JSON-запрос с планом и периодом оплаты, валидирует его,
// извлекает идентификатор пользователя из контекста, оформляет подписку через
// сервис и возвращает собранный статус подписки в JSON-формате.
//
// В случае ошибок формируются соответствующие HTTP-ответы с описанием проблемы.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/99sellers/leadgen/internal/http/middlewarectx"
	"github.com/99sellers/leadgen/internal/http/response"
	"github.com/99sellers/leadgen/internal/lib/sl"
	"github.com/99sellers/leadgen/internal/models"
	services "github.com/99sellers/leadgen/internal/services/subscription"
)

// Request — структура входных данных для оформления подписки.
// PlanIndex — идентификатор плана в каталоге тарифов.
type Request struct {
	PlanIndex    int    `json:"planIndex" validate:"required,min=1"`
	BillingCycle string `json:"billingCycle" validate:"required,oneof=monthly yearly"`
}

// Handler управляет HTTP-запросами на оформление подписок.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики подписок
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики оформления подписки.
type Service interface {
	Create(ctx context.Context, userUID string, planType models.PlanType,
		cycle models.BillingCycle) (*models.SubscriptionStatusResponse, error)
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
// @Summary Оформить подписку
// @Description Оформляет платную подписку для текущего пользователя через платёжного провайдера.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "План и период оплаты"
// @Success 200 {object} map[string]any "Подписка оформлена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или план"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при оформлении подписки"
// @Router /subscriptions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.create"
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
	log.Info("all fields are validated")

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	plan, ok := services.PlanByID(req.PlanIndex)
	if !ok {
		log.Error("unknown plan index", slog.Int("plan_index", req.PlanIndex))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("unknown plan"))
		return
	}

	status, err := h.service.Create(r.Context(), userUID, plan.Type, models.BillingCycle(req.BillingCycle))
	if err != nil {
		if errors.Is(err, services.ErrPlanNotPurchasable) || errors.Is(err, services.ErrUnknownPlan) {
			log.Error("plan cannot be purchased", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("plan cannot be purchased"))
			return
		}
		log.Error("failed to create subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create subscription"))
		return
	}

	log.Info("subscription created",
		slog.String("user_uid", userUID),
		slog.String("plan", string(plan.Type)))
	render.JSON(w, r, response.StatusOKWithData(status))
}
