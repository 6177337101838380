// Package services содержит бизнес-логику управления подписками:
// статус с кешированием, пробный период, оформление и отмена.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/99sellers/leadgen/internal/billing"
	"github.com/99sellers/leadgen/internal/cache"
	"github.com/99sellers/leadgen/internal/lib/sl"
	"github.com/99sellers/leadgen/internal/models"
	"github.com/99sellers/leadgen/internal/storage/repository"
)

// Ошибки бизнес-уровня подписок.
var (
	ErrTrialAlreadyUsed   = errors.New("trial already used")
	ErrUnknownPlan        = errors.New("unknown plan")
	ErrNoActiveSub        = errors.New("no active subscription")
	ErrPlanNotPurchasable = errors.New("plan cannot be purchased")
)

// SubscriptionRepository определяет методы для работы с подписками в хранилище.
type SubscriptionRepository interface {
	// GetActiveSubscriptionByUser возвращает действующую подписку пользователя.
	GetActiveSubscriptionByUser(ctx context.Context, userUID string) (*models.SubscriptionRecord, error)
	// GetSubscriptionRecord возвращает запись подписки по её ID.
	GetSubscriptionRecord(ctx context.Context, id int) (*models.SubscriptionRecord, error)
	// CreateSubscriptionRecord добавляет запись подписки и возвращает её ID.
	CreateSubscriptionRecord(ctx context.Context, rec models.SubscriptionRecord) (int, error)
	// UpdateSubscriptionStatus переводит подписку в новый статус.
	UpdateSubscriptionStatus(ctx context.Context, id int, status models.SubscriptionStatus, cancelReason string) (int, error)
}

// UserRepository определяет методы для работы с пользователями.
type UserRepository interface {
	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// MarkTrialUsed помечает, что пользователь активировал пробный период.
	MarkTrialUsed(ctx context.Context, userUID string) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// AlertPublisher описывает публикацию событий жизненного цикла подписок.
type AlertPublisher interface {
	TrialStarted(userUID, email string, trialEnd time.Time) error
	SubscriptionCreated(userUID, email, plan, cycle string) error
	SubscriptionCancelled(userUID, email, reason string) error
}

// SubscriptionService реализует бизнес-логику работы с подписками.
type SubscriptionService struct {
	repo    SubscriptionRepository
	users   UserRepository
	cache   Cache
	billing billing.Provider
	alerts  AlertPublisher
	log     *slog.Logger
	now     func() time.Time
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, users UserRepository, c Cache,
	provider billing.Provider, alerts AlertPublisher, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:    repo,
		users:   users,
		cache:   c,
		billing: provider,
		alerts:  alerts,
		log:     log,
		now:     time.Now,
	}
}

// WithClock подменяет источник времени, используется в тестах.
func (s *SubscriptionService) WithClock(now func() time.Time) *SubscriptionService {
	s.now = now
	return s
}

// Status возвращает статус подписки пользователя. Отсутствие записи
// трактуется как бесплатный тариф. Ответ кешируется.
func (s *SubscriptionService) Status(ctx context.Context, userUID string) (*models.SubscriptionStatusResponse, error) {
	cacheKey := cache.SubscriptionStatusKey(userUID)

	var cached models.SubscriptionStatusResponse
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read status cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	rec, err := s.repo.GetActiveSubscriptionByUser(ctx, userUID)
	var resp *models.SubscriptionStatusResponse
	switch {
	case err == nil:
		resp = s.statusFromRecord(rec)
	case errors.Is(err, repository.ErrNotFound):
		resp = defaultFreeStatus()
	default:
		return nil, err
	}

	if err := s.cache.Set(cacheKey, resp, cache.SubscriptionStatusTTL); err != nil {
		s.log.Warn("failed to cache status", slog.String("key", cacheKey), sl.Err(err))
	}
	return resp, nil
}

// StartTrial активирует пробный период premium на TrialDays дней.
// Повторная активация запрещена.
func (s *SubscriptionService) StartTrial(ctx context.Context, userUID string) (*models.SubscriptionStatusResponse, error) {
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if user.TrialUsed {
		return nil, ErrTrialAlreadyUsed
	}

	now := s.now().UTC()
	trialEnd := now.AddDate(0, 0, TrialDays)
	rec := models.SubscriptionRecord{
		UserUID:      userUID,
		Plan:         models.PlanPremium,
		Status:       models.StatusTrialing,
		BillingCycle: models.CycleMonthly,
		TrialStart:   &now,
		TrialEnd:     &trialEnd,
		AutoRenew:    false,
	}
	id, err := s.repo.CreateSubscriptionRecord(ctx, rec)
	if err != nil {
		return nil, err
	}
	rec.ID = id

	if err := s.users.MarkTrialUsed(ctx, userUID); err != nil {
		return nil, err
	}
	s.invalidateStatus(userUID)

	s.log.Info("trial started", slog.String("user_uid", userUID), slog.Int("subscription_id", id))
	if err := s.alerts.TrialStarted(userUID, user.Email, trialEnd); err != nil {
		s.log.Warn("failed to publish trial event", sl.Err(err))
	}

	return s.statusFromRecord(&rec), nil
}

// Create оформляет платную подписку через платёжного провайдера.
func (s *SubscriptionService) Create(ctx context.Context, userUID string, planType models.PlanType,
	cycle models.BillingCycle) (*models.SubscriptionStatusResponse, error) {
	plan, ok := PlanByType(planType)
	if !ok {
		return nil, ErrUnknownPlan
	}
	if plan.Type == models.PlanFree {
		return nil, ErrPlanNotPurchasable
	}

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, err
	}

	providerID, err := s.billing.CreateSubscription(ctx, user.Email, planType, cycle)
	if err != nil {
		return nil, fmt.Errorf("billing: %w", err)
	}

	now := s.now().UTC()
	var end time.Time
	if cycle == models.CycleYearly {
		end = now.AddDate(1, 0, 0)
	} else {
		end = now.AddDate(0, 1, 0)
	}
	rec := models.SubscriptionRecord{
		UserUID:      userUID,
		Plan:         planType,
		Status:       models.StatusActive,
		BillingCycle: cycle,
		StartDate:    &now,
		EndDate:      &end,
		AutoRenew:    true,
		ProviderID:   providerID,
	}
	id, err := s.repo.CreateSubscriptionRecord(ctx, rec)
	if err != nil {
		return nil, err
	}
	rec.ID = id
	s.invalidateStatus(userUID)

	s.log.Info("subscription created",
		slog.String("user_uid", userUID),
		slog.String("plan", string(planType)),
		slog.Int("subscription_id", id))
	if err := s.alerts.SubscriptionCreated(userUID, user.Email, string(planType), string(cycle)); err != nil {
		s.log.Warn("failed to publish create event", sl.Err(err))
	}

	return s.statusFromRecord(&rec), nil
}

// Cancel отменяет действующую подписку пользователя с указанием причины.
func (s *SubscriptionService) Cancel(ctx context.Context, userUID, reason string) error {
	rec, err := s.repo.GetActiveSubscriptionByUser(ctx, userUID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNoActiveSub
	}
	if err != nil {
		return err
	}

	if rec.ProviderID != "" {
		if err := s.billing.CancelSubscription(ctx, rec.ProviderID); err != nil {
			return fmt.Errorf("billing: %w", err)
		}
	}

	if _, err := s.repo.UpdateSubscriptionStatus(ctx, rec.ID, models.StatusCancelled, reason); err != nil {
		return err
	}
	s.invalidateStatus(userUID)

	s.log.Info("subscription cancelled",
		slog.String("user_uid", userUID),
		slog.Int("subscription_id", rec.ID))

	email := ""
	if user, err := s.users.GetUser(ctx, userUID); err == nil {
		email = user.Email
	}
	if err := s.alerts.SubscriptionCancelled(userUID, email, reason); err != nil {
		s.log.Warn("failed to publish cancel event", sl.Err(err))
	}
	return nil
}

// CancelRecord отменяет подписку по её идентификатору. Используется
// админской поверхностью, когда подписка известна по записи, а не по
// пользователю.
func (s *SubscriptionService) CancelRecord(ctx context.Context, id int, reason string) error {
	rec, err := s.repo.GetSubscriptionRecord(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNoActiveSub
	}
	if err != nil {
		return err
	}

	if rec.ProviderID != "" {
		if err := s.billing.CancelSubscription(ctx, rec.ProviderID); err != nil {
			return fmt.Errorf("billing: %w", err)
		}
	}

	if _, err := s.repo.UpdateSubscriptionStatus(ctx, rec.ID, models.StatusCancelled, reason); err != nil {
		return err
	}
	s.invalidateStatus(rec.UserUID)

	s.log.Info("subscription cancelled by admin",
		slog.String("user_uid", rec.UserUID),
		slog.Int("subscription_id", rec.ID))

	email := ""
	if user, err := s.users.GetUser(ctx, rec.UserUID); err == nil {
		email = user.Email
	}
	if err := s.alerts.SubscriptionCancelled(rec.UserUID, email, reason); err != nil {
		s.log.Warn("failed to publish cancel event", sl.Err(err))
	}
	return nil
}

func (s *SubscriptionService) invalidateStatus(userUID string) {
	key := cache.SubscriptionStatusKey(userUID)
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to invalidate status cache", slog.String("key", key), sl.Err(err))
	}
}

// statusFromRecord собирает ответ статуса из записи хранилища,
// подставляя возможности тарифа из каталога. Для пробного периода
// количество оставшихся дней вычисляется на сервере.
func (s *SubscriptionService) statusFromRecord(rec *models.SubscriptionRecord) *models.SubscriptionStatusResponse {
	plan, ok := PlanByType(rec.Plan)
	if !ok {
		plan, _ = PlanByType(models.PlanFree)
	}

	resp := &models.SubscriptionStatusResponse{
		ID:           rec.ID,
		PlanType:     rec.Plan,
		Status:       rec.Status,
		BillingCycle: rec.BillingCycle,
		StartDate:    rec.StartDate,
		EndDate:      rec.EndDate,
		Price:        PlanPrice(plan, rec.BillingCycle),
		AutoRenew:    rec.AutoRenew,
		Features:     plan.Features,
	}

	if rec.Status == models.StatusTrialing {
		resp.Trial = models.TrialInfo{
			StartDate: rec.TrialStart,
			EndDate:   rec.TrialEnd,
		}
		if rec.TrialEnd != nil {
			days := int(math.Ceil(rec.TrialEnd.Sub(s.now().UTC()).Hours() / 24))
			if days < 0 {
				days = 0
			}
			resp.Trial.DaysRemaining = &days
		}
	}
	return resp
}

// defaultFreeStatus — статус пользователя без записи подписки.
func defaultFreeStatus() *models.SubscriptionStatusResponse {
	plan, _ := PlanByType(models.PlanFree)
	return &models.SubscriptionStatusResponse{
		PlanType:     models.PlanFree,
		Status:       models.StatusActive,
		BillingCycle: models.CycleMonthly,
		Features:     plan.Features,
	}
}
