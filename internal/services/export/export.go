// Package services содержит серверную обвязку конвейера экспорта:
// сборку выгрузки для аутентифицированного пользователя из его
// подписки, каталога лидов и персональной истории экспортов.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/99sellers/leadgen/internal/export"
	"github.com/99sellers/leadgen/internal/kv"
	"github.com/99sellers/leadgen/internal/lib/sl"
	"github.com/99sellers/leadgen/internal/models"
)

// maxExportRecords ограничивает размер одной выгрузки.
const maxExportRecords = 1000

// LeadRepository отдаёт лиды для выгрузки.
type LeadRepository interface {
	ListLeads(ctx context.Context, limit, offset int) ([]models.Lead, error)
}

// SubscriptionStatusProvider отдаёт собранный статус подписки пользователя.
type SubscriptionStatusProvider interface {
	Status(ctx context.Context, userUID string) (*models.SubscriptionStatusResponse, error)
}

// AlertPublisher публикует событие завершённого экспорта.
type AlertPublisher interface {
	ExportCompleted(userUID, email, format string, records int) error
}

// ExportService выполняет серверные выгрузки. История и флаг принятия
// условий хранятся в kv-хранилище под префиксом пользователя.
type ExportService struct {
	store  kv.Store
	leads  LeadRepository
	subs   SubscriptionStatusProvider
	alerts AlertPublisher
	log    *slog.Logger
	now    func() time.Time
}

// NewExportService создаёт ExportService.
func NewExportService(store kv.Store, leads LeadRepository, subs SubscriptionStatusProvider,
	alerts AlertPublisher, log *slog.Logger) *ExportService {
	return &ExportService{
		store:  store,
		leads:  leads,
		subs:   subs,
		alerts: alerts,
		log:    log,
		now:    time.Now,
	}
}

// WithClock подменяет источник времени для детерминированных выгрузок.
func (s *ExportService) WithClock(now func() time.Time) *ExportService {
	s.now = now
	return s
}

// Run выполняет выгрузку для пользователя. acceptTerms фиксирует
// принятие условий лицензии перед запуском конвейера.
func (s *ExportService) Run(ctx context.Context, user *models.User, format models.ExportFormat,
	acceptTerms bool) (export.Result, error) {
	const op = "services.export.Run"

	status, err := s.subs.Status(ctx, user.UID)
	if err != nil {
		return export.Result{}, fmt.Errorf("%s: %w", op, err)
	}
	sub := status.ToSubscription()

	leads, err := s.leads.ListLeads(ctx, maxExportRecords, 0)
	if err != nil {
		return export.Result{}, fmt.Errorf("%s: %w", op, err)
	}

	store := kv.Prefixed(s.store, "user:"+user.UID+":")
	exporter := export.New(store, s.log).WithClock(s.now)

	if acceptTerms {
		if err := exporter.AcceptTerms(ctx); err != nil {
			return export.Result{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	result := exporter.Export(ctx, export.Request{
		Leads:        leads,
		Format:       format,
		User:         user,
		Subscription: &sub,
	})
	if result.Success {
		if err := s.alerts.ExportCompleted(user.UID, user.Email, string(format), result.Entry.Records); err != nil {
			s.log.Warn("failed to publish export event", sl.Err(err))
		}
	}
	return result, nil
}

// History возвращает историю выгрузок пользователя.
func (s *ExportService) History(ctx context.Context, userUID string) []models.ExportHistoryEntry {
	store := kv.Prefixed(s.store, "user:"+userUID+":")
	return export.New(store, s.log).History(ctx)
}
