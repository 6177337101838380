// Package services содержит выдачу каталога лидов с маскированием
// персональных данных для пользователей без полного доступа.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/99sellers/leadgen/internal/entitlement"
	"github.com/99sellers/leadgen/internal/lib/mask"
	"github.com/99sellers/leadgen/internal/lib/sl"
	"github.com/99sellers/leadgen/internal/models"
)

// LeadRepository описывает чтение каталога лидов.
type LeadRepository interface {
	ListLeads(ctx context.Context, limit, offset int) ([]models.Lead, error)
}

// SubscriptionStatusProvider отдаёт текущий статус подписки пользователя.
type SubscriptionStatusProvider interface {
	Status(ctx context.Context, userUID string) (*models.SubscriptionStatusResponse, error)
}

// LeadsService выдаёт страницы лидов. Контакты и адреса маскируются,
// если подписка пользователя не даёт премиум-доступа.
type LeadsService struct {
	leads LeadRepository
	subs  SubscriptionStatusProvider
	log   *slog.Logger
	now   func() time.Time
}

// NewLeadsService создаёт LeadsService с заданными зависимостями.
func NewLeadsService(leads LeadRepository, subs SubscriptionStatusProvider, log *slog.Logger) *LeadsService {
	return &LeadsService{
		leads: leads,
		subs:  subs,
		log:   log,
		now:   time.Now,
	}
}

// WithClock подменяет источник времени для детерминированных тестов.
func (s *LeadsService) WithClock(now func() time.Time) *LeadsService {
	s.now = now
	return s
}

// Page — страница выдачи лидов. FullAccess сообщает, были ли данные
// отданы без маскирования.
type Page struct {
	Leads      []models.Lead `json:"leads"`
	FullAccess bool          `json:"fullAccess"`
}

// List возвращает страницу лидов для пользователя. Ошибка чтения статуса
// подписки не прерывает выдачу: данные отдаются маскированными.
func (s *LeadsService) List(ctx context.Context, userUID string, limit, offset int) (*Page, error) {
	const op = "services.leads.List"

	unmasked := false
	status, err := s.subs.Status(ctx, userUID)
	if err != nil {
		s.log.Warn("failed to resolve subscription status, serving masked leads", sl.Err(err))
	} else {
		sub := status.ToSubscription()
		unmasked = entitlement.CanAccessPremium(&sub, s.now())
	}

	leads, err := s.leads.ListLeads(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !unmasked {
		for i := range leads {
			leads[i] = maskLead(leads[i])
		}
	}
	return &Page{Leads: leads, FullAccess: unmasked}, nil
}

// maskLead затирает персональные поля лида по правилам их вида.
func maskLead(l models.Lead) models.Lead {
	l.OwnerName = mask.Value(l.OwnerName, mask.KindName, false)
	l.Address = mask.Value(l.Address, mask.KindAddress, false)
	l.Phone = mask.Value(l.Phone, mask.KindPhone, false)
	l.Email = mask.Value(l.Email, mask.KindEmail, false)
	return l
}
