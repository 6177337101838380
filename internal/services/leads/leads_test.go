package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/99sellers/leadgen/internal/models"
)

var fixedNow = time.Date(2026, 4, 1, 10, 30, 0, 0, time.UTC)

type leadRepoMock struct{ mock.Mock }

func (m *leadRepoMock) ListLeads(ctx context.Context, limit, offset int) ([]models.Lead, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Lead), args.Error(1)
}

type statusProviderMock struct{ mock.Mock }

func (m *statusProviderMock) Status(ctx context.Context, userUID string) (*models.SubscriptionStatusResponse, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionStatusResponse), args.Error(1)
}

func premiumStatus() *models.SubscriptionStatusResponse {
	return &models.SubscriptionStatusResponse{
		PlanType: models.PlanPremium,
		Status:   models.StatusActive,
		Features: models.PlanFeatures{FullDataAccess: true},
	}
}

func freeStatus() *models.SubscriptionStatusResponse {
	return &models.SubscriptionStatusResponse{
		PlanType: models.PlanFree,
		Status:   models.StatusActive,
	}
}

func sampleLeads() []models.Lead {
	return []models.Lead{
		{
			ID:        1,
			OwnerName: "John Carter",
			Address:   "123 Main Street Apt 5 Dallas TX",
			Phone:     "(214) 555-1234",
			Email:     "john@example.com",
			City:      "Dallas",
			State:     "TX",
		},
	}
}

func newTestLeadsService(leads *leadRepoMock, subs *statusProviderMock) *LeadsService {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLeadsService(leads, subs, log).
		WithClock(func() time.Time { return fixedNow })
}

func TestLeadsService_List(t *testing.T) {
	t.Run("премиум-пользователь видит данные без маскирования", func(t *testing.T) {
		leads := new(leadRepoMock)
		subs := new(statusProviderMock)
		subs.On("Status", mock.Anything, "uid-1").Return(premiumStatus(), nil).Once()
		leads.On("ListLeads", mock.Anything, 20, 0).Return(sampleLeads(), nil).Once()

		svc := newTestLeadsService(leads, subs)

		page, err := svc.List(context.Background(), "uid-1", 20, 0)
		require.NoError(t, err)
		require.True(t, page.FullAccess)
		require.Len(t, page.Leads, 1)
		assert.Equal(t, "John Carter", page.Leads[0].OwnerName)
		assert.Equal(t, "john@example.com", page.Leads[0].Email)
	})

	t.Run("free-пользователь получает маскированные контакты", func(t *testing.T) {
		leads := new(leadRepoMock)
		subs := new(statusProviderMock)
		subs.On("Status", mock.Anything, "uid-1").Return(freeStatus(), nil).Once()
		leads.On("ListLeads", mock.Anything, 20, 0).Return(sampleLeads(), nil).Once()

		svc := newTestLeadsService(leads, subs)

		page, err := svc.List(context.Background(), "uid-1", 20, 0)
		require.NoError(t, err)
		require.False(t, page.FullAccess)
		require.Len(t, page.Leads, 1)
		assert.Equal(t, "J*** C*****", page.Leads[0].OwnerName)
		assert.Equal(t, "**** **** Dallas TX", page.Leads[0].Address)
		assert.Equal(t, "(***)***-1234", page.Leads[0].Phone)
		assert.Equal(t, "j****@example.com", page.Leads[0].Email)
		// Неперсональные поля не трогаются.
		assert.Equal(t, "Dallas", page.Leads[0].City)
	})

	t.Run("ошибка статуса подписки не блокирует выдачу", func(t *testing.T) {
		leads := new(leadRepoMock)
		subs := new(statusProviderMock)
		subs.On("Status", mock.Anything, "uid-1").Return(nil, errors.New("redis down")).Once()
		leads.On("ListLeads", mock.Anything, 20, 0).Return(sampleLeads(), nil).Once()

		svc := newTestLeadsService(leads, subs)

		page, err := svc.List(context.Background(), "uid-1", 20, 0)
		require.NoError(t, err)
		assert.False(t, page.FullAccess)
		assert.Equal(t, "j****@example.com", page.Leads[0].Email)
	})

	t.Run("ошибка хранилища лидов возвращается", func(t *testing.T) {
		leads := new(leadRepoMock)
		subs := new(statusProviderMock)
		subs.On("Status", mock.Anything, "uid-1").Return(premiumStatus(), nil).Once()
		leads.On("ListLeads", mock.Anything, 20, 0).Return(nil, errors.New("db down")).Once()

		svc := newTestLeadsService(leads, subs)

		_, err := svc.List(context.Background(), "uid-1", 20, 0)
		require.Error(t, err)
	})
}
