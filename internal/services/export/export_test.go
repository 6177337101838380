package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/99sellers/leadgen/internal/kv"
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

type alertsRecorder struct {
	exports    int
	lastFormat string
}

func (a *alertsRecorder) ExportCompleted(_, _, format string, _ int) error {
	a.exports++
	a.lastFormat = format
	return nil
}

func premiumStatus() *models.SubscriptionStatusResponse {
	return &models.SubscriptionStatusResponse{
		PlanType: models.PlanPremium,
		Status:   models.StatusActive,
		Features: models.PlanFeatures{
			ExportLimit:    -1,
			FullDataAccess: true,
			ExportEnabled:  true,
		},
	}
}

func freeStatus() *models.SubscriptionStatusResponse {
	return &models.SubscriptionStatusResponse{
		PlanType: models.PlanFree,
		Status:   models.StatusActive,
		Features: models.PlanFeatures{ExportLimit: 0},
	}
}

func sampleLeads() []models.Lead {
	return []models.Lead{
		{ID: 1, OwnerName: "John Carter", Address: "12 Oak St", City: "Austin", State: "TX"},
		{ID: 2, OwnerName: "Mary Poole", Address: "5 Elm Ave", City: "Dallas", State: "TX"},
	}
}

func newTestExportService(leads *leadRepoMock, subs *statusProviderMock,
	alerts *alertsRecorder) (*ExportService, kv.Store) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := kv.NewMemory()
	svc := NewExportService(store, leads, subs, alerts, log).
		WithClock(func() time.Time { return fixedNow })
	return svc, store
}

func TestExportService_Run(t *testing.T) {
	user := &models.User{UID: "uid-1", Email: "user@example.com", Role: models.RoleUser}

	t.Run("премиум-пользователь получает CSV", func(t *testing.T) {
		leads := new(leadRepoMock)
		subs := new(statusProviderMock)
		alerts := &alertsRecorder{}
		subs.On("Status", mock.Anything, "uid-1").Return(premiumStatus(), nil).Once()
		leads.On("ListLeads", mock.Anything, maxExportRecords, 0).Return(sampleLeads(), nil).Once()

		svc, _ := newTestExportService(leads, subs, alerts)

		result, err := svc.Run(context.Background(), user, models.FormatCSV, true)
		require.NoError(t, err)
		require.True(t, result.Success)
		require.NotNil(t, result.File)
		assert.Contains(t, result.File.Name, ".csv")
		assert.Equal(t, 2, result.Entry.Records)
		assert.Equal(t, 1, alerts.exports)
		assert.Equal(t, "csv", alerts.lastFormat)

		history := svc.History(context.Background(), "uid-1")
		require.Len(t, history, 1)
		assert.Equal(t, "completed", history[0].Status)
	})

	t.Run("free-пользователю отказано", func(t *testing.T) {
		leads := new(leadRepoMock)
		subs := new(statusProviderMock)
		alerts := &alertsRecorder{}
		subs.On("Status", mock.Anything, "uid-1").Return(freeStatus(), nil).Once()
		leads.On("ListLeads", mock.Anything, maxExportRecords, 0).Return(sampleLeads(), nil).Once()

		svc, _ := newTestExportService(leads, subs, alerts)

		result, err := svc.Run(context.Background(), user, models.FormatCSV, true)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "upgrade")
		assert.Zero(t, alerts.exports)
	})

	t.Run("без принятия условий выгрузки нет", func(t *testing.T) {
		leads := new(leadRepoMock)
		subs := new(statusProviderMock)
		alerts := &alertsRecorder{}
		subs.On("Status", mock.Anything, "uid-1").Return(premiumStatus(), nil).Once()
		leads.On("ListLeads", mock.Anything, maxExportRecords, 0).Return(sampleLeads(), nil).Once()

		svc, _ := newTestExportService(leads, subs, alerts)

		result, err := svc.Run(context.Background(), user, models.FormatCSV, false)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "terms")
	})

	t.Run("истории пользователей изолированы", func(t *testing.T) {
		leads := new(leadRepoMock)
		subs := new(statusProviderMock)
		alerts := &alertsRecorder{}
		subs.On("Status", mock.Anything, "uid-1").Return(premiumStatus(), nil).Once()
		leads.On("ListLeads", mock.Anything, maxExportRecords, 0).Return(sampleLeads(), nil).Once()

		svc, _ := newTestExportService(leads, subs, alerts)

		result, err := svc.Run(context.Background(), user, models.FormatJSON, true)
		require.NoError(t, err)
		require.True(t, result.Success)

		assert.Len(t, svc.History(context.Background(), "uid-1"), 1)
		assert.Empty(t, svc.History(context.Background(), "uid-2"))
	})
}
