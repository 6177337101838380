package status

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/99sellers/leadgen/internal/http/middlewarectx"
	"github.com/99sellers/leadgen/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Status(ctx context.Context, userUID string) (*models.SubscriptionStatusResponse, error) {
	args := m.Called(ctx, userUID)
	resp, _ := args.Get(0).(*models.SubscriptionStatusResponse)
	return resp, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestStatusHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		userUID        string
		mockResp       *models.SubscriptionStatusResponse
		mockErr        error
		wantStatusCode int
		wantStatus     string
		wantPlan       string
	}{
		{
			name:    "active premium subscription",
			userUID: "uid-1",
			mockResp: &models.SubscriptionStatusResponse{
				PlanType: models.PlanPremium,
				Status:   models.StatusActive,
			},
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
			wantPlan:       "premium",
		},
		{
			name:           "missing user uid",
			userUID:        "",
			wantStatusCode: http.StatusUnauthorized,
			wantStatus:     "Error",
		},
		{
			name:           "service error",
			userUID:        "uid-1",
			mockErr:        errors.New("db down"),
			wantStatusCode: http.StatusInternalServerError,
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(ServiceMock)
			if tt.mockResp != nil || tt.mockErr != nil {
				serviceMock.On("Status", mock.Anything, tt.userUID).
					Return(tt.mockResp, tt.mockErr).Once()
			}

			handler := New(newNoopLogger(), serviceMock)

			req := httptest.NewRequest(http.MethodGet, "/subscriptions/status", nil)
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
			if tt.userUID != "" {
				ctx = context.WithValue(ctx, middlewarectx.UserUID, tt.userUID)
			}
			req = req.WithContext(ctx)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantStatus, got["status"])

			if tt.wantPlan != "" {
				data, ok := got["data"].(map[string]any)
				assert.True(t, ok)
				assert.Equal(t, tt.wantPlan, data["planType"])
			}
			serviceMock.AssertExpectations(t)
		})
	}
}
