package history_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/99sellers/leadgen/internal/http/handlers/export/history"
	"github.com/99sellers/leadgen/internal/http/middlewarectx"
	"github.com/99sellers/leadgen/internal/models"
)

type ExportServiceMock struct {
	mock.Mock
}

func (m *ExportServiceMock) History(ctx context.Context, userUID string) []models.ExportHistoryEntry {
	args := m.Called(ctx, userUID)
	return args.Get(0).([]models.ExportHistoryEntry)
}

func TestHistoryHandler(t *testing.T) {
	entries := []models.ExportHistoryEntry{
		{ID: 1712000000, Name: "leads_2026-04-01.csv", Format: models.FormatCSV, Records: 3, Status: "completed"},
	}

	cases := []struct {
		name         string
		userUID      string
		expectedCode int
		wantEntries  int
	}{
		{
			name:         "успешное получение истории",
			userUID:      "uid-1",
			expectedCode: http.StatusOK,
			wantEntries:  1,
		},
		{
			name:         "отсутствие пользователя в контексте",
			userUID:      "",
			expectedCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(ExportServiceMock)
			if tt.userUID != "" {
				serviceMock.On("History", mock.Anything, tt.userUID).Return(entries)
			}

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			handler := history.New(logger, serviceMock)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/export/history", nil)
			if tt.userUID != "" {
				ctx := context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID)
				req = req.WithContext(ctx)
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			require.Equal(t, tt.expectedCode, rr.Code)

			if tt.expectedCode == http.StatusOK {
				var resp struct {
					Status string `json:"status"`
					Data   struct {
						History []models.ExportHistoryEntry `json:"history"`
					} `json:"data"`
				}
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, "OK", resp.Status)
				assert.Len(t, resp.Data.History, tt.wantEntries)
			}
			serviceMock.AssertExpectations(t)
		})
	}
}
