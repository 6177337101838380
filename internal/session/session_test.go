package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99sellers/leadgen/internal/kv"
	"github.com/99sellers/leadgen/internal/models"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// fakeToken собирает трёхчастный токен с нужной полезной нагрузкой;
// подпись фиктивная — сессия её не проверяет.
func fakeToken(t *testing.T, id, email, role string) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload, err := json.Marshal(map[string]string{"id": id, "email": email, "role": role})
	require.NoError(t, err)
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

type backend struct {
	mux            http.ServeMux
	token          string
	statusFails    atomic.Bool
	loginCalls     atomic.Int32
	trialCalls     atomic.Int32
	statusCalls    atomic.Int32
	registerCalls  atomic.Int32
	statusResponse models.SubscriptionStatusResponse
}

func newBackend(t *testing.T) *backend {
	b := &backend{token: fakeToken(t, "uid-1", "user@x.com", "user")}
	end := now.AddDate(0, 0, 7)
	days := 7
	b.statusResponse = models.SubscriptionStatusResponse{
		ID:       42,
		PlanType: models.PlanPremium,
		Status:   models.StatusTrialing,
		Trial:    models.TrialInfo{EndDate: &end, DaysRemaining: &days},
		Features: models.PlanFeatures{ExportLimit: 50, FullDataAccess: true},
	}

	b.mux.HandleFunc("POST /api/v1/login", func(w http.ResponseWriter, r *http.Request) {
		b.loginCalls.Add(1)
		var req struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password == "wrong" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "Error", "error": "invalid credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"data":   map[string]string{"token": b.token, "userType": "public"},
		})
	})
	b.mux.HandleFunc("POST /api/v1/register", func(w http.ResponseWriter, _ *http.Request) {
		b.registerCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "OK"})
	})
	b.mux.HandleFunc("GET /api/v1/subscriptions/status", func(w http.ResponseWriter, _ *http.Request) {
		b.statusCalls.Add(1)
		if b.statusFails.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "Error", "error": "internal error"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "OK", "data": b.statusResponse})
	})
	b.mux.HandleFunc("POST /api/v1/subscriptions/trial/start", func(w http.ResponseWriter, _ *http.Request) {
		b.trialCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "OK"})
	})
	return b
}

func newTestSession(t *testing.T, b *backend) (*Session, *kv.Memory) {
	t.Helper()
	srv := httptest.NewServer(&b.mux)
	t.Cleanup(srv.Close)
	store := kv.NewMemory()
	sess := New(context.Background(), NewClient(srv.URL), store, testLogger()).
		WithClock(func() time.Time { return now })
	return sess, store
}

func TestLogin_Success(t *testing.T) {
	b := newBackend(t)
	sess, store := newTestSession(t, b)
	ctx := context.Background()

	res := sess.Login(ctx, "user@x.com", "secret")
	require.True(t, res.Success)
	assert.Equal(t, "public", res.UserType)

	assert.True(t, sess.IsAuthenticated())
	user := sess.User()
	require.NotNil(t, user)
	assert.Equal(t, "uid-1", user.UID)
	assert.Equal(t, "user@x.com", user.Email)
	assert.False(t, sess.IsAdmin())

	// Подписка подтянута и права выведены из неё.
	assert.True(t, sess.CanAccessPremium())
	assert.True(t, sess.IsTrialActive())
	assert.Equal(t, 7, sess.TrialDaysRemaining())

	// Личность и токен сохранены.
	var token string
	found, err := store.Get(ctx, kv.KeyAuthToken, &token)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, b.token, token)
}

// Успешный вход остаётся успешным, даже если статус подписки недоступен.
func TestLogin_StatusFetchFailureKeepsIdentity(t *testing.T) {
	b := newBackend(t)
	b.statusFails.Store(true)
	sess, _ := newTestSession(t, b)

	res := sess.Login(context.Background(), "user@x.com", "secret")
	require.True(t, res.Success)
	assert.True(t, sess.IsAuthenticated())

	// Запасной бесплатный тариф, премиум закрыт.
	sub := sess.Subscription()
	require.NotNil(t, sub)
	assert.Equal(t, models.PlanFree, sub.Plan)
	assert.False(t, sess.CanAccessPremium())
}

func TestLogin_ServerErrorMessageVerbatim(t *testing.T) {
	b := newBackend(t)
	sess, _ := newTestSession(t, b)

	res := sess.Login(context.Background(), "user@x.com", "wrong")
	assert.False(t, res.Success)
	assert.Equal(t, "invalid credentials", res.Message)
	assert.False(t, sess.IsAuthenticated())
}

func TestLogin_NetworkFailure(t *testing.T) {
	store := kv.NewMemory()
	sess := New(context.Background(), NewClient("http://127.0.0.1:1"), store, testLogger())

	res := sess.Login(context.Background(), "user@x.com", "secret")
	assert.False(t, res.Success)
	assert.Equal(t, "Unable to connect to server. Please try again.", res.Message)
}

func TestRegister_FullFlow(t *testing.T) {
	b := newBackend(t)
	sess, _ := newTestSession(t, b)

	res := sess.Register(context.Background(), RegisterData{
		Email:     "user@x.com",
		Password:  "secret",
		FirstName: "John",
		LastName:  "Doe",
	})
	require.True(t, res.Success)
	assert.Contains(t, res.Message, "Registration successful")

	assert.Equal(t, int32(1), b.registerCalls.Load())
	assert.Equal(t, int32(1), b.loginCalls.Load())
	assert.Equal(t, int32(1), b.trialCalls.Load())
	assert.True(t, sess.IsAuthenticated())
}

func TestLogout_Idempotent(t *testing.T) {
	b := newBackend(t)
	sess, store := newTestSession(t, b)
	ctx := context.Background()

	require.True(t, sess.Login(ctx, "user@x.com", "secret").Success)
	sess.Logout(ctx)

	assert.False(t, sess.IsAuthenticated())
	assert.Nil(t, sess.User())
	assert.Nil(t, sess.Subscription())
	assert.False(t, sess.CanAccessPremium())

	var token string
	found, err := store.Get(ctx, kv.KeyAuthToken, &token)
	require.NoError(t, err)
	assert.False(t, found)

	// Повторный выход в анонимном состоянии безвреден.
	sess.Logout(ctx)
	assert.Equal(t, StateAnonymous, sess.State())
}

func TestHydrate_FromCache(t *testing.T) {
	b := newBackend(t)
	srv := httptest.NewServer(&b.mux)
	t.Cleanup(srv.Close)
	ctx := context.Background()

	store := kv.NewMemory()
	require.NoError(t, store.Set(ctx, kv.KeyUser, models.User{UID: "uid-1", Email: "user@x.com", Role: models.RoleUser}))
	require.NoError(t, store.Set(ctx, kv.KeyAuthToken, b.token))

	sess := New(ctx, NewClient(srv.URL), store, testLogger()).
		WithClock(func() time.Time { return now })

	assert.True(t, sess.IsAuthenticated())
	assert.Equal(t, int32(1), b.statusCalls.Load())
	assert.True(t, sess.CanAccessPremium())
}

// Гидрация при недоступном сервере не блокирует запуск и сохраняет кэш.
func TestHydrate_OfflineKeepsCachedSubscription(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	token := fakeToken(t, "uid-1", "user@x.com", "user")
	require.NoError(t, store.Set(ctx, kv.KeyUser, models.User{UID: "uid-1", Email: "user@x.com"}))
	require.NoError(t, store.Set(ctx, kv.KeyAuthToken, token))
	require.NoError(t, store.Set(ctx, kv.KeySubscription, models.Subscription{
		Plan:   models.PlanBasic,
		Status: models.StatusActive,
	}))

	sess := New(ctx, NewClient("http://127.0.0.1:1"), store, testLogger()).
		WithClock(func() time.Time { return now })

	assert.True(t, sess.IsAuthenticated())
	sub := sess.Subscription()
	require.NotNil(t, sub)
	assert.Equal(t, models.PlanBasic, sub.Plan)
	assert.True(t, sess.CanAccessPremium())
}

func TestHydrate_NoCacheStaysAnonymous(t *testing.T) {
	b := newBackend(t)
	sess, _ := newTestSession(t, b)

	assert.Equal(t, StateAnonymous, sess.State())
	assert.False(t, sess.CanAccessPremium())
	assert.Equal(t, 0, sess.TrialDaysRemaining())
	assert.Equal(t, int32(0), b.statusCalls.Load())
}

func TestUpdateSubscription_OptimisticThenReconciled(t *testing.T) {
	b := newBackend(t)
	sess, _ := newTestSession(t, b)
	ctx := context.Background()

	require.True(t, sess.Login(ctx, "user@x.com", "secret").Success)

	renew := true
	sess.UpdateSubscription(ctx, SubscriptionPatch{AutoRenew: &renew})
	sub := sess.Subscription()
	require.NotNil(t, sub)
	assert.True(t, sub.AutoRenew)
	assert.True(t, sub.Dirty)

	// Refresh заменяет кэш целиком и сбрасывает оптимистичную правку.
	sess.RefreshSubscription(ctx)
	sub = sess.Subscription()
	require.NotNil(t, sub)
	assert.False(t, sub.AutoRenew)
	assert.False(t, sub.Dirty)
}

func TestUpdateUser_NoopWhenAnonymous(t *testing.T) {
	b := newBackend(t)
	sess, _ := newTestSession(t, b)

	first := "John"
	sess.UpdateUser(context.Background(), UserPatch{FirstName: &first})
	assert.Nil(t, sess.User())
}

func TestStartTrial(t *testing.T) {
	b := newBackend(t)
	sess, _ := newTestSession(t, b)
	ctx := context.Background()

	res := sess.StartTrial(ctx)
	assert.False(t, res.Success, "без входа пробный период не активируется")

	require.True(t, sess.Login(ctx, "user@x.com", "secret").Success)
	res = sess.StartTrial(ctx)
	assert.True(t, res.Success)
	assert.Equal(t, int32(1), b.trialCalls.Load())
}

func TestUserFromToken_MalformedPayload(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"не три части", "just-a-string"},
		{"не base64", "a.!!!.c"},
		{"не JSON", "a." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := userFromToken(tt.token, "fallback@x.com")
			require.NotNil(t, user)
			assert.Equal(t, "fallback@x.com", user.Email)
			assert.Equal(t, models.RoleUser, user.Role)
		})
	}
}
