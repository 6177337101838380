package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/99sellers/leadgen/internal/entitlement"
	"github.com/99sellers/leadgen/internal/kv"
	"github.com/99sellers/leadgen/internal/lib/sl"
	"github.com/99sellers/leadgen/internal/models"
)

// State — этап жизненного цикла сессии.
type State string

// Состояния сессии.
const (
	StateAnonymous     State = "anonymous"
	StateHydrating     State = "hydrating"
	StateAuthenticated State = "authenticated"
)

// msgConnectFailed — единая формулировка для любых сетевых сбоев.
const msgConnectFailed = "Unable to connect to server. Please try again."

// Result — исход операции сессии. Операции никогда не возвращают
// ошибку наружу: сетевые и серверные сбои переводятся в Message.
type Result struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	UserType string `json:"userType,omitempty"`
}

// Session — процессный владелец личности пользователя и кэша подписки.
// Все мутации идут через методы сессии; чтения — синхронные снимки
// состояния в памяти. Конкурентные refresh не упорядочиваются:
// гарантируется только "последняя запись побеждает".
type Session struct {
	client *Client
	store  kv.Store
	log    *slog.Logger
	now    func() time.Time

	mu    sync.RWMutex
	state State
	user  *models.User
	sub   *models.Subscription
	token string
}

// New создаёт сессию и гидрирует её из kv-хранилища: при наличии
// валидной кэшированной личности и токена выполняется best-effort
// обновление подписки с сервера. Сбой сети не блокирует запуск —
// сессия остаётся на последнем известном состоянии или на бесплатном
// тарифе по умолчанию.
func New(ctx context.Context, client *Client, store kv.Store, log *slog.Logger) *Session {
	s := &Session{
		client: client,
		store:  store,
		log:    log,
		now:    time.Now,
		state:  StateAnonymous,
	}
	s.hydrate(ctx)
	return s
}

// WithClock подменяет источник времени для тестов.
func (s *Session) WithClock(now func() time.Time) *Session {
	s.now = now
	return s
}

func (s *Session) hydrate(ctx context.Context) {
	const op = "session.hydrate"

	var user models.User
	foundUser, err := s.store.Get(ctx, kv.KeyUser, &user)
	if err != nil {
		s.log.Warn("failed to read cached user", slog.String("op", op), sl.Err(err))
	}
	var token string
	foundToken, err := s.store.Get(ctx, kv.KeyAuthToken, &token)
	if err != nil {
		s.log.Warn("failed to read cached token", slog.String("op", op), sl.Err(err))
	}
	if !foundUser || !foundToken || token == "" {
		return
	}

	s.mu.Lock()
	s.state = StateHydrating
	s.user = &user
	s.token = token
	var cached models.Subscription
	if found, err := s.store.Get(ctx, kv.KeySubscription, &cached); err == nil && found {
		s.sub = &cached
	}
	s.mu.Unlock()

	s.RefreshSubscription(ctx)

	s.mu.Lock()
	if s.sub == nil {
		sub := defaultFreeSubscription()
		s.sub = &sub
	}
	s.state = StateAuthenticated
	s.mu.Unlock()
}

// Login выполняет вход. При успехе личность собирается из полезной
// нагрузки токена (декодирование без проверки подписи — поля только
// для отображения, авторизацию решает сервер), сохраняется вместе с
// токеном, после чего делается best-effort запрос статуса подписки.
// Неудача этого запроса не отменяет вход.
func (s *Session) Login(ctx context.Context, email, password string) Result {
	const op = "session.Login"

	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		if se, ok := IsServerError(err); ok && se.Message != "" {
			return Result{Success: false, Message: se.Message}
		}
		s.log.Error("login request failed", slog.String("op", op), sl.Err(err))
		return Result{Success: false, Message: msgConnectFailed}
	}

	user := userFromToken(resp.Token, email)
	user.Role = roleFromUserType(resp.UserType)

	s.mu.Lock()
	s.user = user
	s.token = resp.Token
	s.state = StateAuthenticated
	s.mu.Unlock()

	if err := s.store.Set(ctx, kv.KeyUser, user); err != nil {
		s.log.Warn("failed to persist user", slog.String("op", op), sl.Err(err))
	}
	if err := s.store.Set(ctx, kv.KeyAuthToken, resp.Token); err != nil {
		s.log.Warn("failed to persist token", slog.String("op", op), sl.Err(err))
	}

	// Личность уже записана; статус подписки подтягивается best-effort.
	s.RefreshSubscription(ctx)
	s.mu.Lock()
	if s.sub == nil {
		sub := defaultFreeSubscription()
		s.sub = &sub
	}
	s.mu.Unlock()

	return Result{Success: true, Message: "Login successful.", UserType: resp.UserType}
}

// Register создаёт учётную запись, сразу входит под теми же данными,
// затем best-effort активирует пробный период и обновляет подписку.
func (s *Session) Register(ctx context.Context, data RegisterData) Result {
	const op = "session.Register"

	if err := s.client.Register(ctx, data); err != nil {
		if se, ok := IsServerError(err); ok && se.Message != "" {
			return Result{Success: false, Message: se.Message}
		}
		s.log.Error("register request failed", slog.String("op", op), sl.Err(err))
		return Result{Success: false, Message: msgConnectFailed}
	}

	res := s.Login(ctx, data.Email, data.Password)
	if !res.Success {
		return res
	}

	if err := s.client.StartTrial(ctx, s.Token()); err != nil {
		s.log.Warn("trial start after registration failed", slog.String("op", op), sl.Err(err))
	}
	s.RefreshSubscription(ctx)

	res.Message = "Registration successful. Welcome to 99Sellers!"
	return res
}

// Logout синхронно очищает всё персистентное состояние сессии.
// Идемпотентен: повторный вызов в анонимном состоянии безвреден.
func (s *Session) Logout(ctx context.Context) {
	const op = "session.Logout"

	s.mu.Lock()
	s.user = nil
	s.sub = nil
	s.token = ""
	s.state = StateAnonymous
	s.mu.Unlock()

	for _, key := range []string{kv.KeyUser, kv.KeySubscription, kv.KeyAuthToken} {
		if err := s.store.Delete(ctx, key); err != nil {
			s.log.Warn("failed to clear session key", slog.String("op", op),
				slog.String("key", key), sl.Err(err))
		}
	}
}

// StartTrial активирует пробный период и обновляет подписку.
func (s *Session) StartTrial(ctx context.Context) Result {
	const op = "session.StartTrial"

	token := s.Token()
	if token == "" {
		return Result{Success: false, Message: "Please log in to start a trial."}
	}
	if err := s.client.StartTrial(ctx, token); err != nil {
		if se, ok := IsServerError(err); ok && se.Message != "" {
			return Result{Success: false, Message: se.Message}
		}
		s.log.Error("trial start failed", slog.String("op", op), sl.Err(err))
		return Result{Success: false, Message: msgConnectFailed}
	}
	s.RefreshSubscription(ctx)
	return Result{Success: true, Message: "Trial started."}
}

// RefreshSubscription запрашивает статус и заменяет кэш подписки
// целиком, отбрасывая оптимистичные правки. Сбои только логируются:
// состояние остаётся на последнем известном значении, вызывающий код
// ошибки не видит.
func (s *Session) RefreshSubscription(ctx context.Context) {
	const op = "session.RefreshSubscription"

	token := s.Token()
	if token == "" {
		return
	}
	resp, err := s.client.SubscriptionStatus(ctx, token)
	if err != nil {
		s.log.Warn("subscription refresh failed", slog.String("op", op), sl.Err(err))
		return
	}

	sub := resp.ToSubscription()
	s.mu.Lock()
	s.sub = &sub
	s.mu.Unlock()
	if err := s.store.Set(ctx, kv.KeySubscription, sub); err != nil {
		s.log.Warn("failed to persist subscription", slog.String("op", op), sl.Err(err))
	}
}

// UserPatch — оптимистичная локальная правка личности.
type UserPatch struct {
	FirstName *string
	LastName  *string
}

// UpdateUser применяет локальную правку личности без похода в сеть.
// Нет текущего пользователя — нет эффекта.
func (s *Session) UpdateUser(ctx context.Context, patch UserPatch) {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return
	}
	if patch.FirstName != nil {
		s.user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		s.user.LastName = *patch.LastName
	}
	user := *s.user
	s.mu.Unlock()

	if err := s.store.Set(ctx, kv.KeyUser, user); err != nil {
		s.log.Warn("failed to persist user patch", sl.Err(err))
	}
}

// SubscriptionPatch — оптимистичная локальная правка подписки.
type SubscriptionPatch struct {
	AutoRenew    *bool
	BillingCycle *models.BillingCycle
}

// UpdateSubscription применяет локальную правку подписки и помечает
// кэш как dirty; ближайший RefreshSubscription заменит его серверным
// состоянием целиком.
func (s *Session) UpdateSubscription(ctx context.Context, patch SubscriptionPatch) {
	s.mu.Lock()
	if s.sub == nil {
		s.mu.Unlock()
		return
	}
	if patch.AutoRenew != nil {
		s.sub.AutoRenew = *patch.AutoRenew
	}
	if patch.BillingCycle != nil {
		s.sub.BillingCycle = *patch.BillingCycle
	}
	s.sub.Dirty = true
	sub := *s.sub
	s.mu.Unlock()

	if err := s.store.Set(ctx, kv.KeySubscription, sub); err != nil {
		s.log.Warn("failed to persist subscription patch", sl.Err(err))
	}
}

// State возвращает текущее состояние жизненного цикла сессии.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsAuthenticated сообщает, выполнен ли вход.
func (s *Session) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

// Token возвращает текущий токен авторизации.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User возвращает снимок текущего пользователя, nil — если входа не было.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Subscription возвращает снимок кэшированной подписки.
func (s *Session) Subscription() *models.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sub == nil {
		return nil
	}
	sub := *s.sub
	return &sub
}

// IsAdmin сообщает, имеет ли пользователь административную роль.
func (s *Session) IsAdmin() bool {
	return s.User().IsAdmin()
}

// CanAccessPremium — снимок премиум-доступа на текущий момент.
// Для анонимной сессии всегда false.
func (s *Session) CanAccessPremium() bool {
	if !s.IsAuthenticated() {
		return false
	}
	return entitlement.CanAccessPremium(s.Subscription(), s.now())
}

// IsTrialActive — снимок активности пробного периода.
func (s *Session) IsTrialActive() bool {
	if !s.IsAuthenticated() {
		return false
	}
	return entitlement.IsTrialActive(s.Subscription(), s.now())
}

// TrialDaysRemaining — остаток дней пробного периода.
func (s *Session) TrialDaysRemaining() int {
	if !s.IsAuthenticated() {
		return 0
	}
	return entitlement.TrialDaysRemaining(s.Subscription(), s.now())
}

// userFromToken собирает минимального пользователя из полезной нагрузки
// JWT без проверки подписи. Сервер уже проверил учётные данные; поля
// используются только для отображения и никогда не решают авторизацию.
func userFromToken(token, email string) *models.User {
	user := &models.User{Email: email, Role: models.RoleUser, CreatedAt: time.Now().UTC()}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return user
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return user
	}
	var claims struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return user
	}
	user.UID = claims.ID
	if claims.Email != "" {
		user.Email = claims.Email
	}
	if claims.Role != "" {
		user.Role = claims.Role
	}
	return user
}

// roleFromUserType переводит userType ответа сервера в роль модели.
func roleFromUserType(userType string) string {
	if strings.EqualFold(userType, "Admin") {
		return models.RoleAdmin
	}
	return models.RoleUser
}

// defaultFreeSubscription — запасная подписка для случаев, когда
// сервер недоступен, а кэша нет.
func defaultFreeSubscription() models.Subscription {
	return models.Subscription{
		Plan:   models.PlanFree,
		Status: models.StatusActive,
		Features: models.PlanFeatures{
			SearchLimit:    10,
			ExportLimit:    0,
			APICallsPerDay: 0,
		},
	}
}
