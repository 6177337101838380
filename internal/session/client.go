// Package session реализует клиентскую сессию пользователя: единственного
// владельца личности и кэша подписки на процесс. Сессия гидрируется из
// kv-хранилища, ходит в REST-бэкенд за статусом подписки и отвечает на
// запросы прав доступа всем остальным компонентам.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/99sellers/leadgen/internal/models"
)

// ServerError — ошибка, о которой сообщил сам бэкенд (non-2xx с JSON-телом).
// Сообщение сервера показывается пользователю дословно; ошибки сети
// до этого типа не доводятся и переводятся в общую формулировку.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
}

// Client — HTTP-клиент бэкенда аутентификации и хранилища подписок.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для заданного адреса бэкенда.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// LoginResponse — тело успешного ответа POST /login.
type LoginResponse struct {
	Token    string `json:"token"`
	UserType string `json:"userType"`
}

// RegisterData — данные регистрации нового пользователя.
type RegisterData struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return &ServerError{Status: resp.StatusCode, Message: payload.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Login выполняет вход и возвращает токен с типом пользователя.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var payload struct {
		Data LoginResponse `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/login", "", body, &payload); err != nil {
		return nil, err
	}
	return &payload.Data, nil
}

// Register создаёт учётную запись; вход выполняется отдельным вызовом Login.
func (c *Client) Register(ctx context.Context, data RegisterData) error {
	return c.do(ctx, http.MethodPost, "/api/v1/register", "", data, nil)
}

// SubscriptionStatus возвращает текущий статус подписки пользователя.
func (c *Client) SubscriptionStatus(ctx context.Context, token string) (*models.SubscriptionStatusResponse, error) {
	var payload struct {
		Data models.SubscriptionStatusResponse `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/subscriptions/status", token, nil, &payload); err != nil {
		return nil, err
	}
	return &payload.Data, nil
}

// Plans возвращает каталог тарифных планов.
func (c *Client) Plans(ctx context.Context, token string) ([]models.Plan, error) {
	var payload struct {
		Data struct {
			Plans []models.Plan `json:"plans"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/subscriptions/plans", token, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Data.Plans, nil
}

// StartTrial активирует пробный период для текущего пользователя.
func (c *Client) StartTrial(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/subscriptions/trial/start", token, nil, nil)
}

// CreateSubscription оформляет платную подписку по индексу плана в каталоге.
func (c *Client) CreateSubscription(ctx context.Context, token string, planIndex int, cycle models.BillingCycle) error {
	body := map[string]any{"planIndex": planIndex, "billingCycle": cycle}
	return c.do(ctx, http.MethodPost, "/api/v1/subscriptions", token, body, nil)
}

// IsServerError извлекает *ServerError, если err пришла от бэкенда.
func IsServerError(err error) (*ServerError, bool) {
	var se *ServerError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
