// Package adminapi реализует клиент административной CRUD-поверхности.
// Контракт единый для всех ресурсов: list, getStats, create, update,
// delete — каждый вызов возвращает Result без бизнес-логики поверх,
// чистый проброс ответа сервера.
package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// msgRequestFailed — общая формулировка для сетевых сбоев: текст
// транспортной ошибки пользователю не показывается.
const msgRequestFailed = "Request failed. Please try again."

// Result — исход админской операции. При неуспехе Data пуст,
// Error содержит готовое пользовательское сообщение.
type Result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Client — HTTP-клиент админского API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient создаёт клиент для заданного адреса бэкенда и JWT токена
// администратора.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken обновляет JWT токен после повторного входа.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) do(ctx context.Context, method, path string, body any) Result {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return Result{Error: msgRequestFailed}
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return Result{Error: msgRequestFailed}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Error: msgRequestFailed}
	}
	defer resp.Body.Close()

	var payload struct {
		Status string          `json:"status"`
		Error  string          `json:"error"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{Error: msgRequestFailed}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || payload.Status != "OK" {
		msg := payload.Error
		if msg == "" {
			msg = msgRequestFailed
		}
		return Result{Error: msg}
	}
	return Result{Success: true, Data: payload.Data}
}

// List возвращает страницу записей ресурса.
func (c *Client) List(ctx context.Context, resource string) Result {
	return c.do(ctx, http.MethodGet, "/api/v1/admin/"+resource, nil)
}

// GetStats возвращает сводку по ресурсу.
func (c *Client) GetStats(ctx context.Context, resource string) Result {
	return c.do(ctx, http.MethodGet, "/api/v1/admin/"+resource+"/stats", nil)
}

// Create создаёт запись ресурса.
func (c *Client) Create(ctx context.Context, resource string, payload any) Result {
	return c.do(ctx, http.MethodPost, "/api/v1/admin/"+resource, payload)
}

// Update обновляет запись ресурса.
func (c *Client) Update(ctx context.Context, resource, id string, patch any) Result {
	return c.do(ctx, http.MethodPut, "/api/v1/admin/"+resource+"/"+id, patch)
}

// Delete удаляет запись ресурса.
func (c *Client) Delete(ctx context.Context, resource, id string) Result {
	return c.do(ctx, http.MethodDelete, "/api/v1/admin/"+resource+"/"+id, nil)
}

// CancelSubscription отменяет подписку по идентификатору записи.
func (c *Client) CancelSubscription(ctx context.Context, id string, reason string) Result {
	body := map[string]string{"reason": reason}
	return c.do(ctx, http.MethodPost, "/api/v1/admin/subscriptions/cancel/"+id, body)
}
