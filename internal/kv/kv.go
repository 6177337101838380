// Package kv определяет порт key-value хранилища клиентского состояния
// сессии: личность пользователя, кэш подписки, токен, история экспортов.
// Все значения сериализуются в JSON и оборачиваются в конверт со схемной
// версией, чтобы будущее изменение формата не читало старый кэш вслепую.
//
// Реализации: Memory для тестов и Redis поверх go-redis.
package kv

import (
	"context"
	"encoding/json"
)

// Ключи персистентного состояния сессии.
const (
	KeyUser          = "leadgen:user"
	KeySubscription  = "leadgen:subscription"
	KeyAuthToken     = "leadgen:auth_token"
	KeyExportHistory = "leadgen:export_history"
	KeyTermsAccepted = "leadgen:export_terms_accepted"
)

// SchemaVersion — текущая версия формата персистентных значений.
const SchemaVersion = 1

// Store описывает порт key-value хранилища. Get возвращает false без
// ошибки, когда ключ отсутствует, значение повреждено или записано
// другой версией схемы: читатель откатывается к значениям по умолчанию.
type Store interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// envelope — конверт версионирования вокруг каждого значения.
type envelope struct {
	V    int             `json:"v"`
	Data json.RawMessage `json:"data"`
}

// encode упаковывает значение в версионированный конверт.
func encode(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{V: SchemaVersion, Data: data})
}

// decode распаковывает конверт. Повреждённый JSON и чужая версия схемы
// считаются отсутствием значения.
func decode(raw []byte, out any) bool {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false
	}
	if env.V != SchemaVersion || env.Data == nil {
		return false
	}
	return json.Unmarshal(env.Data, out) == nil
}
