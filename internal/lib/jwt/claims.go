// Package jwt реализует генерацию и парсинг JWT токенов с пользовательскими claim полями.
//
// Maker определяет интерфейс для создания и проверки токенов, несущих
// идентификатор пользователя, почту и роль. MakerImpl — конкретная
// реализация на секретном ключе HS256 со сроком жизни токена.
package jwt

import "github.com/golang-jwt/jwt/v5"

// CustomClaims описывает пользовательские данные, хранящиеся в JWT.
//
// Поле ID дублирует uid пользователя в полезной нагрузке: клиентская
// сессия декодирует её без проверки подписи, чтобы собрать локальную
// запись пользователя для отображения (см. internal/session).
type CustomClaims struct {
	ID                   string `json:"id"`    // Уникальный идентификатор пользователя
	Email                string `json:"email"` // Электронная почта
	Role                 string `json:"role"`  // Роль пользователя, admin или user
	jwt.RegisteredClaims        // Встроенные стандартные claims JWT (ExpiresAt, IssuedAt и пр.)
}
