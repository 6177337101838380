// Package models содержит доменную модель пользователя системы,
// включающую данные учётной записи, хэш пароля и дату создания.
// Структура используется в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// Роли пользователей системы.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID          string    `json:"id"`         // Уникальный идентификатор пользователя
	Email        string    `json:"email"`      // Электронная почта
	FirstName    string    `json:"firstName"`  // Имя
	LastName     string    `json:"lastName"`   // Фамилия
	PasswordHash string    `json:"-"`          // Хэш пароля пользователя
	Role         string    `json:"userType"`   // Роль пользователя, admin или user
	TrialUsed    bool      `json:"-"`          // Признак уже использованного пробного периода
	CreatedAt    time.Time `json:"createdAt"`  // Дата регистрации
}

// IsAdmin сообщает, имеет ли пользователь административную роль.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Name возвращает отображаемое имя пользователя.
func (u *User) Name() string {
	if u == nil {
		return ""
	}
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}
