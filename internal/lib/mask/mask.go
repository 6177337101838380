// Package mask реализует маскирование персональных данных лида
// для пользователей без полного доступа к данным: имя, адрес,
// телефон и почта затираются по правилам, специфичным для поля.
// Все функции тотальны: любой вход даёт строку, паники исключены.
package mask

import "strings"

// Kind определяет правило маскирования для конкретного поля лида.
type Kind string

// Поддерживаемые виды маскируемых полей.
const (
	KindName    Kind = "name"
	KindAddress Kind = "address"
	KindPhone   Kind = "phone"
	KindEmail   Kind = "email"
)

const (
	empty   = "***"
	generic = "****"
	// Заглушка для строки, не похожей на адрес почты.
	badEmail = "****@****"
)

// Value возвращает маскированное представление value для данного вида поля.
// При unmasked=true значение возвращается без изменений; пустая строка
// всегда даёт "***" независимо от unmasked, неизвестный вид — "****".
func Value(value string, kind Kind, unmasked bool) string {
	if value == "" {
		return empty
	}
	if unmasked {
		return value
	}
	switch kind {
	case KindName:
		return maskName(value)
	case KindAddress:
		return maskAddress(value)
	case KindPhone:
		return maskPhone(value)
	case KindEmail:
		return maskEmail(value)
	default:
		return generic
	}
}

// maskName оставляет первый символ каждого слова, добавляя минимум
// две звёздочки: "John Doe" -> "J*** D**".
func maskName(v string) string {
	tokens := strings.Fields(v)
	for i, tok := range tokens {
		stars := len(tok) - 1
		if stars < 2 {
			stars = 2
		}
		r := []rune(tok)
		tokens[i] = string(r[0]) + strings.Repeat("*", stars)
	}
	return strings.Join(tokens, " ")
}

// maskAddress затирает первые два слова и сохраняет последние два,
// средние слова отбрасываются целиком. Поведение унаследовано от
// исходной реализации вместе с потерей средних слов; адрес короче
// трёх слов сворачивается в константу "****".
func maskAddress(v string) string {
	tokens := strings.Fields(v)
	if len(tokens) <= 2 {
		return generic
	}
	out := []string{generic, generic}
	out = append(out, tokens[len(tokens)-2:]...)
	return strings.Join(out, " ")
}

// maskPhone сохраняет только последние четыре цифры: "(***)***-1234".
func maskPhone(v string) string {
	var digits []rune
	for _, r := range v {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) == 0 {
		return generic
	}
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return "(***)***-" + string(digits)
}

// maskEmail оставляет первый символ и домен: "j****@example.com".
func maskEmail(v string) string {
	at := strings.IndexByte(v, '@')
	if at <= 0 {
		return badEmail
	}
	r := []rune(v)
	return string(r[0]) + generic + v[at:]
}
