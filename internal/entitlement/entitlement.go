// Package entitlement содержит чистые функции вывода прав доступа
// из подписки: активность пробного периода, остаток дней и признак
// премиум-доступа. Текущее время всегда передаётся параметром,
// функции не делают ввода-вывода и не бросают панику ни на каких входах.
package entitlement

import (
	"math"
	"time"

	"github.com/99sellers/leadgen/internal/models"
)

// IsTrialActive сообщает, действует ли пробный период на момент now.
// Истина только при статусе trialing, заполненной дате окончания
// и now строго раньше этой даты. Любое отсутствующее поле — false.
func IsTrialActive(sub *models.Subscription, now time.Time) bool {
	if sub == nil || sub.Status != models.StatusTrialing || sub.TrialEndDate == nil {
		return false
	}
	return now.Before(*sub.TrialEndDate)
}

// TrialDaysRemaining возвращает количество оставшихся дней пробного
// периода. Значение, посчитанное сервером, имеет приоритет и
// возвращается как есть; локальный расчёт — только запасной вариант
// и никогда не бывает отрицательным.
func TrialDaysRemaining(sub *models.Subscription, now time.Time) int {
	if sub == nil {
		return 0
	}
	if sub.TrialDaysRemaining != nil {
		return *sub.TrialDaysRemaining
	}
	if sub.TrialEndDate == nil {
		return 0
	}
	left := sub.TrialEndDate.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}

// CanAccessPremium сообщает, открыт ли пользователю премиум-доступ:
// флаг fullDataAccess, либо активная платная подписка, либо
// действующий пробный период. Для nil-подписки всегда false.
func CanAccessPremium(sub *models.Subscription, now time.Time) bool {
	if sub == nil {
		return false
	}
	if sub.Features.FullDataAccess {
		return true
	}
	if sub.Status == models.StatusActive && sub.Plan != models.PlanFree {
		return true
	}
	return IsTrialActive(sub, now)
}
