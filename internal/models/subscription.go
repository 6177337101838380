// Package models содержит доменные модели сервиса лидогенерации:
// подписки и тарифные планы, пользователей, объекты недвижимости
// и записи истории экспорта. Структуры используются в бизнес-логике,
// при работе с хранилищем и в JSON-ответах API.
package models

import "time"

// PlanType определяет тарифный план подписки.
type PlanType string

// Поддерживаемые тарифные планы.
const (
	PlanFree       PlanType = "free"
	PlanBasic      PlanType = "basic"
	PlanPremium    PlanType = "premium"
	PlanEnterprise PlanType = "enterprise"
)

// SubscriptionStatus определяет текущее состояние подписки.
type SubscriptionStatus string

// Поддерживаемые состояния подписки.
const (
	StatusActive    SubscriptionStatus = "active"
	StatusTrialing  SubscriptionStatus = "trialing"
	StatusExpired   SubscriptionStatus = "expired"
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusSuspended SubscriptionStatus = "suspended"
)

// BillingCycle определяет период оплаты подписки.
type BillingCycle string

// Поддерживаемые периоды оплаты.
const (
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
)

// PlanFeatures описывает числовые лимиты и флаги возможностей тарифа.
// Лимит со значением -1 означает "без ограничений".
type PlanFeatures struct {
	SearchLimit    int  `json:"searchLimit"`
	ExportLimit    int  `json:"exportLimit"`
	APICallsPerDay int  `json:"apiCallsPerDay"`
	AdvancedSearch bool `json:"advancedSearch"`
	FullDataAccess bool `json:"fullDataAccess"`
	ExportEnabled  bool `json:"exportEnabled"`
	LeadGeneration bool `json:"leadGeneration"`
	RealTimeAlerts bool `json:"realTimeAlerts"`
}

// Subscription представляет подписку пользователя вместе с границами
// платёжного периода, окном пробного периода и набором возможностей.
//
// TrialDaysRemaining заполняется сервером и, когда присутствует,
// является источником истины: клиент не пересчитывает его локально.
type Subscription struct {
	ID                 int                `json:"id"`
	Plan               PlanType           `json:"planType"`
	Status             SubscriptionStatus `json:"status"`
	BillingCycle       BillingCycle       `json:"billingCycle"`
	StartDate          *time.Time         `json:"startDate,omitempty"`
	EndDate            *time.Time         `json:"endDate,omitempty"`
	TrialStartDate     *time.Time         `json:"trialStartDate,omitempty"`
	TrialEndDate       *time.Time         `json:"trialEndDate,omitempty"`
	TrialDaysRemaining *int               `json:"trialDaysRemaining,omitempty"`
	Price              float64            `json:"price"`
	AutoRenew          bool               `json:"autoRenew"`
	Features           PlanFeatures       `json:"features"`

	// Dirty отмечает наличие оптимистичных локальных правок,
	// ещё не подтверждённых сервером. Сбрасывается при refresh.
	Dirty bool `json:"-"`
}

// Plan описывает элемент каталога тарифных планов.
type Plan struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	Type         PlanType     `json:"planType"`
	Description  string       `json:"description"`
	PriceMonthly float64      `json:"priceMonthly"`
	PriceYearly  float64      `json:"priceYearly"`
	TrialDays    int          `json:"trialDays"`
	Features     PlanFeatures `json:"features"`
}

// TrialInfo — вложенный блок trial в ответе статуса подписки.
type TrialInfo struct {
	StartDate     *time.Time `json:"startDate,omitempty"`
	EndDate       *time.Time `json:"endDate,omitempty"`
	DaysRemaining *int       `json:"daysRemaining,omitempty"`
}

// SubscriptionStatusResponse — тело ответа GET /subscriptions/status.
type SubscriptionStatusResponse struct {
	ID           int                `json:"id"`
	PlanType     PlanType           `json:"planType"`
	Status       SubscriptionStatus `json:"status"`
	BillingCycle BillingCycle       `json:"billingCycle"`
	StartDate    *time.Time         `json:"startDate,omitempty"`
	EndDate      *time.Time         `json:"endDate,omitempty"`
	Trial        TrialInfo          `json:"trial"`
	Price        float64            `json:"price"`
	AutoRenew    bool               `json:"autoRenew"`
	Features     PlanFeatures       `json:"features"`
}

// ToSubscription переводит ответ статуса в кэшируемую модель подписки.
// Единственная точка трансляции схемы сервера в клиентскую модель.
func (r SubscriptionStatusResponse) ToSubscription() Subscription {
	return Subscription{
		ID:                 r.ID,
		Plan:               r.PlanType,
		Status:             r.Status,
		BillingCycle:       r.BillingCycle,
		StartDate:          r.StartDate,
		EndDate:            r.EndDate,
		TrialStartDate:     r.Trial.StartDate,
		TrialEndDate:       r.Trial.EndDate,
		TrialDaysRemaining: r.Trial.DaysRemaining,
		Price:              r.Price,
		AutoRenew:          r.AutoRenew,
		Features:           r.Features,
	}
}

// SubscriptionRecord — строка таблицы subscriptions, как её видят
// хранилище и админские CRUD-операции.
type SubscriptionRecord struct {
	ID           int                `json:"id"`
	UserUID      string             `json:"user_uid"`
	Plan         PlanType           `json:"plan"`
	Status       SubscriptionStatus `json:"status"`
	BillingCycle BillingCycle       `json:"billing_cycle"`
	StartDate    *time.Time         `json:"start_date,omitempty"`
	EndDate      *time.Time         `json:"end_date,omitempty"`
	TrialStart   *time.Time         `json:"trial_start,omitempty"`
	TrialEnd     *time.Time         `json:"trial_end,omitempty"`
	AutoRenew    bool               `json:"auto_renew"`
	ProviderID   string             `json:"provider_id,omitempty"`
	CancelReason string             `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}
