package services

import "github.com/99sellers/leadgen/internal/models"

// TrialDays задаёт длительность пробного периода тарифа premium.
const TrialDays = 7

// planCatalog — статический каталог тарифных планов. Лимит -1
// означает отсутствие ограничения.
var planCatalog = []models.Plan{
	{
		ID:          1,
		Name:        "Free",
		Type:        models.PlanFree,
		Description: "Browse masked foreclosure listings",
		Features: models.PlanFeatures{
			SearchLimit:    10,
			ExportLimit:    0,
			APICallsPerDay: 0,
		},
	},
	{
		ID:           2,
		Name:         "Basic",
		Type:         models.PlanBasic,
		Description:  "Full property details with limited exports",
		PriceMonthly: 29,
		PriceYearly:  290,
		Features: models.PlanFeatures{
			SearchLimit:    100,
			ExportLimit:    5,
			APICallsPerDay: 100,
			AdvancedSearch: true,
			FullDataAccess: true,
			ExportEnabled:  true,
		},
	},
	{
		ID:           3,
		Name:         "Premium",
		Type:         models.PlanPremium,
		Description:  "Unlimited search and export with lead generation",
		PriceMonthly: 99,
		PriceYearly:  990,
		TrialDays:    TrialDays,
		Features: models.PlanFeatures{
			SearchLimit:    -1,
			ExportLimit:    -1,
			APICallsPerDay: 1000,
			AdvancedSearch: true,
			FullDataAccess: true,
			ExportEnabled:  true,
			LeadGeneration: true,
			RealTimeAlerts: true,
		},
	},
	{
		ID:           4,
		Name:         "Enterprise",
		Type:         models.PlanEnterprise,
		Description:  "Team access with unlimited API usage",
		PriceMonthly: 299,
		PriceYearly:  2990,
		Features: models.PlanFeatures{
			SearchLimit:    -1,
			ExportLimit:    -1,
			APICallsPerDay: -1,
			AdvancedSearch: true,
			FullDataAccess: true,
			ExportEnabled:  true,
			LeadGeneration: true,
			RealTimeAlerts: true,
		},
	},
}

// Plans возвращает каталог тарифных планов.
func Plans() []models.Plan {
	result := make([]models.Plan, len(planCatalog))
	copy(result, planCatalog)
	return result
}

// PlanByID находит план в каталоге по его идентификатору.
func PlanByID(id int) (models.Plan, bool) {
	for _, p := range planCatalog {
		if p.ID == id {
			return p, true
		}
	}
	return models.Plan{}, false
}

// PlanByType находит план в каталоге по типу тарифа.
func PlanByType(planType models.PlanType) (models.Plan, bool) {
	for _, p := range planCatalog {
		if p.Type == planType {
			return p, true
		}
	}
	return models.Plan{}, false
}

// PlanPrice возвращает цену плана для выбранного периода оплаты.
func PlanPrice(plan models.Plan, cycle models.BillingCycle) float64 {
	if cycle == models.CycleYearly {
		return plan.PriceYearly
	}
	return plan.PriceMonthly
}
