// Package billing интегрирует сервис с платёжным провайдером Stripe:
// создание подписок с рекуррентным списанием и их отмена.
package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/price"
	"github.com/stripe/stripe-go/v82/subscription"

	"github.com/99sellers/leadgen/internal/models"
)

// Provider описывает операции платёжного провайдера, необходимые
// сервису подписок.
type Provider interface {
	CreateSubscription(ctx context.Context, email string, plan models.PlanType, cycle models.BillingCycle) (string, error)
	CancelSubscription(ctx context.Context, providerID string) error
}

// StripeProvider реализует Provider поверх Stripe Billing.
type StripeProvider struct{}

// NewStripeProvider настраивает глобальный ключ Stripe и возвращает
// провайдера. При пустом ключе возвращается NoopProvider, чтобы
// локальная разработка не требовала учётной записи Stripe.
func NewStripeProvider(secretKey string) Provider {
	if secretKey == "" {
		return NoopProvider{}
	}
	stripe.Key = secretKey
	return StripeProvider{}
}

// PriceLookupKey строит lookup key цены Stripe для пары тариф-период.
func PriceLookupKey(plan models.PlanType, cycle models.BillingCycle) string {
	return fmt.Sprintf("leadgen_%s_%s", plan, cycle)
}

// CreateSubscription заводит клиента и подписку в Stripe и возвращает
// идентификатор подписки провайдера.
func (StripeProvider) CreateSubscription(ctx context.Context, email string, plan models.PlanType, cycle models.BillingCycle) (string, error) {
	const op = "billing.CreateSubscription"

	priceID, err := resolvePriceID(ctx, PriceLookupKey(plan, cycle))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	custParams := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	custParams.Context = ctx
	cust, err := customer.New(custParams)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	subParams := &stripe.SubscriptionParams{
		Customer: stripe.String(cust.ID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
	}
	subParams.Context = ctx
	sub, err := subscription.New(subParams)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return sub.ID, nil
}

// CancelSubscription отменяет подписку в Stripe.
func (StripeProvider) CancelSubscription(ctx context.Context, providerID string) error {
	const op = "billing.CancelSubscription"

	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	if _, err := subscription.Cancel(providerID, params); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func resolvePriceID(ctx context.Context, lookupKey string) (string, error) {
	params := &stripe.PriceListParams{
		LookupKeys: stripe.StringSlice([]string{lookupKey}),
	}
	params.Context = ctx
	iter := price.List(params)
	for iter.Next() {
		return iter.Price().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("price with lookup key %q not found", lookupKey)
}

// NoopProvider используется, когда ключ Stripe не настроен. Операции
// завершаются успешно с синтетическим идентификатором.
type NoopProvider struct{}

// CreateSubscription возвращает синтетический идентификатор подписки.
func (NoopProvider) CreateSubscription(_ context.Context, _ string, plan models.PlanType, cycle models.BillingCycle) (string, error) {
	return "local_" + string(plan) + "_" + string(cycle), nil
}

// CancelSubscription ничего не делает.
func (NoopProvider) CancelSubscription(_ context.Context, _ string) error {
	return nil
}
