package alerts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// Routing keys обменника событий.
const (
	RoutingKeySubscription = "subscription"
	RoutingKeyExport       = "export"
)

// Типы публикуемых событий.
const (
	EventTrialStarted          = "trial.started"
	EventSubscriptionCreated   = "subscription.created"
	EventSubscriptionCancelled = "subscription.cancelled"
	EventExportCompleted       = "export.completed"
)

// Event — тело сообщения в обменнике событий. EventUID позволяет
// потребителям дедуплицировать повторные доставки.
type Event struct {
	EventUID   string         `json:"event_uid"`
	Type       string         `json:"type"`
	UserUID    string         `json:"user_uid"`
	Email      string         `json:"email"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Publisher публикует события сервиса. Нулевой Publisher безопасен:
// все операции становятся no-op, сервис работает без RabbitMQ.
type Publisher struct {
	ch       *amqp.Channel
	exchange string
}

// NewPublisher создает издателя событий поверх открытого канала.
func NewPublisher(ch *amqp.Channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange}
}

// Publish сериализует событие и публикует его с нужным routing key.
func (p *Publisher) Publish(routingKey string, event Event) error {
	const op = "alerts.Publish"
	if p == nil || p.ch == nil {
		return nil
	}
	if event.EventUID == "" {
		event.EventUID = uuid.NewString()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.ch.Publish(
		p.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// TrialStarted публикует событие активации пробного периода.
func (p *Publisher) TrialStarted(userUID, email string, trialEnd time.Time) error {
	return p.Publish(RoutingKeySubscription, Event{
		Type:       EventTrialStarted,
		UserUID:    userUID,
		Email:      email,
		OccurredAt: time.Now().UTC(),
		Payload:    map[string]any{"trial_end": trialEnd},
	})
}

// SubscriptionCreated публикует событие оформления платной подписки.
func (p *Publisher) SubscriptionCreated(userUID, email, plan, cycle string) error {
	return p.Publish(RoutingKeySubscription, Event{
		Type:       EventSubscriptionCreated,
		UserUID:    userUID,
		Email:      email,
		OccurredAt: time.Now().UTC(),
		Payload:    map[string]any{"plan": plan, "billing_cycle": cycle},
	})
}

// SubscriptionCancelled публикует событие отмены подписки.
func (p *Publisher) SubscriptionCancelled(userUID, email, reason string) error {
	return p.Publish(RoutingKeySubscription, Event{
		Type:       EventSubscriptionCancelled,
		UserUID:    userUID,
		Email:      email,
		OccurredAt: time.Now().UTC(),
		Payload:    map[string]any{"reason": reason},
	})
}

// ExportCompleted публикует событие завершённого экспорта лидов.
func (p *Publisher) ExportCompleted(userUID, email, format string, records int) error {
	return p.Publish(RoutingKeyExport, Event{
		Type:       EventExportCompleted,
		UserUID:    userUID,
		Email:      email,
		OccurredAt: time.Now().UTC(),
		Payload:    map[string]any{"format": format, "records": records},
	})
}
