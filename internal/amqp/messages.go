package amqp

import (
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"budgetbuddy/internal/events"
)

const contentTypeJSON = "application/json"

func toPublishing(e events.Event) (amqp091.Publishing, error) {
	body, err := e.ToJSON()
	if err != nil {
		return amqp091.Publishing{}, err
	}
	return amqp091.Publishing{
		ContentType:  contentTypeJSON,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    e.Timestamp,
		Type:         string(e.Kind),
		Body:         body,
	}, nil
}

func fromDelivery(d amqp091.Delivery) (events.Event, error) {
	if d.ContentType != "" && d.ContentType != contentTypeJSON {
		return events.Event{}, fmt.Errorf("unsupported content type %q", d.ContentType)
	}
	return events.FromJSON(d.Body)
}
