package kafka

import (
	"context"
	"encoding/json"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"ms-pos/internal/models"
)

// Producer streams committed state transitions to the real-time and
// reporting subscribers. One writer, topic set per message.
type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer}
}

func (p *Producer) publish(topic, key string, payload interface{}) error {
	msgBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// TicketStatusChangedEvent carries the previous status alongside the new
// one so station displays can move cards without refetching.
type TicketStatusChangedEvent struct {
	TicketID       string    `json:"ticket_id"`
	OrderID        string    `json:"order_id"`
	OrderItemID    string    `json:"order_item_id"`
	Destination    string    `json:"destination"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	ChangedBy      string    `json:"changed_by"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// SessionClosedEvent summarizes the settled tab for reporting consumers.
type SessionClosedEvent struct {
	SessionID       string    `json:"session_id"`
	TableID         string    `json:"table_id"`
	OrderIDs        []string  `json:"order_ids"`
	CumulativeTotal float64   `json:"cumulative_total"`
	PaymentMethod   string    `json:"payment_method"`
	ClosedBy        string    `json:"closed_by"`
	ClosedAt        time.Time `json:"closed_at"`
}

func (p *Producer) PublishOrderConfirmed(order models.Order) error {
	return p.publish(TopicOrderConfirmed, order.OrderID, order)
}

func (p *Producer) PublishOrderVoided(order models.Order) error {
	return p.publish(TopicOrderVoided, order.OrderID, order)
}

func (p *Producer) PublishTicketCreated(ticket models.KitchenTicket) error {
	return p.publish(TopicKitchenTicketCreated, ticket.TicketID, ticket)
}

func (p *Producer) PublishTicketStatusChanged(event TicketStatusChangedEvent) error {
	return p.publish(TopicTicketStatusChanged, event.TicketID, event)
}

func (p *Producer) PublishSessionClosed(event SessionClosedEvent) error {
	return p.publish(TopicSessionClosed, event.SessionID, event)
}
