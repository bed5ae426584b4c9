package queue

// acknowledger is the part of *amqp.Channel a Message needs.
type acknowledger interface {
	Ack(tag uint64, multiple bool) error
	Nack(tag uint64, multiple bool, requeue bool) error
}

// Message wraps an Event with its RabbitMQ delivery information.
type Message struct {
	Event       *Event
	DeliveryTag uint64
	Channel     acknowledger
}

// Ack acknowledges the message.
func (m *Message) Ack() error {
	return m.Channel.Ack(m.DeliveryTag, false)
}

// Nack negatively acknowledges the message. Without requeue it goes to the DLQ.
func (m *Message) Nack(requeue bool) error {
	return m.Channel.Nack(m.DeliveryTag, false, requeue)
}

// GetEvent returns the decoded event.
func (m *Message) GetEvent() *Event {
	return m.Event
}
