package events

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// Amqp publishes to a durable topic exchange, reusing one channel.
type Amqp struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// Dial connects and declares the exchange, retrying the connection once.
func Dial(uri, exchange string) (*Amqp, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		log.Printf("Broker connection failed, retrying once: %v", err)
		time.Sleep(2 * time.Second)
		if conn, err = amqp.Dial(uri); err != nil {
			return nil, fmt.Errorf("dial broker: %w", err)
		}
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer channel.Close()

	if err = channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	log.Printf("Connected to broker, exchange %s", exchange)
	return &Amqp{conn: conn, exchange: exchange}, nil
}

func (a *Amqp) Publish(key string, data interface{}) error {
	body, err := json.Marshal(Event{Key: key, At: time.Now().UTC(), Data: data})
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ch == nil {
		if a.ch, err = a.conn.Channel(); err != nil {
			return err
		}
	}

	msg := amqp.Publishing{
		Headers:     amqp.Table{"x-event-name": key},
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        body,
	}
	if err = a.ch.Publish(a.exchange, key, false, false, msg); err != nil {
		// drop the channel so the next publish reopens it
		a.ch.Close()
		a.ch = nil
		return err
	}
	return nil
}

func (a *Amqp) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			log.Printf("Error closing amqp channel: %v", err)
		}
		a.ch = nil
	}
	return a.conn.Close()
}
