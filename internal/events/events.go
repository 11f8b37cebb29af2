// Package events publishes domain events (investment status changes, balance
// updates, yield payouts) to a topic exchange.
package events

import (
	"log"
	"sync"
	"time"
)

// Routing keys.
const (
	InvestmentConfirmed = "investment.confirmed"
	InvestmentFailed    = "investment.failed"
	BalanceUpdated      = "balance.updated"
	YieldPaid           = "yield.paid"
	YieldFailed         = "yield.failed"
)

type Event struct {
	Key  string      `json:"key"`
	At   time.Time   `json:"at"`
	Data interface{} `json:"data"`
}

type Publisher interface {
	Publish(key string, data interface{}) error
	Close() error
}

// Nop drops events. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(string, interface{}) error { return nil }
func (Nop) Close() error                      { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Publish(key string, data interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Event{Key: key, At: time.Now(), Data: data})
	return nil
}

func (r *Recorder) Close() error { return nil }

// Keys returns the routing keys published so far, in order.
func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		keys = append(keys, e.Key)
	}
	return keys
}

// Emit publishes and logs failures instead of returning them.
func Emit(p Publisher, key string, data interface{}) {
	if err := p.Publish(key, data); err != nil {
		log.Printf("Event %s not published: %v", key, err)
	}
}
