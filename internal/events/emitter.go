package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var buffer = NewRingBuffer(256)

// Store persists events. *postgres.Client implements it.
type Store interface {
	Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error
}

var (
	store            Store
	storeMu          sync.RWMutex
	storeErrorLogged bool

	total atomic.Int64
)

// SetStore sets the store events are appended to. Nil disables persistence.
func SetStore(s Store) {
	storeMu.Lock()
	store = s
	storeErrorLogged = false
	storeMu.Unlock()
}

type Event struct {
	Timestamp string                 `json:"ts"`
	Level     string                 `json:"level"`
	Name      string                 `json:"event"`
	Message   string                 `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Emit records an event: it is buffered, broadcast to subscribers and
// appended to the store when one is set. Unknown names are rejected.
func Emit(level, name, msg string, fields map[string]interface{}) ([]byte, error) {
	if err := Validate(name); err != nil {
		return nil, err
	}

	ts := time.Now().UTC()
	e := Event{
		Timestamp: ts.Format(time.RFC3339Nano),
		Level:     level,
		Name:      name,
		Message:   msg,
		Fields:    fields,
	}

	buffer.Add(e)
	total.Add(1)
	broadcast(e)

	storeMu.RLock()
	s := store
	storeMu.RUnlock()

	if s != nil {
		sessionID, _ := fields["session_id"].(string)
		if err := s.Append(ts, level, name, msg, fields, sessionID); err != nil {
			recordStoreError(err)
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	return b, nil
}

// recordStoreError adds a single system.error straight to the buffer so a
// failing store cannot recurse through Emit.
func recordStoreError(err error) {
	storeMu.Lock()
	if storeErrorLogged {
		storeMu.Unlock()
		return
	}
	storeErrorLogged = true
	storeMu.Unlock()

	buffer.Add(Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     "error",
		Name:      "system.error",
		Message:   "event store append failed",
		Fields: map[string]interface{}{
			"error": err.Error(),
		},
	})
}

func Snapshot() []Event {
	return buffer.Snapshot()
}

// TotalCount returns the number of events emitted since start.
func TotalCount() int64 {
	return total.Load()
}

// Clear resets the event buffer. Used for testing.
func Clear() {
	buffer.Clear()
}
