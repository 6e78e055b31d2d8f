package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/AaronLay10/DefusalEngine/internal/events"
	"github.com/AaronLay10/DefusalEngine/internal/puzzle"
	"github.com/AaronLay10/DefusalEngine/internal/session"
)

// ActionTopic is where a panel sends actions for session id.
func ActionTopic(id string) string { return "defusal/" + id + "/action" }

// StateTopic is where the HUD of session id is published, retained.
func StateTopic(id string) string { return "defusal/" + id + "/state" }

// Broker is the part of Client the bridge needs.
type Broker interface {
	Subscribe(topic string, handler paho.MessageHandler) error
	Unsubscribe(topic string) error
	Publish(topic string, retained bool, payload []byte) error
}

// Target is a running session. *session.Runner implements it.
type Target interface {
	ID() string
	Do(ctx context.Context, index int, a puzzle.Action) (session.Signal, session.View, error)
	View(ctx context.Context) (session.View, error)
	Done() <-chan struct{}
}

// PanelBridge connects hardware defuser panels to running sessions over
// MQTT: actions come in on ActionTopic, HUD updates go out on StateTopic.
type PanelBridge struct {
	broker  Broker
	log     *zap.Logger
	timeout time.Duration

	mu       sync.Mutex
	attached map[string]Target
}

// NewPanelBridge creates a bridge on broker.
func NewPanelBridge(broker Broker, log *zap.Logger) *PanelBridge {
	if log == nil {
		log = zap.NewNop()
	}
	return &PanelBridge{
		broker:   broker,
		log:      log,
		timeout:  5 * time.Second,
		attached: make(map[string]Target),
	}
}

// Attach subscribes to the action topic of t and publishes its HUD. The
// session is detached automatically when it ends. Attaching twice is a
// no-op.
func (b *PanelBridge) Attach(t Target) error {
	id := t.ID()

	b.mu.Lock()
	if _, ok := b.attached[id]; ok {
		b.mu.Unlock()
		return nil
	}
	b.attached[id] = t
	b.mu.Unlock()

	if err := b.broker.Subscribe(ActionTopic(id), b.handler(t)); err != nil {
		b.mu.Lock()
		delete(b.attached, id)
		b.mu.Unlock()
		return fmt.Errorf("attach %s: %w", id, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	view, err := t.View(ctx)
	cancel()
	if err == nil {
		b.publish(view)
	}

	go func() {
		<-t.Done()
		if view, err := t.View(context.Background()); err == nil {
			b.publish(view)
		}
		if err := b.Detach(id); err != nil {
			b.log.Warn("panel detach failed", zap.String("session_id", id), zap.Error(err))
		}
	}()
	return nil
}

// Detach stops listening for session id.
func (b *PanelBridge) Detach(id string) error {
	b.mu.Lock()
	_, ok := b.attached[id]
	delete(b.attached, id)
	b.mu.Unlock()
	if !ok {
		return nil
	}
	return b.broker.Unsubscribe(ActionTopic(id))
}

// Attached reports whether session id is bridged.
func (b *PanelBridge) Attached(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.attached[id]
	return ok
}

// PublishState publishes a HUD as the retained state of its session.
func (b *PanelBridge) PublishState(view session.View) error {
	payload, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("encode view: %w", err)
	}
	return b.broker.Publish(StateTopic(view.ID), true, payload)
}

func (b *PanelBridge) publish(view session.View) {
	if err := b.PublishState(view); err != nil {
		b.fail(view.ID, "state publish failed", err)
	}
}

func (b *PanelBridge) handler(t Target) paho.MessageHandler {
	id := t.ID()
	return func(_ paho.Client, msg paho.Message) {
		index, action, err := puzzle.DecodeAction(msg.Payload())
		if err != nil {
			b.fail(id, "bad panel action", err)
			return
		}
		events.Emit("info", "panel.action", "", map[string]interface{}{
			"session_id": id,
			"module":     index,
			"action":     action.Name(),
		})

		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		_, view, err := t.Do(ctx, index, action)
		if err != nil && !errors.Is(err, session.ErrNotActive) {
			b.fail(id, "panel action failed", err)
			return
		}
		b.publish(view)
	}
}

func (b *PanelBridge) fail(id, msg string, err error) {
	b.log.Warn(msg, zap.String("session_id", id), zap.Error(err))
	events.Emit("warn", "panel.error", msg, map[string]interface{}{
		"session_id": id,
		"error":      err.Error(),
	})
}
