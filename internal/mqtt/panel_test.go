package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AaronLay10/DefusalEngine/internal/level"
	"github.com/AaronLay10/DefusalEngine/internal/puzzle"
	"github.com/AaronLay10/DefusalEngine/internal/session"
)

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeBroker struct {
	mu            sync.Mutex
	subscriptions map[string]paho.MessageHandler
	published     []published
	subscribeErr  error
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{subscriptions: make(map[string]paho.MessageHandler)}
}

func (f *fakeBroker) Subscribe(topic string, handler paho.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return f.subscribeErr
	}
	f.subscriptions[topic] = handler
	return nil
}

func (f *fakeBroker) Unsubscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subscriptions, topic)
	return nil
}

func (f *fakeBroker) Publish(topic string, retained bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, published{topic, retained, payload})
	return nil
}

func (f *fakeBroker) subscribed(topic string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.subscriptions[topic]
	return ok
}

func (f *fakeBroker) deliver(topic string, payload []byte) {
	f.mu.Lock()
	handler := f.subscriptions[topic]
	f.mu.Unlock()
	handler(nil, &mockMessage{topic: topic, payload: payload})
}

func (f *fakeBroker) lastState(t *testing.T) session.View {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.published)
	last := f.published[len(f.published)-1]
	assert.True(t, last.retained)
	var v session.View
	require.NoError(t, json.Unmarshal(last.payload, &v))
	return v
}

type mockMessage struct {
	topic   string
	payload []byte
}

func (m *mockMessage) Duplicate() bool   { return false }
func (m *mockMessage) Qos() byte         { return 1 }
func (m *mockMessage) Retained() bool    { return false }
func (m *mockMessage) Topic() string     { return m.topic }
func (m *mockMessage) MessageID() uint16 { return 0 }
func (m *mockMessage) Payload() []byte   { return m.payload }
func (m *mockMessage) Ack()              {}

func startRunner(t *testing.T) *session.Runner {
	t.Helper()
	plan := level.Plan{Level: 1, Pack: level.MainCampaign, ModuleCount: 2, TimeBudget: 60}
	s := session.New(plan, puzzle.NewRand(1),
		session.WithID("panel-test"),
		session.WithModules(
			puzzle.Module{Payload: puzzle.Venting{Question: "AKIM?", Answer: puzzle.AnswerNo}},
			puzzle.Module{Payload: puzzle.Knob{LEDs: make([]bool, puzzle.KnobLEDs), Target: puzzle.Up, Current: puzzle.Up}},
		))
	r := session.Run(context.Background(), s, session.WithTicks(make(chan time.Time)))
	t.Cleanup(func() {
		r.Abort()
		<-r.Done()
	})
	return r
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "defusal/abc/action", ActionTopic("abc"))
	assert.Equal(t, "defusal/abc/state", StateTopic("abc"))
}

func TestPanelBridgeRoutesActions(t *testing.T) {
	broker := newFakeBroker()
	bridge := NewPanelBridge(broker, nil)
	r := startRunner(t)

	require.NoError(t, bridge.Attach(r))
	require.NoError(t, bridge.Attach(r), "attach is idempotent")
	assert.True(t, broker.subscribed(ActionTopic(r.ID())))
	assert.Equal(t, session.Active, broker.lastState(t).State)

	broker.deliver(ActionTopic(r.ID()), []byte(`{"module":0,"type":"answer","answer":"HAYIR"}`))
	v := broker.lastState(t)
	assert.True(t, v.Modules[0].Solved)

	broker.deliver(ActionTopic(r.ID()), []byte(`{"module":1,"type":"rotate_knob","direction":"UP"}`))
	<-r.Done()

	require.Eventually(t, func() bool { return !bridge.Attached(r.ID()) }, time.Second, 10*time.Millisecond)
	assert.False(t, broker.subscribed(ActionTopic(r.ID())))
	assert.Equal(t, session.Won, broker.lastState(t).State)
}

func TestPanelBridgeIgnoresGarbage(t *testing.T) {
	broker := newFakeBroker()
	bridge := NewPanelBridge(broker, nil)
	r := startRunner(t)
	require.NoError(t, bridge.Attach(r))

	broker.mu.Lock()
	before := len(broker.published)
	broker.mu.Unlock()

	broker.deliver(ActionTopic(r.ID()), []byte(`{"module":0,"type":"self_destruct"}`))
	broker.deliver(ActionTopic(r.ID()), []byte(`garbage`))

	broker.mu.Lock()
	after := len(broker.published)
	broker.mu.Unlock()
	assert.Equal(t, before, after)

	v, err := r.View(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, v.Strikes)
}

func TestPanelBridgeAttachFailure(t *testing.T) {
	broker := newFakeBroker()
	broker.subscribeErr = errors.New("not connected")
	bridge := NewPanelBridge(broker, nil)
	r := startRunner(t)

	assert.Error(t, bridge.Attach(r))
	assert.False(t, bridge.Attached(r.ID()))
}

func TestPanelBridgeDetach(t *testing.T) {
	broker := newFakeBroker()
	bridge := NewPanelBridge(broker, nil)
	r := startRunner(t)
	require.NoError(t, bridge.Attach(r))

	require.NoError(t, bridge.Detach(r.ID()))
	assert.False(t, broker.subscribed(ActionTopic(r.ID())))
	require.NoError(t, bridge.Detach(r.ID()))
}

func TestTimeoutError(t *testing.T) {
	err := &TimeoutError{Op: "publish", Topic: "defusal/x/state"}
	assert.Equal(t, "mqtt publish timeout: defusal/x/state", err.Error())
}

func TestBrokerURL(t *testing.T) {
	t.Setenv("MQTT_URL", "")
	assert.Equal(t, "tcp://fallback:1883", BrokerURL("tcp://fallback:1883"))
	t.Setenv("MQTT_URL", "tcp://env:1883")
	assert.Equal(t, "tcp://env:1883", BrokerURL("tcp://fallback:1883"))
}
