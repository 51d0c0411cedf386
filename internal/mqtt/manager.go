package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"smartbox_dashboard/internal/logger"
	"smartbox_dashboard/internal/models"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Handler consumes one raw message from a topic.
type Handler func(topic string, payload []byte)

// Subscription identifies a single registered handler so it can be removed
// individually (Go funcs are not comparable).
type Subscription struct {
	topic string
	id    uint64
	fn    Handler
}

// Defaults applied when the config leaves the knob at zero.
const (
	defaultMaxReconnects  = 5
	defaultConnectTimeout = 10 * time.Second
	disconnectQuiesceMs   = 250
	qosAtMostOnce         = 0
)

var (
	ErrConnectInProgress = errors.New("connect already in progress")
	ErrConnectTimeout    = errors.New("connect timed out")
)

// clientFactory builds the underlying paho client; injected so tests can
// substitute a fake transport.
type clientFactory func(*paho.ClientOptions) paho.Client

// Manager owns the lifecycle of exactly one broker connection and routes
// inbound messages to registered handlers by topic. One instance per session;
// construct it explicitly and pass it to whoever needs it.
type Manager struct {
	cfg       models.ConnectionConfig
	log       *logger.Logger
	newClient clientFactory

	mu         sync.Mutex
	client     paho.Client
	subs       map[string][]*Subscription
	nextSubID  uint64
	status     models.ConnectionStatus
	connecting bool
	reconnects int
	generation uint64 // bumped by Disconnect so stale connect results are ignored
}

// NewManager builds a manager for the given connection config.
func NewManager(cfg models.ConnectionConfig, log *logger.Logger) *Manager {
	if cfg.MaxReconnects <= 0 {
		cfg.MaxReconnects = defaultMaxReconnects
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	return &Manager{
		cfg:       cfg,
		log:       log,
		newClient: paho.NewClient,
		subs:      make(map[string][]*Subscription),
		status: models.ConnectionStatus{
			State:     models.ConnDisconnected,
			ChangedAt: time.Now().UTC(),
		},
	}
}

// Connect opens the broker connection. It rejects a call made while another
// connect is in flight and returns once the transport reports success or
// failure, bounded by the configured connect timeout.
func (m *Manager) Connect() error {
	m.mu.Lock()
	if m.connecting {
		m.mu.Unlock()
		return ErrConnectInProgress
	}
	if m.client != nil && m.client.IsConnected() {
		m.mu.Unlock()
		return nil
	}
	m.connecting = true
	m.reconnects = 0
	gen := m.generation
	m.setStateLocked(models.ConnConnecting, "")
	client := m.newClient(m.buildOptions())
	m.client = client
	m.mu.Unlock()

	token := client.Connect()
	var err error
	select {
	case <-token.Done():
		err = token.Error()
	case <-time.After(m.cfg.ConnectTimeout):
		err = ErrConnectTimeout
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.connecting = false
	if gen != m.generation {
		// Disconnect happened while the connect was in flight; the session
		// this attempt belonged to is gone, so its outcome is ignored.
		if client.IsConnected() {
			go client.Disconnect(disconnectQuiesceMs)
		}
		return nil
	}
	if err != nil {
		m.client = nil
		m.setStateLocked(models.ConnError, err.Error())
		// The handshake may still complete in the background (timeout case);
		// stop the abandoned client so it cannot keep a ghost session alive
		// under the same client id.
		go client.Disconnect(disconnectQuiesceMs)
		return fmt.Errorf("connect to broker %s: %w", m.cfg.Broker, err)
	}
	m.setStateLocked(models.ConnConnected, "")
	return nil
}

// Subscribe registers a handler for a topic. Multiple handlers per topic are
// invoked in registration order. The broker subscription is issued immediately
// when connected and deferred to the next (re)connect otherwise.
func (m *Manager) Subscribe(topic string, fn Handler) *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSubID++
	sub := &Subscription{topic: topic, id: m.nextSubID, fn: fn}
	m.subs[topic] = append(m.subs[topic], sub)
	if len(m.subs[topic]) == 1 && m.client != nil && m.client.IsConnected() {
		m.subscribeLocked(m.client, topic)
	}
	return sub
}

// Unsubscribe removes one registration, or every handler for the topic when
// sub is nil. Safe to call when not connected.
func (m *Manager) Unsubscribe(topic string, sub *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub == nil {
		delete(m.subs, topic)
	} else {
		kept := m.subs[topic][:0]
		for _, s := range m.subs[topic] {
			if s.id != sub.id {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			delete(m.subs, topic)
		} else {
			m.subs[topic] = kept
		}
	}
	if _, still := m.subs[topic]; !still && m.client != nil && m.client.IsConnected() {
		m.client.Unsubscribe(topic)
	}
}

// Publish serializes the payload (strings and byte slices pass through
// verbatim, everything else is JSON-encoded) and sends it with QoS 0.
// Returns false instead of an error when not connected: outbound failures are
// non-fatal to the caller.
func (m *Manager) Publish(topic string, payload any, retain bool) bool {
	data, err := encodePayload(payload)
	if err != nil {
		m.log.Errorw("mqtt_publish_encode_failed", "topic", topic, "err", err)
		return false
	}

	m.mu.Lock()
	client := m.client
	m.mu.Unlock()
	if client == nil || !client.IsConnected() {
		m.log.Warnw("mqtt_publish_not_connected", "topic", topic)
		return false
	}

	token := client.Publish(topic, qosAtMostOnce, retain, data)
	token.Wait()
	if err := token.Error(); err != nil {
		m.log.Errorw("mqtt_publish_failed", "topic", topic, "err", err)
		return false
	}
	return true
}

// Disconnect ends the transport, clears every handler registration and resets
// the state to disconnected. Safe to call when already disconnected.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	client := m.client
	m.client = nil
	m.subs = make(map[string][]*Subscription)
	m.reconnects = 0
	m.generation++
	m.setStateLocked(models.ConnDisconnected, "")
	m.mu.Unlock()

	if client != nil && client.IsConnected() {
		client.Disconnect(disconnectQuiesceMs)
	}
}

// Status returns a point-in-time view of the connection.
func (m *Manager) Status() models.ConnectionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.status
	st.ReconnectAttempts = m.reconnects
	return st
}

// Config returns the connection config the manager was built with.
func (m *Manager) Config() models.ConnectionConfig {
	return m.cfg
}

func (m *Manager) buildOptions() *paho.ClientOptions {
	opts := paho.NewClientOptions().
		AddBroker(m.cfg.Broker).
		SetClientID(m.cfg.ClientID).
		SetKeepAlive(m.cfg.KeepAlive).
		SetCleanSession(m.cfg.CleanSession).
		SetConnectTimeout(m.cfg.ConnectTimeout).
		SetAutoReconnect(true)
	if m.cfg.Username != "" {
		opts.SetUsername(m.cfg.Username)
	}
	if m.cfg.Password != "" {
		opts.SetPassword(m.cfg.Password)
	}
	if m.cfg.ReconnectInterval > 0 {
		opts.SetMaxReconnectInterval(m.cfg.ReconnectInterval)
	}
	opts.SetOnConnectHandler(m.onConnect)
	opts.SetConnectionLostHandler(m.onConnectionLost)
	opts.SetReconnectingHandler(m.onReconnecting)
	return opts
}

// onConnect fires on the initial connect and on every automatic reconnect.
// It (re)issues the broker subscription for every registered topic, which is
// what makes subscribe-before-connect registrations take effect.
func (m *Manager) onConnect(client paho.Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconnects = 0
	m.setStateLocked(models.ConnConnected, "")
	for topic := range m.subs {
		m.subscribeLocked(client, topic)
	}
}

func (m *Manager) onConnectionLost(_ paho.Client, err error) {
	m.log.Warnw("mqtt_connection_lost", "err", err)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setStateLocked(models.ConnError, fmt.Sprintf("connection lost: %v", err))
}

// onReconnecting counts the transport's automatic attempts and, past the
// configured maximum, stops the client so an abandoned session does not
// hammer the broker forever. Recovery from there is a manual Connect.
func (m *Manager) onReconnecting(client paho.Client, _ *paho.ClientOptions) {
	m.mu.Lock()
	m.reconnects++
	attempts := m.reconnects
	exhausted := attempts > m.cfg.MaxReconnects
	if exhausted {
		m.client = nil
		m.setStateLocked(models.ConnError,
			fmt.Sprintf("gave up after %d reconnect attempts", m.cfg.MaxReconnects))
	}
	m.mu.Unlock()

	if exhausted {
		// Disconnect must not run on the paho callback goroutine.
		go client.Disconnect(disconnectQuiesceMs)
		return
	}
	m.log.Infow("mqtt_reconnecting", "attempt", attempts, "max", m.cfg.MaxReconnects)
}

// subscribeLocked issues the broker subscription for a topic. Caller holds mu.
func (m *Manager) subscribeLocked(client paho.Client, topic string) {
	token := client.Subscribe(topic, qosAtMostOnce, func(_ paho.Client, msg paho.Message) {
		m.dispatch(msg.Topic(), msg.Payload())
	})
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			m.log.Errorw("mqtt_subscribe_failed", "topic", topic, "err", err)
		}
	}()
}

// dispatch invokes every handler registered for the topic, in registration
// order. Paho delivers messages for one subscription sequentially, so handler
// invocations for a topic never overlap.
func (m *Manager) dispatch(topic string, payload []byte) {
	m.mu.Lock()
	subs := make([]*Subscription, len(m.subs[topic]))
	copy(subs, m.subs[topic])
	m.mu.Unlock()
	for _, s := range subs {
		s.fn(topic, payload)
	}
}

// setStateLocked records a state transition. Caller holds mu.
func (m *Manager) setStateLocked(state models.ConnState, msg string) {
	if m.status.State == state && m.status.Message == msg {
		return
	}
	m.status = models.ConnectionStatus{
		State:     state,
		Message:   msg,
		ChangedAt: time.Now().UTC(),
	}
	m.log.Infow("mqtt_state_changed", "state", state, "message", msg)
}

func encodePayload(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case string:
		return []byte(p), nil
	case []byte:
		return p, nil
	default:
		return json.Marshal(p)
	}
}
