package models

import "time"

// ConnState is the lifecycle state of the broker connection.
type ConnState string

const (
	ConnDisconnected ConnState = "disconnected"
	ConnConnecting   ConnState = "connecting"
	ConnConnected    ConnState = "connected"
	ConnError        ConnState = "error"
)

// ConnectionConfig holds everything needed to open the broker connection.
// Immutable once a connect attempt starts.
type ConnectionConfig struct {
	Broker            string        // e.g. wss://broker.example.com:8884/mqtt
	ClientID          string        // generated fresh per session
	Username          string
	Password          string
	KeepAlive         time.Duration
	ReconnectInterval time.Duration
	ConnectTimeout    time.Duration
	CleanSession      bool
	MaxReconnects     int // attempts before the state is pinned at error
}

// ConnectionStatus is a point-in-time view of the connection for the UI.
type ConnectionStatus struct {
	State             ConnState `json:"state"`
	Message           string    `json:"message,omitempty"` // human-readable, set when State is error
	ReconnectAttempts int       `json:"reconnect_attempts"`
	ChangedAt         time.Time `json:"changed_at"`
}
