package service

import (
	"context"
	"time"

	"smartbox_dashboard/internal/logger"
	"smartbox_dashboard/internal/models"
	"smartbox_dashboard/internal/mqtt"
	"smartbox_dashboard/internal/repository"
)

type Authorization interface {
	SignUp(email, password string) (int, error)
	GenerateToken(email, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Telemetry owns the live SmartBox snapshot: it is the single writer fed by
// the broker subscription, and the read model for HTTP/WS.
type Telemetry interface {
	HandleMessage(topic string, payload []byte)
	GetState(ctx context.Context) (models.SmartBoxState, error)
}

// Warning publishes operator warnings to the device, fire-and-forget.
type Warning interface {
	Send(ctx context.Context, p WarningParams) (models.WarningCommand, error)
}

// Connection exposes broker status plus the manual reconnect/disconnect
// actions the dashboard offers.
type Connection interface {
	Status(ctx context.Context) models.ConnectionStatus
	Reconnect(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

// EventLog exposes the append-only audit log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.DashboardEvent, error)
}

// Broker is the slice of the connection manager the services depend on.
type Broker interface {
	Connect() error
	Disconnect()
	Subscribe(topic string, fn mqtt.Handler) *mqtt.Subscription
	Publish(topic string, payload any, retain bool) bool
	Status() models.ConnectionStatus
}

// LogFilter narrows the event list query.
type LogFilter struct {
	From time.Time
	To   time.Time
	Type string
}

// WarningParams is the operator's input for a warning command.
type WarningParams struct {
	Type     string
	Message  string
	Severity string
}

// Config carries the service-level settings read from configuration.
type Config struct {
	InboundTopic  string
	OutboundTopic string
	SigningKey    string
}

//
// Root Service aggregates all sub-services.
//

type Service struct {
	Authorization
	Telemetry
	Warning
	Connection
	EventLog
}

// NewService wires the repository layer and the broker into concrete services.
func NewService(repos *repository.Repository, broker Broker, cfg Config, log *logger.Logger) *Service {
	telemetry := NewTelemetryService(log)
	return &Service{
		Authorization: NewAuthService(repos.Auth, cfg.SigningKey),
		Telemetry:     telemetry,
		Warning:       NewWarningService(broker, repos.EventRepo, cfg.OutboundTopic, log),
		Connection:    NewConnectionService(broker, repos.EventRepo, cfg.InboundTopic, telemetry.HandleMessage, log),
		EventLog:      NewEventLogService(repos.EventRepo),
	}
}
