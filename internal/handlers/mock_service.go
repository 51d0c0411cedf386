package handlers

import (
	"context"
	"net/http"
	"time"

	"smartbox_dashboard/internal/models"
	"smartbox_dashboard/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpEmail    string
	lastSignUpPassword string
	lastGenEmail       string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(email, password string) (int, error) {
	m.lastSignUpEmail = email
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(email, password string) (string, error) {
	m.lastGenEmail = email
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockTelemetry struct {
	state models.SmartBoxState
	err   error

	handled []struct {
		topic   string
		payload []byte
	}
}

func (m *mockTelemetry) HandleMessage(topic string, payload []byte) {
	m.handled = append(m.handled, struct {
		topic   string
		payload []byte
	}{topic: topic, payload: payload})
}

func (m *mockTelemetry) GetState(ctx context.Context) (models.SmartBoxState, error) {
	return m.state, m.err
}

type mockWarning struct {
	cmd  models.WarningCommand
	err  error
	last service.WarningParams

	sendCalls int
}

func (m *mockWarning) Send(ctx context.Context, p service.WarningParams) (models.WarningCommand, error) {
	m.sendCalls++
	m.last = p
	return m.cmd, m.err
}

type mockConnection struct {
	status        models.ConnectionStatus
	reconnectErr  error
	disconnectErr error

	reconnects  int
	disconnects int
}

func (m *mockConnection) Status(ctx context.Context) models.ConnectionStatus { return m.status }
func (m *mockConnection) Reconnect(ctx context.Context) error {
	m.reconnects++
	return m.reconnectErr
}
func (m *mockConnection) Disconnect(ctx context.Context) error {
	m.disconnects++
	return m.disconnectErr
}

type mockEventLog struct {
	resp     []models.DashboardEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.DashboardEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
