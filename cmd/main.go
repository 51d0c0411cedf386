package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"smartbox_dashboard/internal/handlers"
	"smartbox_dashboard/internal/logger"
	"smartbox_dashboard/internal/models"
	"smartbox_dashboard/internal/mqtt"
	"smartbox_dashboard/internal/repository"
	"smartbox_dashboard/internal/repository/db"
	"smartbox_dashboard/internal/server"
	"smartbox_dashboard/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

func main() {
	// load config.yml first so the log level comes from it
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(viper.GetString("log_level"))

	// open DB
	sqlDB, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// broker connection manager: one instance per process, explicit ownership
	manager := mqtt.NewManager(connectionConfig(), log.Named("mqtt"))

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	services := service.NewService(repos, manager, service.Config{
		InboundTopic:  viper.GetString("mqtt.topics.inbound"),
		OutboundTopic: viper.GetString("mqtt.topics.outbound"),
		SigningKey:    viper.GetString("auth.signing_key"),
	}, log)
	apiHandler := handlers.NewHandler(services, log)

	// register the inbound subscription before connecting so nothing is lost
	// between registration and connect completion
	manager.Subscribe(viper.GetString("mqtt.topics.inbound"), services.Telemetry.HandleMessage)

	// initial connect is best-effort: the dashboard still serves, the operator
	// can trigger a manual reconnect
	if err := manager.Connect(); err != nil {
		log.Warnw("initial broker connect failed", "err", err)
	}

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(srv, manager, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	viper.SetDefault("log_level", logger.InfoLevel)
	viper.SetDefault("mqtt.keep_alive_s", 60)
	viper.SetDefault("mqtt.reconnect_interval_ms", 5000)
	viper.SetDefault("mqtt.connect_timeout_ms", 10000)
	viper.SetDefault("mqtt.clean_session", true)
	viper.SetDefault("mqtt.max_reconnect_attempts", 5)
	// credentials may come from the environment instead of the file,
	// e.g. SMARTBOX_MQTT_PASSWORD overrides mqtt.password
	viper.SetEnvPrefix("SMARTBOX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	return viper.ReadInConfig()
}

// connectionConfig assembles the broker config, generating a fresh client id
// per session to avoid collisions between concurrent dashboards.
func connectionConfig() models.ConnectionConfig {
	clientID := viper.GetString("mqtt.client_id_prefix")
	if clientID == "" {
		clientID = "smartbox-dashboard"
	}
	clientID += "-" + uuid.NewString()[:8]

	return models.ConnectionConfig{
		Broker:            viper.GetString("mqtt.broker"),
		ClientID:          clientID,
		Username:          viper.GetString("mqtt.username"),
		Password:          viper.GetString("mqtt.password"),
		KeepAlive:         time.Duration(viper.GetInt("mqtt.keep_alive_s")) * time.Second,
		ReconnectInterval: time.Duration(viper.GetInt("mqtt.reconnect_interval_ms")) * time.Millisecond,
		ConnectTimeout:    time.Duration(viper.GetInt("mqtt.connect_timeout_ms")) * time.Millisecond,
		CleanSession:      viper.GetBool("mqtt.clean_session"),
		MaxReconnects:     viper.GetInt("mqtt.max_reconnect_attempts"),
	}
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "app.db")
		dbPath = "app.db"
	}
	return db.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, manager *mqtt.Manager, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// tear the broker connection down first so no handler fires mid-shutdown
	manager.Disconnect()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
