package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"station_telemetry/internal/handlers"
	"station_telemetry/internal/logger"
	"station_telemetry/internal/metrics"
	"station_telemetry/internal/mqtt"
	"station_telemetry/internal/repository"
	"station_telemetry/internal/repository/db"
	"station_telemetry/internal/server"
	"station_telemetry/internal/service"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	_ "station_telemetry/docs"
)

const defaultSimTick = 5 * time.Second

// @title Station Telemetry API
// @version 1.0
// @description Query API over the latest battery swap station states.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// load config.yml first so the log level is configurable
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

	metrics.Init()

	// wire dependencies
	repos := repository.NewRepository(sqlDB, afero.NewOsFs(), archiveRoot())

	signingKey := viper.GetString("auth.signing_key")
	if signingKey == "" {
		log.Fatalw("auth.signing_key must be set in config")
	}

	// Without a broker the simulator feeds the ingestor directly; the
	// publisher is bound to the ingestor after the services exist.
	loopback := &loopbackPublisher{}

	var pub service.Publisher = loopback
	var mq *mqtt.Client
	if viper.GetBool("mqtt.enabled") {
		mq, err = mqtt.NewClient(mqtt.Config{
			Broker:         viper.GetString("mqtt.broker"),
			ClientID:       viper.GetString("mqtt.client_id"),
			Username:       viper.GetString("mqtt.username"),
			Password:       viper.GetString("mqtt.password"),
			TelemetryTopic: viper.GetString("mqtt.topic"),
		}, log)
		if err != nil {
			log.Fatalw("failed to connect to mqtt broker", "err", err)
		}
		defer mq.Close()
		pub = mq
	}

	services := service.NewService(repos, pub, log, service.Config{
		StoreTimeout:      viper.GetDuration("store.timeout"),
		SimulatorStations: viper.GetInt("simulator.stations"),
		AuthSigningKey:    signingKey,
		AuthTokenTTL:      viper.GetDuration("auth.token_ttl"),
	})
	loopback.ingest = services.Ingestor
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// consume telemetry off the broker
	if mq != nil {
		err := mq.SubscribeTelemetry(func(topic string, payload []byte) {
			services.Ingestor.Ingest(ctx, payload)
		})
		if err != nil {
			log.Fatalw("failed to subscribe to telemetry", "err", err)
		}
	}

	// start simulator (via composed service)
	if viper.GetBool("simulator.enabled") {
		go services.Simulator.Run(ctx, simTick())
	}

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

// loopbackPublisher short-circuits the broker: simulated telemetry goes
// straight into the ingest pipeline.
type loopbackPublisher struct {
	ingest service.Ingestor
}

func (p *loopbackPublisher) PublishTelemetry(_ string, payload []byte) error {
	if p.ingest == nil {
		return nil
	}
	p.ingest.Ingest(context.Background(), payload)
	return nil
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "stations.db")
		dbPath = "stations.db"
	}
	return db.InitDB(dbPath)
}

func archiveRoot() string {
	root := viper.GetString("archive.root")
	if root == "" {
		root = "archive"
	}
	return root
}

func simTick() time.Duration {
	if d := viper.GetDuration("simulator.interval"); d > 0 {
		return d
	}
	return defaultSimTick
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
