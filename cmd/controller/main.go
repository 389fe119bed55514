package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/open-teleop/robolink/domain/arm"
	"github.com/open-teleop/robolink/domain/diagnostic"
	"github.com/open-teleop/robolink/domain/drive"
	"github.com/open-teleop/robolink/domain/session"
	"github.com/open-teleop/robolink/domain/teleop"
	"github.com/open-teleop/robolink/pkg/actuator"
	"github.com/open-teleop/robolink/pkg/api"
	"github.com/open-teleop/robolink/pkg/config"
	customlog "github.com/open-teleop/robolink/pkg/log"
	"github.com/open-teleop/robolink/pkg/processing"
	"github.com/open-teleop/robolink/pkg/protocol"
	"github.com/open-teleop/robolink/pkg/transport"
	"github.com/open-teleop/robolink/pkg/zeromq"
	"github.com/open-teleop/robolink/services"
)

func main() {
	configDir := flag.String("config-dir", "./config", "directory holding controller_config.yaml")
	debug := flag.Bool("debug", false, "force debug logging")
	flag.Parse()

	// Load configuration first so logging can honor it
	cfg, err := config.LoadControllerConfig(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	level := cfg.Logging.Level
	if *debug {
		level = "debug"
	}
	logger, err := customlog.NewLogrusLogger("controller", level, cfg.Logging.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger = logger.WithField("robot", cfg.RobotID)
	logger.Infof("Configuration loaded from %s (link %s/%s, actuator %s)",
		*configDir, cfg.Link.Transport, cfg.Link.Family, cfg.Actuator.Driver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	// Actuators
	var act actuator.Actuator
	switch cfg.Actuator.Driver {
	case "serial":
		bridge, err := actuator.OpenSerialBridge(cfg.Actuator.Device, cfg.Actuator.Baud, logger)
		if err != nil {
			logger.Fatalf("Failed to open actuator bridge: %v", err)
		}
		defer bridge.Close()
		act = bridge
	default:
		act = actuator.NewSim(logger.WithField("component", "sim"))
	}

	verifier, err := session.VerifierFrom(cfg.Auth)
	if err != nil {
		logger.Fatalf("Invalid auth configuration: %v", err)
	}
	codec, err := protocol.NewCodec(protocol.Family(cfg.Link.Family))
	if err != nil {
		logger.Fatalf("Invalid link family: %v", err)
	}

	// Shared services read by the HTTP API
	statusService := services.NewStatusService(cfg.RobotID)
	configService, err := services.NewConfigService(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create config service: %v", err)
	}
	diagnosticService := diagnostic.NewDiagnosticService(cfg.RobotID)

	// Telemetry publication runs on worker pools, never on the control loop
	var events teleop.EventSink
	if cfg.ZeroMQ.Enabled {
		publisher, err := zeromq.NewTelemetryPublisher(cfg.ZeroMQ.PublishBindAddress, logger)
		if err != nil {
			logger.Fatalf("Failed to start telemetry publisher: %v", err)
		}
		defer publisher.Close()

		director := processing.NewEventDirector(logger, processing.NewTopicRegistry(logger), &processing.DirectorOptions{
			HighWorkers:      cfg.Processing.HighPriorityWorkers,
			StandardWorkers:  cfg.Processing.StandardPriorityWorkers,
			LowWorkers:       cfg.Processing.LowPriorityWorkers,
			DefaultQueueSize: cfg.Processing.QueueSize,
		})
		director.SetProcessor(func(ev *processing.Event) error {
			return publisher.Publish(ev.Topic, ev.Status)
		})
		director.Start()
		defer director.Stop()
		diagnosticService.SetPoolMetricsProvider(director)
		events = director
	}

	// Control link
	var listener transport.Listener
	var acceptor *transport.WebSocketAcceptor
	switch cfg.Link.Transport {
	case "serial":
		serialListener := transport.NewSerialListener(cfg.Link.SerialDevice, cfg.Link.SerialBaud, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			serialListener.Run(ctx)
		}()
		listener = serialListener
	default:
		acceptor = transport.NewWebSocketAcceptor(4, logger)
		listener = acceptor
	}

	loop, err := teleop.NewLoop(teleop.Options{
		RobotID:          cfg.RobotID,
		Listener:         listener,
		Codec:            codec,
		Verifier:         verifier,
		Actuator:         act,
		Drive:            drive.ConfigFrom(cfg.Drive),
		Arm:              arm.ConfigFrom(cfg.Arm),
		HeartbeatTimeout: time.Duration(cfg.Heartbeat.TimeoutMs) * time.Millisecond,
		Tick:             time.Duration(cfg.Control.TickMs) * time.Millisecond,
		PollInterval:     time.Duration(cfg.Control.PollIntervalMs) * time.Millisecond,
		StatusInterval:   time.Duration(cfg.ZeroMQ.StatusIntervalMs) * time.Millisecond,
		Logger:           logger,
		Status:           statusService,
		Diagnostics:      diagnosticService,
		Events:           events,
	})
	if err != nil {
		logger.Fatalf("Failed to create control loop: %v", err)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		loop.Run(ctx)
	}()

	// HTTP API
	app := api.NewApp("Robolink Controller")
	api.UseRequestLogger(app)
	api.RegisterRoutes(app, api.Dependencies{
		RobotID:     cfg.RobotID,
		Status:      statusService,
		Config:      configService,
		Diagnostics: diagnosticService,
		Control:     acceptor,
		ControlPath: cfg.Link.Path,
		Logger:      logger,
	})

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
		logger.Infof("Server starting on %s", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("Shutting down controller...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	// Stopping the loop drives every actuator to a stop before exit
	cancel()
	wg.Wait()
	logger.Infof("Controller exited properly")
}
