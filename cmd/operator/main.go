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

	"github.com/open-teleop/robolink/domain/dispatch"
	"github.com/open-teleop/robolink/pkg/config"
	customlog "github.com/open-teleop/robolink/pkg/log"
	"github.com/open-teleop/robolink/pkg/telemetry"
	"github.com/open-teleop/robolink/pkg/transport"
	"github.com/open-teleop/robolink/pkg/zeromq"
)

func main() {
	configDir := flag.String("config-dir", "./config", "directory holding operator_config.yaml")
	debug := flag.Bool("debug", false, "force debug logging")
	flag.Parse()

	cfg, err := config.LoadOperatorConfig(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	level := cfg.Logging.Level
	if *debug {
		level = "debug"
	}
	logger, err := customlog.NewLogrusLogger("operator", level, cfg.Logging.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	input := dispatch.NewLineInput()

	// The client's hooks reach the dispatcher, which sends through the client.
	var dispatcher *dispatch.Dispatcher
	client := transport.NewClient(cfg.Link.URL,
		time.Duration(cfg.Link.ReconnectInitialMs)*time.Millisecond,
		time.Duration(cfg.Link.ReconnectMaxMs)*time.Millisecond,
		transport.ClientHooks{
			OnConnect:    func(transport.Session) { dispatcher.SetConnected(true) },
			OnMessage:    func(text string, at time.Time) { dispatcher.OnReply(text, at) },
			OnDisconnect: func(error) { dispatcher.SetConnected(false) },
		},
		logger.WithField("component", "link"),
	)
	dispatcher, err = dispatch.New(dispatch.ConfigFrom(cfg), input, client, logger.WithField("component", "dispatch"))
	if err != nil {
		logger.Fatalf("Failed to create dispatcher: %v", err)
	}

	if cfg.Telemetry.Enabled {
		telemetryLogger := logger.WithField("component", "telemetry")
		listener, err := zeromq.NewTelemetryListener(cfg.Telemetry.ConnectAddress,
			func(topic string, s telemetry.Status) {
				if topic == telemetry.TopicSafety {
					telemetryLogger.Warnf("Device safety event %s (link %s)", s.Event, s.LinkState)
					return
				}
				telemetryLogger.Debugf("Device status: link=%s wheels=%v joints=%v homing=%v",
					s.LinkState, s.Wheels, s.Joints, s.Homing)
			}, telemetryLogger)
		if err != nil {
			logger.Warnf("Telemetry disabled: %v", err)
		} else {
			listener.Start()
			defer listener.Stop()
		}
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		client.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		dispatcher.Run(ctx)
	}()

	// stdin may block past shutdown, so the reader is not waited for.
	go func() {
		err := input.Run(ctx, os.Stdin, func(err error) { logger.Warnf("Input: %v", err) })
		if err != nil && ctx.Err() == nil {
			logger.Warnf("Input closed: %v", err)
		}
	}()

	go reportStatus(ctx, dispatcher, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("Shutting down operator...")
	cancel()
	wg.Wait()
	logger.Infof("Operator exited properly")
}

// reportStatus logs the connection indicator and the last device reply
// whenever either changes.
func reportStatus(ctx context.Context, d *dispatch.Dispatcher, logger customlog.Logger) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	var last dispatch.Status
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		s := d.Status()
		if s.Connected == last.Connected && s.LastReply == last.LastReply && s.Authenticated == last.Authenticated {
			continue
		}
		state := "DISCONNECTED"
		if s.Connected {
			state = "CONNECTED"
		}
		logger.Infof("[%s] authenticated=%v last=%q sent=%d", state, s.Authenticated, s.LastReply, s.Sent)
		last = s
	}
}
