package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"Chirpnet/cmd/chirpd/config"
	"Chirpnet/pkg/async"
	layer "Chirpnet/pkg/layers"
	"Chirpnet/pkg/logger"
	"Chirpnet/pkg/metrics"
	"Chirpnet/pkg/mqtt"
	"Chirpnet/pkg/web"
)

var version = "dev"

// sendFunc defers the choice of transmitter until the node exists.
type sendFunc func(ctx context.Context, message string) error

func (f sendFunc) Send(ctx context.Context, message string) error { return f(ctx, message) }

func main() {
	configFile := flag.String("config", "config.yml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	validate := flag.Bool("validate", false, "Validate configuration and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("chirpd %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	log := config.CreateLogger(cfg)
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}
	if *validate {
		log.Info("configuration is valid", logger.String("config_file", *configFile))
		os.Exit(0)
	}

	if err := run(cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("exiting", logger.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, cancel := async.Interrupt(context.Background())
	defer cancel()

	nodeID := cfg.Node.ID
	if nodeID == "" {
		nodeID = uuid.NewString()
	}
	log.Info("starting chirpd", logger.String("version", version), logger.String("node", nodeID))

	var node *config.Node
	sender := sendFunc(func(ctx context.Context, message string) error {
		return node.Transmitter.Send(ctx, message)
	})

	var observers layer.Observers
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		m := metrics.New(nil)
		observers = append(observers, m)
		metricsHandler = m.Handler()
	}

	var hub *web.Hub
	if cfg.Web.Enabled {
		hub = web.NewHub(sender, log)
		observers = append(observers, hub)
	}

	var bridge *mqtt.Bridge
	if cfg.MQTT.Enabled {
		client := mqtt.NewClient(cfg.MQTT, nodeID, log.WithComponent("mqtt"))
		bridge = mqtt.NewBridge(cfg.MQTT, nodeID, client, sender, log)
		observers = append(observers, bridge)
	}

	node, err := config.CreateNode(cfg, observers, log)
	if err != nil {
		return err
	}
	defer node.Receiver.Close()
	if err := node.Physical.Open(); err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	defer func() {
		if err := node.Physical.Close(); err != nil {
			log.Warn("close device", logger.Error(err))
		}
	}()

	var services []<-chan struct{}
	if bridge != nil {
		if err := bridge.Start(ctx); err != nil {
			return err
		}
		defer bridge.Stop()
	}
	if cfg.Web.Enabled {
		server := web.NewServer(cfg.Web, web.Node{
			ID:          nodeID,
			Params:      node.Params,
			Transmitter: node.Transmitter,
			Receiver:    node.Receiver,
		}, hub, metricsHandler, log)
		services = append(services, async.Job(func() {
			if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("web server stopped", logger.Error(err))
				cancel()
			}
		}))
	}

	go func() {
		for message := range node.Receiver.Messages() {
			fmt.Println(message)
		}
	}()

	log.Info("listening", logger.Duration("symbol_period", node.Params.SymbolDuration()))
	<-ctx.Done()

	log.Info("shutting down")
	select {
	case <-async.Gather0(services...):
	case <-time.After(10 * time.Second):
		log.Warn("timed out waiting for services")
	}
	return ctx.Err()
}
