package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blckassembly/brelth-AES/internal/api"
	"github.com/blckassembly/brelth-AES/internal/config"
	"github.com/blckassembly/brelth-AES/internal/kafka"
	"github.com/blckassembly/brelth-AES/internal/sim"
	"github.com/blckassembly/brelth-AES/internal/storage/sqlite"
	"github.com/blckassembly/brelth-AES/internal/websocket"
	"github.com/blckassembly/brelth-AES/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	logLevel := flag.String("log-level", "", "Log level: DEBUG, INFO, WARNING or ERROR (overrides the config file)")
	flag.Parse()

	// A missing or malformed config file falls back to full defaults; the
	// simulation always has something to run with.
	cfg, loadErr := config.LoadWithFallback(*configPath)

	level := cfg.Logging.Level
	if *logLevel != "" {
		level = *logLevel
	}

	log, err := logger.New(logger.Config{
		Level:  level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if loadErr != nil {
		log.Warn("Using default configuration", logger.Error(loadErr), logger.String("config_path", *configPath))
	}

	log.Info("Starting ADS-B simulator",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
		logger.Int("aircraft", cfg.Simulation.NumAircraft),
	)

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rootRng := rand.New(rand.NewSource(seed))

	// Publisher first: bus failures degrade to null mode, they never stop
	// the simulation.
	producer := kafka.NewProducer(cfg.Kafka, log)

	sinks := []sim.ReportSink{producer}
	var statsSinks []sim.StatsSink

	var reportStorage *sqlite.ReportStorage
	if cfg.Storage.Enabled {
		reportStorage, err = sqlite.NewReportStorage(cfg.Storage.SQLitePath, cfg.Storage.MaxReportsInAPI, log)
		if err != nil {
			log.Error("Failed to open report archive, continuing without it", logger.Error(err))
			reportStorage = nil
		} else {
			sinks = append(sinks, reportStorage)
		}
	}

	var wsServer *websocket.Server
	if cfg.Server.Enabled {
		wsServer = websocket.NewServer(log)
		go wsServer.Run()

		feed := websocket.NewFeed(wsServer)
		sinks = append(sinks, feed)
		statsSinks = append(statsSinks, feed)
	}

	fleet := sim.NewFleet(cfg.Simulation, cfg.AircraftTypes, rand.New(rand.NewSource(rootRng.Int63())), log)
	emitter := sim.NewEmitter(cfg.Simulation, rand.New(rand.NewSource(rootRng.Int63())), sinks...)
	scheduler := sim.NewScheduler(fleet, emitter, producer, cfg.Simulation.EmergencyFrequency, log, statsSinks...)

	var httpServer *http.Server
	if cfg.Server.Enabled {
		router := api.NewRouter(scheduler, reportStorage, wsServer, log)
		httpServer = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router.Routes(),
		}
		go func() {
			log.Info("Starting HTTP server", logger.String("addr", httpServer.Addr))
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("HTTP server error", logger.Error(err))
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("Received shutdown signal", logger.String("signal", sig.String()))
		scheduler.Stop()
	}()

	// Run blocks until shutdown is latched; it drains the publisher before
	// returning.
	runErr := scheduler.Run(ctx)

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", logger.Error(err))
		}
		shutdownCancel()
	}

	if reportStorage != nil {
		if err := reportStorage.Close(); err != nil {
			log.Error("Failed to close report archive", logger.Error(err))
		}
	}

	if runErr != nil {
		log.Error("Simulation failed", logger.Error(runErr))
		log.Sync()
		os.Exit(1)
	}

	log.Info("Simulator stopped")
}
