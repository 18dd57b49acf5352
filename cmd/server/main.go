package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cadencehq/bpmtrack/internal/analysis"
	"github.com/cadencehq/bpmtrack/internal/audio"
	"github.com/cadencehq/bpmtrack/internal/capture"
	"github.com/cadencehq/bpmtrack/internal/config"
	"github.com/cadencehq/bpmtrack/internal/controller"
	"github.com/cadencehq/bpmtrack/internal/gateway"
	"github.com/cadencehq/bpmtrack/internal/observability"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Int("sample_rate", cfg.SampleRate).
		Int("target_bpm", cfg.TargetBPM).
		Int("tolerance", cfg.ToleranceBPM).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("BPM tracker starting")

	if err := portaudio.Initialize(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize audio subsystem")
	}
	defer portaudio.Terminate()

	device, deviceID, err := capture.FindInputDevice()
	if err != nil {
		logger.Error().Err(err).Msg("No audio input device found")
		fmt.Fprintf(os.Stderr, "Available devices:\n%s\nPlease connect a microphone and try again.\n",
			capture.DescribeDevices())
		os.Exit(1)
	}
	logger.Info().Int("device_id", deviceID).Str("device", device.Name).Msg("Using input device")

	// Wire the core: one audio state shared by the capture callback, the
	// analysis monitor and the command handlers.
	metrics := observability.NewMetrics()
	state := audio.NewState(cfg.BufferSize(), cfg.MinSamples())
	state.SetDeviceID(deviceID)

	source := capture.NewPortAudioSource(device, state, metrics,
		observability.WithComponent("capture"),
		cfg.SampleRate, cfg.CaptureBlockSize, cfg.CaptureChannels)

	ctrl := controller.New(state, source, observability.WithComponent("controller"))
	hub := gateway.NewHub(ctrl, metrics, observability.WithComponent("gateway"))

	monitor := analysis.NewMonitor(state, analysis.NewOnsetEstimator(), hub, metrics,
		observability.WithComponent("analysis"),
		cfg.SampleRate, cfg.AnalysisInterval(), cfg.TargetBPM, cfg.ToleranceBPM)

	monitorDone := make(chan struct{})
	go func() {
		monitor.Run()
		close(monitorDone)
	}()

	// Create HTTP server
	mux := http.NewServeMux()
	mux.HandleFunc("/", gateway.IndexHandler())
	mux.HandleFunc("/ws", hub.Handler())
	mux.HandleFunc("/health", observability.HealthCheckHandler(version, state.IsRunning))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("http://localhost:%s", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down...")

	// Stop capture and wake the monitor so it exits within one interval.
	ctrl.Shutdown()
	select {
	case <-monitorDone:
	case <-time.After(cfg.AnalysisInterval() + time.Second):
		logger.Warn().Msg("Monitor did not stop in time")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
