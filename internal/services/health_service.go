package services

import (
	"context"
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"contestlens/internal/infrastructure"
	"contestlens/pkg/contracts"
)

// DatasetState reports whether a dataset is loaded
type DatasetState interface {
	Loaded() bool
}

// ClientCounter reports connected websocket clients
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	dataset   DatasetState
	clients   ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual component health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// VersionResponse is build information plus process uptime
type VersionResponse struct {
	contracts.VersionInfo
	UptimeSeconds float64   `json:"uptime_seconds"`
	StartTime     time.Time `json:"start_time"`
}

// NewHealthService creates a health service. clients may be nil when the
// websocket hub is disabled.
func NewHealthService(dataset DatasetState, clients ClientCounter, logger *slog.Logger) *HealthService {
	return &HealthService{
		dataset:   dataset,
		clients:   clients,
		startTime: time.Now(),
		logger:    infrastructure.WithComponent(logger, "health_service"),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   contracts.Version,
	}
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"uptime_seconds": time.Since(hs.startTime).Seconds(),
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
		},
	}
}

// ReadinessCheck reports component state. The service accepts uploads
// without a dataset, so an empty session is still ready.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services:  make(map[string]ServiceHealth, 2),
	}

	if hs.dataset != nil && hs.dataset.Loaded() {
		status.Services["dataset"] = ServiceHealth{Status: "ready", Message: "dataset loaded"}
	} else {
		status.Services["dataset"] = ServiceHealth{Status: "ready", Message: "awaiting upload"}
	}

	if hs.clients != nil {
		status.Services["websocket"] = ServiceHealth{
			Status:  "ready",
			Message: pluralClients(hs.clients.ClientCount()),
		}
	}

	hs.logger.DebugContext(ctx, "Readiness checked", slog.String("status", status.Status))
	return status
}

func pluralClients(n int) string {
	if n == 1 {
		return "1 client connected"
	}
	return strconv.Itoa(n) + " clients connected"
}

// Version returns version information
func (hs *HealthService) Version() VersionResponse {
	return VersionResponse{
		VersionInfo:   contracts.GetVersionInfo(),
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		StartTime:     hs.startTime,
	}
}
