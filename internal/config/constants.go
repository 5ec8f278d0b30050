package config

import "time"

// Application constants
const (
	// Application Info
	AppName = "ContestLens"

	// Configuration sources
	EnvPrefix     = "CONTESTLENS"
	ConfigFileEnv = "CONTESTLENS_CONFIG_FILE"
	DotEnvFile    = ".env"

	// WebSocket
	WebSocketPingPeriod      = 54 * time.Second
	WebSocketPongWait        = 60 * time.Second
	WebSocketWriteWait       = 10 * time.Second
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024
	WebSocketMaxMessageSize  = 512

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// API Endpoints
const (
	APIBasePath       = "/api"
	DataEndpoint      = "/data"
	HealthEndpoint    = "/health"
	LiveEndpoint      = "/health/live"
	ReadyEndpoint     = "/health/ready"
	VersionEndpoint   = "/version"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
	ClientLogEndpoint = "/logs"

	// UploadFormField is the multipart field carrying the contest history
	UploadFormField = "file"
)
