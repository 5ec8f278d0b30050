// Package config loads ContestLens configuration.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. A YAML configuration file
//	3. Struct tag defaults (lowest priority)
//
// A .env file in the working directory is read before anything else. Its
// entries never override variables already present in the environment.
//
// # Environment Variables
//
// All environment variables follow the pattern CONTESTLENS_<SECTION>_<FIELD>:
//
//	CONTESTLENS_SERVER_PORT=8080
//	CONTESTLENS_LOGGING_LEVEL=debug
//	CONTESTLENS_UPLOAD_MAX_BYTES=33554432
//	CONTESTLENS_DATA_TIMEZONE=America/New_York
//	CONTESTLENS_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Configuration File
//
// The file is taken from CONTESTLENS_CONFIG_FILE, or else the first of
// contestlens.yaml and configs/contestlens.yaml that exists:
//
//	server:
//	  port: 9090
//	data:
//	  timezone: Europe/London
//	  default_page_size: 25
//
// Validation normalizes upload extensions to lower case with a leading dot
// and rejects unknown exporters, page sizes and time zones.
package config
