// Package config loads runtime configuration for the filesender CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables, with an optional .env file loaded first
//     (see parseEnv). Variables are prefixed FILESENDER_.
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-b string   base URL of the REST endpoint
//	-u string   username (the uid shown on the server's API page)
//	-k string   API key
//	-s int      chunk size in bytes
//	-d int      transfer validity in days
//
// # JSON schema
//
//	{
//	  "base_url": "https://files.example.com/rest.php",
//	  "username": "alice",
//	  "apikey": "...",
//	  "chunk_size": 5242880,
//	  "concurrent_files": 1,
//	  "concurrent_chunks": 2,
//	  "concurrent_requests": 4,
//	  "signature_delay": 0,
//	  "days_valid": 10
//	}
//
// Primary API
//
//   - type Config                   — the resolved settings
//   - func Load() *Config           — builds Config by applying all sources in order
//   - func (*Config) LoadDefaults() — sets sensible defaults
package config
