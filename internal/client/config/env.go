package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with FILESENDER_* environment variables. A .env
// file in the working directory is loaded first when present; real
// environment variables win over .env entries (godotenv never overwrites).
//
// Numeric variables that fail to parse are ignored rather than fatal: the
// environment is the loosest of the configuration sources.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("FILESENDER_BASE_URL", &cfg.BaseURL)
	setString("FILESENDER_USERNAME", &cfg.Username)
	setString("FILESENDER_APIKEY", &cfg.APIKey)

	if v, ok := os.LookupEnv("FILESENDER_CHUNK_SIZE"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.ChunkSize = n
		}
	}

	setInt("FILESENDER_CONCURRENT_FILES", &cfg.ConcurrentFiles)
	setInt("FILESENDER_CONCURRENT_CHUNKS", &cfg.ConcurrentChunks)
	setInt("FILESENDER_CONCURRENT_REQUESTS", &cfg.ConcurrentRequests)
	setInt("FILESENDER_SIGNATURE_DELAY", &cfg.SignatureDelay)
	setInt("FILESENDER_DAYS_VALID", &cfg.DaysValid)
}
