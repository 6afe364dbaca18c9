package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/filesender/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer fields
// distinguish "absent" from "zero", so a JSON file only overrides the keys it
// actually contains.
type JsonConfig struct {
	BaseURL            *string `json:"base_url"`
	Username           *string `json:"username"`
	APIKey             *string `json:"apikey"`
	ChunkSize          *int64  `json:"chunk_size"`
	ConcurrentFiles    *int    `json:"concurrent_files"`
	ConcurrentChunks   *int    `json:"concurrent_chunks"`
	ConcurrentRequests *int    `json:"concurrent_requests"`
	SignatureDelay     *int    `json:"signature_delay"`
	DaysValid          *int    `json:"days_valid"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c or -config flags (flagx.ConfigFile); when
// neither is given, nothing is loaded. Panics on read or unmarshal errors.
//
// Intended usage is: defaults -> parseEnv -> parseJson -> parseFlags, where
// later stages override earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFile()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.BaseURL != nil {
		cfg.BaseURL = *jc.BaseURL
	}
	if jc.Username != nil {
		cfg.Username = *jc.Username
	}
	if jc.APIKey != nil {
		cfg.APIKey = *jc.APIKey
	}
	if jc.ChunkSize != nil {
		cfg.ChunkSize = *jc.ChunkSize
	}
	if jc.ConcurrentFiles != nil {
		cfg.ConcurrentFiles = *jc.ConcurrentFiles
	}
	if jc.ConcurrentChunks != nil {
		cfg.ConcurrentChunks = *jc.ConcurrentChunks
	}
	if jc.ConcurrentRequests != nil {
		cfg.ConcurrentRequests = *jc.ConcurrentRequests
	}
	if jc.SignatureDelay != nil {
		cfg.SignatureDelay = *jc.SignatureDelay
	}
	if jc.DaysValid != nil {
		cfg.DaysValid = *jc.DaysValid
	}
}
