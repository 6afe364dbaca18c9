package config

// Config holds runtime settings for the filesender CLI.
//
// Units: ChunkSize is bytes, SignatureDelay is seconds added to every
// signature timestamp, DaysValid is the transfer expiry in days from now.
// Zero concurrency values mean "use the engine default".
type Config struct {
	BaseURL            string
	Username           string
	APIKey             string
	ChunkSize          int64
	ConcurrentFiles    int
	ConcurrentChunks   int
	ConcurrentRequests int
	SignatureDelay     int
	DaysValid          int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "https://filesender.renater.fr/rest.php"
	c.DaysValid = 10
}

// Load constructs a Config, applies defaults, then overlays values from the
// environment (including an optional .env file), a JSON file (if present)
// and command-line flags. Later sources take precedence over earlier ones.
func Load() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
