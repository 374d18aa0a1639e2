// Package config loads application settings from an optional YAML file
// with environment-variable overrides (TRASHCOMPASS_* keys).
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/Unpiloted0852/TrashCompass/pkg/overpass"
	"github.com/Unpiloted0852/TrashCompass/pkg/session"
)

type SearchConfig struct {
	RadiusMeters   int      `mapstructure:"radius_meters"`
	Endpoints      []string `mapstructure:"endpoints"`
	RetryRounds    int      `mapstructure:"retry_rounds"`
	ConnectSeconds int      `mapstructure:"connect_timeout_seconds"`
	ReadSeconds    int      `mapstructure:"read_timeout_seconds"`
	UserAgent      string   `mapstructure:"user_agent"`
}

type SuggestConfig struct {
	// NominatimServer is the geocoding endpoint for the free-form
	// place-search box.
	NominatimServer string `mapstructure:"nominatim_server"`
	// TransientRetries is how many extra attempts a truncated or
	// interrupted Nominatim response gets before giving up (0 to 5).
	TransientRetries int `mapstructure:"transient_retries"`
}

type ResolverConfig struct {
	// RemoteEndpoint enables the natural-language resolution step when
	// set. Empty means catalog and fallback resolution only.
	RemoteEndpoint string `mapstructure:"remote_endpoint"`
}

type APIConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// AppConfig holds the entire configuration.
type AppConfig struct {
	Debug    bool           `mapstructure:"debug"`
	Units    string         `mapstructure:"units"`
	Search   SearchConfig   `mapstructure:"search"`
	Suggest  SuggestConfig  `mapstructure:"suggest"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	API      APIConfig      `mapstructure:"api"`
}

// Load reads the configuration from path, or from defaults and the
// environment alone when path is empty.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("trashcompass")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigType("yaml")

	v.SetDefault("debug", false)
	v.SetDefault("units", "metric")
	v.SetDefault("search.radius_meters", session.DefaultRadiusMeters)
	v.SetDefault("search.endpoints", overpass.DefaultEndpoints)
	v.SetDefault("search.retry_rounds", 3)
	v.SetDefault("search.connect_timeout_seconds", 15)
	v.SetDefault("search.read_timeout_seconds", 30)
	v.SetDefault("search.user_agent", "TrashCompass/2.1")
	v.SetDefault("suggest.nominatim_server", "https://nominatim.openstreetmap.org")
	v.SetDefault("suggest.transient_retries", 1)
	v.SetDefault("resolver.remote_endpoint", "")
	v.SetDefault("api.listen_addr", "127.0.0.1:8723")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Search.RadiusMeters = session.ClampRadius(cfg.Search.RadiusMeters)
	if cfg.Suggest.NominatimServer == "" {
		cfg.Suggest.NominatimServer = "https://nominatim.openstreetmap.org"
	}
	if cfg.Suggest.TransientRetries < 0 || cfg.Suggest.TransientRetries > 5 {
		cfg.Suggest.TransientRetries = 1
	}
	if cfg.Units != "imperial" {
		cfg.Units = "metric"
	}
	return &cfg, nil
}
