package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrMissingStorage is returned when the object store cannot be configured.
var ErrMissingStorage = errors.New("missing storage configuration")

const (
	envPrefix          = "ALPHA"
	defaultSpotURL     = "https://api.binance.com/api/v3/exchangeInfo"
	defaultSymbolKline = "https://www.binance.com/bapi/defi/v1/public/alpha-trade/klines"
	defaultReferer     = "https://www.binance.com/en/alpha"
)

// StorageConfig selects the object store backend.
type StorageConfig struct {
	Backend         string
	Endpoint        string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	LocalDir        string
}

// Validate reports ErrMissingStorage when required settings are absent.
func (c StorageConfig) Validate() error {
	switch strings.ToLower(c.Backend) {
	case "s3", "":
		var missing []string
		if c.Bucket == "" {
			missing = append(missing, "r2-bucket")
		}
		if c.AccessKeyID == "" {
			missing = append(missing, "r2-access-key-id")
		}
		if c.SecretAccessKey == "" {
			missing = append(missing, "r2-secret-access-key")
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: %s", ErrMissingStorage, strings.Join(missing, ", "))
		}
	case "file":
		if c.LocalDir == "" {
			return fmt.Errorf("%w: local-dir", ErrMissingStorage)
		}
	case "mem":
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrMissingStorage, c.Backend)
	}
	return nil
}

// UpstreamConfig holds provider endpoints and request settings.
type UpstreamConfig struct {
	TickerURL          string
	KlinesURL          string
	SymbolKlinesURL    string
	SpotURL            string
	ProxyURL           string
	Referer            string
	RequestTimeout     time.Duration
	ProxyTimeout       time.Duration
	MaxRetries         int
	RequestsPerSecond  float64
	PreserveCaseChains []string
}

// LoadDotEnv loads .env then .env.local from dir into the process
// environment. Missing files are ignored.
func LoadDotEnv(dir string) {
	for _, name := range []string{".env", ".env.local"} {
		path := name
		if dir != "" {
			path = strings.TrimRight(dir, "/") + "/" + name
		}
		_ = godotenv.Overload(path)
	}
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	v.SetDefault("storage-backend", "s3")
	v.SetDefault("r2-region", "auto")
	v.SetDefault("spot-url", defaultSpotURL)
	v.SetDefault("symbol-klines-url", defaultSymbolKline)
	v.SetDefault("referer", defaultReferer)
	v.SetDefault("request-timeout", 15*time.Second)
	v.SetDefault("proxy-timeout", 30*time.Second)
	v.SetDefault("max-retries", 3)
	v.SetDefault("requests-per-second", 0)
	v.SetDefault("preserve-case-chains", "CT_501,CT_784")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func storageConfig(v *viper.Viper) StorageConfig {
	return StorageConfig{
		Backend:         v.GetString("storage-backend"),
		Endpoint:        v.GetString("r2-endpoint"),
		Bucket:          v.GetString("r2-bucket"),
		AccessKeyID:     v.GetString("r2-access-key-id"),
		SecretAccessKey: v.GetString("r2-secret-access-key"),
		Region:          v.GetString("r2-region"),
		LocalDir:        v.GetString("local-dir"),
	}
}

func upstreamConfig(v *viper.Viper) UpstreamConfig {
	return UpstreamConfig{
		TickerURL:          v.GetString("ticker-url"),
		KlinesURL:          v.GetString("klines-url"),
		SymbolKlinesURL:    v.GetString("symbol-klines-url"),
		SpotURL:            v.GetString("spot-url"),
		ProxyURL:           v.GetString("proxy-url"),
		Referer:            v.GetString("referer"),
		RequestTimeout:     v.GetDuration("request-timeout"),
		ProxyTimeout:       v.GetDuration("proxy-timeout"),
		MaxRetries:         v.GetInt("max-retries"),
		RequestsPerSecond:  v.GetFloat64("requests-per-second"),
		PreserveCaseChains: getStringSlice(v, "preserve-case-chains"),
	}
}

// ParseAsOf parses a run time override (unix seconds or RFC3339). Empty
// input yields the zero time.
func ParseAsOf(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, nil
	}

	if isNumeric(input) {
		val, err := strconv.ParseInt(input, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(val, 0).UTC(), nil
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return time.Time{}, err
	}
	return tm.UTC(), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
